package model

import "fmt"

// ContractType is the kind of a token-issuing contract.
type ContractType string

const (
	ContractTypeOther   ContractType = "other"
	ContractTypeERC721  ContractType = "erc721"
	ContractTypeERC1155 ContractType = "erc1155"
	// ContractTypeUnruggable marks memecoins created through the unruggable factory.
	ContractTypeUnruggable ContractType = "unruggable"
)

// ParseContractType converts a stored value back to a ContractType.
func ParseContractType(s string) (ContractType, error) {
	switch ContractType(s) {
	case ContractTypeOther, ContractTypeERC721, ContractTypeERC1155, ContractTypeUnruggable:
		return ContractType(s), nil
	default:
		return "", fmt.Errorf("unknown contract type: %q", s)
	}
}

// ContractInfo holds metadata about a token contract.
type ContractInfo struct {
	ContractAddress string       `json:"contract_address"`
	ContractType    ContractType `json:"contract_type"`
	Name            *string      `json:"name,omitempty"`
	Symbol          *string      `json:"symbol,omitempty"`
	Image           *string      `json:"image,omitempty"`
}

// MemecoinCreatedEvent is the decoded payload of a MemecoinCreated event.
type MemecoinCreatedEvent struct {
	Owner           string `json:"owner"`
	Name            string `json:"name"`
	Symbol          string `json:"symbol"`
	InitialSupply   string `json:"initial_supply"`
	MemecoinAddress string `json:"memecoin_address"`
}
