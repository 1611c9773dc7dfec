// Package mocks provides testify mocks of the chain interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"starkScope/internal/chain"
	"starkScope/internal/felt"
)

type Caller struct {
	mock.Mock
}

var _ chain.Caller = (*Caller)(nil)

func (m *Caller) CallContract(ctx context.Context, address, selector felt.Felt, calldata []felt.Felt, block chain.BlockID) ([]felt.Felt, error) {
	args := m.Called(ctx, address, selector, calldata, block)
	out, _ := args.Get(0).([]felt.Felt)
	return out, args.Error(1)
}
