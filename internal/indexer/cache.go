package indexer

import (
	"sync"

	"starkScope/internal/model"
)

// contractTypeCache caches contract types by canonical address. Only known
// types are cached so a contract registered later is still picked up.
type contractTypeCache struct {
	mu   sync.RWMutex
	data map[string]model.ContractType
}

func newContractTypeCache() *contractTypeCache {
	return &contractTypeCache{data: make(map[string]model.ContractType)}
}

func (c *contractTypeCache) Get(address string) (model.ContractType, bool) {
	c.mu.RLock()
	ct, ok := c.data[address]
	c.mu.RUnlock()
	return ct, ok
}

func (c *contractTypeCache) Set(address string, ct model.ContractType) {
	c.mu.Lock()
	c.data[address] = ct
	c.mu.Unlock()
}
