// Package native tracks native (gas) balances of participant wallets. The
// pool reads wallet balances and code markers here and credits payouts
// through it.
package native

import (
	"context"
	"math/big"
	"sync"

	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain"
)

// MemorySource is the in-process native balance book. A chain-backed
// adapter implements the same surface in deployments that settle against a
// real network.
type MemorySource struct {
	mu        sync.RWMutex
	balances  map[domain.Address]*big.Int
	contracts map[domain.Address]bool
}

func NewMemorySource() *MemorySource {
	return &MemorySource{
		balances:  make(map[domain.Address]*big.Int),
		contracts: make(map[domain.Address]bool),
	}
}

func (m *MemorySource) BalanceOf(_ context.Context, addr domain.Address) (*big.Int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if b, ok := m.balances[addr]; ok {
		return new(big.Int).Set(b), nil
	}
	return new(big.Int), nil
}

// HasCode reports whether addr is a contract account. Contract accounts are
// never sponsored: they pay their own way.
func (m *MemorySource) HasCode(_ context.Context, addr domain.Address) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.contracts[addr], nil
}

// Credit adds amount to addr's native balance.
func (m *MemorySource) Credit(_ context.Context, addr domain.Address, amount *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.balances[addr]
	if !ok {
		cur = new(big.Int)
	}
	m.balances[addr] = new(big.Int).Add(cur, amount)
	return nil
}

// SetBalance pins addr's native balance. Test and bootstrap helper.
func (m *MemorySource) SetBalance(addr domain.Address, amount *big.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.balances[addr] = new(big.Int).Set(amount)
}

// MarkContract flags addr as a contract account. Test and bootstrap helper.
func (m *MemorySource) MarkContract(addr domain.Address) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.contracts[addr] = true
}
