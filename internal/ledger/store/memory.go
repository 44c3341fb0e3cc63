// Package store persists ledger state: balances, allowances, total supply
// and the singleton configuration record.
package store

import (
	"context"
	"math/big"
	"sync"

	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/ledger/models"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/platform/sentinel"
)

type allowanceKey struct {
	owner   domain.Address
	spender domain.Address
}

// MemoryStore is the in-memory ledger state for unit tests and
// single-process deployments. Consistency across balances and supply is the
// service's job (it holds the operation lock); the store lock only guards
// the maps.
type MemoryStore struct {
	mu         sync.RWMutex
	config     *models.Config
	balances   map[domain.Address]*big.Int
	allowances map[allowanceKey]*big.Int
	supply     *big.Int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		balances:   make(map[domain.Address]*big.Int),
		allowances: make(map[allowanceKey]*big.Int),
		supply:     new(big.Int),
	}
}

func (s *MemoryStore) Config(_ context.Context) (*models.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.config == nil {
		return nil, sentinel.ErrNotFound
	}
	return s.config.Clone(), nil
}

func (s *MemoryStore) PutConfig(_ context.Context, cfg *models.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.config = cfg.Clone()
	return nil
}

func (s *MemoryStore) Balance(_ context.Context, addr domain.Address) (*big.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if b, ok := s.balances[addr]; ok {
		return new(big.Int).Set(b), nil
	}
	return new(big.Int), nil
}

func (s *MemoryStore) SetBalance(_ context.Context, addr domain.Address, balance *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if balance.Sign() == 0 {
		delete(s.balances, addr)
		return nil
	}
	s.balances[addr] = new(big.Int).Set(balance)
	return nil
}

func (s *MemoryStore) TotalSupply(_ context.Context) (*big.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return new(big.Int).Set(s.supply), nil
}

func (s *MemoryStore) SetTotalSupply(_ context.Context, supply *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.supply = new(big.Int).Set(supply)
	return nil
}

func (s *MemoryStore) Allowance(_ context.Context, owner, spender domain.Address) (*big.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if a, ok := s.allowances[allowanceKey{owner, spender}]; ok {
		return new(big.Int).Set(a), nil
	}
	return new(big.Int), nil
}

func (s *MemoryStore) SetAllowance(_ context.Context, owner, spender domain.Address, amount *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := allowanceKey{owner, spender}
	if amount.Sign() == 0 {
		delete(s.allowances, key)
		return nil
	}
	s.allowances[key] = new(big.Int).Set(amount)
	return nil
}
