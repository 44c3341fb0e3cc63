// Package store persists compensation pool state: the singleton config,
// the pool's own native balance and the caller allow-list.
package store

import (
	"context"
	"math/big"
	"sync"

	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/compensation/models"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/platform/sentinel"
)

// MemoryStore is the in-memory pool state for unit tests and
// single-process deployments.
type MemoryStore struct {
	mu      sync.RWMutex
	config  *models.Config
	balance *big.Int
	allowed map[domain.Address]bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		balance: new(big.Int),
		allowed: make(map[domain.Address]bool),
	}
}

func (s *MemoryStore) Config(_ context.Context) (*models.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.config == nil {
		return nil, sentinel.ErrNotFound
	}
	out := *s.config
	return &out, nil
}

func (s *MemoryStore) PutConfig(_ context.Context, cfg *models.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *cfg
	s.config = &stored
	return nil
}

func (s *MemoryStore) Balance(_ context.Context) (*big.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return new(big.Int).Set(s.balance), nil
}

func (s *MemoryStore) SetBalance(_ context.Context, balance *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.balance = new(big.Int).Set(balance)
	return nil
}

func (s *MemoryStore) IsAllowed(_ context.Context, addr domain.Address) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.allowed[addr], nil
}

func (s *MemoryStore) SetAllowed(_ context.Context, addr domain.Address, allowed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !allowed {
		delete(s.allowed, addr)
		return nil
	}
	s.allowed[addr] = true
	return nil
}
