package store

import (
	"context"
	"sync"

	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/party/models"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/platform/sentinel"
)

// MemoryStore is an in-memory party store for unit tests and single-process
// deployments. For shared deployments use PostgresStore instead.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[domain.Address]models.Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[domain.Address]models.Record)}
}

func (s *MemoryStore) Get(_ context.Context, addr domain.Address) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[addr]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := rec
	out.AttachedData = append([]byte(nil), rec.AttachedData...)
	return &out, nil
}

func (s *MemoryStore) Upsert(_ context.Context, rec *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *rec
	stored.AttachedData = append([]byte(nil), rec.AttachedData...)
	s.records[rec.Address] = stored
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, addr domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[addr]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.records, addr)
	return nil
}
