package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/party/models"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/platform/sentinel"
)

// PostgresStore persists party records. Addresses are stored in their hex
// form so operators can query the table directly.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Schema is the DDL for the parties table. Applied by migrations; exposed
// for integration test bootstrap.
const Schema = `
CREATE TABLE IF NOT EXISTS parties (
	address       TEXT PRIMARY KEY,
	role          SMALLINT    NOT NULL,
	expiration    TIMESTAMPTZ NOT NULL,
	attached_data BYTEA,
	updated_at    TIMESTAMPTZ NOT NULL
);
`

func (s *PostgresStore) Get(ctx context.Context, addr domain.Address) (*models.Record, error) {
	query := `
		SELECT role, expiration, attached_data
		FROM parties
		WHERE address = $1
	`
	var (
		role       int16
		expiration time.Time
		data       []byte
	)
	err := s.db.QueryRowContext(ctx, query, addr.String()).Scan(&role, &expiration, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select party: %w", err)
	}

	parsed, err := domain.ParseRole(uint8(role))
	if err != nil {
		return nil, fmt.Errorf("stored party %s: %w", addr, err)
	}
	return &models.Record{
		Address:      addr,
		Role:         parsed,
		Expiration:   expiration,
		AttachedData: data,
	}, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, rec *models.Record) error {
	query := `
		INSERT INTO parties (address, role, expiration, attached_data, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (address) DO UPDATE
		SET role = EXCLUDED.role,
		    expiration = EXCLUDED.expiration,
		    attached_data = EXCLUDED.attached_data,
		    updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.Address.String(), int16(rec.Role), rec.Expiration, rec.AttachedData, time.Now())
	if err != nil {
		return fmt.Errorf("upsert party: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, addr domain.Address) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM parties WHERE address = $1`, addr.String())
	if err != nil {
		return fmt.Errorf("delete party: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete party: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
