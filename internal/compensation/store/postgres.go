package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/compensation/models"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/platform/sentinel"
)

// PostgresStore persists pool state.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Schema is the DDL for the pool tables. Applied by migrations; exposed for
// integration test bootstrap.
const Schema = `
CREATE TABLE IF NOT EXISTS pool_config (
	id             SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
	owner_address  TEXT NOT NULL,
	issuer_address TEXT NOT NULL,
	paused         BOOLEAN NOT NULL,
	balance        NUMERIC(78,0) NOT NULL CHECK (balance >= 0),
	updated_at     TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS pool_allowed_callers (
	address    TEXT PRIMARY KEY,
	updated_at TIMESTAMPTZ NOT NULL
);
`

func (s *PostgresStore) Config(ctx context.Context) (*models.Config, error) {
	var (
		owner, issuer string
		paused        bool
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT owner_address, issuer_address, paused FROM pool_config WHERE id = 1`).
		Scan(&owner, &issuer, &paused)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select pool config: %w", err)
	}

	ownerAddr, err := domain.ParseAddress(owner)
	if err != nil {
		return nil, fmt.Errorf("stored pool owner %q: %w", owner, err)
	}
	issuerAddr, err := domain.ParseAddress(issuer)
	if err != nil {
		return nil, fmt.Errorf("stored pool issuer %q: %w", issuer, err)
	}
	return &models.Config{Owner: ownerAddr, Issuer: issuerAddr, Paused: paused}, nil
}

func (s *PostgresStore) PutConfig(ctx context.Context, cfg *models.Config) error {
	query := `
		INSERT INTO pool_config (id, owner_address, issuer_address, paused, balance, updated_at)
		VALUES (1, $1, $2, $3, 0, $4)
		ON CONFLICT (id) DO UPDATE
		SET owner_address = EXCLUDED.owner_address,
		    issuer_address = EXCLUDED.issuer_address,
		    paused = EXCLUDED.paused,
		    updated_at = EXCLUDED.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, cfg.Owner.String(), cfg.Issuer.String(), cfg.Paused, time.Now()); err != nil {
		return fmt.Errorf("upsert pool config: %w", err)
	}
	return nil
}

func (s *PostgresStore) Balance(ctx context.Context) (*big.Int, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT balance::TEXT FROM pool_config WHERE id = 1`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return new(big.Int), nil
	}
	if err != nil {
		return nil, fmt.Errorf("select pool balance: %w", err)
	}
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("malformed pool balance %q", raw)
	}
	return v, nil
}

func (s *PostgresStore) SetBalance(ctx context.Context, balance *big.Int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE pool_config SET balance = $1::NUMERIC, updated_at = $2 WHERE id = 1`,
		balance.String(), time.Now())
	if err != nil {
		return fmt.Errorf("update pool balance: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update pool balance: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) IsAllowed(ctx context.Context, addr domain.Address) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM pool_allowed_callers WHERE address = $1`, addr.String()).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("select allowed caller: %w", err)
	}
	return true, nil
}

func (s *PostgresStore) SetAllowed(ctx context.Context, addr domain.Address, allowed bool) error {
	if !allowed {
		if _, err := s.db.ExecContext(ctx,
			`DELETE FROM pool_allowed_callers WHERE address = $1`, addr.String()); err != nil {
			return fmt.Errorf("delete allowed caller: %w", err)
		}
		return nil
	}
	query := `
		INSERT INTO pool_allowed_callers (address, updated_at)
		VALUES ($1, $2)
		ON CONFLICT (address) DO UPDATE SET updated_at = EXCLUDED.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, addr.String(), time.Now()); err != nil {
		return fmt.Errorf("insert allowed caller: %w", err)
	}
	return nil
}
