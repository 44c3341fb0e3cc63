package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/ledger/models"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/platform/sentinel"
)

// PostgresStore persists ledger state. Amounts are NUMERIC(78,0) so the
// full 256-bit token range round-trips without loss; they travel as decimal
// strings on the wire.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Schema is the DDL for the ledger tables. Applied by migrations; exposed
// for integration test bootstrap.
const Schema = `
CREATE TABLE IF NOT EXISTS ledger_config (
	id                        SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
	owner_address             TEXT NOT NULL,
	issuer_address            TEXT NOT NULL,
	treasury_address          TEXT NOT NULL,
	compensation_address      TEXT NOT NULL,
	minimum_transfer          NUMERIC(78,0) NOT NULL,
	minimum_sponsored_balance NUMERIC(78,0) NOT NULL,
	paused                    BOOLEAN NOT NULL,
	updated_at                TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS ledger_accounts (
	address    TEXT PRIMARY KEY,
	balance    NUMERIC(78,0) NOT NULL CHECK (balance >= 0),
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS ledger_allowances (
	owner_address   TEXT NOT NULL,
	spender_address TEXT NOT NULL,
	amount          NUMERIC(78,0) NOT NULL CHECK (amount >= 0),
	updated_at      TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (owner_address, spender_address)
);

CREATE TABLE IF NOT EXISTS ledger_supply (
	id         SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
	supply     NUMERIC(78,0) NOT NULL CHECK (supply >= 0),
	updated_at TIMESTAMPTZ NOT NULL
);
`

func (s *PostgresStore) Config(ctx context.Context) (*models.Config, error) {
	query := `
		SELECT owner_address, issuer_address, treasury_address, compensation_address,
		       minimum_transfer::TEXT, minimum_sponsored_balance::TEXT, paused
		FROM ledger_config
		WHERE id = 1
	`
	var (
		owner, issuer, treasury, compensation string
		minTransfer, minSponsored             string
		paused                                bool
	)
	err := s.db.QueryRowContext(ctx, query).Scan(
		&owner, &issuer, &treasury, &compensation, &minTransfer, &minSponsored, &paused)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select config: %w", err)
	}

	cfg := &models.Config{Paused: paused}
	for _, f := range []struct {
		dst *domain.Address
		raw string
	}{
		{&cfg.Owner, owner},
		{&cfg.Issuer, issuer},
		{&cfg.Treasury, treasury},
		{&cfg.Compensation, compensation},
	} {
		addr, err := domain.ParseAddress(f.raw)
		if err != nil {
			return nil, fmt.Errorf("stored config address %q: %w", f.raw, err)
		}
		*f.dst = addr
	}
	if cfg.MinimumTransfer, err = parseNumeric(minTransfer); err != nil {
		return nil, fmt.Errorf("stored minimum transfer: %w", err)
	}
	if cfg.MinimumSponsoredBalance, err = parseNumeric(minSponsored); err != nil {
		return nil, fmt.Errorf("stored minimum sponsored balance: %w", err)
	}
	return cfg, nil
}

func (s *PostgresStore) PutConfig(ctx context.Context, cfg *models.Config) error {
	query := `
		INSERT INTO ledger_config
			(id, owner_address, issuer_address, treasury_address, compensation_address,
			 minimum_transfer, minimum_sponsored_balance, paused, updated_at)
		VALUES (1, $1, $2, $3, $4, $5::NUMERIC, $6::NUMERIC, $7, $8)
		ON CONFLICT (id) DO UPDATE
		SET owner_address = EXCLUDED.owner_address,
		    issuer_address = EXCLUDED.issuer_address,
		    treasury_address = EXCLUDED.treasury_address,
		    compensation_address = EXCLUDED.compensation_address,
		    minimum_transfer = EXCLUDED.minimum_transfer,
		    minimum_sponsored_balance = EXCLUDED.minimum_sponsored_balance,
		    paused = EXCLUDED.paused,
		    updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		cfg.Owner.String(), cfg.Issuer.String(), cfg.Treasury.String(), cfg.Compensation.String(),
		domain.AmountString(cfg.MinimumTransfer), domain.AmountString(cfg.MinimumSponsoredBalance),
		cfg.Paused, time.Now())
	if err != nil {
		return fmt.Errorf("upsert config: %w", err)
	}
	return nil
}

func (s *PostgresStore) Balance(ctx context.Context, addr domain.Address) (*big.Int, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT balance::TEXT FROM ledger_accounts WHERE address = $1`, addr.String()).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return new(big.Int), nil
	}
	if err != nil {
		return nil, fmt.Errorf("select balance: %w", err)
	}
	return parseNumeric(raw)
}

func (s *PostgresStore) SetBalance(ctx context.Context, addr domain.Address, balance *big.Int) error {
	if balance.Sign() == 0 {
		_, err := s.db.ExecContext(ctx,
			`DELETE FROM ledger_accounts WHERE address = $1`, addr.String())
		if err != nil {
			return fmt.Errorf("clear balance: %w", err)
		}
		return nil
	}
	query := `
		INSERT INTO ledger_accounts (address, balance, updated_at)
		VALUES ($1, $2::NUMERIC, $3)
		ON CONFLICT (address) DO UPDATE
		SET balance = EXCLUDED.balance, updated_at = EXCLUDED.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, addr.String(), balance.String(), time.Now()); err != nil {
		return fmt.Errorf("upsert balance: %w", err)
	}
	return nil
}

func (s *PostgresStore) TotalSupply(ctx context.Context) (*big.Int, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT supply::TEXT FROM ledger_supply WHERE id = 1`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return new(big.Int), nil
	}
	if err != nil {
		return nil, fmt.Errorf("select supply: %w", err)
	}
	return parseNumeric(raw)
}

func (s *PostgresStore) SetTotalSupply(ctx context.Context, supply *big.Int) error {
	query := `
		INSERT INTO ledger_supply (id, supply, updated_at)
		VALUES (1, $1::NUMERIC, $2)
		ON CONFLICT (id) DO UPDATE
		SET supply = EXCLUDED.supply, updated_at = EXCLUDED.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, supply.String(), time.Now()); err != nil {
		return fmt.Errorf("upsert supply: %w", err)
	}
	return nil
}

func (s *PostgresStore) Allowance(ctx context.Context, owner, spender domain.Address) (*big.Int, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT amount::TEXT FROM ledger_allowances WHERE owner_address = $1 AND spender_address = $2`,
		owner.String(), spender.String()).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return new(big.Int), nil
	}
	if err != nil {
		return nil, fmt.Errorf("select allowance: %w", err)
	}
	return parseNumeric(raw)
}

func (s *PostgresStore) SetAllowance(ctx context.Context, owner, spender domain.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		_, err := s.db.ExecContext(ctx,
			`DELETE FROM ledger_allowances WHERE owner_address = $1 AND spender_address = $2`,
			owner.String(), spender.String())
		if err != nil {
			return fmt.Errorf("clear allowance: %w", err)
		}
		return nil
	}
	query := `
		INSERT INTO ledger_allowances (owner_address, spender_address, amount, updated_at)
		VALUES ($1, $2, $3::NUMERIC, $4)
		ON CONFLICT (owner_address, spender_address) DO UPDATE
		SET amount = EXCLUDED.amount, updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query, owner.String(), spender.String(), amount.String(), time.Now())
	if err != nil {
		return fmt.Errorf("upsert allowance: %w", err)
	}
	return nil
}

func parseNumeric(raw string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("malformed numeric %q", raw)
	}
	return v, nil
}
