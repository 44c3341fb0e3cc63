package service

import (
	"context"
	"math/big"

	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain"
	dErrors "github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain-errors"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/requestcontext"
)

// BalanceOf returns addr's token balance, zero for unknown addresses.
func (s *Service) BalanceOf(ctx context.Context, addr domain.Address) (*big.Int, error) {
	bal, err := s.store.Balance(ctx, addr)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load balance")
	}
	return bal, nil
}

// TotalSupply returns the outstanding token supply.
func (s *Service) TotalSupply(ctx context.Context) (*big.Int, error) {
	supply, err := s.store.TotalSupply(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load supply")
	}
	return supply, nil
}

// Allowance returns what spender may still move out of owner's balance.
func (s *Service) Allowance(ctx context.Context, owner, spender domain.Address) (*big.Int, error) {
	allowance, err := s.store.Allowance(ctx, owner, spender)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load allowance")
	}
	return allowance, nil
}

// Approve sets the caller's allowance for spender. Setting zero revokes.
func (s *Service) Approve(ctx context.Context, spender domain.Address, amount *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if spender.IsZero() {
		return dErrors.New(dErrors.CodeInvalidAddress, "spender must not be zero")
	}
	if amount == nil || amount.Sign() < 0 {
		return dErrors.New(dErrors.CodeBadRequest, "amount must be a non-negative integer")
	}

	owner := requestcontext.Actor(ctx)
	if err := s.store.SetAllowance(ctx, owner, spender, amount); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update allowance")
	}
	return nil
}

// TreasuryBalance returns the treasury's current balance. Batch
// distribution checks aggregate sufficiency against this before applying
// any entry.
func (s *Service) TreasuryBalance(ctx context.Context) (*big.Int, error) {
	cfg, err := s.config(ctx)
	if err != nil {
		return nil, err
	}
	bal, err := s.store.Balance(ctx, cfg.Treasury)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load balance")
	}
	return bal, nil
}

// MinimumTransfer returns the configured per-movement floor.
func (s *Service) MinimumTransfer(ctx context.Context) (*big.Int, error) {
	cfg, err := s.config(ctx)
	if err != nil {
		return nil, err
	}
	return cfg.MinimumTransfer, nil
}

// Issuer returns the current issuer address. The party registry consults
// this for its mutation authorization.
func (s *Service) Issuer(ctx context.Context) (domain.Address, error) {
	cfg, err := s.config(ctx)
	if err != nil {
		return domain.ZeroAddress, err
	}
	return cfg.Issuer, nil
}

// Paused reports the pause flag.
func (s *Service) Paused(ctx context.Context) (bool, error) {
	cfg, err := s.config(ctx)
	if err != nil {
		return false, err
	}
	return cfg.Paused, nil
}
