package service

import (
	"context"
	"math/big"

	"github.com/google/uuid"

	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain"
	dErrors "github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain-errors"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/platform/events"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/requestcontext"
)

// Pause halts all value-moving operations except the controller channel.
func (s *Service) Pause(ctx context.Context) error {
	return s.setPaused(ctx, true)
}

// Unpause resumes normal operation.
func (s *Service) Unpause(ctx context.Context) error {
	return s.setPaused(ctx, false)
}

func (s *Service) setPaused(ctx context.Context, paused bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.config(ctx)
	if err != nil {
		return err
	}
	if err := requireOwnerOrIssuer(cfg, requestcontext.Actor(ctx)); err != nil {
		return err
	}
	if cfg.Paused == paused {
		if paused {
			return dErrors.New(dErrors.CodeConflict, "ledger is already paused")
		}
		return dErrors.New(dErrors.CodeConflict, "ledger is not paused")
	}

	cfg.Paused = paused
	if err := s.store.PutConfig(ctx, cfg); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store config")
	}

	kind := events.KindPaused
	if !paused {
		kind = events.KindUnpaused
	}
	if err := s.append(ctx, events.Event{
		ID:    uuid.New(),
		Kind:  kind,
		Actor: requestcontext.Actor(ctx),
	}); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "ledger pause state changed", "paused", paused)
	return nil
}

// ChangeIssuer rotates the issuer address. Owner only: the issuer cannot
// hand its own capability to an arbitrary address.
func (s *Service) ChangeIssuer(ctx context.Context, newIssuer domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.config(ctx)
	if err != nil {
		return err
	}
	if err := requireOwner(cfg, requestcontext.Actor(ctx)); err != nil {
		return err
	}
	if newIssuer.IsZero() {
		return dErrors.New(dErrors.CodeInvalidAddress, "issuer must not be zero")
	}

	old := cfg.Issuer
	cfg.Issuer = newIssuer
	if err := s.store.PutConfig(ctx, cfg); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store config")
	}

	if err := s.append(ctx, events.Event{
		ID:    uuid.New(),
		Kind:  events.KindIssuerChanged,
		Actor: requestcontext.Actor(ctx),
		From:  old,
		To:    newIssuer,
	}); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "issuer changed", "old", old.String(), "new", newIssuer.String())
	return nil
}

// SetMinimumTransfer updates the policy floor for transfers and
// redemptions. Issuer only; zero disables the floor.
func (s *Service) SetMinimumTransfer(ctx context.Context, minimum *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.config(ctx)
	if err != nil {
		return err
	}
	if err := requireIssuer(cfg, requestcontext.Actor(ctx)); err != nil {
		return err
	}
	if minimum == nil || minimum.Sign() < 0 {
		return dErrors.New(dErrors.CodeBadRequest, "minimum must be a non-negative integer")
	}

	old := cfg.MinimumTransfer
	cfg.MinimumTransfer = new(big.Int).Set(minimum)
	if err := s.store.PutConfig(ctx, cfg); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store config")
	}

	return s.append(ctx, events.Event{
		ID:    uuid.New(),
		Kind:  events.KindMinimumTransferChanged,
		Actor: requestcontext.Actor(ctx),
		Old:   old,
		New:   minimum,
	})
}

// SetMinimumSponsoredBalance updates the native balance floor the
// compensation pool tops wallets up to. Issuer only.
func (s *Service) SetMinimumSponsoredBalance(ctx context.Context, minimum *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.config(ctx)
	if err != nil {
		return err
	}
	if err := requireIssuer(cfg, requestcontext.Actor(ctx)); err != nil {
		return err
	}
	if minimum == nil || minimum.Sign() < 0 {
		return dErrors.New(dErrors.CodeBadRequest, "minimum must be a non-negative integer")
	}

	old := cfg.MinimumSponsoredBalance
	cfg.MinimumSponsoredBalance = new(big.Int).Set(minimum)
	if err := s.store.PutConfig(ctx, cfg); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store config")
	}

	return s.append(ctx, events.Event{
		ID:    uuid.New(),
		Kind:  events.KindMinimumSponsoredBalanceChanged,
		Actor: requestcontext.Actor(ctx),
		Old:   old,
		New:   minimum,
	})
}

// SetCompensation points the ledger at a compensation pool.
func (s *Service) SetCompensation(ctx context.Context, pool domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.config(ctx)
	if err != nil {
		return err
	}
	if err := requireOwnerOrIssuer(cfg, requestcontext.Actor(ctx)); err != nil {
		return err
	}
	if pool.IsZero() {
		return dErrors.New(dErrors.CodeInvalidAddress, "pool must not be zero")
	}

	old := cfg.Compensation
	cfg.Compensation = pool
	if err := s.store.PutConfig(ctx, cfg); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store config")
	}

	return s.append(ctx, events.Event{
		ID:    uuid.New(),
		Kind:  events.KindCompensationChanged,
		Actor: requestcontext.Actor(ctx),
		From:  old,
		To:    pool,
	})
}
