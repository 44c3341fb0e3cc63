package service

import (
	"context"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain"
	dErrors "github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain-errors"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/platform/events"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/requestcontext"
)

// Generate mints amount into the treasury. Issuer only; the minted value
// enters the total supply but touches no party wallet until distributed.
func (s *Service) Generate(ctx context.Context, amount *big.Int) error {
	ctx, span := s.tracer.Start(ctx, "ledger.Generate")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.config(ctx)
	if err != nil {
		return err
	}
	if err := requireIssuer(cfg, requestcontext.Actor(ctx)); err != nil {
		return err
	}
	if err := requireActive(cfg); err != nil {
		return err
	}
	if err := requireAmount(amount); err != nil {
		return err
	}

	treasuryBal, err := s.store.Balance(ctx, cfg.Treasury)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load balance")
	}
	supply, err := s.store.TotalSupply(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load supply")
	}
	if err := s.store.SetBalance(ctx, cfg.Treasury, new(big.Int).Add(treasuryBal, amount)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update balance")
	}
	if err := s.store.SetTotalSupply(ctx, new(big.Int).Add(supply, amount)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update supply")
	}

	if err := s.append(ctx, events.Event{
		ID:     uuid.New(),
		Kind:   events.KindIssued,
		Actor:  requestcontext.Actor(ctx),
		To:     cfg.Treasury,
		Amount: amount,
	}); err != nil {
		return err
	}

	s.incIssued()
	s.logger.InfoContext(ctx, "tokens issued", "amount", amount.String())
	return nil
}

// Distribute pushes amount from the treasury to a recipient wallet. Issuer
// only. Treasury pushes are exempt from the role policy: the program hands
// out value to wallets that may not yet hold a role. The minimum transfer
// threshold still applies.
func (s *Service) Distribute(ctx context.Context, to domain.Address, amount *big.Int, data []byte) error {
	ctx, span := s.tracer.Start(ctx, "ledger.Distribute")
	defer span.End()

	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.observeTransfer(start)

	cfg, err := s.config(ctx)
	if err != nil {
		return err
	}
	if err := requireIssuer(cfg, requestcontext.Actor(ctx)); err != nil {
		return err
	}
	if err := requireActive(cfg); err != nil {
		return err
	}
	if err := requireAmount(amount); err != nil {
		return err
	}
	if err := requireMinimum(cfg, amount); err != nil {
		s.incRejected()
		return err
	}
	if to.IsZero() {
		return dErrors.New(dErrors.CodeInvalidAddress, "recipient must not be zero")
	}

	if err := s.move(ctx, cfg.Treasury, to, amount); err != nil {
		s.incRejected()
		return err
	}

	if err := s.append(ctx, events.Event{
		ID:     uuid.New(),
		Kind:   events.KindTransferWithData,
		Actor:  requestcontext.Actor(ctx),
		From:   cfg.Treasury,
		To:     to,
		Amount: amount,
		Data:   data,
	}); err != nil {
		return err
	}

	s.incApplied()
	s.sponsor(ctx, cfg, to)
	return nil
}

// Compense asks the pool to top target's native balance up to the
// configured floor. Issuer convenience for wallets that ran dry between
// transfers.
func (s *Service) Compense(ctx context.Context, target domain.Address) error {
	ctx, span := s.tracer.Start(ctx, "ledger.Compense")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.config(ctx)
	if err != nil {
		return err
	}
	if err := requireIssuer(cfg, requestcontext.Actor(ctx)); err != nil {
		return err
	}
	if target.IsZero() {
		return dErrors.New(dErrors.CodeInvalidAddress, "target must not be zero")
	}
	if s.comp == nil || cfg.Compensation.IsZero() {
		return dErrors.New(dErrors.CodeConflict, "no compensation pool is wired")
	}
	return s.comp.Compense(ctx, target, cfg.MinimumSponsoredBalance)
}
