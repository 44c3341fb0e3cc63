package service

import (
	"context"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/policy"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain"
	dErrors "github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain-errors"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/platform/events"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/requestcontext"
)

// movement is one pass through the transfer pipeline.
type movement struct {
	operator      domain.Address // caller; equals from unless spending an allowance
	from          domain.Address
	to            domain.Address
	amount        *big.Int
	data          []byte
	withData      bool
	fromAllowance bool
}

// Transfer moves amount from the caller to recipient under policy.
func (s *Service) Transfer(ctx context.Context, to domain.Address, amount *big.Int) error {
	ctx, span := s.tracer.Start(ctx, "ledger.Transfer")
	defer span.End()

	actor := requestcontext.Actor(ctx)
	return s.transfer(ctx, movement{operator: actor, from: actor, to: to, amount: amount})
}

// TransferWithData is Transfer carrying an opaque settlement blob.
func (s *Service) TransferWithData(ctx context.Context, to domain.Address, amount *big.Int, data []byte) error {
	ctx, span := s.tracer.Start(ctx, "ledger.TransferWithData")
	defer span.End()

	actor := requestcontext.Actor(ctx)
	return s.transfer(ctx, movement{operator: actor, from: actor, to: to, amount: amount, data: data, withData: true})
}

// TransferFrom moves amount from owner to recipient, spending the caller's
// allowance. Policy applies to the owner and recipient, not the operator.
func (s *Service) TransferFrom(ctx context.Context, from, to domain.Address, amount *big.Int) error {
	ctx, span := s.tracer.Start(ctx, "ledger.TransferFrom")
	defer span.End()

	actor := requestcontext.Actor(ctx)
	return s.transfer(ctx, movement{operator: actor, from: from, to: to, amount: amount, fromAllowance: true})
}

// TransferFromWithData is TransferFrom carrying an opaque settlement blob.
func (s *Service) TransferFromWithData(ctx context.Context, from, to domain.Address, amount *big.Int, data []byte) error {
	ctx, span := s.tracer.Start(ctx, "ledger.TransferFromWithData")
	defer span.End()

	actor := requestcontext.Actor(ctx)
	return s.transfer(ctx, movement{operator: actor, from: from, to: to, amount: amount, data: data, withData: true, fromAllowance: true})
}

func (s *Service) transfer(ctx context.Context, mv movement) error {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.observeTransfer(start)

	cfg, err := s.config(ctx)
	if err != nil {
		return err
	}
	if err := requireActive(cfg); err != nil {
		return err
	}
	if err := requireAmount(mv.amount); err != nil {
		return err
	}
	if mv.to.IsZero() {
		return dErrors.New(dErrors.CodeInvalidAddress, "recipient must not be zero")
	}

	sender, err := s.party(ctx, mv.from)
	if err != nil {
		return err
	}
	recipient, err := s.party(ctx, mv.to)
	if err != nil {
		return err
	}
	if !policy.TransferAllowed(sender, recipient, mv.amount, cfg.MinimumTransfer) {
		s.incRejected()
		return dErrors.New(dErrors.CodeTransferNotAllowed, "transfer rejected by policy").
			WithDetail("from", mv.from.String()).
			WithDetail("to", mv.to.String()).
			WithDetail("amount", mv.amount.String())
	}

	if mv.fromAllowance {
		if err := s.spendAllowance(ctx, mv.from, mv.operator, mv.amount); err != nil {
			return err
		}
	}
	if err := s.move(ctx, mv.from, mv.to, mv.amount); err != nil {
		s.incRejected()
		return err
	}

	kind := events.KindTransfer
	if mv.withData {
		kind = events.KindTransferWithData
	}
	if err := s.append(ctx, events.Event{
		ID:     uuid.New(),
		Kind:   kind,
		Actor:  mv.operator,
		From:   mv.from,
		To:     mv.to,
		Amount: mv.amount,
		Data:   mv.data,
	}); err != nil {
		return err
	}

	s.incApplied()
	s.sponsor(ctx, cfg, mv.from, mv.to)
	return nil
}

// Redeem burns amount from the caller's balance. Only a valid Merchant may
// redeem; the burned value leaves the total supply.
func (s *Service) Redeem(ctx context.Context, amount *big.Int, data []byte) error {
	ctx, span := s.tracer.Start(ctx, "ledger.Redeem")
	defer span.End()

	actor := requestcontext.Actor(ctx)
	return s.redeem(ctx, actor, actor, amount, data, false)
}

// RedeemFrom burns amount from owner's balance, spending the caller's
// allowance. The redemption policy applies to the owner.
func (s *Service) RedeemFrom(ctx context.Context, from domain.Address, amount *big.Int, data []byte) error {
	ctx, span := s.tracer.Start(ctx, "ledger.RedeemFrom")
	defer span.End()

	return s.redeem(ctx, requestcontext.Actor(ctx), from, amount, data, true)
}

func (s *Service) redeem(ctx context.Context, operator, holder domain.Address, amount *big.Int, data []byte, fromAllowance bool) error {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.observeTransfer(start)

	cfg, err := s.config(ctx)
	if err != nil {
		return err
	}
	if err := requireActive(cfg); err != nil {
		return err
	}
	if err := requireAmount(amount); err != nil {
		return err
	}

	holderParty, err := s.party(ctx, holder)
	if err != nil {
		return err
	}
	if !policy.RedeemAllowed(holderParty, amount, cfg.MinimumTransfer) {
		s.incRejected()
		return dErrors.New(dErrors.CodeTransferNotAllowed, "redemption rejected by policy").
			WithDetail("holder", holder.String()).
			WithDetail("amount", amount.String())
	}

	if fromAllowance {
		if err := s.spendAllowance(ctx, holder, operator, amount); err != nil {
			return err
		}
	}
	if err := s.burnFrom(ctx, holder, amount); err != nil {
		s.incRejected()
		return err
	}

	if err := s.append(ctx, events.Event{
		ID:     uuid.New(),
		Kind:   events.KindRedeemed,
		Actor:  operator,
		From:   holder,
		Amount: amount,
		Data:   data,
	}); err != nil {
		return err
	}

	s.incRedeemed()
	s.sponsor(ctx, cfg, holder)
	return nil
}

// CanTransfer is the side-effect-free probe of the transfer pipeline. A
// zero recipient probes a redemption. The returned status follows the
// EIP-1066 convention (0x01 accepted, 0x50 rejected); the reason names the
// first failing rule.
func (s *Service) CanTransfer(ctx context.Context, from, to domain.Address, amount *big.Int) (bool, policy.Status, string, error) {
	ctx, span := s.tracer.Start(ctx, "ledger.CanTransfer")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.config(ctx)
	if err != nil {
		return false, policy.StatusTransferFailed, "", err
	}
	if cfg.Paused {
		return false, policy.StatusTransferFailed, "ledger is paused", nil
	}

	sender, err := s.party(ctx, from)
	if err != nil {
		return false, policy.StatusTransferFailed, "", err
	}
	var recipient policy.Party
	burning := to.IsZero()
	if !burning {
		if recipient, err = s.party(ctx, to); err != nil {
			return false, policy.StatusTransferFailed, "", err
		}
	}

	ok, status, reason := policy.Probe(sender, recipient, burning, amount, cfg.MinimumTransfer)
	return ok, status, reason, nil
}
