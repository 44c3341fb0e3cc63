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

// Controller channel: forced movements for regulatory intervention. These
// bypass the pause flag and the transfer policy but never the issuer check
// or balance sufficiency. Every override records the caller-supplied data,
// the operator audit blob and the client device.

// ControllerTransfer force-moves amount between two wallets.
func (s *Service) ControllerTransfer(ctx context.Context, from, to domain.Address, amount *big.Int, data, operatorData []byte) error {
	ctx, span := s.tracer.Start(ctx, "ledger.ControllerTransfer")
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
	if err := requireAmount(amount); err != nil {
		return err
	}
	if from.IsZero() || to.IsZero() {
		return dErrors.New(dErrors.CodeInvalidAddress, "from and to must not be zero")
	}

	if err := s.move(ctx, from, to, amount); err != nil {
		return err
	}

	if err := s.append(ctx, events.Event{
		ID:           uuid.New(),
		Kind:         events.KindControllerTransfer,
		Actor:        requestcontext.Actor(ctx),
		From:         from,
		To:           to,
		Amount:       amount,
		Data:         data,
		OperatorData: operatorData,
		Device:       requestcontext.Device(ctx),
	}); err != nil {
		return err
	}

	s.incControllerOverride()
	s.logger.WarnContext(ctx, "controller transfer applied",
		"from", from.String(), "to", to.String(), "amount", amount.String())
	s.sponsor(ctx, cfg, from, to)
	return nil
}

// ControllerRedeem force-burns amount from a wallet.
func (s *Service) ControllerRedeem(ctx context.Context, from domain.Address, amount *big.Int, data, operatorData []byte) error {
	ctx, span := s.tracer.Start(ctx, "ledger.ControllerRedeem")
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
	if err := requireAmount(amount); err != nil {
		return err
	}
	if from.IsZero() {
		return dErrors.New(dErrors.CodeInvalidAddress, "from must not be zero")
	}

	if err := s.burnFrom(ctx, from, amount); err != nil {
		return err
	}

	if err := s.append(ctx, events.Event{
		ID:           uuid.New(),
		Kind:         events.KindControllerRedemption,
		Actor:        requestcontext.Actor(ctx),
		From:         from,
		Amount:       amount,
		Data:         data,
		OperatorData: operatorData,
		Device:       requestcontext.Device(ctx),
	}); err != nil {
		return err
	}

	s.incControllerOverride()
	s.logger.WarnContext(ctx, "controller redemption applied",
		"from", from.String(), "amount", amount.String())
	s.sponsor(ctx, cfg, from)
	return nil
}
