// Package service implements the ledger state machine: balances, total
// supply, allowances and the transfer pipeline that every value movement
// runs through.
//
// Concurrency model: one coarse mutex serializes value-moving operations
// end to end (load config, resolve roles, evaluate policy, apply balances,
// append event). Events are appended while the lock is held, so log order
// equals application order. Throughput is bounded by the relay's settlement
// rate, which is orders of magnitude below what the single lock sustains.
package service

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	ledgermetrics "github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/ledger/metrics"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/ledger/models"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/policy"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain"
	dErrors "github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain-errors"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/platform/events"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/platform/sentinel"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/requestcontext"
)

// Store is the persistence port for ledger state.
type Store interface {
	Config(ctx context.Context) (*models.Config, error)
	PutConfig(ctx context.Context, cfg *models.Config) error
	Balance(ctx context.Context, addr domain.Address) (*big.Int, error)
	SetBalance(ctx context.Context, addr domain.Address, balance *big.Int) error
	TotalSupply(ctx context.Context) (*big.Int, error)
	SetTotalSupply(ctx context.Context, supply *big.Int) error
	Allowance(ctx context.Context, owner, spender domain.Address) (*big.Int, error)
	SetAllowance(ctx context.Context, owner, spender domain.Address, amount *big.Int) error
}

// Parties resolves effective roles at the request time. Expired and unknown
// registrations both resolve to RoleNone.
type Parties interface {
	EffectiveRole(ctx context.Context, addr domain.Address) (domain.Role, error)
}

// Compensator tops a wallet's native balance up to the given floor.
type Compensator interface {
	Compense(ctx context.Context, target domain.Address, floor *big.Int) error
}

// Service is the ledger. All exported methods are safe for concurrent use.
type Service struct {
	mu      sync.Mutex
	store   Store
	parties Parties
	comp    Compensator
	events  events.Log
	metrics *ledgermetrics.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
}

func New(store Store, parties Parties, comp Compensator, log events.Log, metrics *ledgermetrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:   store,
		parties: parties,
		comp:    comp,
		events:  log,
		metrics: metrics,
		logger:  logger,
		tracer:  otel.Tracer("ledger"),
	}
}

// Bootstrap writes the initial configuration if none exists yet. A second
// call is a no-op so restarts never clobber a live config.
func (s *Service) Bootstrap(ctx context.Context, cfg *models.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.store.Config(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load config")
	}
	if cfg.Owner.IsZero() || cfg.Issuer.IsZero() || cfg.Treasury.IsZero() {
		return dErrors.New(dErrors.CodeInvalidAddress, "owner, issuer and treasury must be set")
	}
	if err := s.store.PutConfig(ctx, cfg); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store config")
	}
	return nil
}

// config loads the singleton configuration, required by every operation.
func (s *Service) config(ctx context.Context) (*models.Config, error) {
	cfg, err := s.store.Config(ctx)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeInternal, "ledger is not bootstrapped")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load config")
	}
	return cfg, nil
}

func requireOwner(cfg *models.Config, actor domain.Address) error {
	if actor != cfg.Owner {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not the owner").
			WithDetail("actor", actor.String())
	}
	return nil
}

func requireIssuer(cfg *models.Config, actor domain.Address) error {
	if actor != cfg.Issuer {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not the issuer").
			WithDetail("actor", actor.String())
	}
	return nil
}

func requireOwnerOrIssuer(cfg *models.Config, actor domain.Address) error {
	if actor != cfg.Owner && actor != cfg.Issuer {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is neither owner nor issuer").
			WithDetail("actor", actor.String())
	}
	return nil
}

func requireActive(cfg *models.Config) error {
	if cfg.Paused {
		return dErrors.New(dErrors.CodePaused, "ledger is paused")
	}
	return nil
}

func requireAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return dErrors.New(dErrors.CodeBadRequest, "amount must be a positive integer")
	}
	return nil
}

func requireMinimum(cfg *models.Config, amount *big.Int) error {
	if cfg.MinimumTransfer != nil && amount.Cmp(cfg.MinimumTransfer) < 0 {
		return dErrors.New(dErrors.CodeTransferNotAllowed, "amount below minimum transfer").
			WithDetail("amount", amount.String()).
			WithDetail("minimum", cfg.MinimumTransfer.String())
	}
	return nil
}

// party resolves addr into the policy engine's view. EffectiveRole already
// folds expiry into RoleNone, so validity collapses to "has a role".
func (s *Service) party(ctx context.Context, addr domain.Address) (policy.Party, error) {
	role, err := s.parties.EffectiveRole(ctx, addr)
	if err != nil {
		return policy.Party{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve role")
	}
	return policy.Party{Role: role, Valid: role != domain.RoleNone}, nil
}

// move debits from and credits to. Caller holds the lock.
func (s *Service) move(ctx context.Context, from, to domain.Address, amount *big.Int) error {
	fromBal, err := s.store.Balance(ctx, from)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load balance")
	}
	if fromBal.Cmp(amount) < 0 {
		return dErrors.New(dErrors.CodeTransferNotAllowed, "insufficient balance").
			WithDetail("address", from.String()).
			WithDetail("balance", fromBal.String()).
			WithDetail("amount", amount.String())
	}
	toBal, err := s.store.Balance(ctx, to)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load balance")
	}
	if err := s.store.SetBalance(ctx, from, new(big.Int).Sub(fromBal, amount)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update balance")
	}
	if err := s.store.SetBalance(ctx, to, new(big.Int).Add(toBal, amount)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update balance")
	}
	return nil
}

// burnFrom debits from and shrinks the supply. Caller holds the lock.
func (s *Service) burnFrom(ctx context.Context, from domain.Address, amount *big.Int) error {
	fromBal, err := s.store.Balance(ctx, from)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load balance")
	}
	if fromBal.Cmp(amount) < 0 {
		return dErrors.New(dErrors.CodeTransferNotAllowed, "insufficient balance").
			WithDetail("address", from.String()).
			WithDetail("balance", fromBal.String()).
			WithDetail("amount", amount.String())
	}
	supply, err := s.store.TotalSupply(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load supply")
	}
	if err := s.store.SetBalance(ctx, from, new(big.Int).Sub(fromBal, amount)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update balance")
	}
	if err := s.store.SetTotalSupply(ctx, new(big.Int).Sub(supply, amount)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update supply")
	}
	return nil
}

// spendAllowance decrements spender's allowance from owner, rejecting an
// overspend. Caller holds the lock.
func (s *Service) spendAllowance(ctx context.Context, owner, spender domain.Address, amount *big.Int) error {
	allowance, err := s.store.Allowance(ctx, owner, spender)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load allowance")
	}
	if allowance.Cmp(amount) < 0 {
		return dErrors.New(dErrors.CodeUnauthorized, "allowance exceeded").
			WithDetail("owner", owner.String()).
			WithDetail("spender", spender.String()).
			WithDetail("allowance", allowance.String())
	}
	if err := s.store.SetAllowance(ctx, owner, spender, new(big.Int).Sub(allowance, amount)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update allowance")
	}
	return nil
}

// sponsor asks the compensation pool to top up the given wallets, skipping
// wallets whose resulting token balance is zero. Code-bearing accounts
// (the treasury included) are the pool's call: it audits those skips. Best
// effort: a pool failure never unwinds a settled movement.
func (s *Service) sponsor(ctx context.Context, cfg *models.Config, wallets ...domain.Address) {
	if s.comp == nil || cfg.Compensation.IsZero() {
		return
	}
	for _, w := range wallets {
		if w.IsZero() {
			continue
		}
		bal, err := s.store.Balance(ctx, w)
		if err != nil {
			s.logger.WarnContext(ctx, "sponsorship balance lookup failed", "address", w.String(), "error", err)
			continue
		}
		if bal.Sign() == 0 {
			continue
		}
		if err := s.comp.Compense(ctx, w, cfg.MinimumSponsoredBalance); err != nil {
			s.logger.WarnContext(ctx, "sponsorship failed", "address", w.String(), "error", err)
		}
	}
}

func (s *Service) append(ctx context.Context, e events.Event) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = requestcontext.Now(ctx)
	}
	e.RequestID = requestcontext.RequestID(ctx)
	if err := s.events.Append(ctx, e); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record event")
	}
	return nil
}

func (s *Service) observeTransfer(start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveTransfer(start)
	}
}

func (s *Service) incApplied() {
	if s.metrics != nil {
		s.metrics.IncrementApplied()
	}
}

func (s *Service) incIssued() {
	if s.metrics != nil {
		s.metrics.IncrementIssued()
	}
}

func (s *Service) incRedeemed() {
	if s.metrics != nil {
		s.metrics.IncrementRedeemed()
	}
}

func (s *Service) incRejected() {
	if s.metrics != nil {
		s.metrics.IncrementRejected()
	}
}

func (s *Service) incControllerOverride() {
	if s.metrics != nil {
		s.metrics.IncrementControllerOverride()
	}
}
