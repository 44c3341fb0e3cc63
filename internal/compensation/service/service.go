// Package service implements the compensation pool: a reserve of native
// funds that keeps participant wallets able to pay for their own
// transactions. The ledger asks the pool to top a wallet up after each
// settlement; the pool decides whether a payment is due.
package service

//go:generate mockgen -source=service.go -destination=mocks/collaborators.go -package=mocks

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"sync"

	"github.com/google/uuid"

	compmetrics "github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/compensation/metrics"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/compensation/models"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain"
	dErrors "github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain-errors"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/platform/events"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/platform/sentinel"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/requestcontext"
)

// Store is the persistence port for pool state.
type Store interface {
	Config(ctx context.Context) (*models.Config, error)
	PutConfig(ctx context.Context, cfg *models.Config) error
	Balance(ctx context.Context) (*big.Int, error)
	SetBalance(ctx context.Context, balance *big.Int) error
	IsAllowed(ctx context.Context, addr domain.Address) (bool, error)
	SetAllowed(ctx context.Context, addr domain.Address, allowed bool) error
}

// NativeSource reads participant wallets' native balances and code markers
// and credits payouts.
type NativeSource interface {
	BalanceOf(ctx context.Context, addr domain.Address) (*big.Int, error)
	HasCode(ctx context.Context, addr domain.Address) (bool, error)
	Credit(ctx context.Context, addr domain.Address, amount *big.Int) error
}

// Service is the pool. All exported methods are safe for concurrent use.
type Service struct {
	mu      sync.Mutex
	store   Store
	native  NativeSource
	events  events.Log
	metrics *compmetrics.Metrics
	logger  *slog.Logger
}

func New(store Store, native NativeSource, log events.Log, metrics *compmetrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:   store,
		native:  native,
		events:  log,
		metrics: metrics,
		logger:  logger,
	}
}

// Bootstrap writes the initial pool configuration if none exists yet. The
// given callers are allow-listed for payout requests; in practice that is
// the ledger's own identity.
func (s *Service) Bootstrap(ctx context.Context, cfg *models.Config, allowedCallers ...domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.store.Config(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load pool config")
	}
	if cfg.Owner.IsZero() || cfg.Issuer.IsZero() {
		return dErrors.New(dErrors.CodeInvalidAddress, "pool owner and issuer must be set")
	}
	if err := s.store.PutConfig(ctx, cfg); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store pool config")
	}
	for _, caller := range allowedCallers {
		if err := s.store.SetAllowed(ctx, caller, true); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to allow caller")
		}
	}
	return nil
}

// Deposit adds native funds to the pool. Anyone may fund the pool while it
// is not paused.
func (s *Service) Deposit(ctx context.Context, amount *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.config(ctx)
	if err != nil {
		return err
	}
	if cfg.Paused {
		return dErrors.New(dErrors.CodePaused, "pool is paused")
	}
	if amount == nil || amount.Sign() <= 0 {
		return dErrors.New(dErrors.CodeBadRequest, "amount must be a positive integer")
	}

	old, err := s.store.Balance(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load pool balance")
	}
	updated := new(big.Int).Add(old, amount)
	if err := s.store.SetBalance(ctx, updated); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update pool balance")
	}

	if err := s.append(ctx, events.Event{
		Kind:   events.KindPoolBalanceIncreased,
		Actor:  requestcontext.Actor(ctx),
		Amount: amount,
		Old:    old,
		New:    updated,
	}); err != nil {
		return err
	}

	s.incDeposits()
	s.logger.InfoContext(ctx, "pool funded", "amount", amount.String(), "balance", updated.String())
	return nil
}

// AllowCaller grants addr the right to request payouts. Issuer only.
func (s *Service) AllowCaller(ctx context.Context, addr domain.Address) error {
	return s.setAllowed(ctx, addr, true)
}

// DisallowCaller revokes addr's payout right. Issuer only.
func (s *Service) DisallowCaller(ctx context.Context, addr domain.Address) error {
	return s.setAllowed(ctx, addr, false)
}

func (s *Service) setAllowed(ctx context.Context, addr domain.Address, allowed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.config(ctx)
	if err != nil {
		return err
	}
	if err := requireIssuer(cfg, requestcontext.Actor(ctx)); err != nil {
		return err
	}
	if addr.IsZero() {
		return dErrors.New(dErrors.CodeInvalidAddress, "caller address must not be zero")
	}

	if err := s.store.SetAllowed(ctx, addr, allowed); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update allow-list")
	}
	return s.append(ctx, events.Event{
		Kind:    events.KindCallerAllowed,
		Actor:   requestcontext.Actor(ctx),
		Target:  addr,
		Allowed: allowed,
	})
}

// Compense tops target's native balance up to floor. Caller is the
// requesting system (the ledger, or the issuer directly); it must be on the
// allow-list. A payout is skipped for contract accounts and for wallets
// already at or above the floor. When the pool cannot cover the full
// deficit it pays what it holds; a shortfall is never an error.
func (s *Service) Compense(ctx context.Context, caller, target domain.Address, floor *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.config(ctx)
	if err != nil {
		return err
	}
	if cfg.Paused {
		return dErrors.New(dErrors.CodePaused, "pool is paused")
	}
	if target.IsZero() {
		return dErrors.New(dErrors.CodeInvalidAddress, "target must not be zero")
	}
	if caller != cfg.Issuer {
		allowed, err := s.store.IsAllowed(ctx, caller)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check allow-list")
		}
		if !allowed {
			return dErrors.New(dErrors.CodeUnauthorized, "caller is not allowed to request payouts").
				WithDetail("caller", caller.String())
		}
	}

	hasCode, err := s.native.HasCode(ctx, target)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to inspect target")
	}
	if hasCode {
		return s.skip(ctx, caller, target, "contract account")
	}

	walletBal, err := s.native.BalanceOf(ctx, target)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load native balance")
	}
	if floor == nil || walletBal.Cmp(floor) >= 0 {
		return s.skip(ctx, caller, target, "wallet already funded")
	}

	poolBal, err := s.store.Balance(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load pool balance")
	}
	deficit := new(big.Int).Sub(floor, walletBal)
	paid := deficit
	if poolBal.Cmp(deficit) < 0 {
		paid = poolBal
	}
	if paid.Sign() == 0 {
		return s.skip(ctx, caller, target, "pool is empty")
	}

	remaining := new(big.Int).Sub(poolBal, paid)
	if err := s.store.SetBalance(ctx, remaining); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update pool balance")
	}
	if err := s.native.Credit(ctx, target, paid); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to credit target")
	}

	if err := s.append(ctx, events.Event{
		Kind:  events.KindPoolBalanceDecreased,
		Actor: caller,
		Old:   poolBal,
		New:   remaining,
	}); err != nil {
		return err
	}
	if err := s.append(ctx, events.Event{
		Kind:   events.KindPaymentMade,
		Actor:  caller,
		Target: target,
		Amount: paid,
	}); err != nil {
		return err
	}

	s.incPayments()
	s.logger.InfoContext(ctx, "sponsorship paid",
		"target", target.String(), "amount", paid.String(), "pool_balance", remaining.String())
	return nil
}

// TransferAllFunds sweeps the whole pool balance to a recipient wallet.
// Issuer only; used when decommissioning or migrating the pool.
func (s *Service) TransferAllFunds(ctx context.Context, to domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.config(ctx)
	if err != nil {
		return err
	}
	if err := requireIssuer(cfg, requestcontext.Actor(ctx)); err != nil {
		return err
	}
	if to.IsZero() {
		return dErrors.New(dErrors.CodeInvalidAddress, "recipient must not be zero")
	}

	bal, err := s.store.Balance(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load pool balance")
	}
	if bal.Sign() == 0 {
		return nil
	}

	if err := s.store.SetBalance(ctx, new(big.Int)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update pool balance")
	}
	if err := s.native.Credit(ctx, to, bal); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to credit recipient")
	}

	return s.append(ctx, events.Event{
		Kind:   events.KindPoolBalanceDecreased,
		Actor:  requestcontext.Actor(ctx),
		Target: to,
		Old:    bal,
		New:    new(big.Int),
	})
}

// ChangeIssuer rotates the pool issuer. Owner only.
func (s *Service) ChangeIssuer(ctx context.Context, newIssuer domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.config(ctx)
	if err != nil {
		return err
	}
	if requestcontext.Actor(ctx) != cfg.Owner {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not the pool owner")
	}
	if newIssuer.IsZero() {
		return dErrors.New(dErrors.CodeInvalidAddress, "issuer must not be zero")
	}

	old := cfg.Issuer
	cfg.Issuer = newIssuer
	if err := s.store.PutConfig(ctx, cfg); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store pool config")
	}
	return s.append(ctx, events.Event{
		Kind:  events.KindPoolIssuerChanged,
		Actor: requestcontext.Actor(ctx),
		From:  old,
		To:    newIssuer,
	})
}

// Pause halts deposits and payouts. Owner or issuer.
func (s *Service) Pause(ctx context.Context) error {
	return s.setPaused(ctx, true)
}

// Unpause resumes the pool. Owner or issuer.
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
	actor := requestcontext.Actor(ctx)
	if actor != cfg.Owner && actor != cfg.Issuer {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is neither pool owner nor issuer")
	}
	if cfg.Paused == paused {
		if paused {
			return dErrors.New(dErrors.CodeConflict, "pool is already paused")
		}
		return dErrors.New(dErrors.CodeConflict, "pool is not paused")
	}

	cfg.Paused = paused
	if err := s.store.PutConfig(ctx, cfg); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store pool config")
	}

	kind := events.KindPoolPaused
	if !paused {
		kind = events.KindPoolUnpaused
	}
	return s.append(ctx, events.Event{Kind: kind, Actor: actor})
}

// Balance returns the pool's remaining native funds.
func (s *Service) Balance(ctx context.Context) (*big.Int, error) {
	bal, err := s.store.Balance(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load pool balance")
	}
	return bal, nil
}

// IsAllowed reports whether addr may request payouts.
func (s *Service) IsAllowed(ctx context.Context, addr domain.Address) (bool, error) {
	allowed, err := s.store.IsAllowed(ctx, addr)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check allow-list")
	}
	return allowed, nil
}

func (s *Service) config(ctx context.Context) (*models.Config, error) {
	cfg, err := s.store.Config(ctx)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeInternal, "pool is not bootstrapped")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load pool config")
	}
	return cfg, nil
}

func requireIssuer(cfg *models.Config, actor domain.Address) error {
	if actor != cfg.Issuer {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not the pool issuer").
			WithDetail("actor", actor.String())
	}
	return nil
}

func (s *Service) skip(ctx context.Context, caller, target domain.Address, reason string) error {
	s.incPaymentsSkipped()
	s.logger.DebugContext(ctx, "sponsorship skipped", "target", target.String(), "reason", reason)
	return s.append(ctx, events.Event{
		Kind:   events.KindPaymentSkipped,
		Actor:  caller,
		Target: target,
	})
}

func (s *Service) append(ctx context.Context, e events.Event) error {
	e.ID = uuid.New()
	e.Timestamp = requestcontext.Now(ctx)
	e.RequestID = requestcontext.RequestID(ctx)
	if err := s.events.Append(ctx, e); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record event")
	}
	return nil
}

func (s *Service) incDeposits() {
	if s.metrics != nil {
		s.metrics.IncrementDeposits()
	}
}

func (s *Service) incPayments() {
	if s.metrics != nil {
		s.metrics.IncrementPayments()
	}
}

func (s *Service) incPaymentsSkipped() {
	if s.metrics != nil {
		s.metrics.IncrementPaymentsSkipped()
	}
}
