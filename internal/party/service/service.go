// Package service implements the party registry: issuer-managed,
// time-bounded role grants that gate every token movement.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	partymetrics "github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/party/metrics"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/party/models"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain"
	dErrors "github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain-errors"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/platform/events"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/platform/sentinel"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/requestcontext"
)

// Store is the persistence port for party records.
type Store interface {
	Get(ctx context.Context, addr domain.Address) (*models.Record, error)
	Upsert(ctx context.Context, rec *models.Record) error
	Delete(ctx context.Context, addr domain.Address) error
}

// IssuerSource resolves the current issuer address. Backed by the ledger
// configuration so an issuer rotation takes effect here immediately.
type IssuerSource interface {
	Issuer(ctx context.Context) (domain.Address, error)
}

// Service orchestrates the registry. All mutations are issuer-only.
type Service struct {
	parties Store
	issuer  IssuerSource
	events  events.Log
	metrics *partymetrics.Metrics
	logger  *slog.Logger
}

func New(parties Store, issuer IssuerSource, log events.Log, metrics *partymetrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		parties: parties,
		issuer:  issuer,
		events:  log,
		metrics: metrics,
		logger:  logger,
	}
}

// AddParty registers addr with a role valid until expiration, or renews an
// existing registration. The role of a registered address never changes in
// place: re-adding with a different role is rejected even after the grant
// has lapsed, since the record survives expiry. Changing the role takes an
// explicit RemoveParty first.
func (s *Service) AddParty(ctx context.Context, addr domain.Address, role domain.Role, expiration time.Time, attachedData []byte) error {
	if err := s.requireIssuer(ctx); err != nil {
		return err
	}
	if addr.IsZero() {
		return dErrors.New(dErrors.CodeInvalidAddress, "party address must not be zero")
	}
	if role == domain.RoleNone {
		return dErrors.New(dErrors.CodeBadRequest, "role is required")
	}

	now := requestcontext.Now(ctx)
	if !expiration.After(now) {
		return dErrors.New(dErrors.CodeExpirationNotFuture, "expiration must be in the future").
			WithDetail("expiration", expiration.UTC().Format(time.RFC3339))
	}

	existing, err := s.parties.Get(ctx, addr)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load party")
	}
	if existing != nil && existing.Role != role {
		return dErrors.New(dErrors.CodeRoleConflict, "party already holds a different role").
			WithDetail("address", addr.String()).
			WithDetail("current_role", existing.Role.String())
	}

	rec := &models.Record{
		Address:      addr,
		Role:         role,
		Expiration:   expiration,
		AttachedData: attachedData,
	}
	if err := s.parties.Upsert(ctx, rec); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store party")
	}

	if err := s.events.Append(ctx, events.Event{
		ID:         uuid.New(),
		Kind:       events.KindPartyUpdated,
		Timestamp:  now,
		Actor:      requestcontext.Actor(ctx),
		Target:     addr,
		Role:       role,
		Expiration: expiration,
		Data:       attachedData,
		RequestID:  requestcontext.RequestID(ctx),
	}); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record party update")
	}

	s.incrementRegistered()
	s.logger.InfoContext(ctx, "party registered",
		"address", addr.String(), "role", role.String(), "expiration", expiration)
	return nil
}

// RemoveParty clears addr's registration. Removing an expired registration
// is allowed; removing an unknown address is not.
func (s *Service) RemoveParty(ctx context.Context, addr domain.Address) error {
	if err := s.requireIssuer(ctx); err != nil {
		return err
	}
	if addr.IsZero() {
		return dErrors.New(dErrors.CodeInvalidAddress, "party address must not be zero")
	}

	if err := s.parties.Delete(ctx, addr); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotRegistered, "party is not registered").
				WithDetail("address", addr.String())
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove party")
	}

	if err := s.events.Append(ctx, events.Event{
		ID:        uuid.New(),
		Kind:      events.KindPartyRemoved,
		Timestamp: requestcontext.Now(ctx),
		Actor:     requestcontext.Actor(ctx),
		Target:    addr,
		RequestID: requestcontext.RequestID(ctx),
	}); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record party removal")
	}

	s.incrementRemoved()
	s.logger.InfoContext(ctx, "party removed", "address", addr.String())
	return nil
}

// EffectiveRole returns addr's role at the request time. Unknown and
// expired registrations both read as RoleNone; the lookup never mutates
// state.
func (s *Service) EffectiveRole(ctx context.Context, addr domain.Address) (domain.Role, error) {
	start := time.Now()
	defer s.observeRoleLookup(start)

	rec, err := s.parties.Get(ctx, addr)
	if errors.Is(err, sentinel.ErrNotFound) {
		return domain.RoleNone, nil
	}
	if err != nil {
		return domain.RoleNone, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load party")
	}
	return rec.EffectiveRole(requestcontext.Now(ctx)), nil
}

// AttachedData returns the opaque blob stored with addr's registration, or
// nil when the address was never registered. The blob survives expiry.
func (s *Service) AttachedData(ctx context.Context, addr domain.Address) ([]byte, error) {
	rec, err := s.parties.Get(ctx, addr)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load party")
	}
	return rec.AttachedData, nil
}

// Record returns the full registration for addr.
func (s *Service) Record(ctx context.Context, addr domain.Address) (*models.Record, error) {
	rec, err := s.parties.Get(ctx, addr)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotRegistered, "party is not registered").
			WithDetail("address", addr.String())
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load party")
	}
	return rec, nil
}

func (s *Service) requireIssuer(ctx context.Context) error {
	issuer, err := s.issuer.Issuer(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve issuer")
	}
	if requestcontext.Actor(ctx) != issuer {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not the issuer")
	}
	return nil
}

func (s *Service) incrementRegistered() {
	if s.metrics != nil {
		s.metrics.IncrementRegistered()
	}
}

func (s *Service) incrementRemoved() {
	if s.metrics != nil {
		s.metrics.IncrementRemoved()
	}
}

func (s *Service) observeRoleLookup(start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveRoleLookup(start)
	}
}
