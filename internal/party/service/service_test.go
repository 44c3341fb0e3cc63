package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/party/store"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain"
	dErrors "github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain-errors"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/platform/events"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/requestcontext"
)

var (
	issuerAddr   = domain.MustParseAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	citizenAddr  = domain.MustParseAddress("0x1111111111111111111111111111111111111111")
	merchantAddr = domain.MustParseAddress("0x2222222222222222222222222222222222222222")
	strangerAddr = domain.MustParseAddress("0x9999999999999999999999999999999999999999")
)

type staticIssuer struct{ addr domain.Address }

func (s staticIssuer) Issuer(context.Context) (domain.Address, error) { return s.addr, nil }

type PartyServiceSuite struct {
	suite.Suite
	svc *Service
	log *events.MemoryLog
	now time.Time
	ctx context.Context
}

func (s *PartyServiceSuite) SetupTest() {
	s.log = events.NewMemoryLog()
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.svc = New(store.NewMemoryStore(), staticIssuer{issuerAddr}, s.log, nil,
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx := requestcontext.WithActor(context.Background(), issuerAddr)
	s.ctx = requestcontext.WithTime(ctx, s.now)
}

func TestPartyServiceSuite(t *testing.T) {
	suite.Run(t, new(PartyServiceSuite))
}

func (s *PartyServiceSuite) addParty(addr domain.Address, role domain.Role, ttl time.Duration) {
	s.Require().NoError(s.svc.AddParty(s.ctx, addr, role, s.now.Add(ttl), []byte("blob")))
}

// at returns an issuer context with the request clock advanced by d.
func (s *PartyServiceSuite) at(d time.Duration) context.Context {
	ctx := requestcontext.WithActor(context.Background(), issuerAddr)
	return requestcontext.WithTime(ctx, s.now.Add(d))
}

func (s *PartyServiceSuite) TestAddParty() {
	s.Run("registers a citizen", func() {
		s.addParty(citizenAddr, domain.RoleCitizen, time.Hour)

		role, err := s.svc.EffectiveRole(s.ctx, citizenAddr)
		s.Require().NoError(err)
		s.Equal(domain.RoleCitizen, role)

		last, ok := s.log.Last()
		s.Require().True(ok)
		s.Equal(events.KindPartyUpdated, last.Kind)
		s.Equal(citizenAddr, last.Target)
		s.Equal(issuerAddr, last.Actor)
	})

	s.Run("rejects non-issuer caller", func() {
		ctx := requestcontext.WithActor(context.Background(), strangerAddr)
		err := s.svc.AddParty(ctx, citizenAddr, domain.RoleCitizen, s.now.Add(time.Hour), nil)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("rejects zero address", func() {
		err := s.svc.AddParty(s.ctx, domain.ZeroAddress, domain.RoleCitizen, s.now.Add(time.Hour), nil)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeInvalidAddress))
	})

	s.Run("rejects past expiration", func() {
		err := s.svc.AddParty(s.ctx, citizenAddr, domain.RoleCitizen, s.now.Add(-time.Second), nil)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeExpirationNotFuture))
	})

	s.Run("rejects expiration equal to now", func() {
		err := s.svc.AddParty(s.ctx, citizenAddr, domain.RoleCitizen, s.now, nil)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeExpirationNotFuture))
	})
}

func (s *PartyServiceSuite) TestRoleConflict() {
	s.Run("rejects different role while grant is valid", func() {
		s.addParty(citizenAddr, domain.RoleCitizen, time.Hour)

		err := s.svc.AddParty(s.ctx, citizenAddr, domain.RoleMerchant, s.now.Add(time.Hour), nil)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeRoleConflict))
	})

	s.Run("allows renewal with the same role", func() {
		s.addParty(merchantAddr, domain.RoleMerchant, time.Hour)
		s.Require().NoError(s.svc.AddParty(s.ctx, merchantAddr, domain.RoleMerchant, s.now.Add(2*time.Hour), nil))
	})

	s.Run("rejects a different role even after the grant lapses", func() {
		s.addParty(citizenAddr, domain.RoleCitizen, time.Hour)

		later := s.at(2 * time.Hour)
		err := s.svc.AddParty(later, citizenAddr, domain.RoleMerchant, s.now.Add(3*time.Hour), nil)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeRoleConflict))

		role, err := s.svc.EffectiveRole(later, citizenAddr)
		s.Require().NoError(err)
		s.Equal(domain.RoleNone, role)
	})

	s.Run("allows renewal with the same role after the grant lapses", func() {
		s.addParty(citizenAddr, domain.RoleCitizen, time.Hour)

		later := s.at(2 * time.Hour)
		s.Require().NoError(s.svc.AddParty(later, citizenAddr, domain.RoleCitizen, s.now.Add(3*time.Hour), nil))

		role, err := s.svc.EffectiveRole(later, citizenAddr)
		s.Require().NoError(err)
		s.Equal(domain.RoleCitizen, role)
	})

	s.Run("allows any role after an explicit removal", func() {
		s.addParty(citizenAddr, domain.RoleCitizen, time.Hour)
		s.Require().NoError(s.svc.RemoveParty(s.ctx, citizenAddr))

		s.Require().NoError(s.svc.AddParty(s.ctx, citizenAddr, domain.RoleMerchant, s.now.Add(time.Hour), nil))

		role, err := s.svc.EffectiveRole(s.ctx, citizenAddr)
		s.Require().NoError(err)
		s.Equal(domain.RoleMerchant, role)
	})
}

func (s *PartyServiceSuite) TestLazyExpiry() {
	s.addParty(citizenAddr, domain.RoleCitizen, time.Hour)

	s.Run("valid just before expiration", func() {
		role, err := s.svc.EffectiveRole(s.at(time.Hour-time.Second), citizenAddr)
		s.Require().NoError(err)
		s.Equal(domain.RoleCitizen, role)
	})

	s.Run("invalid exactly at expiration", func() {
		role, err := s.svc.EffectiveRole(s.at(time.Hour), citizenAddr)
		s.Require().NoError(err)
		s.Equal(domain.RoleNone, role)
	})

	s.Run("attached data survives expiry", func() {
		data, err := s.svc.AttachedData(s.at(2*time.Hour), citizenAddr)
		s.Require().NoError(err)
		s.Equal([]byte("blob"), data)
	})
}

func (s *PartyServiceSuite) TestRemoveParty() {
	s.Run("removes a registration", func() {
		s.addParty(merchantAddr, domain.RoleMerchant, time.Hour)
		s.Require().NoError(s.svc.RemoveParty(s.ctx, merchantAddr))

		role, err := s.svc.EffectiveRole(s.ctx, merchantAddr)
		s.Require().NoError(err)
		s.Equal(domain.RoleNone, role)

		last, ok := s.log.Last()
		s.Require().True(ok)
		s.Equal(events.KindPartyRemoved, last.Kind)
	})

	s.Run("rejects unknown address", func() {
		err := s.svc.RemoveParty(s.ctx, strangerAddr)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeNotRegistered))
	})

	s.Run("rejects non-issuer caller", func() {
		s.addParty(merchantAddr, domain.RoleMerchant, time.Hour)
		ctx := requestcontext.WithActor(context.Background(), strangerAddr)
		err := s.svc.RemoveParty(ctx, merchantAddr)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *PartyServiceSuite) TestUnknownAddressReads() {
	role, err := s.svc.EffectiveRole(s.ctx, strangerAddr)
	s.Require().NoError(err)
	s.Equal(domain.RoleNone, role)

	data, err := s.svc.AttachedData(s.ctx, strangerAddr)
	s.Require().NoError(err)
	s.Nil(data)

	_, err = s.svc.Record(s.ctx, strangerAddr)
	s.Require().True(dErrors.HasCode(err, dErrors.CodeNotRegistered))
}
