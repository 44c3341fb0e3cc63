package service

import (
	"context"
	"io"
	"log/slog"
	"math/big"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/compensation/models"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/compensation/native"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/compensation/store"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain"
	dErrors "github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain-errors"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/platform/events"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/requestcontext"
)

var (
	ownerAddr    = domain.MustParseAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	issuerAddr   = domain.MustParseAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	ledgerAddr   = domain.MustParseAddress("0xcccccccccccccccccccccccccccccccccccccccc")
	walletAddr   = domain.MustParseAddress("0x1111111111111111111111111111111111111111")
	contractAddr = domain.MustParseAddress("0x2222222222222222222222222222222222222222")
	strangerAddr = domain.MustParseAddress("0x9999999999999999999999999999999999999999")
)

func amt(n int64) *big.Int { return big.NewInt(n) }

type PoolSuite struct {
	suite.Suite
	svc    *Service
	native *native.MemorySource
	log    *events.MemoryLog
}

func TestPoolSuite(t *testing.T) {
	suite.Run(t, new(PoolSuite))
}

func (s *PoolSuite) SetupTest() {
	s.native = native.NewMemorySource()
	s.native.MarkContract(contractAddr)
	s.log = events.NewMemoryLog()
	s.svc = New(store.NewMemoryStore(), s.native, s.log, nil,
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	s.Require().NoError(s.svc.Bootstrap(context.Background(), &models.Config{
		Owner:  ownerAddr,
		Issuer: issuerAddr,
	}))
	s.Require().NoError(s.svc.AllowCaller(s.as(issuerAddr), ledgerAddr))
}

func (s *PoolSuite) as(actor domain.Address) context.Context {
	return requestcontext.WithActor(context.Background(), actor)
}

func (s *PoolSuite) deposit(n int64) {
	s.Require().NoError(s.svc.Deposit(s.as(strangerAddr), amt(n)))
}

func (s *PoolSuite) poolBalance() *big.Int {
	bal, err := s.svc.Balance(context.Background())
	s.Require().NoError(err)
	return bal
}

func (s *PoolSuite) nativeBalance(addr domain.Address) *big.Int {
	bal, err := s.native.BalanceOf(context.Background(), addr)
	s.Require().NoError(err)
	return bal
}

func (s *PoolSuite) TestBootstrapAllowsCallers() {
	svc := New(store.NewMemoryStore(), s.native, s.log, nil,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.Require().NoError(svc.Bootstrap(context.Background(), &models.Config{
		Owner:  ownerAddr,
		Issuer: issuerAddr,
	}, ledgerAddr))

	allowed, err := svc.IsAllowed(context.Background(), ledgerAddr)
	s.Require().NoError(err)
	s.True(allowed)

	allowed, err = svc.IsAllowed(context.Background(), strangerAddr)
	s.Require().NoError(err)
	s.False(allowed)
}

func (s *PoolSuite) TestDeposit() {
	s.Run("grows the pool and records old and new balance", func() {
		s.deposit(500)
		s.Equal(amt(500), s.poolBalance())

		last, ok := s.log.Last()
		s.Require().True(ok)
		s.Equal(events.KindPoolBalanceIncreased, last.Kind)
		s.Equal(amt(500), last.Amount)
		s.Equal(amt(0), last.Old)
		s.Equal(amt(500), last.New)
	})

	s.Run("rejects non-positive amounts", func() {
		err := s.svc.Deposit(s.as(strangerAddr), amt(0))
		s.Require().True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("paused pool rejects deposits", func() {
		s.Require().NoError(s.svc.Pause(s.as(ownerAddr)))
		err := s.svc.Deposit(s.as(strangerAddr), amt(100))
		s.Require().True(dErrors.HasCode(err, dErrors.CodePaused))
	})
}

func (s *PoolSuite) TestCompense() {
	floor := amt(100)

	s.Run("pays the deficit up to the floor", func() {
		s.deposit(1000)
		s.native.SetBalance(walletAddr, amt(30))

		s.Require().NoError(s.svc.Compense(context.Background(), ledgerAddr, walletAddr, floor))
		s.Equal(amt(100), s.nativeBalance(walletAddr))
		s.Equal(amt(930), s.poolBalance())

		payment, ok := s.log.Last()
		s.Require().True(ok)
		s.Equal(events.KindPaymentMade, payment.Kind)
		s.Equal(walletAddr, payment.Target)
		s.Equal(amt(70), payment.Amount)

		evs := s.log.OfKind(events.KindPoolBalanceDecreased)
		s.Require().Len(evs, 1)
		s.Equal(amt(1000), evs[0].Old)
		s.Equal(amt(930), evs[0].New)
	})

	s.Run("skips a wallet at the floor", func() {
		s.Require().NoError(s.svc.Compense(context.Background(), ledgerAddr, walletAddr, floor))

		last, ok := s.log.Last()
		s.Require().True(ok)
		s.Equal(events.KindPaymentSkipped, last.Kind)
		s.Equal(amt(930), s.poolBalance())
	})

	s.Run("skips contract accounts", func() {
		s.Require().NoError(s.svc.Compense(context.Background(), ledgerAddr, contractAddr, floor))

		last, ok := s.log.Last()
		s.Require().True(ok)
		s.Equal(events.KindPaymentSkipped, last.Kind)
		s.Equal(contractAddr, last.Target)
	})

	s.Run("rejects callers off the allow-list", func() {
		err := s.svc.Compense(context.Background(), strangerAddr, walletAddr, floor)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("issuer may call without being listed", func() {
		s.native.SetBalance(strangerAddr, amt(10))
		s.Require().NoError(s.svc.Compense(context.Background(), issuerAddr, strangerAddr, floor))
		s.Equal(amt(100), s.nativeBalance(strangerAddr))
	})

	s.Run("rejects zero target", func() {
		err := s.svc.Compense(context.Background(), ledgerAddr, domain.ZeroAddress, floor)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeInvalidAddress))
	})
}

func (s *PoolSuite) TestPartialPayout() {
	s.deposit(40)
	s.native.SetBalance(walletAddr, amt(30))

	// Deficit is 70 but the pool only holds 40: pay 40, never fail.
	s.Require().NoError(s.svc.Compense(context.Background(), ledgerAddr, walletAddr, amt(100)))
	s.Equal(amt(70), s.nativeBalance(walletAddr))
	s.Zero(s.poolBalance().Sign())

	payment, ok := s.log.Last()
	s.Require().True(ok)
	s.Equal(events.KindPaymentMade, payment.Kind)
	s.Equal(amt(40), payment.Amount)

	s.Run("empty pool then skips", func() {
		s.Require().NoError(s.svc.Compense(context.Background(), ledgerAddr, walletAddr, amt(100)))
		last, ok := s.log.Last()
		s.Require().True(ok)
		s.Equal(events.KindPaymentSkipped, last.Kind)
	})
}

func (s *PoolSuite) TestTransferAllFunds() {
	s.deposit(750)

	s.Run("only the issuer sweeps", func() {
		err := s.svc.TransferAllFunds(s.as(strangerAddr), walletAddr)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("sweeps everything to the recipient", func() {
		s.Require().NoError(s.svc.TransferAllFunds(s.as(issuerAddr), walletAddr))
		s.Zero(s.poolBalance().Sign())
		s.Equal(amt(750), s.nativeBalance(walletAddr))

		last, ok := s.log.Last()
		s.Require().True(ok)
		s.Equal(events.KindPoolBalanceDecreased, last.Kind)
		s.Equal(walletAddr, last.Target)
	})

	s.Run("empty pool sweep is a no-op", func() {
		before := len(s.log.Events())
		s.Require().NoError(s.svc.TransferAllFunds(s.as(issuerAddr), walletAddr))
		s.Len(s.log.Events(), before)
	})
}

func (s *PoolSuite) TestAllowList() {
	s.Run("only the issuer manages the list", func() {
		err := s.svc.AllowCaller(s.as(strangerAddr), strangerAddr)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("disallow revokes payouts", func() {
		s.Require().NoError(s.svc.DisallowCaller(s.as(issuerAddr), ledgerAddr))
		err := s.svc.Compense(context.Background(), ledgerAddr, walletAddr, amt(100))
		s.Require().True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

		last, ok := s.log.Last()
		s.Require().True(ok)
		s.Equal(events.KindCallerAllowed, last.Kind)
		s.False(last.Allowed)
	})
}

func (s *PoolSuite) TestLifecycle() {
	s.Run("pause blocks payouts", func() {
		s.deposit(100)
		s.Require().NoError(s.svc.Pause(s.as(issuerAddr)))
		err := s.svc.Compense(context.Background(), ledgerAddr, walletAddr, amt(50))
		s.Require().True(dErrors.HasCode(err, dErrors.CodePaused))
		s.Require().NoError(s.svc.Unpause(s.as(issuerAddr)))
	})

	s.Run("only the owner rotates the issuer", func() {
		err := s.svc.ChangeIssuer(s.as(issuerAddr), strangerAddr)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

		s.Require().NoError(s.svc.ChangeIssuer(s.as(ownerAddr), strangerAddr))
		last, ok := s.log.Last()
		s.Require().True(ok)
		s.Equal(events.KindPoolIssuerChanged, last.Kind)
		s.Equal(issuerAddr, last.From)
		s.Equal(strangerAddr, last.To)
	})
}

func (s *PoolSuite) TestSponsorAdapter() {
	s.deposit(200)
	sponsor := NewSponsor(s.svc, ledgerAddr)

	s.Require().NoError(sponsor.Compense(context.Background(), walletAddr, amt(50)))
	s.Equal(amt(50), s.nativeBalance(walletAddr))
}
