package distribution

import (
	"context"
	"io"
	"log/slog"
	"math/big"
	"testing"

	"github.com/stretchr/testify/suite"

	ledgermodels "github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/ledger/models"
	ledgerservice "github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/ledger/service"
	ledgerstore "github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/ledger/store"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain"
	dErrors "github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain-errors"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/platform/events"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/requestcontext"
)

var (
	ownerAddr    = domain.MustParseAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	issuerAddr   = domain.MustParseAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	treasuryAddr = domain.MustParseAddress("0xcccccccccccccccccccccccccccccccccccccccc")
	strangerAddr = domain.MustParseAddress("0x9999999999999999999999999999999999999999")
)

type noParties struct{}

func (noParties) EffectiveRole(context.Context, domain.Address) (domain.Role, error) {
	return domain.RoleNone, nil
}

type BatchSuite struct {
	suite.Suite
	svc    *Service
	ledger *ledgerservice.Service
	log    *events.MemoryLog

	recipients []domain.Address
	amounts    []*big.Int
}

func TestBatchSuite(t *testing.T) {
	suite.Run(t, new(BatchSuite))
}

func (s *BatchSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.log = events.NewMemoryLog()
	s.ledger = ledgerservice.New(ledgerstore.NewMemoryStore(), noParties{}, nil, s.log, nil, logger)
	s.svc = New(s.ledger, s.log, logger)

	s.Require().NoError(s.ledger.Bootstrap(context.Background(), &ledgermodels.Config{
		Owner:                   ownerAddr,
		Issuer:                  issuerAddr,
		Treasury:                treasuryAddr,
		MinimumTransfer:         big.NewInt(10),
		MinimumSponsoredBalance: big.NewInt(0),
	}))
	s.Require().NoError(s.ledger.Generate(s.as(issuerAddr), big.NewInt(10_000)))

	s.recipients = []domain.Address{
		domain.MustParseAddress("0x1111111111111111111111111111111111111111"),
		domain.MustParseAddress("0x2222222222222222222222222222222222222222"),
		domain.MustParseAddress("0x3333333333333333333333333333333333333333"),
		domain.MustParseAddress("0x4444444444444444444444444444444444444444"),
		domain.MustParseAddress("0x5555555555555555555555555555555555555555"),
	}
	s.amounts = []*big.Int{
		big.NewInt(100), big.NewInt(200), big.NewInt(300), big.NewInt(400), big.NewInt(500),
	}
}

func (s *BatchSuite) as(actor domain.Address) context.Context {
	return requestcontext.WithActor(context.Background(), actor)
}

func (s *BatchSuite) balance(addr domain.Address) *big.Int {
	bal, err := s.ledger.BalanceOf(context.Background(), addr)
	s.Require().NoError(err)
	return bal
}

// budgetFor sizes a countdown budget for exactly n entries plus the
// checkpoint reserve.
func budgetFor(n uint64) *CountdownBudget {
	return NewCountdownBudget(n*DefaultItemCost + DefaultCheckpointCost)
}

func (s *BatchSuite) TestValidation() {
	s.Run("rejects skewed array lengths", func() {
		_, _, err := s.svc.DistributeBatch(s.as(issuerAddr), budgetFor(10), s.recipients, s.amounts[:3], nil)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeArraysLengthMismatch))

		de, ok := dErrors.AsError(err)
		s.Require().True(ok)
		s.Equal("5", de.Detail("addresses"))
		s.Equal("3", de.Detail("amounts"))
	})

	s.Run("rejects non-issuer", func() {
		_, _, err := s.svc.DistributeBatch(s.as(strangerAddr), budgetFor(10), s.recipients, s.amounts, nil)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *BatchSuite) TestFullRun() {
	applied, done, err := s.svc.DistributeBatch(s.as(issuerAddr), budgetFor(5), s.recipients, s.amounts, []byte("campaign-9"))
	s.Require().NoError(err)
	s.Equal(5, applied)
	s.True(done)

	for i, addr := range s.recipients {
		s.Equal(s.amounts[i], s.balance(addr))
	}

	last, ok := s.log.Last()
	s.Require().True(ok)
	s.Equal(events.KindExecutionComplete, last.Kind)
	s.Equal(5, last.Index)
}

func (s *BatchSuite) TestPartialRunAndResume() {
	applied, done, err := s.svc.DistributeBatch(s.as(issuerAddr), budgetFor(2), s.recipients, s.amounts, nil)
	s.Require().NoError(err)
	s.Equal(2, applied)
	s.False(done)

	last, ok := s.log.Last()
	s.Require().True(ok)
	s.Equal(events.KindPartialExecution, last.Kind)
	s.Equal(2, last.Index)

	s.Run("applied entries stay applied", func() {
		s.Equal(s.amounts[0], s.balance(s.recipients[0]))
		s.Equal(s.amounts[1], s.balance(s.recipients[1]))
		s.Zero(s.balance(s.recipients[2]).Sign())
	})

	s.Run("resuming the tail matches a single full pass", func() {
		applied, done, err := s.svc.DistributeBatch(s.as(issuerAddr), budgetFor(3),
			s.recipients[2:], s.amounts[2:], nil)
		s.Require().NoError(err)
		s.Equal(3, applied)
		s.True(done)

		for i, addr := range s.recipients {
			s.Equal(s.amounts[i], s.balance(addr))
		}
	})
}

func (s *BatchSuite) TestBudgetBelowOneItem() {
	budget := NewCountdownBudget(DefaultItemCost) // no checkpoint reserve left

	applied, done, err := s.svc.DistributeBatch(s.as(issuerAddr), budget, s.recipients, s.amounts, nil)
	s.Require().NoError(err)
	s.Equal(0, applied)
	s.False(done)

	last, ok := s.log.Last()
	s.Require().True(ok)
	s.Equal(events.KindPartialExecution, last.Kind)
	s.Equal(0, last.Index)
}

func (s *BatchSuite) TestRejectedBatchAppliesNothing() {
	s.Run("aggregate overdraw is rejected before any entry settles", func() {
		// Drain the treasury so the batch total no longer fits.
		s.Require().NoError(s.ledger.Distribute(s.as(issuerAddr), strangerAddr, big.NewInt(9_500), nil))

		applied, done, err := s.svc.DistributeBatch(s.as(issuerAddr), budgetFor(5), s.recipients, s.amounts, nil)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeTransferNotAllowed))
		s.Equal(0, applied)
		s.False(done)

		for _, addr := range s.recipients {
			s.Zero(s.balance(addr).Sign())
		}
	})
}

func (s *BatchSuite) TestEntryValidationAppliesNothing() {
	s.Run("below-minimum entry rejects the whole batch", func() {
		amounts := append(append([]*big.Int{}, s.amounts[:4]...), big.NewInt(5))

		applied, _, err := s.svc.DistributeBatch(s.as(issuerAddr), budgetFor(5), s.recipients, amounts, nil)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeTransferNotAllowed))
		s.Equal(0, applied)
		s.Zero(s.balance(s.recipients[0]).Sign())
	})

	s.Run("zero recipient rejects the whole batch", func() {
		recipients := append(append([]domain.Address{}, s.recipients[:4]...), domain.ZeroAddress)

		applied, _, err := s.svc.DistributeBatch(s.as(issuerAddr), budgetFor(5), recipients, s.amounts, nil)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeInvalidAddress))
		s.Equal(0, applied)
		s.Zero(s.balance(s.recipients[0]).Sign())
	})

	s.Run("nil amount rejects the whole batch", func() {
		amounts := append(append([]*big.Int{}, s.amounts[:4]...), nil)

		applied, _, err := s.svc.DistributeBatch(s.as(issuerAddr), budgetFor(5), s.recipients, amounts, nil)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeBadRequest))
		s.Equal(0, applied)
	})
}
