// Package distribution runs aid campaigns: treasury pushes to many wallets
// under an execution budget, resumable where the budget ran out.
package distribution

import (
	"context"
	"log/slog"
	"math/big"
	"strconv"

	"github.com/google/uuid"

	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain"
	dErrors "github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain-errors"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/platform/events"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/requestcontext"
)

// Default work costs per entry. An item is one treasury push; the
// checkpoint reserve guarantees the partial-execution marker can always be
// written after the last applied entry.
const (
	DefaultItemCost       uint64 = 60_000
	DefaultCheckpointCost uint64 = 5_000
)

// Ledger is the distribution side of the ledger service.
type Ledger interface {
	Distribute(ctx context.Context, to domain.Address, amount *big.Int, data []byte) error
	Issuer(ctx context.Context) (domain.Address, error)
	TreasuryBalance(ctx context.Context) (*big.Int, error)
	MinimumTransfer(ctx context.Context) (*big.Int, error)
}

// Service applies distribution batches entry by entry through the ledger
// pipeline. Applied entries stay applied when a run stops early; the batch
// as a whole is resumable, not atomic.
type Service struct {
	ledger         Ledger
	events         events.Log
	logger         *slog.Logger
	itemCost       uint64
	checkpointCost uint64
}

func New(ledger Ledger, log events.Log, logger *slog.Logger) *Service {
	return &Service{
		ledger:         ledger,
		events:         log,
		logger:         logger,
		itemCost:       DefaultItemCost,
		checkpointCost: DefaultCheckpointCost,
	}
}

// DistributeBatch pushes amounts[i] to addrs[i] until the batch completes
// or the budget runs out. The whole batch is validated up front, so a
// rejected call applies nothing; only budget exhaustion leaves a committed
// prefix behind. It returns the number of applied entries and whether the
// batch completed; on a partial run the caller resumes with addrs[applied:]
// and amounts[applied:] and a fresh budget.
func (s *Service) DistributeBatch(ctx context.Context, budget Budget, addrs []domain.Address, amounts []*big.Int, data []byte) (int, bool, error) {
	if len(addrs) != len(amounts) {
		return 0, false, dErrors.New(dErrors.CodeArraysLengthMismatch, "addresses and amounts differ in length").
			WithDetail("addresses", strconv.Itoa(len(addrs))).
			WithDetail("amounts", strconv.Itoa(len(amounts)))
	}

	issuer, err := s.ledger.Issuer(ctx)
	if err != nil {
		return 0, false, err
	}
	actor := requestcontext.Actor(ctx)
	if actor != issuer {
		return 0, false, dErrors.New(dErrors.CodeUnauthorized, "caller is not the issuer").
			WithDetail("actor", actor.String())
	}

	if err := s.precheck(ctx, addrs, amounts); err != nil {
		return 0, false, err
	}

	for i := range addrs {
		if budget.Remaining() < s.itemCost+s.checkpointCost {
			if err := s.checkpoint(ctx, budget, actor, i); err != nil {
				return i, false, err
			}
			s.logger.InfoContext(ctx, "distribution batch paused",
				"applied", i, "pending", len(addrs)-i)
			return i, false, nil
		}
		if err := s.ledger.Distribute(ctx, addrs[i], amounts[i], data); err != nil {
			return i, false, err
		}
		budget.Spend(s.itemCost)
	}

	if err := s.events.Append(ctx, events.Event{
		ID:        uuid.New(),
		Kind:      events.KindExecutionComplete,
		Timestamp: requestcontext.Now(ctx),
		Actor:     actor,
		Index:     len(addrs),
		RequestID: requestcontext.RequestID(ctx),
	}); err != nil {
		return len(addrs), false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record completion")
	}
	s.logger.InfoContext(ctx, "distribution batch complete", "entries", len(addrs))
	return len(addrs), true, nil
}

// precheck validates every entry and the aggregate treasury draw before
// anything is applied. Entry failures mid-run would leave a committed
// prefix the caller cannot tell apart from budget exhaustion.
func (s *Service) precheck(ctx context.Context, addrs []domain.Address, amounts []*big.Int) error {
	minimum, err := s.ledger.MinimumTransfer(ctx)
	if err != nil {
		return err
	}
	treasury, err := s.ledger.TreasuryBalance(ctx)
	if err != nil {
		return err
	}

	total := new(big.Int)
	for i := range addrs {
		if addrs[i].IsZero() {
			return dErrors.New(dErrors.CodeInvalidAddress, "recipient must not be zero").
				WithDetail("index", strconv.Itoa(i))
		}
		if amounts[i] == nil || amounts[i].Sign() <= 0 {
			return dErrors.New(dErrors.CodeBadRequest, "amount must be a positive integer").
				WithDetail("index", strconv.Itoa(i))
		}
		if minimum != nil && amounts[i].Cmp(minimum) < 0 {
			return dErrors.New(dErrors.CodeTransferNotAllowed, "amount below minimum transfer").
				WithDetail("index", strconv.Itoa(i)).
				WithDetail("minimum", minimum.String())
		}
		total.Add(total, amounts[i])
	}
	if total.Cmp(treasury) > 0 {
		return dErrors.New(dErrors.CodeTransferNotAllowed, "batch total exceeds the treasury balance").
			WithDetail("total", total.String()).
			WithDetail("treasury", treasury.String())
	}
	return nil
}

// checkpoint writes the partial-execution marker carrying the index of the
// first unprocessed entry.
func (s *Service) checkpoint(ctx context.Context, budget Budget, actor domain.Address, next int) error {
	if err := s.events.Append(ctx, events.Event{
		ID:        uuid.New(),
		Kind:      events.KindPartialExecution,
		Timestamp: requestcontext.Now(ctx),
		Actor:     actor,
		Index:     next,
		RequestID: requestcontext.RequestID(ctx),
	}); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record checkpoint")
	}
	budget.Spend(s.checkpointCost)
	return nil
}
