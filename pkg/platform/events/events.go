// Package events defines the ledger's append-only event log.
//
// Every externally visible state change emits one or more events. The log is
// ordered: events are appended inside the same operation that applied the
// change, so log order equals application order. External consumers (the
// transaction-history indexer, reporting) read the stream from Kafka; the
// outbox store plus drain worker guarantee an event is never lost between
// the state change and the publish.
package events

import (
	"context"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain"
)

// Kind identifies the type of a ledger event.
type Kind string

// Party registry events.
const (
	KindPartyUpdated Kind = "party.updated"
	KindPartyRemoved Kind = "party.removed"
)

// Token movement events.
const (
	KindIssued               Kind = "token.issued"
	KindTransfer             Kind = "token.transfer"
	KindTransferWithData     Kind = "token.transfer_with_data"
	KindRedeemed             Kind = "token.redeemed"
	KindControllerTransfer   Kind = "token.controller_transfer"
	KindControllerRedemption Kind = "token.controller_redemption"
)

// Configuration and lifecycle events.
const (
	KindMinimumTransferChanged         Kind = "config.minimum_transfer_changed"
	KindMinimumSponsoredBalanceChanged Kind = "config.minimum_sponsored_balance_changed"
	KindCompensationChanged            Kind = "config.compensation_changed"
	KindIssuerChanged                  Kind = "config.issuer_changed"
	KindPaused                         Kind = "lifecycle.paused"
	KindUnpaused                       Kind = "lifecycle.unpaused"
)

// Batch distribution events.
const (
	KindExecutionComplete Kind = "batch.execution_complete"
	KindPartialExecution  Kind = "batch.partial_execution"
)

// Compensation pool events.
const (
	KindPoolBalanceIncreased Kind = "pool.balance_increased"
	KindPoolBalanceDecreased Kind = "pool.balance_decreased"
	KindPaymentMade          Kind = "pool.payment_made"
	KindPaymentSkipped       Kind = "pool.payment_skipped"
	KindCallerAllowed        Kind = "pool.caller_allowed"
	KindPoolPaused           Kind = "pool.paused"
	KindPoolUnpaused         Kind = "pool.unpaused"
	KindPoolIssuerChanged    Kind = "pool.issuer_changed"
)

// Event is a single immutable log entry. Fields are populated per kind;
// unused fields stay at their zero value and are omitted from payloads.
type Event struct {
	ID        uuid.UUID
	Seq       uint64 // assigned by the log on append
	Kind      Kind
	Timestamp time.Time

	Actor  domain.Address // caller that triggered the change
	From   domain.Address
	To     domain.Address
	Target domain.Address

	Amount *big.Int
	Old    *big.Int // previous value for config/pool changes
	New    *big.Int

	Data         []byte // caller-supplied opaque blob
	OperatorData []byte // controller audit blob

	Role       domain.Role
	Expiration time.Time
	Allowed    bool // caller allow-list toggles
	Index      int  // last processed index for partial executions

	RequestID string
	Device    string // client device summary for controller overrides
}

// Log records events in application order.
type Log interface {
	Append(ctx context.Context, event Event) error
}
