package models

import (
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain"
)

// Config is the pool's mutable configuration. The pool pauses independently
// of the ledger: a paused pool stops payouts without stopping settlements.
type Config struct {
	Owner  domain.Address
	Issuer domain.Address
	Paused bool
}
