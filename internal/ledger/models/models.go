package models

import (
	"math/big"

	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain"
)

// Config is the ledger's mutable configuration. A single record; every
// value-moving operation reads it under the operation lock.
type Config struct {
	Owner    domain.Address
	Issuer   domain.Address
	Treasury domain.Address

	// Compensation identifies the wired pool. Zero means no pool: transfers
	// still settle, sponsorship is simply skipped.
	Compensation domain.Address

	MinimumTransfer         *big.Int
	MinimumSponsoredBalance *big.Int
	Paused                  bool
}

// Clone returns a deep copy so callers can mutate without aliasing the
// stored numbers.
func (c *Config) Clone() *Config {
	out := *c
	out.MinimumTransfer = cloneAmount(c.MinimumTransfer)
	out.MinimumSponsoredBalance = cloneAmount(c.MinimumSponsoredBalance)
	return &out
}

// Account pairs an address with its token balance.
type Account struct {
	Address domain.Address
	Balance *big.Int
}

func cloneAmount(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}
