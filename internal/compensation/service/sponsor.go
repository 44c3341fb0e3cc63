package service

import (
	"context"
	"math/big"

	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain"
)

// Sponsor adapts the pool to the ledger's Compensator port. The pool
// authorizes the requesting system, not the end user behind the request,
// so the sponsor pins the caller identity to the ledger's own address.
type Sponsor struct {
	pool   *Service
	caller domain.Address
}

func NewSponsor(pool *Service, caller domain.Address) *Sponsor {
	return &Sponsor{pool: pool, caller: caller}
}

func (s *Sponsor) Compense(ctx context.Context, target domain.Address, floor *big.Int) error {
	return s.pool.Compense(ctx, s.caller, target, floor)
}
