package models

import (
	"time"

	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain"
)

// Record is a registered party. Absence of a record means "no role"; no
// identity record is ever deleted from the ledger's account space, only the
// party registration is cleared.
type Record struct {
	Address      domain.Address
	Role         domain.Role
	Expiration   time.Time
	AttachedData []byte
}

// EffectiveRole computes the role at the given instant. Expiry is lazy:
// reads never mutate the record, there is no background sweep.
func (r Record) EffectiveRole(at time.Time) domain.Role {
	if at.Before(r.Expiration) {
		return r.Role
	}
	return domain.RoleNone
}
