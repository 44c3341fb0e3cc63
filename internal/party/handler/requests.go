package handler

import (
	"time"

	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain"
	dErrors "github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain-errors"
)

// AddPartyRequest is the HTTP request body for POST /parties.
type AddPartyRequest struct {
	Address      string    `json:"address"`
	Role         uint8     `json:"role"`
	Expiration   time.Time `json:"expiration"`
	AttachedData []byte    `json:"attached_data,omitempty"`

	parsedAddress domain.Address
	parsedRole    domain.Role
}

// Validate parses the address and role. Expiration freshness is the
// service's call since it depends on the request clock.
func (r *AddPartyRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	addr, err := domain.ParseAddress(r.Address)
	if err != nil {
		return err
	}
	r.parsedAddress = addr

	role, err := domain.ParseRole(r.Role)
	if err != nil {
		return err
	}
	r.parsedRole = role

	if r.Expiration.IsZero() {
		return dErrors.New(dErrors.CodeBadRequest, "expiration is required")
	}
	return nil
}

// ParsedAddress returns the validated address.
func (r *AddPartyRequest) ParsedAddress() domain.Address {
	return r.parsedAddress
}

// ParsedRole returns the validated role.
func (r *AddPartyRequest) ParsedRole() domain.Role {
	return r.parsedRole
}
