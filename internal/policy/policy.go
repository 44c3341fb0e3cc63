// Package policy is the transfer/redemption decision engine. It is pure
// domain logic - no I/O, no side effects. The ledger resolves both parties'
// roles at the request time and hands everything in as arguments; keeping
// the rules centralized here makes them testable in isolation.
package policy

import (
	"math/big"

	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain"
)

// Status codes exposed by the CanTransfer probe, following EIP-1066.
type Status byte

const (
	StatusSuccess        Status = 0x01
	StatusTransferFailed Status = 0x50
)

// Party is a participant's role resolved at the evaluation instant. Valid
// is false once the registration has expired; expiry invalidates a party
// even if it was valid when the role was assigned.
type Party struct {
	Role  domain.Role
	Valid bool
}

// registered reports whether the party holds any currently-valid role.
func (p Party) registered() bool {
	return p.Valid && p.Role != domain.RoleNone
}

// validMerchant reports whether the party holds a currently-valid Merchant
// role.
func (p Party) validMerchant() bool {
	return p.Valid && p.Role == domain.RoleMerchant
}

// TransferAllowed decides a standard party-to-party transfer.
// Rule chain (fail-fast):
//  1. Amount at or above the configured minimum.
//  2. Sender holds any currently-valid registered role.
//  3. Recipient holds a currently-valid Merchant role.
//
// A valid Merchant satisfies rule 2, so merchant-to-merchant transfers are
// allowed.
func TransferAllowed(sender, recipient Party, amount, minimum *big.Int) bool {
	if belowMinimum(amount, minimum) {
		return false
	}
	if !sender.registered() {
		return false
	}
	return recipient.validMerchant()
}

// RedeemAllowed decides a redemption. The acting party is the balance
// holder (the owner for redeemFrom), not the operator spending an
// allowance.
func RedeemAllowed(holder Party, amount, minimum *big.Int) bool {
	if belowMinimum(amount, minimum) {
		return false
	}
	return holder.validMerchant()
}

// Probe is the side-effect-free canTransfer decision. A zero recipient
// address means the caller is probing a burn: always accepted for a valid
// Merchant unless the amount itself is below the minimum. The reason is
// empty for an accepted probe and names the first failing rule otherwise.
func Probe(sender, recipient Party, burning bool, amount, minimum *big.Int) (bool, Status, string) {
	if belowMinimum(amount, minimum) {
		return false, StatusTransferFailed, "amount below minimum transfer"
	}
	if burning {
		if !sender.validMerchant() {
			return false, StatusTransferFailed, "holder is not a valid merchant"
		}
		return true, StatusSuccess, ""
	}
	if !sender.registered() {
		return false, StatusTransferFailed, "sender has no valid role"
	}
	if !recipient.validMerchant() {
		return false, StatusTransferFailed, "recipient is not a valid merchant"
	}
	return true, StatusSuccess, ""
}

func belowMinimum(amount, minimum *big.Int) bool {
	if amount == nil {
		return true
	}
	if minimum == nil {
		return false
	}
	return amount.Cmp(minimum) < 0
}
