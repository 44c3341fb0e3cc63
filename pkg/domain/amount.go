package domain

import (
	"fmt"
	"math/big"
)

// Amounts are integers in the token's smallest unit. Balances routinely
// exceed the int64 range (one whole token is 1e18 units), so they are
// carried as *big.Int throughout.

// ParseAmount validates and returns a non-negative amount from its decimal
// string representation.
func ParseAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %q", s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("amount must not be negative: %q", s)
	}
	return v, nil
}

// MustParseAmount is ParseAmount for test fixtures. It panics on invalid
// input.
func MustParseAmount(s string) *big.Int {
	v, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return v
}

// AmountString renders an amount for payloads and events; nil renders as
// zero so callers never emit an empty numeric field.
func AmountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
