package policy

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain"
)

var (
	validCitizen    = Party{Role: domain.RoleCitizen, Valid: true}
	validMerchant   = Party{Role: domain.RoleMerchant, Valid: true}
	expiredCitizen  = Party{Role: domain.RoleCitizen, Valid: false}
	expiredMerchant = Party{Role: domain.RoleMerchant, Valid: false}
	unregistered    = Party{}
)

func amt(n int64) *big.Int { return big.NewInt(n) }

func TestTransferAllowed(t *testing.T) {
	minimum := amt(10)

	tests := []struct {
		name      string
		sender    Party
		recipient Party
		amount    *big.Int
		want      bool
	}{
		{"citizen to merchant", validCitizen, validMerchant, amt(10), true},
		{"merchant to merchant", validMerchant, validMerchant, amt(50), true},
		{"below minimum", validCitizen, validMerchant, amt(9), false},
		{"exactly minimum", validCitizen, validMerchant, amt(10), true},
		{"recipient is citizen", validCitizen, validCitizen, amt(10), false},
		{"recipient unregistered", validCitizen, unregistered, amt(10), false},
		{"recipient expired merchant", validCitizen, expiredMerchant, amt(10), false},
		{"sender unregistered", unregistered, validMerchant, amt(10), false},
		{"sender expired", expiredCitizen, validMerchant, amt(10), false},
		{"both expired", expiredCitizen, expiredMerchant, amt(10), false},
		{"nil amount", validCitizen, validMerchant, nil, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, TransferAllowed(tc.sender, tc.recipient, tc.amount, minimum))
		})
	}
}

func TestTransferAllowedNoMinimum(t *testing.T) {
	// A nil minimum means no floor is configured.
	assert.True(t, TransferAllowed(validCitizen, validMerchant, amt(1), nil))
}

func TestRedeemAllowed(t *testing.T) {
	minimum := amt(10)

	tests := []struct {
		name   string
		holder Party
		amount *big.Int
		want   bool
	}{
		{"valid merchant", validMerchant, amt(10), true},
		{"citizen cannot redeem", validCitizen, amt(10), false},
		{"expired merchant", expiredMerchant, amt(10), false},
		{"unregistered", unregistered, amt(10), false},
		{"below minimum", validMerchant, amt(9), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, RedeemAllowed(tc.holder, tc.amount, minimum))
		})
	}
}

func TestProbe(t *testing.T) {
	minimum := amt(10)

	t.Run("transfer accepted", func(t *testing.T) {
		ok, status, reason := Probe(validCitizen, validMerchant, false, amt(10), minimum)
		assert.True(t, ok)
		assert.Equal(t, StatusSuccess, status)
		assert.Empty(t, reason)
	})

	t.Run("transfer rejected names the failing rule", func(t *testing.T) {
		ok, status, reason := Probe(validCitizen, validCitizen, false, amt(10), minimum)
		assert.False(t, ok)
		assert.Equal(t, StatusTransferFailed, status)
		assert.Equal(t, "recipient is not a valid merchant", reason)

		_, _, reason = Probe(unregistered, validMerchant, false, amt(10), minimum)
		assert.Equal(t, "sender has no valid role", reason)

		_, _, reason = Probe(validCitizen, validMerchant, false, amt(9), minimum)
		assert.Equal(t, "amount below minimum transfer", reason)
	})

	t.Run("burn probe uses redemption rules", func(t *testing.T) {
		ok, status, reason := Probe(validMerchant, unregistered, true, amt(10), minimum)
		assert.True(t, ok)
		assert.Equal(t, StatusSuccess, status)
		assert.Empty(t, reason)

		ok, status, reason = Probe(validCitizen, unregistered, true, amt(10), minimum)
		assert.False(t, ok)
		assert.Equal(t, StatusTransferFailed, status)
		assert.Equal(t, "holder is not a valid merchant", reason)
	})
}
