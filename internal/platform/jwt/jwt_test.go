package jwt

import (
	"testing"
	"time"

	dErrors "github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain-errors"

	"github.com/stretchr/testify/require"
)

func TestOperatorTokenRoundTrip(t *testing.T) {
	svc := NewService("test-signing-key", "ssitizens-ledger", "ledger-api")

	token, err := svc.GenerateOperatorToken("0x1111111111111111111111111111111111111111", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	require.Equal(t, "0x1111111111111111111111111111111111111111", claims.Address)
	require.NotEmpty(t, claims.ID)
	require.Equal(t, "ssitizens-ledger", claims.Issuer)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	svc := NewService("test-signing-key", "ssitizens-ledger", "ledger-api")

	token, err := svc.GenerateOperatorToken("0x1111111111111111111111111111111111111111", -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	require.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestValidateRejectsForeignKey(t *testing.T) {
	mint := NewService("key-one", "ssitizens-ledger", "ledger-api")
	check := NewService("key-two", "ssitizens-ledger", "ledger-api")

	token, err := mint.GenerateOperatorToken("0x1111111111111111111111111111111111111111", time.Hour)
	require.NoError(t, err)

	_, err = check.ValidateToken(token)
	require.Error(t, err)
	require.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
