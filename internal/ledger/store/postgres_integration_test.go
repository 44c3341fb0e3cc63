//go:build integration

package store

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/ledger/models"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/testutil/containers"
)

func TestPostgresLedgerStore(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	pg.Apply(t, Schema)

	ctx := context.Background()
	s := NewPostgres(pg.DB)

	owner := domain.MustParseAddress("0x00000000000000000000000000000000000000a1")
	issuer := domain.MustParseAddress("0x00000000000000000000000000000000000000a2")
	treasury := domain.MustParseAddress("0x00000000000000000000000000000000000000a3")
	holder := domain.MustParseAddress("0x0000000000000000000000000000000000000001")
	spender := domain.MustParseAddress("0x0000000000000000000000000000000000000002")

	t.Run("config round trip", func(t *testing.T) {
		cfg := &models.Config{
			Owner:                   owner,
			Issuer:                  issuer,
			Treasury:                treasury,
			Compensation:            domain.ZeroAddress,
			MinimumTransfer:         big.NewInt(10),
			MinimumSponsoredBalance: big.NewInt(100),
		}
		require.NoError(t, s.PutConfig(ctx, cfg))

		got, err := s.Config(ctx)
		require.NoError(t, err)
		require.Equal(t, owner, got.Owner)
		require.Equal(t, issuer, got.Issuer)
		require.Zero(t, got.MinimumTransfer.Cmp(big.NewInt(10)))
		require.False(t, got.Paused)

		cfg.Paused = true
		require.NoError(t, s.PutConfig(ctx, cfg))
		got, err = s.Config(ctx)
		require.NoError(t, err)
		require.True(t, got.Paused)
	})

	t.Run("balances survive the full 256-bit range", func(t *testing.T) {
		huge, ok := new(big.Int).SetString("115792089237316195423570985008687907853269984665640564039457584007913129639935", 10)
		require.True(t, ok)

		require.NoError(t, s.SetBalance(ctx, holder, huge))
		got, err := s.Balance(ctx, holder)
		require.NoError(t, err)
		require.Zero(t, got.Cmp(huge))
	})

	t.Run("zero balance clears the row", func(t *testing.T) {
		require.NoError(t, s.SetBalance(ctx, holder, big.NewInt(0)))
		got, err := s.Balance(ctx, holder)
		require.NoError(t, err)
		require.Zero(t, got.Sign())

		var count int
		require.NoError(t, pg.DB.QueryRow(
			`SELECT COUNT(*) FROM ledger_accounts WHERE address = $1`, holder.String()).Scan(&count))
		require.Zero(t, count)
	})

	t.Run("unknown account reads as zero", func(t *testing.T) {
		got, err := s.Balance(ctx, spender)
		require.NoError(t, err)
		require.Zero(t, got.Sign())
	})

	t.Run("allowances", func(t *testing.T) {
		require.NoError(t, s.SetAllowance(ctx, holder, spender, big.NewInt(500)))
		got, err := s.Allowance(ctx, holder, spender)
		require.NoError(t, err)
		require.Zero(t, got.Cmp(big.NewInt(500)))

		require.NoError(t, s.SetAllowance(ctx, holder, spender, big.NewInt(0)))
		got, err = s.Allowance(ctx, holder, spender)
		require.NoError(t, err)
		require.Zero(t, got.Sign())
	})

	t.Run("supply", func(t *testing.T) {
		require.NoError(t, s.SetTotalSupply(ctx, big.NewInt(123456)))
		got, err := s.TotalSupply(ctx)
		require.NoError(t, err)
		require.Zero(t, got.Cmp(big.NewInt(123456)))
	})
}
