//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/party/models"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/platform/sentinel"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/testutil/containers"
)

func TestPostgresPartyStore(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	pg.Apply(t, Schema)

	ctx := context.Background()
	s := NewPostgres(pg.DB)

	addr := domain.MustParseAddress("0x0000000000000000000000000000000000000001")
	expiration := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("get before insert reports not found", func(t *testing.T) {
		_, err := s.Get(ctx, addr)
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("upsert and get", func(t *testing.T) {
		rec := &models.Record{
			Address:      addr,
			Role:         domain.RoleCitizen,
			Expiration:   expiration,
			AttachedData: []byte(`{"did":"did:example:123"}`),
		}
		require.NoError(t, s.Upsert(ctx, rec))

		got, err := s.Get(ctx, addr)
		require.NoError(t, err)
		require.Equal(t, domain.RoleCitizen, got.Role)
		require.True(t, got.Expiration.Equal(expiration))
		require.JSONEq(t, `{"did":"did:example:123"}`, string(got.AttachedData))
	})

	t.Run("upsert replaces the record", func(t *testing.T) {
		rec := &models.Record{
			Address:    addr,
			Role:       domain.RoleMerchant,
			Expiration: expiration.Add(24 * time.Hour),
		}
		require.NoError(t, s.Upsert(ctx, rec))

		got, err := s.Get(ctx, addr)
		require.NoError(t, err)
		require.Equal(t, domain.RoleMerchant, got.Role)
		require.Nil(t, got.AttachedData)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, addr))
		_, err := s.Get(ctx, addr)
		require.ErrorIs(t, err, sentinel.ErrNotFound)

		require.ErrorIs(t, s.Delete(ctx, addr), sentinel.ErrNotFound)
	})
}
