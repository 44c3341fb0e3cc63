package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/compensation/models"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/compensation/service/mocks"
	dErrors "github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain-errors"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/platform/events"
)

func newMockedService(t *testing.T) (*Service, *mocks.MockStore, *mocks.MockNativeSource) {
	t.Helper()
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStore(ctrl)
	ns := mocks.NewMockNativeSource(ctrl)
	svc := New(st, ns, events.NewMemoryLog(), nil,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	return svc, st, ns
}

func poolConfig() *models.Config {
	return &models.Config{Owner: ownerAddr, Issuer: issuerAddr}
}

func TestCompenseStoreFailure(t *testing.T) {
	svc, st, ns := newMockedService(t)

	st.EXPECT().Config(gomock.Any()).Return(poolConfig(), nil)
	st.EXPECT().IsAllowed(gomock.Any(), ledgerAddr).Return(true, nil)
	ns.EXPECT().HasCode(gomock.Any(), walletAddr).Return(false, nil)
	ns.EXPECT().BalanceOf(gomock.Any(), walletAddr).Return(big.NewInt(0), nil)
	st.EXPECT().Balance(gomock.Any()).Return(nil, errors.New("connection reset"))

	err := svc.Compense(context.Background(), ledgerAddr, walletAddr, big.NewInt(100))
	require.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
}

func TestCompenseCreditFailure(t *testing.T) {
	svc, st, ns := newMockedService(t)

	st.EXPECT().Config(gomock.Any()).Return(poolConfig(), nil)
	st.EXPECT().IsAllowed(gomock.Any(), ledgerAddr).Return(true, nil)
	ns.EXPECT().HasCode(gomock.Any(), walletAddr).Return(false, nil)
	ns.EXPECT().BalanceOf(gomock.Any(), walletAddr).Return(big.NewInt(0), nil)
	st.EXPECT().Balance(gomock.Any()).Return(big.NewInt(500), nil)
	st.EXPECT().SetBalance(gomock.Any(), big.NewInt(400)).Return(nil)
	ns.EXPECT().Credit(gomock.Any(), walletAddr, big.NewInt(100)).Return(errors.New("node unavailable"))

	err := svc.Compense(context.Background(), ledgerAddr, walletAddr, big.NewInt(100))
	require.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
}
