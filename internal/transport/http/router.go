// Package httptransport assembles the HTTP API: middleware stack, public
// endpoints, and the authenticated ledger surface.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	compensationhandler "github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/compensation/handler"
	distributionhandler "github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/distribution/handler"
	ledgerhandler "github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/ledger/handler"
	partyhandler "github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/party/handler"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/platform/metrics"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/platform/middleware"
)

// TokenRevoker revokes an operator token until it would have expired anyway.
type TokenRevoker interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
}

// Deps carries everything the router needs. Revoked and Revoker may be nil
// when no revocation backend is configured.
type Deps struct {
	Party        partyhandler.Service
	Ledger       ledgerhandler.Service
	Pool         compensationhandler.Service
	Distribution distributionhandler.Service

	Tokens          TokenIssuer
	Validator       middleware.TokenValidator
	Revoked         middleware.RevocationChecker
	Revoker         TokenRevoker
	AdminSecretHash string

	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// NewRouter wires the full API surface.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestMeta)
	r.Use(middleware.Device)
	if d.Metrics != nil {
		r.Use(d.Metrics.Instrument)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	auth := &authHandler{
		tokens:          d.Tokens,
		validator:       d.Validator,
		revoker:         d.Revoker,
		adminSecretHash: d.AdminSecretHash,
		logger:          d.Logger,
	}
	r.Post("/auth/token", auth.HandleToken)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(d.Validator, d.Revoked, d.Logger))
		r.Post("/auth/revoke", auth.HandleRevoke)

		partyhandler.New(d.Party, d.Logger).Register(r)
		ledgerhandler.New(d.Ledger, d.Logger).Register(r)
		compensationhandler.New(d.Pool, d.Logger).Register(r)
		distributionhandler.New(d.Distribution, d.Logger).Register(r)
	})

	return r
}
