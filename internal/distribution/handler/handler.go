// Package handler exposes resumable batch distribution over HTTP.
package handler

import (
	"context"
	"log/slog"
	"math/big"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/distribution"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain"
	dErrors "github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain-errors"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/platform/httputil"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/requestcontext"
)

// Service defines the interface for batch distribution.
type Service interface {
	DistributeBatch(ctx context.Context, budget distribution.Budget, addrs []domain.Address, amounts []*big.Int, data []byte) (int, bool, error)
}

// Handler wires the batch endpoint to the distribution service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the batch endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/distributions", h.HandleDistributeBatch)
}

// BatchRequest is the HTTP request body for POST /distributions. Entries are
// positional: addresses[i] receives amounts[i].
type BatchRequest struct {
	Addresses []string `json:"addresses"`
	Amounts   []string `json:"amounts"`
	Data      []byte   `json:"data,omitempty"`
	Budget    uint64   `json:"budget"`

	parsedAddrs   []domain.Address
	parsedAmounts []*big.Int
}

// Validate parses addresses and amounts. The arrays-length invariant is the
// service's to enforce so a resumed run reports it the same way.
func (r *BatchRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Budget == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "budget is required")
	}

	r.parsedAddrs = make([]domain.Address, 0, len(r.Addresses))
	for _, raw := range r.Addresses {
		addr, err := domain.ParseAddress(raw)
		if err != nil {
			return err
		}
		r.parsedAddrs = append(r.parsedAddrs, addr)
	}

	r.parsedAmounts = make([]*big.Int, 0, len(r.Amounts))
	for _, raw := range r.Amounts {
		amount, err := domain.ParseAmount(raw)
		if err != nil {
			return err
		}
		r.parsedAmounts = append(r.parsedAmounts, amount)
	}
	return nil
}

// BatchResponse is the HTTP response for POST /distributions.
type BatchResponse struct {
	Applied  int  `json:"applied"`
	Complete bool `json:"complete"`
}

// HandleDistributeBatch handles POST /distributions requests. A run that
// exhausts its budget returns 200 with complete=false and the number of
// entries applied; the caller resubmits the tail.
func (h *Handler) HandleDistributeBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[BatchRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	budget := distribution.NewCountdownBudget(req.Budget)
	applied, complete, err := h.service.DistributeBatch(ctx, budget, req.parsedAddrs, req.parsedAmounts, req.Data)
	if err != nil {
		h.logger.WarnContext(ctx, "batch distribution failed",
			"request_id", requestID,
			"applied", applied,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "batch distribution finished",
		"request_id", requestID,
		"applied", applied,
		"complete", complete,
	)
	httputil.WriteJSON(w, http.StatusOK, BatchResponse{Applied: applied, Complete: complete})
}
