// Package handler exposes the compensation pool over HTTP.
package handler

import (
	"context"
	"log/slog"
	"math/big"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain"
	dErrors "github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain-errors"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/platform/httputil"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/requestcontext"
)

// Service defines the interface for compensation pool operations.
type Service interface {
	Deposit(ctx context.Context, amount *big.Int) error
	AllowCaller(ctx context.Context, addr domain.Address) error
	DisallowCaller(ctx context.Context, addr domain.Address) error
	TransferAllFunds(ctx context.Context, to domain.Address) error
	ChangeIssuer(ctx context.Context, newIssuer domain.Address) error
	Pause(ctx context.Context) error
	Unpause(ctx context.Context) error
	Balance(ctx context.Context) (*big.Int, error)
	IsAllowed(ctx context.Context, addr domain.Address) (bool, error)
}

// Handler wires pool endpoints to the compensation service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts pool endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/pool/deposits", h.HandleDeposit)
	r.Post("/pool/sweep", h.HandleSweep)
	r.Put("/pool/allowed/{address}", h.HandleAllowCaller)
	r.Delete("/pool/allowed/{address}", h.HandleDisallowCaller)
	r.Get("/pool/allowed/{address}", h.HandleIsAllowed)
	r.Post("/pool/pause", h.HandlePause)
	r.Post("/pool/unpause", h.HandleUnpause)
	r.Put("/pool/issuer", h.HandleChangeIssuer)
	r.Get("/pool/balance", h.HandleBalance)
}

// DepositRequest is the HTTP request body for POST /pool/deposits.
type DepositRequest struct {
	Amount string `json:"amount"`

	parsedAmount *big.Int
}

func (r *DepositRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	amount, err := domain.ParseAmount(r.Amount)
	if err != nil {
		return err
	}
	r.parsedAmount = amount
	return nil
}

// AddressRequest carries a bare address for the sweep and issuer endpoints.
type AddressRequest struct {
	Address string `json:"address"`

	parsedAddress domain.Address
}

func (r *AddressRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	addr, err := domain.ParseAddress(r.Address)
	if err != nil {
		return err
	}
	r.parsedAddress = addr
	return nil
}

// HandleDeposit handles POST /pool/deposits requests.
func (h *Handler) HandleDeposit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[DepositRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.Deposit(ctx, req.parsedAmount); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "pool deposit recorded",
		"request_id", requestID,
		"amount", req.Amount,
	)
	w.WriteHeader(http.StatusNoContent)
}

// HandleSweep handles POST /pool/sweep requests: move the whole pool balance
// to the named address.
func (h *Handler) HandleSweep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[AddressRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.TransferAllFunds(ctx, req.parsedAddress); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "pool swept",
		"request_id", requestID,
		"to", req.Address,
	)
	w.WriteHeader(http.StatusNoContent)
}

// HandleAllowCaller handles PUT /pool/allowed/{address} requests.
func (h *Handler) HandleAllowCaller(w http.ResponseWriter, r *http.Request) {
	h.allowAction(w, r, h.service.AllowCaller)
}

// HandleDisallowCaller handles DELETE /pool/allowed/{address} requests.
func (h *Handler) HandleDisallowCaller(w http.ResponseWriter, r *http.Request) {
	h.allowAction(w, r, h.service.DisallowCaller)
}

// HandleIsAllowed handles GET /pool/allowed/{address} requests.
func (h *Handler) HandleIsAllowed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	addr, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	allowed, err := h.service.IsAllowed(ctx, addr)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"allowed": allowed})
}

// HandlePause handles POST /pool/pause requests.
func (h *Handler) HandlePause(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Pause(r.Context()); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleUnpause handles POST /pool/unpause requests.
func (h *Handler) HandleUnpause(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Unpause(r.Context()); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleChangeIssuer handles PUT /pool/issuer requests.
func (h *Handler) HandleChangeIssuer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[AddressRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.ChangeIssuer(ctx, req.parsedAddress); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "pool issuer rotated",
		"request_id", requestID,
		"issuer", req.Address,
	)
	w.WriteHeader(http.StatusNoContent)
}

// HandleBalance handles GET /pool/balance requests.
func (h *Handler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.service.Balance(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"balance": domain.AmountString(balance)})
}

func (h *Handler) allowAction(w http.ResponseWriter, r *http.Request, fn func(context.Context, domain.Address) error) {
	ctx := r.Context()

	addr, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := fn(ctx, addr); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
