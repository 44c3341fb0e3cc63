// Package handler exposes the ledger over HTTP: transfers, redemptions,
// supply management, the controller channel, and administration.
package handler

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/policy"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain"
	dErrors "github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain-errors"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/platform/httputil"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/requestcontext"
)

// Service defines the interface for ledger operations.
type Service interface {
	Transfer(ctx context.Context, to domain.Address, amount *big.Int) error
	TransferWithData(ctx context.Context, to domain.Address, amount *big.Int, data []byte) error
	TransferFrom(ctx context.Context, from, to domain.Address, amount *big.Int) error
	TransferFromWithData(ctx context.Context, from, to domain.Address, amount *big.Int, data []byte) error
	Redeem(ctx context.Context, amount *big.Int, data []byte) error
	RedeemFrom(ctx context.Context, from domain.Address, amount *big.Int, data []byte) error
	Approve(ctx context.Context, spender domain.Address, amount *big.Int) error
	CanTransfer(ctx context.Context, from, to domain.Address, amount *big.Int) (bool, policy.Status, string, error)

	Generate(ctx context.Context, amount *big.Int) error
	Distribute(ctx context.Context, to domain.Address, amount *big.Int, data []byte) error
	Compense(ctx context.Context, target domain.Address) error

	ControllerTransfer(ctx context.Context, from, to domain.Address, amount *big.Int, data, operatorData []byte) error
	ControllerRedeem(ctx context.Context, from domain.Address, amount *big.Int, data, operatorData []byte) error

	Pause(ctx context.Context) error
	Unpause(ctx context.Context) error
	ChangeIssuer(ctx context.Context, newIssuer domain.Address) error
	SetMinimumTransfer(ctx context.Context, minimum *big.Int) error
	SetMinimumSponsoredBalance(ctx context.Context, minimum *big.Int) error
	SetCompensation(ctx context.Context, pool domain.Address) error

	BalanceOf(ctx context.Context, addr domain.Address) (*big.Int, error)
	TotalSupply(ctx context.Context) (*big.Int, error)
	Allowance(ctx context.Context, owner, spender domain.Address) (*big.Int, error)
	Paused(ctx context.Context) (bool, error)
}

// Handler wires ledger endpoints to the ledger service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts ledger endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/transfers", h.HandleTransfer)
	r.Post("/transfers/from", h.HandleTransferFrom)
	r.Post("/redemptions", h.HandleRedeem)
	r.Post("/redemptions/from", h.HandleRedeemFrom)
	r.Post("/approvals", h.HandleApprove)
	r.Get("/can-transfer", h.HandleCanTransfer)

	r.Post("/supply/generate", h.HandleGenerate)
	r.Post("/supply/distribute", h.HandleDistribute)
	r.Post("/compense", h.HandleCompense)

	r.Post("/controller/transfers", h.HandleControllerTransfer)
	r.Post("/controller/redemptions", h.HandleControllerRedeem)

	r.Post("/admin/pause", h.HandlePause)
	r.Post("/admin/unpause", h.HandleUnpause)
	r.Put("/admin/issuer", h.HandleChangeIssuer)
	r.Put("/admin/minimum-transfer", h.HandleSetMinimumTransfer)
	r.Put("/admin/minimum-sponsored-balance", h.HandleSetMinimumSponsoredBalance)
	r.Put("/admin/compensation", h.HandleSetCompensation)

	r.Get("/accounts/{address}/balance", h.HandleBalance)
	r.Get("/supply", h.HandleSupply)
	r.Get("/allowances/{owner}/{spender}", h.HandleAllowance)
	r.Get("/status", h.HandleStatus)
}

// HandleTransfer handles POST /transfers requests. The sender is the
// authenticated actor.
func (h *Handler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[TransferRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	var err error
	if len(req.Data) > 0 {
		err = h.service.TransferWithData(ctx, req.ParsedTo(), req.ParsedAmount(), req.Data)
	} else {
		err = h.service.Transfer(ctx, req.ParsedTo(), req.ParsedAmount())
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "transfer applied",
		"request_id", requestID,
		"to", req.To,
		"amount", req.Amount,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	w.WriteHeader(http.StatusNoContent)
}

// HandleTransferFrom handles POST /transfers/from requests. The actor spends
// its allowance from the named owner.
func (h *Handler) HandleTransferFrom(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[TransferRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if req.From == "" {
		httputil.WriteError(w, badRequest("from is required"))
		return
	}

	var err error
	if len(req.Data) > 0 {
		err = h.service.TransferFromWithData(ctx, req.ParsedFrom(), req.ParsedTo(), req.ParsedAmount(), req.Data)
	} else {
		err = h.service.TransferFrom(ctx, req.ParsedFrom(), req.ParsedTo(), req.ParsedAmount())
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRedeem handles POST /redemptions requests.
func (h *Handler) HandleRedeem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RedeemRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.Redeem(ctx, req.ParsedAmount(), req.Data); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "redemption applied",
		"request_id", requestID,
		"amount", req.Amount,
	)
	w.WriteHeader(http.StatusNoContent)
}

// HandleRedeemFrom handles POST /redemptions/from requests.
func (h *Handler) HandleRedeemFrom(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RedeemRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if req.From == "" {
		httputil.WriteError(w, badRequest("from is required"))
		return
	}

	if err := h.service.RedeemFrom(ctx, req.ParsedFrom(), req.ParsedAmount(), req.Data); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleApprove handles POST /approvals requests.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ApproveRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.Approve(ctx, req.ParsedSpender(), req.ParsedAmount()); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CanTransferResponse is the HTTP response for GET /can-transfer.
type CanTransferResponse struct {
	Allowed bool   `json:"allowed"`
	Status  string `json:"status"`
	Reason  string `json:"reason,omitempty"`
}

// HandleCanTransfer handles GET /can-transfer probes. A zero `to` address
// probes a redemption. The probe never mutates state.
func (h *Handler) HandleCanTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	q := r.URL.Query()
	from, err := domain.ParseAddress(q.Get("from"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	to := domain.ZeroAddress
	if raw := q.Get("to"); raw != "" {
		if to, err = domain.ParseAddress(raw); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}
	amount, err := domain.ParseAmount(q.Get("amount"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	allowed, status, reason, err := h.service.CanTransfer(ctx, from, to, amount)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, CanTransferResponse{
		Allowed: allowed,
		Status:  fmt.Sprintf("0x%02x", byte(status)),
		Reason:  reason,
	})
}

// HandleGenerate handles POST /supply/generate requests. New supply lands in
// the treasury.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[AmountRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.Generate(ctx, req.ParsedAmount()); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "supply generated",
		"request_id", requestID,
		"amount", req.Amount,
	)
	w.WriteHeader(http.StatusNoContent)
}

// HandleDistribute handles POST /supply/distribute requests.
func (h *Handler) HandleDistribute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[TransferRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.Distribute(ctx, req.ParsedTo(), req.ParsedAmount(), req.Data); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleCompense handles POST /compense requests: top the target wallet up
// from the compensation pool.
func (h *Handler) HandleCompense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[AddressRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.Compense(ctx, req.ParsedAddress()); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleControllerTransfer handles POST /controller/transfers requests.
func (h *Handler) HandleControllerTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ControllerRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if req.To == "" {
		httputil.WriteError(w, badRequest("to is required"))
		return
	}

	if err := h.service.ControllerTransfer(ctx, req.ParsedFrom(), req.ParsedTo(), req.ParsedAmount(), req.Data, req.OperatorData); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleControllerRedeem handles POST /controller/redemptions requests.
func (h *Handler) HandleControllerRedeem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ControllerRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.ControllerRedeem(ctx, req.ParsedFrom(), req.ParsedAmount(), req.Data, req.OperatorData); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandlePause handles POST /admin/pause requests.
func (h *Handler) HandlePause(w http.ResponseWriter, r *http.Request) {
	h.simpleAction(w, r, "ledger paused", h.service.Pause)
}

// HandleUnpause handles POST /admin/unpause requests.
func (h *Handler) HandleUnpause(w http.ResponseWriter, r *http.Request) {
	h.simpleAction(w, r, "ledger unpaused", h.service.Unpause)
}

// HandleChangeIssuer handles PUT /admin/issuer requests.
func (h *Handler) HandleChangeIssuer(w http.ResponseWriter, r *http.Request) {
	h.addressAction(w, r, "issuer rotated", h.service.ChangeIssuer)
}

// HandleSetCompensation handles PUT /admin/compensation requests.
func (h *Handler) HandleSetCompensation(w http.ResponseWriter, r *http.Request) {
	h.addressAction(w, r, "compensation pool changed", h.service.SetCompensation)
}

// HandleSetMinimumTransfer handles PUT /admin/minimum-transfer requests.
func (h *Handler) HandleSetMinimumTransfer(w http.ResponseWriter, r *http.Request) {
	h.amountAction(w, r, "minimum transfer changed", h.service.SetMinimumTransfer)
}

// HandleSetMinimumSponsoredBalance handles PUT /admin/minimum-sponsored-balance
// requests.
func (h *Handler) HandleSetMinimumSponsoredBalance(w http.ResponseWriter, r *http.Request) {
	h.amountAction(w, r, "minimum sponsored balance changed", h.service.SetMinimumSponsoredBalance)
}

// HandleBalance handles GET /accounts/{address}/balance requests.
func (h *Handler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	addr, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	balance, err := h.service.BalanceOf(ctx, addr)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"balance": domain.AmountString(balance)})
}

// HandleSupply handles GET /supply requests.
func (h *Handler) HandleSupply(w http.ResponseWriter, r *http.Request) {
	supply, err := h.service.TotalSupply(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"supply": domain.AmountString(supply)})
}

// HandleAllowance handles GET /allowances/{owner}/{spender} requests.
func (h *Handler) HandleAllowance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	owner, err := domain.ParseAddress(chi.URLParam(r, "owner"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	spender, err := domain.ParseAddress(chi.URLParam(r, "spender"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	allowance, err := h.service.Allowance(ctx, owner, spender)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"allowance": domain.AmountString(allowance)})
}

// HandleStatus handles GET /status requests.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	paused, err := h.service.Paused(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"paused": paused})
}

func (h *Handler) simpleAction(w http.ResponseWriter, r *http.Request, msg string, fn func(context.Context) error) {
	ctx := r.Context()
	if err := fn(ctx); err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, msg, "request_id", requestcontext.RequestID(ctx))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) addressAction(w http.ResponseWriter, r *http.Request, msg string, fn func(context.Context, domain.Address) error) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[AddressRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := fn(ctx, req.ParsedAddress()); err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, msg, "request_id", requestID, "address", req.Address)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) amountAction(w http.ResponseWriter, r *http.Request, msg string, fn func(context.Context, *big.Int) error) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[AmountRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := fn(ctx, req.ParsedAmount()); err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, msg, "request_id", requestID, "amount", req.Amount)
	w.WriteHeader(http.StatusNoContent)
}

func badRequest(msg string) error {
	return dErrors.New(dErrors.CodeBadRequest, msg)
}
