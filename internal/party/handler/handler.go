// Package handler exposes the party registry over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/party/models"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/platform/httputil"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/requestcontext"
)

// Service defines the interface for party registry operations.
type Service interface {
	AddParty(ctx context.Context, addr domain.Address, role domain.Role, expiration time.Time, attachedData []byte) error
	RemoveParty(ctx context.Context, addr domain.Address) error
	Record(ctx context.Context, addr domain.Address) (*models.Record, error)
	EffectiveRole(ctx context.Context, addr domain.Address) (domain.Role, error)
}

// Handler wires party registry endpoints to the party service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts party endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/parties", h.HandleAddParty)
	r.Delete("/parties/{address}", h.HandleRemoveParty)
	r.Get("/parties/{address}", h.HandleGetParty)
	r.Get("/parties/{address}/role", h.HandleGetRole)
}

// RecordResponse is the HTTP shape of a registry record.
type RecordResponse struct {
	Address      string    `json:"address"`
	Role         uint8     `json:"role"`
	Expiration   time.Time `json:"expiration"`
	AttachedData []byte    `json:"attached_data,omitempty"`
}

// HandleAddParty handles POST /parties requests.
func (h *Handler) HandleAddParty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[AddPartyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.AddParty(ctx, req.ParsedAddress(), req.ParsedRole(), req.Expiration, req.AttachedData); err != nil {
		h.logger.WarnContext(ctx, "party registration failed",
			"request_id", requestID,
			"address", req.Address,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "party registered",
		"request_id", requestID,
		"address", req.Address,
		"role", req.Role,
	)
	w.WriteHeader(http.StatusCreated)
}

// HandleRemoveParty handles DELETE /parties/{address} requests.
func (h *Handler) HandleRemoveParty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	addr, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.RemoveParty(ctx, addr); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "party removed",
		"request_id", requestcontext.RequestID(ctx),
		"address", addr.String(),
	)
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetParty handles GET /parties/{address} requests.
func (h *Handler) HandleGetParty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	addr, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	rec, err := h.service.Record(ctx, addr)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, RecordResponse{
		Address:      rec.Address.String(),
		Role:         uint8(rec.Role),
		Expiration:   rec.Expiration,
		AttachedData: rec.AttachedData,
	})
}

// HandleGetRole handles GET /parties/{address}/role requests. The role is
// the effective one: a lapsed grant reads as no role.
func (h *Handler) HandleGetRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	addr, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	role, err := h.service.EffectiveRole(ctx, addr)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]uint8{"role": uint8(role)})
}
