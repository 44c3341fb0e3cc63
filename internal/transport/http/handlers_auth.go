package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/platform/middleware"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain"
	dErrors "github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain-errors"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/platform/httputil"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/requestcontext"
)

const operatorTokenTTL = time.Hour

// TokenIssuer mints operator access tokens.
type TokenIssuer interface {
	GenerateOperatorToken(address string, expiresIn time.Duration) (string, error)
}

type authHandler struct {
	tokens          TokenIssuer
	validator       middleware.TokenValidator
	revoker         TokenRevoker
	adminSecretHash string
	logger          *slog.Logger
}

// TokenRequest is the HTTP request body for POST /auth/token.
type TokenRequest struct {
	Secret  string `json:"secret"`
	Address string `json:"address"`

	parsedAddress domain.Address
}

func (r *TokenRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Secret == "" {
		return dErrors.New(dErrors.CodeBadRequest, "secret is required")
	}
	addr, err := domain.ParseAddress(r.Address)
	if err != nil {
		return err
	}
	r.parsedAddress = addr
	return nil
}

// TokenResponse is the HTTP response for POST /auth/token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// HandleToken exchanges the admin secret for an operator token bound to the
// given address.
func (h *authHandler) HandleToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[TokenRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if h.adminSecretHash == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "token minting is not configured"))
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(h.adminSecretHash), []byte(req.Secret)); err != nil {
		h.logger.WarnContext(ctx, "token minting rejected",
			"request_id", requestID,
			"address", req.Address,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid secret"))
		return
	}

	token, err := h.tokens.GenerateOperatorToken(req.parsedAddress.String(), operatorTokenTTL)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token"))
		return
	}

	h.logger.InfoContext(ctx, "operator token minted",
		"request_id", requestID,
		"address", req.Address,
	)
	httputil.WriteJSON(w, http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(operatorTokenTTL.Seconds()),
	})
}

// RevokeRequest is the HTTP request body for POST /auth/revoke.
type RevokeRequest struct {
	Token string `json:"token"`
}

func (r *RevokeRequest) Validate() error {
	if r == nil || r.Token == "" {
		return dErrors.New(dErrors.CodeBadRequest, "token is required")
	}
	return nil
}

// HandleRevoke places the presented token on the revocation list for the
// remainder of its lifetime.
func (h *authHandler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RevokeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if h.revoker == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeConflict, "no revocation backend is configured"))
		return
	}

	claims, err := h.validator.ValidateToken(req.Token)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	ttl := operatorTokenTTL
	if claims.ExpiresAt != nil {
		if remaining := time.Until(claims.ExpiresAt.Time); remaining > 0 {
			ttl = remaining
		}
	}
	if err := h.revoker.RevokeToken(ctx, claims.ID, ttl); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke token"))
		return
	}

	h.logger.InfoContext(ctx, "operator token revoked",
		"request_id", requestID,
		"jti", claims.ID,
	)
	w.WriteHeader(http.StatusNoContent)
}
