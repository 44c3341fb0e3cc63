package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/platform/jwt"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/requestcontext"
)

// TokenValidator validates bearer tokens presented by operators.
type TokenValidator interface {
	ValidateToken(tokenString string) (*jwt.Claims, error)
}

// RevocationChecker answers whether a token ID has been revoked.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// RequireAuth authenticates the request and places the caller address into
// the context as the actor. revoked may be nil when no revocation backend is
// configured.
func RequireAuth(validator TokenValidator, revoked RevocationChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			if revoked != nil {
				isRevoked, err := revoked.IsRevoked(ctx, claims.ID)
				if err != nil {
					logger.ErrorContext(ctx, "revocation check failed",
						"error", err,
						"request_id", requestID,
					)
					writeUnauthorized(w, "Invalid or expired token")
					return
				}
				if isRevoked {
					logger.WarnContext(ctx, "unauthorized access - revoked token",
						"jti", claims.ID,
						"request_id", requestID,
					)
					writeUnauthorized(w, "Invalid or expired token")
					return
				}
			}

			actor, err := domain.ParseAddress(claims.Address)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - malformed actor address",
					"error", err,
					"request_id", requestID,
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithActor(ctx, actor)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
