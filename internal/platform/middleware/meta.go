package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mssola/useragent"

	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/requestcontext"
)

// RequestMeta propagates the correlation ID, the request-scoped time, and
// the client user agent into the context. The ID comes from X-Request-ID
// when the caller supplies one. Pinning the time once per request keeps
// every expiry check within the request consistent.
func RequestMeta(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		ctx = requestcontext.WithTime(ctx, time.Now())
		if ua := r.UserAgent(); ua != "" {
			ctx = requestcontext.WithUserAgent(ctx, ua)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Device parses the user agent into a short "Browser ver / OS" summary for
// the controller audit trail.
func Device(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.UserAgent()
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}

		ua := useragent.New(raw)
		name, version := ua.Browser()
		summary := name
		if version != "" {
			summary += " " + version
		}
		if os := ua.OS(); os != "" {
			summary += " / " + os
		}

		ctx := requestcontext.WithDevice(r.Context(), summary)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
