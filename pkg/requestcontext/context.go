// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Middleware sets the values; services only read them. Keeping this package
// free of net/http lets domain services depend on it without pulling in
// transport code.
//
// Usage in services (read values):
//
//	actor := requestcontext.Actor(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	ctx = requestcontext.WithActor(ctx, issuerAddr)
package requestcontext

import (
	"context"
	"time"

	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain"
)

type (
	actorKey       struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
	userAgentKey   struct{}
	deviceKey      struct{}
)

// Exported context keys for tests that need raw context.WithValue.
var (
	ContextKeyActor       = actorKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
	ContextKeyUserAgent   = userAgentKey{}
	ContextKeyDevice      = deviceKey{}
)

// Actor retrieves the authenticated caller address from the context.
// Returns the zero address if not set.
func Actor(ctx context.Context) domain.Address {
	if actor, ok := ctx.Value(ContextKeyActor).(domain.Address); ok {
		return actor
	}
	return domain.ZeroAddress
}

// WithActor injects the caller address into the context.
func WithActor(ctx context.Context, actor domain.Address) context.Context {
	return context.WithValue(ctx, ContextKeyActor, actor)
}

// RequestID retrieves the correlation ID from the context, or "".
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return id
	}
	return ""
}

// WithRequestID injects a correlation ID into the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, id)
}

// Now returns the request-scoped time when one was injected, else the wall
// clock. Lazy role expiry is a pure function of this value, so tests pin it
// instead of sleeping.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime pins the request-scoped time.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}

// UserAgent retrieves the raw client user agent, or "".
func UserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(ContextKeyUserAgent).(string); ok {
		return ua
	}
	return ""
}

// WithUserAgent injects the client user agent into the context.
func WithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, ContextKeyUserAgent, ua)
}

// Device retrieves the parsed device summary ("Chrome 120 / Linux"), or "".
// Set by the device middleware; recorded on controller override events.
func Device(ctx context.Context) string {
	if d, ok := ctx.Value(ContextKeyDevice).(string); ok {
		return d
	}
	return ""
}

// WithDevice injects the parsed device summary into the context.
func WithDevice(ctx context.Context, device string) context.Context {
	return context.WithValue(ctx, ContextKeyDevice, device)
}
