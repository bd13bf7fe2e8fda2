package middleware

import (
	"context"

	"github.com/angelmondragon/mercadito-backend/pkg/authz"
)

type contextKey string

const (
	ctxCaller   contextKey = "caller"
	ctxAccessID contextKey = "access_id"
)

// CallerFromContext returns the authenticated caller, or nil for anonymous
// requests.
func CallerFromContext(ctx context.Context) *authz.Caller {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxCaller).(*authz.Caller); ok {
		return v
	}
	return nil
}

// WithCaller attaches an authenticated caller. Handlers under test use it to
// skip token minting.
func WithCaller(ctx context.Context, caller *authz.Caller) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCaller, caller)
}

// AccessIDFromContext returns the session id (token jti) of the request.
func AccessIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAccessID).(string); ok {
		return v
	}
	return ""
}

func WithAccessID(ctx context.Context, accessID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxAccessID, accessID)
}

func UserIDFromContext(ctx context.Context) string {
	if caller := CallerFromContext(ctx); caller != nil {
		return caller.UserID.String()
	}
	return ""
}
