// internal/application/usecase/context.go
package usecase

import (
	"context"
	"strings"
)

type ctxKey string

const ctxKeySessionID ctxKey = "sessionId"

// WithSessionID lets middleware inject the caller's session id.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	sid := strings.TrimSpace(sessionID)
	if sid == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKeySessionID, sid)
}

func SessionIDFromContext(ctx context.Context) string {
	v := ctx.Value(ctxKeySessionID)
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}
