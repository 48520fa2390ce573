package middleware

import "context"

type contextKey string

const (
	ctxCashierID  contextKey = "cashier_id"
	ctxRole       contextKey = "cashier_role"
	ctxSessionKey contextKey = "session_key"
)

func CashierIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxCashierID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

// SessionKeyFromContext returns the cart session key derived by Auth.
func SessionKeyFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSessionKey).(string); ok {
		return v
	}
	return ""
}

// WithSessionKey injects the cart session key into the context.
func WithSessionKey(ctx context.Context, sessionKey string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSessionKey, sessionKey)
}
