package kasirapi

import (
	"context"
	"strings"
)

type bearerKey struct{}

// WithBearer stores the cashier's bearer credential so outgoing backend calls
// made with ctx carry it.
func WithBearer(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerKey{}, strings.TrimSpace(token))
}

// BearerFromContext returns the credential stored by WithBearer.
func BearerFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	token, _ := ctx.Value(bearerKey{}).(string)
	return token
}
