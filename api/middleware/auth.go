package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/kasirpos/kasir-terminal/api/responses"
	pkgAuth "github.com/kasirpos/kasir-terminal/pkg/auth"
	"github.com/kasirpos/kasir-terminal/pkg/config"
	pkgerrors "github.com/kasirpos/kasir-terminal/pkg/errors"
	"github.com/kasirpos/kasir-terminal/pkg/kasirapi"
	"github.com/kasirpos/kasir-terminal/pkg/logger"
)

// Auth requires a bearer credential, derives the cart session key from it
// and forwards the credential to backend calls made with the request context.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseCashierToken(cfg, token)
			if err != nil {
				if cfg.Verifies() || !errors.Is(err, pkgAuth.ErrOpaqueToken) {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
					return
				}
				claims = nil
			}

			sessionKey := pkgAuth.SessionKey(claims, token)

			ctx := kasirapi.WithBearer(r.Context(), token)
			ctx = context.WithValue(ctx, ctxSessionKey, sessionKey)
			if id := claims.Identity(); id != "" {
				ctx = context.WithValue(ctx, ctxCashierID, id)
			}
			if claims != nil && claims.Role != "" {
				ctx = context.WithValue(ctx, ctxRole, string(claims.Role))
			}

			if logg != nil {
				ctx = logg.WithSession(ctx, sessionKey)
				if id := claims.Identity(); id != "" {
					ctx = logg.WithCashierID(ctx, id)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
