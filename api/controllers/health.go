package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/kasirpos/kasir-terminal/api/responses"
	"github.com/kasirpos/kasir-terminal/pkg/config"
	pkgerrors "github.com/kasirpos/kasir-terminal/pkg/errors"
	"github.com/kasirpos/kasir-terminal/pkg/logger"
)

const readyPingTimeout = 2 * time.Second

// Pinger is satisfied by dependencies the readiness probe should check.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Kasir-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready once the session store answers. A nil redis means
// the in-memory store is in use and there is nothing to ping.
func HealthReady(cfg *config.Config, redis Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Kasir-Env", cfg.App.Env)
		if redis != nil {
			ctx, cancel := context.WithTimeout(r.Context(), readyPingTimeout)
			defer cancel()
			if err := redis.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "session store unavailable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
