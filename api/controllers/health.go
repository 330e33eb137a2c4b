package controllers

import (
	"net/http"

	"github.com/pitwallhq/pitwall-gateway/api/responses"
	"github.com/pitwallhq/pitwall-gateway/pkg/config"
	pkgerrors "github.com/pitwallhq/pitwall-gateway/pkg/errors"
	"github.com/pitwallhq/pitwall-gateway/pkg/logger"
	"github.com/pitwallhq/pitwall-gateway/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Pitwall-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady also checks the view cache backend so load balancers stop
// routing when Redis is gone.
func HealthReady(cfg *config.Config, pinger redis.Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Pitwall-Env", cfg.App.Env)

		if pinger != nil {
			if err := pinger.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "cache unavailable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
