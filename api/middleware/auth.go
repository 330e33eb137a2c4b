package middleware

import (
	"net/http"
	"strings"

	"github.com/pitwallhq/pitwall-gateway/api/responses"
	pkgAuth "github.com/pitwallhq/pitwall-gateway/pkg/auth"
	"github.com/pitwallhq/pitwall-gateway/pkg/config"
	pkgerrors "github.com/pitwallhq/pitwall-gateway/pkg/errors"
	"github.com/pitwallhq/pitwall-gateway/pkg/logger"
)

// Auth validates the league-issued bearer token and seeds the request context
// with the team id plus the raw token, which downstream calls reuse upstream.
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

			claims, err := pkgAuth.ParseTeamToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}
			if claims.TeamID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing team id"))
				return
			}

			ctx := WithTeamID(r.Context(), claims.TeamID)
			ctx = WithToken(ctx, token)
			if logg != nil {
				ctx = logg.WithTeamID(ctx, claims.TeamID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
