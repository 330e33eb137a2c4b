package middleware

import "context"

type contextKey string

const (
	ctxTeamID contextKey = "team_id"
	ctxToken  contextKey = "league_token"
)

func TeamIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxTeamID).(string); ok {
		return v
	}
	return ""
}

// TokenFromContext returns the raw league bearer token, kept around so the
// gateway can call upstream on the team's behalf.
func TokenFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxToken).(string); ok {
		return v
	}
	return ""
}

// WithTeamID injects the team identifier into the context.
func WithTeamID(ctx context.Context, teamID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxTeamID, teamID)
}

// WithToken injects the raw league token into the context.
func WithToken(ctx context.Context, token string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxToken, token)
}
