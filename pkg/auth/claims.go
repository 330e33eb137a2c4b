package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// TeamTokenClaims represents the typed JWT the league issues to a logged-in team.
type TeamTokenClaims struct {
	TeamID   string `json:"equipe_id"`
	TeamName string `json:"equipe_nome,omitempty"`
	jwt.RegisteredClaims
}
