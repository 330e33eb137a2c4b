package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pitwallhq/pitwall-gateway/pkg/config"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// MintTeamToken issues a signed JWT for the provided team. The gateway itself
// never mints tokens in production, the league does, but the signer is shared
// so tests and local tooling can produce valid credentials.
func MintTeamToken(cfg config.JWTConfig, now time.Time, teamID, teamName string, ttl time.Duration) (string, error) {
	if cfg.Secret == "" {
		return "", fmt.Errorf("jwt secret is required")
	}
	if teamID == "" {
		return "", fmt.Errorf("team id is required")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}

	claims := TeamTokenClaims{
		TeamID:   teamID,
		TeamName: teamName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   teamID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwtSigningMethod, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// ParseTeamToken validates the JWT string and returns typed claims.
func ParseTeamToken(cfg config.JWTConfig, tokenString string) (*TeamTokenClaims, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	claims := &TeamTokenClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		},
		opts...,
	)
	if err != nil {
		return nil, err
	}

	if claims.TeamID == "" {
		claims.TeamID = claims.Subject
	}

	return claims, nil
}
