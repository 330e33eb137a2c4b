package leagueapi

import (
	"context"
	"encoding/json"
	"errors"
)

// Read-side views are proxied opaquely: the gateway caches and forwards the
// league's JSON without interpreting it, so league-side schema changes do
// not ripple through here.

func (c *Client) Garage(ctx context.Context, token, teamID string) (json.RawMessage, error) {
	return c.view(ctx, token, "/api/garagem/", teamID)
}

func (c *Client) Warehouse(ctx context.Context, token, teamID string) (json.RawMessage, error) {
	return c.view(ctx, token, "/api/armazem/", teamID)
}

func (c *Client) Team(ctx context.Context, token, teamID string) (json.RawMessage, error) {
	return c.view(ctx, token, "/api/equipes/", teamID)
}

// PurchaseHistory is scoped by the bearer token upstream, not by path.
func (c *Client) PurchaseHistory(ctx context.Context, token string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.get(ctx, token, "/api/historico/compras", &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) view(ctx context.Context, token, prefix, teamID string) (json.RawMessage, error) {
	if teamID == "" {
		return nil, errors.New("team id is required")
	}
	var raw json.RawMessage
	if err := c.get(ctx, token, prefix+teamID, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
