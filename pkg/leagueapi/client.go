package leagueapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/pitwallhq/pitwall-gateway/pkg/config"
	pkgerrors "github.com/pitwallhq/pitwall-gateway/pkg/errors"
	"github.com/pitwallhq/pitwall-gateway/pkg/logger"
)

// Client talks to the upstream league API on behalf of an authenticated
// team. The team's bearer token is passed per call; the gateway holds no
// credentials of its own.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logg       *logger.Logger
}

// New builds a league API client from the configured base URL and timeout.
func New(cfg config.LeagueConfig, logg *logger.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("league base url is required")
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		baseURL:    base,
		logg:       logg,
	}, nil
}

// MutationResult is the envelope every league mutation endpoint returns.
type MutationResult struct {
	Success bool   `json:"sucesso"`
	Reason  string `json:"erro,omitempty"`
}

func (c *Client) get(ctx context.Context, token, path string, dest any) error {
	return c.do(ctx, http.MethodGet, token, path, nil, dest, false)
}

func (c *Client) post(ctx context.Context, token, path string, body, dest any) error {
	return c.do(ctx, http.MethodPost, token, path, body, dest, false)
}

// postMutation issues a side-effecting call with a client-generated
// idempotency key so a retried request cannot apply twice upstream.
func (c *Client) postMutation(ctx context.Context, token, path string, body, dest any) error {
	return c.do(ctx, http.MethodPost, token, path, body, dest, true)
}

func (c *Client) do(ctx context.Context, method, token, path string, body, dest any, idempotent bool) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s body: %w", path, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if idempotent {
		req.Header.Set("X-Idempotency-Key", uuid.NewString())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, fmt.Sprintf("league request %s failed", path))
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return pkgerrors.New(pkgerrors.CodeUpstream, fmt.Sprintf("league returned %d for %s", resp.StatusCode, path)).
			WithDetails(map[string]any{"status": resp.StatusCode})
	}

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, fmt.Sprintf("decoding %s response", path))
	}
	return nil
}

// mutate runs a mutation endpoint and folds the {sucesso, erro} envelope
// into a plain error so callers can collect failures uniformly.
func (c *Client) mutate(ctx context.Context, token, path string, body any) error {
	var result MutationResult
	if err := c.postMutation(ctx, token, path, body, &result); err != nil {
		return err
	}
	if !result.Success {
		reason := result.Reason
		if reason == "" {
			reason = "league rejected the request"
		}
		return pkgerrors.New(pkgerrors.CodeConflict, reason)
	}
	return nil
}
