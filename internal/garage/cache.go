package garage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/pitwallhq/pitwall-gateway/pkg/logger"
)

// Views is the upstream read surface the cache sits in front of.
type Views interface {
	Garage(ctx context.Context, token, teamID string) (json.RawMessage, error)
	Warehouse(ctx context.Context, token, teamID string) (json.RawMessage, error)
	Team(ctx context.Context, token, teamID string) (json.RawMessage, error)
	PurchaseHistory(ctx context.Context, token string) (json.RawMessage, error)
}

// KV is the slice of the redis client the cache needs.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	ViewKey(view, teamID string) string
}

const (
	viewGarage    = "garage"
	viewWarehouse = "warehouse"
	viewTeam      = "team"
	viewHistory   = "history"
)

// Cache proxies the league's read views through a short-TTL redis cache.
// After a reconciliation it drops and re-primes the team's entries so the
// UI's reload sees fresh garage contents and balance without a thundering
// herd of upstream calls.
type Cache struct {
	views Views
	kv    KV
	ttl   time.Duration
	logg  *logger.Logger
}

func NewCache(views Views, kv KV, ttl time.Duration, logg *logger.Logger) (*Cache, error) {
	if views == nil {
		return nil, errors.New("views source is required")
	}
	if kv == nil {
		return nil, errors.New("kv store is required")
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Cache{views: views, kv: kv, ttl: ttl, logg: logg}, nil
}

func (c *Cache) Garage(ctx context.Context, token, teamID string) (json.RawMessage, error) {
	return c.cached(ctx, viewGarage, teamID, func() (json.RawMessage, error) {
		return c.views.Garage(ctx, token, teamID)
	})
}

func (c *Cache) Warehouse(ctx context.Context, token, teamID string) (json.RawMessage, error) {
	return c.cached(ctx, viewWarehouse, teamID, func() (json.RawMessage, error) {
		return c.views.Warehouse(ctx, token, teamID)
	})
}

func (c *Cache) Team(ctx context.Context, token, teamID string) (json.RawMessage, error) {
	return c.cached(ctx, viewTeam, teamID, func() (json.RawMessage, error) {
		return c.views.Team(ctx, token, teamID)
	})
}

func (c *Cache) History(ctx context.Context, token, teamID string) (json.RawMessage, error) {
	return c.cached(ctx, viewHistory, teamID, func() (json.RawMessage, error) {
		return c.views.PurchaseHistory(ctx, token)
	})
}

// Refresh drops the team's cached views and re-primes them. Best effort:
// a view that cannot be fetched is logged and skipped, the rest still
// refresh. Called after every reconciliation.
func (c *Cache) Refresh(ctx context.Context, token, teamID string) {
	keys := []string{
		c.kv.ViewKey(viewGarage, teamID),
		c.kv.ViewKey(viewWarehouse, teamID),
		c.kv.ViewKey(viewTeam, teamID),
		c.kv.ViewKey(viewHistory, teamID),
	}
	if err := c.kv.Del(ctx, keys...); err != nil && c.logg != nil {
		c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "views.cache.invalidate.failed")
	}

	for _, prime := range []func() (json.RawMessage, error){
		func() (json.RawMessage, error) { return c.Garage(ctx, token, teamID) },
		func() (json.RawMessage, error) { return c.Warehouse(ctx, token, teamID) },
		func() (json.RawMessage, error) { return c.Team(ctx, token, teamID) },
		func() (json.RawMessage, error) { return c.History(ctx, token, teamID) },
	} {
		if _, err := prime(); err != nil && c.logg != nil {
			c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "views.cache.refresh.failed")
		}
	}
}

func (c *Cache) cached(ctx context.Context, view, teamID string, fetch func() (json.RawMessage, error)) (json.RawMessage, error) {
	key := c.kv.ViewKey(view, teamID)
	if hit, err := c.kv.Get(ctx, key); err == nil && hit != "" {
		return json.RawMessage(hit), nil
	}

	fresh, err := fetch()
	if err != nil {
		return nil, err
	}
	if err := c.kv.Set(ctx, key, string(fresh), c.ttl); err != nil && c.logg != nil {
		c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "views.cache.store.failed")
	}
	return fresh, nil
}
