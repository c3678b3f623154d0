package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheTTL = 5 * time.Minute

// Cache is a redis read-through cache for catalog lookups. Document pricing
// reads the same few rate sheets on every line, so lookups are cached and
// invalidated on write. A nil *Cache disables caching.
type Cache struct {
	client *redis.Client
}

// NewCache wraps a redis client.
func NewCache(client *redis.Client) *Cache {
	if client == nil {
		return nil
	}
	return &Cache{client: client}
}

func glassRateKey(orgID int64, glassType string) string {
	return fmt.Sprintf("catalog:%d:glassrate:%s", orgID, glassType)
}

func processKey(orgID int64, code string) string {
	return fmt.Sprintf("catalog:%d:process:%s", orgID, code)
}

func (c *Cache) getGlassRate(ctx context.Context, orgID int64, glassType string) (*GlassRate, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, glassRateKey(orgID, glassType)).Bytes()
	if err != nil {
		return nil, false
	}
	var g GlassRate
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, false
	}
	return &g, true
}

func (c *Cache) putGlassRate(ctx context.Context, g *GlassRate) {
	if c == nil || g == nil {
		return
	}
	raw, err := json.Marshal(g)
	if err != nil {
		return
	}
	c.client.Set(ctx, glassRateKey(g.OrgID, g.GlassType), raw, cacheTTL)
}

func (c *Cache) dropGlassRate(ctx context.Context, orgID int64, glassType string) {
	if c == nil {
		return
	}
	c.client.Del(ctx, glassRateKey(orgID, glassType))
}

func (c *Cache) getProcess(ctx context.Context, orgID int64, code string) (*Process, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, processKey(orgID, code)).Bytes()
	if err != nil {
		return nil, false
	}
	var p Process
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, false
	}
	return &p, true
}

func (c *Cache) putProcess(ctx context.Context, p *Process) {
	if c == nil || p == nil {
		return
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	c.client.Set(ctx, processKey(p.OrgID, p.Code), raw, cacheTTL)
}

func (c *Cache) dropProcess(ctx context.Context, orgID int64, code string) {
	if c == nil {
		return
	}
	c.client.Del(ctx, processKey(orgID, code))
}
