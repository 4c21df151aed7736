package embedqueue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hoshizora/content-embed-worker/internal/core/domain"
	"github.com/hoshizora/content-embed-worker/internal/core/preprocess"
	db "github.com/hoshizora/content-embed-worker/internal/storage"
)

// settingKeyPrefix namespaces the per-type override settings rows, keyed as
// preprocess.<target_type>.
const settingKeyPrefix = "preprocess."

// overrideCache is a TTL cache over the settings table so the worker does
// not hit the database for every queue item. A missing row is cached too;
// it means "compiled defaults only".
type overrideCache struct {
	store interface {
		GetSetting(ctx context.Context, key string, target interface{}) error
	}
	ttl time.Duration

	mu      sync.Mutex
	entries map[domain.TargetType]cachedOverride
}

type cachedOverride struct {
	override  *preprocess.Override
	fetchedAt time.Time
}

func newOverrideCache(store interface {
	GetSetting(ctx context.Context, key string, target interface{}) error
}, ttl time.Duration) *overrideCache {
	return &overrideCache{
		store:   store,
		ttl:     ttl,
		entries: make(map[domain.TargetType]cachedOverride),
	}
}

// overrideFor returns the dynamic override for a target type, or nil when
// none is configured. Lookup failures degrade to nil so a settings outage
// never blocks the queue.
func (c *overrideCache) overrideFor(ctx context.Context, targetType domain.TargetType) *preprocess.Override {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[targetType]; ok && time.Since(entry.fetchedAt) < c.ttl {
		return entry.override
	}

	var override preprocess.Override

	var result *preprocess.Override

	err := c.store.GetSetting(ctx, settingKeyPrefix+string(targetType), &override)

	switch {
	case err == nil:
		result = &override
	case errors.Is(err, db.ErrSettingNotFound):
		result = nil
	default:
		// Transient lookup failure: fall back to defaults without caching,
		// so the next item retries the lookup.
		return nil
	}

	c.entries[targetType] = cachedOverride{override: result, fetchedAt: time.Now()}

	return result
}
