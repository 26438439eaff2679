package terms

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// ProgramCache stores compiled programs keyed by engine and expression.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// DefaultProgramTTL is how long a compiled program is kept after it is cached.
const DefaultProgramTTL = time.Hour

type expiringCache struct {
	cache *gocache.Cache
}

// NewProgramCache returns an in-memory cache whose entries expire ttl after
// they were stored; reads do not extend that. A non-positive ttl keeps
// entries forever.
func NewProgramCache(ttl time.Duration) ProgramCache {
	if ttl <= 0 {
		return &expiringCache{cache: gocache.New(gocache.NoExpiration, 0)}
	}
	return &expiringCache{cache: gocache.New(ttl, 2*ttl)}
}

func (c *expiringCache) Get(key string) (any, bool) {
	return c.cache.Get(key)
}

func (c *expiringCache) Set(key string, value any) {
	c.cache.Set(key, value, gocache.DefaultExpiration)
}
