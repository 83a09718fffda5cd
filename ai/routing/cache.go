package routing

import (
	"crypto/sha256"
	"encoding/hex"
	"sync/atomic"
	"time"

	"github.com/hrygo/triagesense/ai/cache"
)

// AnalysisCache memoizes complete analysis results so a repeated identical
// request is served without re-invoking the LLM for every agent.
type AnalysisCache struct {
	cache  *cache.LRUCache[string, *Analysis]
	hits   atomic.Int64
	misses atomic.Int64
}

// NewAnalysisCache creates an analysis cache. Zero values select a capacity
// of 100 entries and a 30 minute TTL.
func NewAnalysisCache(capacity int, ttl time.Duration) *AnalysisCache {
	if capacity <= 0 {
		capacity = 100
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &AnalysisCache{
		cache: cache.NewLRUCache[string, *Analysis](capacity, ttl),
	}
}

// Get returns the cached analysis for the exact input triple, if present.
func (c *AnalysisCache) Get(reportText, symptoms, medicalHistory string) (*Analysis, bool) {
	result, ok := c.cache.Get(cacheKey(reportText, symptoms, medicalHistory))
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return result, ok
}

// Set stores an analysis result under the input triple.
func (c *AnalysisCache) Set(reportText, symptoms, medicalHistory string, result *Analysis) {
	c.cache.Set(cacheKey(reportText, symptoms, medicalHistory), result, 0)
}

// Stats returns hit and miss counts since creation.
func (c *AnalysisCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// cacheKey hashes the input triple. The NUL separators keep distinct triples
// from colliding on concatenation.
func cacheKey(reportText, symptoms, medicalHistory string) string {
	h := sha256.New()
	h.Write([]byte(reportText))
	h.Write([]byte{0})
	h.Write([]byte(symptoms))
	h.Write([]byte{0})
	h.Write([]byte(medicalHistory))
	return hex.EncodeToString(h.Sum(nil))
}
