package cache

import (
	"time"
)

// DefaultTTL is the fallback TTL for cached pages. Search listings on BDTD
// change on the order of days; fifteen minutes keeps reruns cheap without
// serving stale results for long.
const DefaultTTL = 15 * time.Minute

// Entry represents a cached BDTD page body.
type Entry struct {
	// Data is the response body
	Data []byte `json:"data"`

	// Expires is when the cache entry becomes stale
	Expires time.Time `json:"expires"`

	// CachedAt is when we cached this response
	CachedAt time.Time `json:"cached_at"`
}

// NewEntry creates an entry expiring ttl from now. A non-positive ttl falls
// back to DefaultTTL.
func NewEntry(data []byte, ttl time.Duration) *Entry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := time.Now()
	return &Entry{
		Data:     data,
		Expires:  now.Add(ttl),
		CachedAt: now,
	}
}

// IsExpired returns true if the cache entry has expired.
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until expiration.
// Returns 0 if already expired.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}
