// Package cache provides an optional Redis-backed cache for fetched BDTD
// pages.
//
// BDTD serves plain HTML without usable cache validators (no ETag, no
// meaningful Expires), so entries carry a flat TTL configured on the
// manager. A cache hit returns the stored body and skips both the network
// and the interval gate; a miss falls through to a normal gated fetch.
//
// Example usage:
//
//	manager := cache.NewManager(redisClient, 15*time.Minute)
//	entry, err := manager.Get(ctx, cache.KeyForURL(url))
//	if err == cache.ErrCacheMiss {
//		// fetch and manager.Set(...)
//	}
//
// The cache is most useful when iterating on parsing logic or re-running a
// search: identical inputs against an unchanged remote source then resolve
// without re-hitting the site.
package cache
