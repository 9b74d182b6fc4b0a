package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Key represents a unique identifier for a cached BDTD page.
type Key struct {
	// URL is the normalized request URL
	URL string
}

// KeyForURL builds a deterministic key from a raw request URL: query
// parameters are sorted so logically identical URLs share an entry.
func KeyForURL(raw string) Key {
	u, err := url.Parse(raw)
	if err != nil {
		return Key{URL: raw}
	}

	query := u.Query()
	if len(query) > 0 {
		keys := make([]string, 0, len(query))
		for k := range query {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, fmt.Sprintf("%s=%s", k, query.Get(k)))
		}
		u.RawQuery = strings.Join(pairs, "&")
	}

	return Key{URL: u.String()}
}

// String generates the Redis key string.
// Format: bdtd:page:<normalized url>
func (k Key) String() string {
	return "bdtd:page:" + k.URL
}
