// Package scrape parses BDTD HTML pages: search result listings, the
// pagination widget, record detail pages, and full-text PDF hyperlinks.
//
// The selectors encode the structure of the BDTD VuFind markup, an external
// and unversioned contract. When the site changes its templates these
// parsers are the only place that needs updating.
package scrape

import (
	"strings"
)

// Record is one thesis/dissertation entry extracted from a search results
// page. Immutable after creation.
type Record struct {
	// ID is the VuFind record identifier, e.g. "UFMG_abc123"
	ID string

	// Type is the publication type shown on the listing (e.g. "Tese")
	Type string

	// Title is the publication title
	Title string

	// Author is the listed author name
	Author string

	// DefenseDate is the defense date as shown (free-form text)
	DefenseDate string

	// URL is the absolute record detail page URL
	URL string

	// AuthorURL is the absolute author search URL
	AuthorURL string

	// FulltextURL is the external full-text landing page URL
	FulltextURL string
}

// RecordDetail is the parsed content of a record detail page.
type RecordDetail struct {
	// ID is the VuFind record identifier
	ID string

	// Title is the detail page title
	Title string

	// Abstract is the publication abstract, or AbstractUnavailable
	Abstract string

	// Fields holds the description table rows, field name to value
	Fields map[string]string
}

// AbstractUnavailable is used when a detail page carries no abstract.
const AbstractUnavailable = "Resumo não disponível."

// RecordIDFromURL extracts the record identifier from a record URL.
// "https://bdtd.ibict.br/vufind/Record/UFMG_123/Details" -> "UFMG_123".
// Returns "" when the URL has no Record/ segment.
func RecordIDFromURL(url string) string {
	_, after, found := strings.Cut(url, "Record/")
	if !found {
		return ""
	}
	id, _, _ := strings.Cut(after, "/")
	return id
}
