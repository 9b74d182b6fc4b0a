package bdtd

import (
	"sort"

	"github.com/bdtd-go/bdtd-client/pkg/dataset"
	"github.com/bdtd-go/bdtd-client/pkg/scrape"
)

// SearchColumns are the exported columns of a search result table, matching
// the labels BDTD itself uses on listings.
var SearchColumns = []string{
	"ID", "Tipo", "Título", "Autoria", "Data de defesa",
	"URL", "URL (Autoria)", "URL (Texto)",
}

// pageRecords holds the parsed records of one results page.
type pageRecords struct {
	page    int
	records []scrape.Record
}

// ResultSet accumulates records from completed page jobs, keyed by source
// page index. Final ordering is (page index, in-page order) regardless of
// the order pages finished fetching. It grows monotonically during a search
// and is owned solely by the search call that created it.
type ResultSet struct {
	pages       []pageRecords
	failedPages []int
}

// addPage merges one parsed page into the set, keeping pages sorted.
func (rs *ResultSet) addPage(page int, records []scrape.Record) {
	rs.pages = append(rs.pages, pageRecords{page: page, records: records})
	sort.Slice(rs.pages, func(i, j int) bool {
		return rs.pages[i].page < rs.pages[j].page
	})
}

// addFailedPage records a page whose fetch or parse failed after retries.
func (rs *ResultSet) addFailedPage(page int) {
	rs.failedPages = append(rs.failedPages, page)
	sort.Ints(rs.failedPages)
}

// truncateAfter drops every page with an index greater than page. Used for
// the defensive stop when a page inside the server-reported range turns out
// to be empty.
func (rs *ResultSet) truncateAfter(page int) {
	kept := rs.pages[:0]
	for _, p := range rs.pages {
		if p.page <= page {
			kept = append(kept, p)
		}
	}
	rs.pages = kept
}

// Records returns all records ordered by (page index, in-page order).
func (rs *ResultSet) Records() []scrape.Record {
	var out []scrape.Record
	for _, p := range rs.pages {
		out = append(out, p.records...)
	}
	return out
}

// RecordsByID returns the records sorted by record ID instead of page
// order, the ordering the BDTD web interface's export uses.
func (rs *ResultSet) RecordsByID() []scrape.Record {
	out := rs.Records()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the total number of records.
func (rs *ResultSet) Len() int {
	n := 0
	for _, p := range rs.pages {
		n += len(p.records)
	}
	return n
}

// Pages returns the page indexes that contributed records, in order.
func (rs *ResultSet) Pages() []int {
	out := make([]int, 0, len(rs.pages))
	for _, p := range rs.pages {
		out = append(out, p.page)
	}
	return out
}

// FailedPages returns the page indexes that failed after exhausting retries.
func (rs *ResultSet) FailedPages() []int {
	return rs.failedPages
}

// Table assembles the result set into a tabular dataset, one row per record.
func (rs *ResultSet) Table() *dataset.Table {
	t := dataset.New(SearchColumns...)
	for _, rec := range rs.Records() {
		t.Append([]string{
			rec.ID, rec.Type, rec.Title, rec.Author, rec.DefenseDate,
			rec.URL, rec.AuthorURL, rec.FulltextURL,
		})
	}
	return t
}
