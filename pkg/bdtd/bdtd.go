// Package bdtd implements keyword search against the BDTD digital library
// (Brazilian Digital Library of Theses and Dissertations): paginated result
// listings fetched by a bounded worker pool, per-record detail pages, and
// full-text PDF downloads.
package bdtd

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/bdtd-go/bdtd-client/pkg/client"
	"github.com/bdtd-go/bdtd-client/pkg/pagination"
	"github.com/bdtd-go/bdtd-client/pkg/scrape"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultBaseURL is the BDTD VuFind installation.
const DefaultBaseURL = "https://bdtd.ibict.br/vufind"

// DefaultTypeFilter is the search form filter applied when none is given.
const DefaultTypeFilter = "AllFields"

// Config holds the BDTD client configuration.
type Config struct {
	// BaseURL of the VuFind installation
	BaseURL string

	// Workers is the worker pool size for page and record fetching
	Workers int

	// Client configures the underlying fetcher (retry, interval, cache)
	Client client.Config
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL: DefaultBaseURL,
		Workers: 8,
		Client:  client.DefaultConfig(),
	}
}

// SearchOptions controls one search call. Immutable once the search starts.
type SearchOptions struct {
	// Type is the search form filter (default AllFields)
	Type string

	// MaxPages caps how many result pages are fetched (0 = all reported)
	MaxPages int
}

// BDTD is the high-level client.
type BDTD struct {
	baseURL string
	client  *client.Client
	batch   *pagination.BatchFetcher
	workers int
	logger  zerolog.Logger
}

// pageFetcherFunc adapts the fetcher to the pagination.PageFetcher interface.
type pageFetcherFunc func(ctx context.Context, job pagination.PageJob) ([]byte, error)

func (f pageFetcherFunc) FetchPage(ctx context.Context, job pagination.PageJob) ([]byte, error) {
	return f(ctx, job)
}

// New creates a BDTD client.
func New(cfg Config) (*BDTD, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 8
	}
	if cfg.Client.UserAgent == "" {
		cfg.Client.UserAgent = client.DefaultUserAgent
	}

	fetcher, err := client.New(cfg.Client)
	if err != nil {
		return nil, fmt.Errorf("create fetcher: %w", err)
	}

	b := &BDTD{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  fetcher,
		workers: cfg.Workers,
		logger:  log.With().Str("component", "bdtd").Logger(),
	}
	b.batch = pagination.NewBatchFetcher(
		pageFetcherFunc(func(ctx context.Context, job pagination.PageJob) ([]byte, error) {
			return b.client.Fetch(ctx, job.URL)
		}),
		pagination.Config{MaxConcurrency: cfg.Workers},
	)

	return b, nil
}

// searchURL builds a results-page URL for a term, filter, and page index.
func (b *BDTD) searchURL(term, typeFilter string, page int) string {
	v := url.Values{}
	v.Set("lookfor", term)
	v.Set("type", typeFilter)
	v.Set("page", strconv.Itoa(page))
	return b.baseURL + "/Search/Results?" + v.Encode()
}

// recordURL builds a record detail page URL.
func (b *BDTD) recordURL(id string) string {
	return b.baseURL + "/Record/" + id
}

// Search runs a keyword search and returns the aggregated, parsed result
// set. Page 1 is fetched first to discover the total page count (or honor
// opts.MaxPages); the remaining pages are fetched by the worker pool. A page
// that fails after exhausting retries is reported in FailedPages and does
// not abort the search — except page 1, whose failure is fatal.
func (b *BDTD) Search(ctx context.Context, term string, opts SearchOptions) (*ResultSet, error) {
	if term == "" {
		return nil, fmt.Errorf("search term is required")
	}
	if opts.Type == "" {
		opts.Type = DefaultTypeFilter
	}

	firstBody, err := b.client.Fetch(ctx, b.searchURL(term, opts.Type, 1))
	if err != nil {
		return nil, fmt.Errorf("resolve first results page for %q: %w", term, err)
	}

	firstRecords, err := scrape.ParseSearchPage(firstBody)
	if err != nil {
		return nil, fmt.Errorf("parse first results page for %q: %w", term, err)
	}

	rs := &ResultSet{}
	if len(firstRecords) == 0 {
		b.logger.Info().Str("term", term).Msg("Search returned no results")
		return rs, nil
	}
	rs.addPage(1, firstRecords)

	totalPages := b.resolveTotalPages(firstBody, opts)

	b.logger.Info().
		Str("term", term).
		Str("type", opts.Type).
		Int("pages", totalPages).
		Msg("Starting search")

	if totalPages > 1 {
		results := b.batch.FetchPages(ctx, b.pageJobs(term, opts.Type, 2, totalPages))
		b.aggregate(rs, results)
	}

	b.logger.Info().
		Str("term", term).
		Int("records", rs.Len()).
		Ints("failed_pages", rs.FailedPages()).
		Msg("Search complete")

	return rs, nil
}

// SearchRaw runs a search but returns the raw page bodies in page order
// instead of parsed records. Page 1 is included.
func (b *BDTD) SearchRaw(ctx context.Context, term string, opts SearchOptions) ([]pagination.PageResult, error) {
	if term == "" {
		return nil, fmt.Errorf("search term is required")
	}
	if opts.Type == "" {
		opts.Type = DefaultTypeFilter
	}

	firstURL := b.searchURL(term, opts.Type, 1)
	firstBody, err := b.client.Fetch(ctx, firstURL)
	if err != nil {
		return nil, fmt.Errorf("resolve first results page for %q: %w", term, err)
	}

	results := []pagination.PageResult{{
		Job:  pagination.PageJob{Page: 1, URL: firstURL},
		Data: firstBody,
	}}

	totalPages := b.resolveTotalPages(firstBody, opts)
	if totalPages > 1 {
		results = append(results, b.batch.FetchPages(ctx, b.pageJobs(term, opts.Type, 2, totalPages))...)
	}

	return results, nil
}

// resolveTotalPages picks the page count for a search: the widget-reported
// total, capped by opts.MaxPages when set. A missing widget means a single
// page of results.
func (b *BDTD) resolveTotalPages(firstBody []byte, opts SearchOptions) int {
	totalPages, err := scrape.ParseTotalPages(firstBody)
	if err != nil {
		totalPages = 1
	}
	if opts.MaxPages > 0 && opts.MaxPages < totalPages {
		totalPages = opts.MaxPages
	}
	return totalPages
}

// pageJobs enumerates the jobs for pages from..to inclusive.
func (b *BDTD) pageJobs(term, typeFilter string, from, to int) []pagination.PageJob {
	jobs := make([]pagination.PageJob, 0, to-from+1)
	for page := from; page <= to; page++ {
		jobs = append(jobs, pagination.PageJob{
			Page: page,
			URL:  b.searchURL(term, typeFilter, page),
		})
	}
	return jobs
}

// aggregate parses fetched pages into the result set in page order and
// applies the defensive stop: the first page that parses to zero records
// truncates everything after it, because server-reported totals are
// untrusted.
func (b *BDTD) aggregate(rs *ResultSet, results []pagination.PageResult) {
	for _, result := range results {
		if result.Err != nil {
			rs.addFailedPage(result.Job.Page)
			continue
		}

		records, err := scrape.ParseSearchPage(result.Data)
		if err != nil {
			b.logger.Warn().Err(err).Int("page", result.Job.Page).Msg("Page parse failed")
			rs.addFailedPage(result.Job.Page)
			continue
		}

		if len(records) == 0 {
			b.logger.Warn().
				Int("page", result.Job.Page).
				Msg("Empty page inside reported range - stopping aggregation")
			rs.truncateAfter(result.Job.Page - 1)
			return
		}

		rs.addPage(result.Job.Page, records)
	}
}
