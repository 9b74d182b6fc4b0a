package pagination

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds batch fetcher configuration
type Config struct {
	// MaxConcurrency is the maximum number of parallel requests.
	// The interval gate spaces requests globally, so extra workers past
	// a handful mostly overlap waiting time.
	MaxConcurrency int
	// Timeout per page fetch, covering all retry attempts for that page.
	// Zero disables the per-page deadline (the HTTP client still has its
	// own request timeout).
	Timeout time.Duration
}

// DefaultConfig returns safe default configuration for BDTD
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 8,
		Timeout:        60 * time.Second,
	}
}

// PageJob is one unit of work: one paginated search-results page.
// A job is created once by the pagination driver and consumed exactly once.
type PageJob struct {
	Page int
	URL  string
}

// PageFetcher is the interface the BDTD client implements for single-page fetching
type PageFetcher interface {
	// FetchPage fetches a single page body
	FetchPage(ctx context.Context, job PageJob) ([]byte, error)
}

// PageResult represents the result of fetching a single page
type PageResult struct {
	Job  PageJob
	Data []byte
	Err  error
}

// BatchFetcher handles parallel fetching of multiple pages
type BatchFetcher struct {
	fetcher PageFetcher
	config  Config
}

// NewBatchFetcher creates a new batch fetcher
func NewBatchFetcher(fetcher PageFetcher, config Config) *BatchFetcher {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 8
	}
	if config.Timeout < 0 {
		config.Timeout = 0
	}

	return &BatchFetcher{
		fetcher: fetcher,
		config:  config,
	}
}

// FetchPages fetches the given page jobs in parallel using a worker pool.
// Every job picked up by a worker yields exactly one PageResult, success or
// failure; the returned slice is sorted by page index regardless of
// completion order. Context cancellation stops job pickup, so jobs still
// queued yield no result; jobs already picked up complete.
func (bf *BatchFetcher) FetchPages(ctx context.Context, jobs []PageJob) []PageResult {
	if len(jobs) == 0 {
		return nil
	}

	start := time.Now()

	log.Info().
		Int("jobs", len(jobs)).
		Int("workers", bf.config.MaxConcurrency).
		Msg("Starting parallel page fetch")

	jobQueue := make(chan PageJob, len(jobs))
	resultCh := make(chan PageResult, len(jobs))

	for _, job := range jobs {
		jobQueue <- job
	}
	close(jobQueue)

	workers := bf.config.MaxConcurrency
	if workers > len(jobs) {
		workers = len(jobs)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go bf.worker(ctx, jobQueue, resultCh, &wg, i)
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// Collect results in arrival order
	results := make([]PageResult, 0, len(jobs))
	fetched := 0
	failed := 0
	for result := range resultCh {
		if result.Err != nil {
			failed++
			log.Warn().
				Err(result.Err).
				Int("page", result.Job.Page).
				Msg("Page fetch failed")
		} else {
			fetched++
		}
		results = append(results, result)

		// Progress logging every 50 pages
		if (fetched+failed)%50 == 0 {
			log.Info().
				Int("done", fetched+failed).
				Int("total", len(jobs)).
				Float64("progress_pct", float64(fetched+failed)/float64(len(jobs))*100).
				Msg("Fetch progress")
		}
	}

	// Restore page order; completion order is arbitrary
	sort.Slice(results, func(i, j int) bool {
		return results[i].Job.Page < results[j].Job.Page
	})

	log.Info().
		Int("fetched", fetched).
		Int("failed", failed).
		Int("total", len(jobs)).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return results
}

// worker processes page jobs from the queue
func (bf *BatchFetcher) worker(ctx context.Context, jobQueue <-chan PageJob, results chan<- PageResult, wg *sync.WaitGroup, workerID int) {
	defer wg.Done()
	pagesProcessed := 0

	for job := range jobQueue {
		// Stop picking up new jobs once the context is done
		select {
		case <-ctx.Done():
			log.Debug().
				Int("worker_id", workerID).
				Int("pages_processed", pagesProcessed).
				Msg("Worker stopping (context cancelled)")
			return
		default:
		}

		pageCtx := ctx
		cancel := func() {}
		if bf.config.Timeout > 0 {
			pageCtx, cancel = context.WithTimeout(ctx, bf.config.Timeout)
		}
		data, err := bf.fetcher.FetchPage(pageCtx, job)
		cancel()

		results <- PageResult{
			Job:  job,
			Data: data,
			Err:  err,
		}
		pagesProcessed++
	}

	if pagesProcessed > 0 {
		log.Debug().
			Int("worker_id", workerID).
			Int("pages_processed", pagesProcessed).
			Msg("Worker completed")
	}
}
