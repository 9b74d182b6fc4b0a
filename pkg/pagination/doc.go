// Package pagination provides the bounded worker pool that fetches BDTD
// result pages in parallel.
//
// BDTD search results are paginated; the total page count is discovered by
// parsing the first page's pagination widget. This package implements a
// worker pool pattern to fetch the remaining pages concurrently while the
// shared interval gate keeps the global request rate polite.
//
// Example usage:
//
//	fetcher := pagination.NewBatchFetcher(bdtdClient, pagination.DefaultConfig())
//	results := fetcher.FetchPages(ctx, jobs)
//
// The batch fetcher:
//   - Distributes page jobs across workers (default 8)
//   - Collects results as they complete, in arrival order
//   - Re-sorts results by page index before returning
//   - Handles errors gracefully (a failed page is a failed result, not a
//     failed batch)
//
// Cancellation only prevents new jobs from being picked up; a job already
// in flight runs to completion or exhausted retries.
package pagination
