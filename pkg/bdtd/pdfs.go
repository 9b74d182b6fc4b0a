package bdtd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bdtd-go/bdtd-client/pkg/dataset"
	"github.com/bdtd-go/bdtd-client/pkg/scrape"
)

// GetPDFs downloads the full-text PDFs of the given records into outputDir.
// For each record the full-text landing page is fetched, its PDF hyperlinks
// extracted, and each file written as <recordID>_<n>.pdf. Failures are
// logged and counted, never fatal; the returned map holds the files written
// per record ID.
func (b *BDTD) GetPDFs(ctx context.Context, records []scrape.Record, outputDir string) map[string][]string {
	files := make(map[string][]string)
	if len(records) == 0 {
		return files
	}

	jobCh := make(chan scrape.Record, len(records))
	for _, rec := range records {
		jobCh <- rec
	}
	close(jobCh)

	workers := b.workers
	if workers > len(records) {
		workers = len(records)
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range jobCh {
				select {
				case <-ctx.Done():
					return
				default:
				}

				written := b.downloadRecordPDFs(ctx, rec, outputDir)
				if len(written) > 0 {
					mu.Lock()
					files[rec.ID] = written
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	b.logger.Info().
		Int("records", len(records)).
		Int("with_pdfs", len(files)).
		Msg("PDF downloads complete")

	return files
}

// downloadRecordPDFs fetches one record's full-text landing page and writes
// every linked PDF to outputDir.
func (b *BDTD) downloadRecordPDFs(ctx context.Context, rec scrape.Record, outputDir string) []string {
	if rec.FulltextURL == "" {
		return nil
	}

	body, err := b.client.Fetch(ctx, rec.FulltextURL)
	if err != nil {
		b.logger.Warn().Err(err).Str("record", rec.ID).Msg("Full-text page fetch failed")
		return nil
	}

	links, err := scrape.ExtractPDFLinks(body, rec.FulltextURL)
	if err != nil {
		b.logger.Warn().Err(err).Str("record", rec.ID).Msg("Full-text page parse failed")
		return nil
	}

	var written []string
	for i, link := range links {
		// PDF payloads go straight to disk; they bypass the page cache but
		// still pass the gate.
		data, err := b.client.FetchUncached(ctx, link)
		if err != nil {
			b.logger.Warn().Err(err).Str("record", rec.ID).Str("url", link).Msg("PDF fetch failed")
			continue
		}

		name := fmt.Sprintf("%s_%d.pdf", rec.ID, i)
		if err := os.WriteFile(filepath.Join(outputDir, name), data, 0o644); err != nil {
			b.logger.Warn().Err(err).Str("record", rec.ID).Str("file", name).Msg("PDF write failed")
			continue
		}
		written = append(written, name)
	}
	return written
}

// PDFsTable assembles the download report into a tabular dataset: one row
// per record that yielded files, ordered by record ID.
func PDFsTable(files map[string][]string) *dataset.Table {
	ids := make([]string, 0, len(files))
	for id := range files {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	t := dataset.New("ID", "PDF")
	for _, id := range ids {
		for _, name := range files[id] {
			t.Append([]string{id, name})
		}
	}
	return t
}
