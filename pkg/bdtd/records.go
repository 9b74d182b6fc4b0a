package bdtd

import (
	"context"
	"sort"

	"github.com/bdtd-go/bdtd-client/pkg/dataset"
	"github.com/bdtd-go/bdtd-client/pkg/pagination"
	"github.com/bdtd-go/bdtd-client/pkg/scrape"
)

// GetRecords fetches and parses the detail page of every given record ID
// through the same worker pool, gate, and retry machinery as the search.
// Details come back in input order; IDs that failed to fetch or parse are
// returned separately and do not abort the batch.
func (b *BDTD) GetRecords(ctx context.Context, ids []string) ([]scrape.RecordDetail, []string) {
	if len(ids) == 0 {
		return nil, nil
	}

	// Job index doubles as input position so the pool's ordering guarantee
	// restores input order.
	jobs := make([]pagination.PageJob, 0, len(ids))
	for i, id := range ids {
		jobs = append(jobs, pagination.PageJob{
			Page: i + 1,
			URL:  b.recordURL(id),
		})
	}

	results := b.batch.FetchPages(ctx, jobs)

	var details []scrape.RecordDetail
	var failed []string
	for _, result := range results {
		id := ids[result.Job.Page-1]
		if result.Err != nil {
			failed = append(failed, id)
			continue
		}

		detail, err := scrape.ParseRecordDetail(result.Data)
		if err != nil {
			b.logger.Warn().Err(err).Str("record", id).Msg("Record detail parse failed")
			failed = append(failed, id)
			continue
		}
		detail.ID = id
		details = append(details, *detail)
	}

	b.logger.Info().
		Int("details", len(details)).
		Int("failed", len(failed)).
		Msg("Record details fetched")

	return details, failed
}

// DetailsTable assembles record details into a tabular dataset. Columns are
// ID, Título, Resumo, then the sorted union of every description field seen.
func DetailsTable(details []scrape.RecordDetail) *dataset.Table {
	fieldSet := make(map[string]struct{})
	for _, d := range details {
		for name := range d.Fields {
			fieldSet[name] = struct{}{}
		}
	}
	fields := make([]string, 0, len(fieldSet))
	for name := range fieldSet {
		fields = append(fields, name)
	}
	sort.Strings(fields)

	columns := append([]string{"ID", "Título", "Resumo"}, fields...)
	t := dataset.New(columns...)
	for _, d := range details {
		row := []string{d.ID, d.Title, d.Abstract}
		for _, name := range fields {
			row = append(row, d.Fields[name])
		}
		t.Append(row)
	}
	return t
}
