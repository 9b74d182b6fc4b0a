package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bdtd-go/bdtd-client/pkg/bdtd"
	"github.com/bdtd-go/bdtd-client/pkg/dataset"
	"github.com/bdtd-go/bdtd-client/pkg/scrape"
	"github.com/rs/zerolog/log"
)

// writeOutputs writes the per-stage CSV files and the combined dataset into
// the output folder: data-search.csv always, data-records.csv and
// data-pdfs.csv unless disabled, plus data.xlsx (or data.csv with --csv)
// joining everything by record ID.
func writeOutputs(ctx context.Context, b *bdtd.BDTD, rs *bdtd.ResultSet, folder string) error {
	searchTable := rs.Table()
	if err := searchTable.WriteCSV(filepath.Join(folder, "data-search.csv")); err != nil {
		return fmt.Errorf("write search results: %w", err)
	}
	log.Info().Int("rows", searchTable.Len()).Msg("Wrote data-search.csv")

	records := rs.Records()

	var details []scrape.RecordDetail
	if !noDetails {
		ids := make([]string, 0, len(records))
		for _, rec := range records {
			ids = append(ids, rec.ID)
		}

		var failed []string
		details, failed = b.GetRecords(ctx, ids)
		if len(failed) > 0 {
			log.Warn().Strs("records", failed).Msg("Some record details could not be fetched")
		}

		// Detail columns carry a Detalhes_ prefix so they stay distinguishable
		// from the search columns in the combined dataset.
		detailsTable := bdtd.DetailsTable(details)
		prefixColumns(detailsTable, "Detalhes_")
		if err := detailsTable.WriteCSV(filepath.Join(folder, "data-records.csv")); err != nil {
			return fmt.Errorf("write record details: %w", err)
		}
		log.Info().Int("rows", detailsTable.Len()).Msg("Wrote data-records.csv")
	}

	var pdfFiles map[string][]string
	if !noPDFs {
		pdfDir := filepath.Join(folder, "pdf")
		if err := os.MkdirAll(pdfDir, 0o755); err != nil {
			return fmt.Errorf("create pdf folder: %w", err)
		}

		pdfFiles = b.GetPDFs(ctx, records, pdfDir)

		pdfsTable := bdtd.PDFsTable(pdfFiles)
		if err := pdfsTable.WriteCSV(filepath.Join(folder, "data-pdfs.csv")); err != nil {
			return fmt.Errorf("write pdf report: %w", err)
		}
		log.Info().Int("rows", pdfsTable.Len()).Msg("Wrote data-pdfs.csv")
	}

	combined := combineTables(records, details, pdfFiles)
	if csvOutput {
		if err := combined.WriteCSV(filepath.Join(folder, "data.csv")); err != nil {
			return fmt.Errorf("write combined dataset: %w", err)
		}
		log.Info().Int("rows", combined.Len()).Msg("Wrote data.csv")
		return nil
	}
	if err := combined.WriteXLSX(filepath.Join(folder, "data.xlsx")); err != nil {
		return fmt.Errorf("write combined dataset: %w", err)
	}
	log.Info().Int("rows", combined.Len()).Msg("Wrote data.xlsx")
	return nil
}

// combineTables joins search rows, record details, and the PDF report on
// record ID into a single wide table, one row per record. Missing cells stay
// empty.
func combineTables(records []scrape.Record, details []scrape.RecordDetail, pdfFiles map[string][]string) *dataset.Table {
	detailByID := make(map[string]scrape.RecordDetail, len(details))
	fieldSet := make(map[string]struct{})
	for _, d := range details {
		detailByID[d.ID] = d
		for name := range d.Fields {
			fieldSet[name] = struct{}{}
		}
	}
	fields := sortedKeys(fieldSet)

	columns := append([]string{}, bdtd.SearchColumns...)
	if len(details) > 0 {
		columns = append(columns, "Detalhes_Título", "Detalhes_Resumo")
		for _, name := range fields {
			columns = append(columns, "Detalhes_"+name)
		}
	}
	if pdfFiles != nil {
		columns = append(columns, "PDF")
	}

	t := dataset.New(columns...)
	for _, rec := range records {
		row := []string{
			rec.ID, rec.Type, rec.Title, rec.Author, rec.DefenseDate,
			rec.URL, rec.AuthorURL, rec.FulltextURL,
		}
		if len(details) > 0 {
			d := detailByID[rec.ID]
			row = append(row, d.Title, d.Abstract)
			for _, name := range fields {
				row = append(row, d.Fields[name])
			}
		}
		if pdfFiles != nil {
			row = append(row, strings.Join(pdfFiles[rec.ID], "; "))
		}
		t.Append(row)
	}
	return t
}

// prefixColumns renames every column except ID.
func prefixColumns(t *dataset.Table, prefix string) {
	for i, col := range t.Columns {
		if col == "ID" {
			continue
		}
		t.Columns[i] = prefix + col
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
