package bdtd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/bdtd-go/bdtd-client/internal/testutil"
	"github.com/bdtd-go/bdtd-client/pkg/client"
)

// newTestClient wires a BDTD client against the mock server with fast
// retry/interval settings.
func newTestClient(t *testing.T, mock *testutil.MockBDTD, workers int) *BDTD {
	t.Helper()

	cfg := DefaultConfig()
	cfg.BaseURL = mock.BaseURL()
	cfg.Workers = workers
	cfg.Client = client.Config{
		UserAgent:     client.DefaultUserAgent,
		Timeout:       5 * time.Second,
		Interval:      time.Millisecond,
		MaxRetries:    3,
		RetryInterval: 10 * time.Millisecond,
	}

	b, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return b
}

func TestSearch_AggregatesAllPages(t *testing.T) {
	mock := testutil.NewMockBDTD()
	defer mock.Close()
	mock.TotalPages = 3
	mock.RecordsPerPage = 2

	b := newTestClient(t, mock, 4)

	rs, err := b.Search(context.Background(), "coronavírus", SearchOptions{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if rs.Len() != 6 {
		t.Fatalf("Len() = %d, want 6", rs.Len())
	}

	// Rows ordered by (page index, in-page order)
	records := rs.Records()
	for i, rec := range records {
		want := fmt.Sprintf("REC_%d_%d", i/2+1, i%2)
		if rec.ID != want {
			t.Errorf("records[%d].ID = %q, want %q", i, rec.ID, want)
		}
	}

	if failed := rs.FailedPages(); len(failed) != 0 {
		t.Errorf("FailedPages() = %v, want none", failed)
	}
}

func TestSearch_OrderIndependentOfWorkerCount(t *testing.T) {
	mock := testutil.NewMockBDTD()
	defer mock.Close()
	mock.TotalPages = 5
	mock.RecordsPerPage = 3

	var baseline []string
	for _, workers := range []int{1, 2, 8, 20} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			b := newTestClient(t, mock, workers)

			rs, err := b.Search(context.Background(), "educação", SearchOptions{})
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}

			var ids []string
			for _, rec := range rs.Records() {
				ids = append(ids, rec.ID)
			}

			if baseline == nil {
				baseline = ids
				return
			}
			if !reflect.DeepEqual(ids, baseline) {
				t.Errorf("record order with %d workers = %v, want %v", workers, ids, baseline)
			}
		})
	}
}

func TestSearch_MaxPagesCapsSubmission(t *testing.T) {
	mock := testutil.NewMockBDTD()
	defer mock.Close()
	mock.TotalPages = 6
	mock.RecordsPerPage = 2

	b := newTestClient(t, mock, 20)

	rs, err := b.Search(context.Background(), "coronavírus", SearchOptions{MaxPages: 2})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if rs.Len() != 4 {
		t.Errorf("Len() = %d, want 4 (2 pages x 2 records)", rs.Len())
	}
	if got := rs.Pages(); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Errorf("Pages() = %v, want [1 2]", got)
	}

	pageReqs := mock.SearchPageRequests()
	for page, n := range pageReqs {
		if page > 2 && n > 0 {
			t.Errorf("page %d was requested %d times; no page beyond the cap may be submitted", page, n)
		}
	}
}

func TestSearch_Idempotent(t *testing.T) {
	mock := testutil.NewMockBDTD()
	defer mock.Close()
	mock.TotalPages = 3

	b := newTestClient(t, mock, 4)
	ctx := context.Background()

	first, err := b.Search(ctx, "direito", SearchOptions{})
	if err != nil {
		t.Fatalf("first Search() error = %v", err)
	}
	second, err := b.Search(ctx, "direito", SearchOptions{})
	if err != nil {
		t.Fatalf("second Search() error = %v", err)
	}

	if !reflect.DeepEqual(first.Records(), second.Records()) {
		t.Error("re-running an identical search yielded a different result set")
	}
}

func TestSearch_FirstPageFailureIsFatal(t *testing.T) {
	mock := testutil.NewMockBDTD()
	defer mock.Close()
	mock.FailPath("/vufind/Search/Results", http.StatusInternalServerError)

	b := newTestClient(t, mock, 4)

	_, err := b.Search(context.Background(), "coronavírus", SearchOptions{})
	if err == nil {
		t.Fatal("expected fatal error when the first page cannot be resolved")
	}

	// A permanently failing page consumes exactly MaxRetries attempts.
	if n := mock.SearchPageRequests()[1]; n != 3 {
		t.Errorf("first page requested %d times, want exactly 3 (MaxRetries)", n)
	}
}

func TestSearch_ClientErrorNotRetried(t *testing.T) {
	mock := testutil.NewMockBDTD()
	defer mock.Close()
	mock.FailPath("/vufind/Search/Results", http.StatusNotFound)

	b := newTestClient(t, mock, 4)

	_, err := b.Search(context.Background(), "coronavírus", SearchOptions{})
	if err == nil {
		t.Fatal("expected error for 404 first page")
	}

	if n := mock.SearchPageRequests()[1]; n != 1 {
		t.Errorf("first page requested %d times, want 1 (4xx is permanent)", n)
	}
}

func TestSearch_RecoversAfterTransientFailure(t *testing.T) {
	mock := testutil.NewMockBDTD()
	defer mock.Close()
	mock.TotalPages = 1
	mock.FailPathTimes("/vufind/Search/Results", 2)

	b := newTestClient(t, mock, 2)

	rs, err := b.Search(context.Background(), "coronavírus", SearchOptions{})
	if err != nil {
		t.Fatalf("Search() error = %v, want success on third attempt", err)
	}
	if rs.Len() != 2 {
		t.Errorf("Len() = %d, want 2", rs.Len())
	}
}

func TestSearch_DefensiveStopOnEmptyPage(t *testing.T) {
	mock := testutil.NewMockBDTD()
	defer mock.Close()
	// Server claims 5 pages but only 2 carry records.
	mock.TotalPages = 2
	mock.ReportedPages = 5
	mock.RecordsPerPage = 2

	b := newTestClient(t, mock, 4)

	rs, err := b.Search(context.Background(), "coronavírus", SearchOptions{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if got := rs.Pages(); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Errorf("Pages() = %v, want [1 2] (truncated at first empty page)", got)
	}
	if rs.Len() != 4 {
		t.Errorf("Len() = %d, want 4", rs.Len())
	}
}

func TestSearch_NoResults(t *testing.T) {
	mock := testutil.NewMockBDTD()
	defer mock.Close()
	mock.TotalPages = 0

	b := newTestClient(t, mock, 4)

	rs, err := b.Search(context.Background(), "zzz-sem-resultado", SearchOptions{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if rs.Len() != 0 {
		t.Errorf("Len() = %d, want 0", rs.Len())
	}
}

func TestSearchRaw_ReturnsBodiesInPageOrder(t *testing.T) {
	mock := testutil.NewMockBDTD()
	defer mock.Close()
	mock.TotalPages = 3

	b := newTestClient(t, mock, 4)

	results, err := b.SearchRaw(context.Background(), "coronavírus", SearchOptions{})
	if err != nil {
		t.Fatalf("SearchRaw() error = %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("got %d raw pages, want 3", len(results))
	}
	for i, r := range results {
		if r.Job.Page != i+1 {
			t.Errorf("results[%d].Job.Page = %d, want %d", i, r.Job.Page, i+1)
		}
		if len(r.Data) == 0 {
			t.Errorf("results[%d] has empty body", i)
		}
	}
}

func TestGetRecords(t *testing.T) {
	mock := testutil.NewMockBDTD()
	defer mock.Close()

	b := newTestClient(t, mock, 4)

	ids := []string{"REC_1_0", "REC_1_1", "REC_2_0"}
	details, failed := b.GetRecords(context.Background(), ids)

	if len(failed) != 0 {
		t.Fatalf("failed = %v, want none", failed)
	}
	if len(details) != 3 {
		t.Fatalf("got %d details, want 3", len(details))
	}
	for i, d := range details {
		if d.ID != ids[i] {
			t.Errorf("details[%d].ID = %q, want %q (input order)", i, d.ID, ids[i])
		}
		if d.Title == "" || d.Abstract == "" {
			t.Errorf("details[%d] missing title or abstract: %+v", i, d)
		}
		if d.Fields["Idioma"] != "Português" {
			t.Errorf("details[%d].Fields[Idioma] = %q", i, d.Fields["Idioma"])
		}
	}
}

func TestGetRecords_PartialFailure(t *testing.T) {
	mock := testutil.NewMockBDTD()
	defer mock.Close()
	mock.FailPath("/vufind/Record/BAD_1", http.StatusNotFound)

	b := newTestClient(t, mock, 4)

	details, failed := b.GetRecords(context.Background(), []string{"REC_1_0", "BAD_1", "REC_1_1"})

	if len(details) != 2 {
		t.Errorf("got %d details, want 2", len(details))
	}
	if !reflect.DeepEqual(failed, []string{"BAD_1"}) {
		t.Errorf("failed = %v, want [BAD_1]", failed)
	}
}

func TestGetPDFs(t *testing.T) {
	mock := testutil.NewMockBDTD()
	defer mock.Close()

	b := newTestClient(t, mock, 4)
	dir := t.TempDir()

	rs, err := b.Search(context.Background(), "coronavírus", SearchOptions{MaxPages: 1})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	files := b.GetPDFs(context.Background(), rs.Records(), dir)

	if len(files) != 2 {
		t.Fatalf("got PDFs for %d records, want 2: %v", len(files), files)
	}
	for id, names := range files {
		for _, name := range names {
			data, err := os.ReadFile(filepath.Join(dir, name))
			if err != nil {
				t.Errorf("record %s: %v", id, err)
				continue
			}
			if len(data) == 0 {
				t.Errorf("record %s: empty pdf %s", id, name)
			}
		}
	}
}

func TestSearchURL(t *testing.T) {
	b := &BDTD{baseURL: "https://bdtd.ibict.br/vufind"}

	got := b.searchURL("mudança climática", "AllFields", 2)
	want := "https://bdtd.ibict.br/vufind/Search/Results?lookfor=mudan%C3%A7a+clim%C3%A1tica&page=2&type=AllFields"
	if got != want {
		t.Errorf("searchURL() = %q, want %q", got, want)
	}
}
