package commands

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bdtd-go/bdtd-client/internal/testutil"
	"github.com/bdtd-go/bdtd-client/pkg/bdtd"
	"github.com/bdtd-go/bdtd-client/pkg/client"
)

// newTestBDTD wires a client against the mock server with fast retry and
// interval settings.
func newTestBDTD(t *testing.T, mock *testutil.MockBDTD) *bdtd.BDTD {
	t.Helper()

	cfg := bdtd.DefaultConfig()
	cfg.BaseURL = mock.BaseURL()
	cfg.Workers = 4
	cfg.Client = client.Config{
		UserAgent:     client.DefaultUserAgent,
		Timeout:       5 * time.Second,
		Interval:      time.Millisecond,
		MaxRetries:    3,
		RetryInterval: 10 * time.Millisecond,
	}

	b, err := bdtd.New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return b
}

func TestSearchAndWrite_FatalFirstPageLeavesNoFolder(t *testing.T) {
	mock := testutil.NewMockBDTD()
	defer mock.Close()
	mock.FailPath("/vufind/Search/Results", http.StatusInternalServerError)

	b := newTestBDTD(t, mock)
	folder := filepath.Join(t.TempDir(), "BDTD (coronavírus)")

	_, err := searchAndWrite(context.Background(), b, "coronavírus", folder, bdtd.SearchOptions{})
	if err == nil {
		t.Fatal("expected fatal error when the first page cannot be resolved")
	}

	if _, statErr := os.Stat(folder); !os.IsNotExist(statErr) {
		t.Errorf("output folder %q exists after a fatal search failure (stat err = %v)", folder, statErr)
	}
}

func TestSearchAndWrite_WritesOutputFiles(t *testing.T) {
	mock := testutil.NewMockBDTD()
	defer mock.Close()
	mock.TotalPages = 2
	mock.RecordsPerPage = 2

	b := newTestBDTD(t, mock)
	folder := filepath.Join(t.TempDir(), "BDTD (educação)")

	csvOutput = true
	noDetails = false
	noPDFs = false
	defer func() { csvOutput = false }()

	rs, err := searchAndWrite(context.Background(), b, "educação", folder, bdtd.SearchOptions{})
	if err != nil {
		t.Fatalf("searchAndWrite() error = %v", err)
	}
	if rs.Len() != 4 {
		t.Errorf("Len() = %d, want 4", rs.Len())
	}

	for _, name := range []string{"data-search.csv", "data-records.csv", "data-pdfs.csv", "data.csv"} {
		if _, err := os.Stat(filepath.Join(folder, name)); err != nil {
			t.Errorf("missing output file %s: %v", name, err)
		}
	}

	pdfDir, err := os.ReadDir(filepath.Join(folder, "pdf"))
	if err != nil {
		t.Fatalf("pdf folder: %v", err)
	}
	if len(pdfDir) == 0 {
		t.Error("pdf folder is empty, want downloaded files")
	}
}
