// Package testutil provides testing utilities for the BDTD client.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
)

// MockBDTD is a configurable mock BDTD server for testing. It generates
// VuFind-shaped HTML: paginated search listings, record detail pages,
// full-text landing pages, and PDF payloads.
type MockBDTD struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Site shape
	TotalPages     int // pages that actually carry records
	ReportedPages  int // pages the pagination widget claims (defaults to TotalPages)
	RecordsPerPage int

	// Failure injection: path -> status code, either permanent or for the
	// first N requests only
	failStatus map[string]int
	failTimes  map[string]int

	// Tracking
	RequestCount int
	PageRequests map[int]int
}

// NewMockBDTD creates a new mock BDTD server.
func NewMockBDTD() *MockBDTD {
	mock := &MockBDTD{
		handlers:       make(map[string]func(w http.ResponseWriter, r *http.Request)),
		TotalPages:     3,
		RecordsPerPage: 2,
		failStatus:     make(map[string]int),
		failTimes:      make(map[string]int),
		PageRequests:   make(map[int]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		if strings.HasPrefix(r.URL.Path, "/vufind/Search/Results") {
			if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
				mock.PageRequests[page]++
			}
		}

		if status, ok := mock.failStatus[r.URL.Path]; ok {
			mock.mu.Unlock()
			w.WriteHeader(status)
			return
		}
		if n, ok := mock.failTimes[r.URL.Path]; ok && n > 0 {
			mock.failTimes[r.URL.Path] = n - 1
			mock.mu.Unlock()
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		handler, custom := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if custom {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockBDTD) URL() string {
	return m.server.URL
}

// BaseURL returns the VuFind base URL to point the client at.
func (m *MockBDTD) BaseURL() string {
	return m.server.URL + "/vufind"
}

// Close shuts down the mock server.
func (m *MockBDTD) Close() {
	m.server.Close()
}

// SetHandler installs a custom handler for a path.
func (m *MockBDTD) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// FailPath makes a path permanently return the given status.
func (m *MockBDTD) FailPath(path string, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failStatus[path] = status
}

// FailPathTimes makes a path return 500 for the first n requests, then
// fall through to the default handler.
func (m *MockBDTD) FailPathTimes(path string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failTimes[path] = n
}

// Requests returns the total number of requests seen.
func (m *MockBDTD) Requests() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// SearchPageRequests returns how often each search page index was requested.
func (m *MockBDTD) SearchPageRequests() map[int]int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[int]int, len(m.PageRequests))
	for k, v := range m.PageRequests {
		out[k] = v
	}
	return out
}

func (m *MockBDTD) defaultHandler(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case strings.HasPrefix(path, "/vufind/Search/Results"):
		m.serveSearchPage(w, r)
	case strings.HasPrefix(path, "/vufind/Record/"):
		m.serveRecordPage(w, strings.TrimPrefix(path, "/vufind/Record/"))
	case strings.HasPrefix(path, "/fulltext/"):
		m.serveFulltextPage(w, strings.TrimPrefix(path, "/fulltext/"))
	case strings.HasPrefix(path, "/files/"):
		w.Header().Set("Content-Type", "application/pdf")
		fmt.Fprintf(w, "%%PDF-1.4 mock %s", strings.TrimPrefix(path, "/files/"))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// serveSearchPage renders a listing for the requested page index: media
// blocks for pages within TotalPages, an empty listing beyond it, and a
// pagination widget claiming ReportedPages.
func (m *MockBDTD) serveSearchPage(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	m.mu.RLock()
	totalPages := m.TotalPages
	reported := m.ReportedPages
	perPage := m.RecordsPerPage
	m.mu.RUnlock()
	if reported == 0 {
		reported = totalPages
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html><html><body>")

	if page <= totalPages {
		for i := 0; i < perPage; i++ {
			id := fmt.Sprintf("REC_%d_%d", page, i)
			fmt.Fprintf(&sb, `
<div class="media">
  <span class="format2">Tese</span>
  <a class="title getFull" href="/vufind/Record/%s">Título %s</a>
  <div id="rowAutor">
    <div>
      Autor:
      <a href="/vufind/Search/Results?lookfor=autor-%s">Autor %s</a>
    </div>
  </div>
  <div id="datePublish">Data de Defesa 2021</div>
  <a class="fulltext" href="%s/fulltext/%s">Texto completo</a>
</div>`, id, id, id, id, m.server.URL, id)
		}
	}

	if reported > 1 {
		sb.WriteString(`<ul class="pagination">`)
		fmt.Fprintf(&sb, `<li><a href="/vufind/Search/Results?page=2">2</a></li>`)
		fmt.Fprintf(&sb, `<li><a href="/vufind/Search/Results?page=%d">[%d]</a></li>`, reported, reported)
		sb.WriteString(`</ul>`)
	}

	sb.WriteString("</body></html>")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, sb.String())
}

// serveRecordPage renders a detail page for a record ID.
func (m *MockBDTD) serveRecordPage(w http.ResponseWriter, id string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<!DOCTYPE html><html><body>
<div class="mainbody right">
  <h3 property="name">Título %s</h3>
  <div class="col-sm-12"><p>Resumo de %s.</p></div>
  <table summary="description">
    <tr><th>Autor:</th><td>Autor %s</td></tr>
    <tr><th>Idioma:</th><td>Português</td></tr>
  </table>
</div>
</body></html>`, id, id, id)
}

// serveFulltextPage renders a landing page linking to one PDF per record.
func (m *MockBDTD) serveFulltextPage(w http.ResponseWriter, id string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<!DOCTYPE html><html><body>
<a href="/files/%s.pdf">Download PDF</a>
<a href="/sobre">Sobre</a>
</body></html>`, id)
}
