package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// fastConfig returns a config with test-friendly retry and interval timings.
func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.Interval = time.Millisecond
	cfg.RetryInterval = 5 * time.Millisecond
	cfg.Timeout = 2 * time.Second
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.UserAgent == "" {
		t.Error("UserAgent should have a default")
	}
	if cfg.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", cfg.Timeout)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.MaxRetries)
	}
	if cfg.RetryInterval != 5*time.Second {
		t.Errorf("RetryInterval = %v, want 5s", cfg.RetryInterval)
	}
	if cfg.Interval != 500*time.Millisecond {
		t.Errorf("Interval = %v, want 500ms", cfg.Interval)
	}
}

func TestNew_RequiresUserAgent(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UserAgent = ""

	if _, err := New(cfg); err == nil {
		t.Error("New() should fail without a user-agent")
	}
}

func TestFetch_Success(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("<html>ok</html>"))
	}))
	defer server.Close()

	c, err := New(fastConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	body, err := c.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(body) != "<html>ok</html>" {
		t.Errorf("body = %q", body)
	}
	if gotUA != DefaultUserAgent {
		t.Errorf("User-Agent = %q, want %q", gotUA, DefaultUserAgent)
	}
}

func TestFetch_RetriesServerError(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer server.Close()

	c, _ := New(fastConfig())

	body, err := c.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v, want success on third attempt", err)
	}
	if string(body) != "recovered" {
		t.Errorf("body = %q", body)
	}
	if calls != 3 {
		t.Errorf("server saw %d requests, want 3", calls)
	}
}

func TestFetch_ExhaustsRetries(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c, _ := New(fastConfig())

	_, err := c.Fetch(context.Background(), server.URL)
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("error = %v, want ErrRetryExhausted", err)
	}

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("error = %T, want *FetchError", err)
	}
	if fetchErr.Attempts != 3 {
		t.Errorf("Attempts = %d, want exactly 3", fetchErr.Attempts)
	}
	if fetchErr.Class != ErrorClassServer {
		t.Errorf("Class = %q, want server", fetchErr.Class)
	}
	if calls != 3 {
		t.Errorf("server saw %d requests, want 3", calls)
	}
}

func TestFetch_ClientErrorNotRetried(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c, _ := New(fastConfig())

	_, err := c.Fetch(context.Background(), server.URL)
	if err == nil {
		t.Fatal("expected error for 404")
	}

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("error = %T, want *FetchError", err)
	}
	if fetchErr.Class != ErrorClassClient {
		t.Errorf("Class = %q, want client", fetchErr.Class)
	}
	if fetchErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", fetchErr.StatusCode)
	}
	if calls != 1 {
		t.Errorf("server saw %d requests, want 1 (no retry for 4xx)", calls)
	}
}

func TestFetch_NetworkErrorClassified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close() // connection refused from here on

	c, _ := New(fastConfig())

	_, err := c.Fetch(context.Background(), url)
	if err == nil {
		t.Fatal("expected network error")
	}

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("error = %T, want *FetchError", err)
	}
	if fetchErr.Class != ErrorClassNetwork {
		t.Errorf("Class = %q, want network", fetchErr.Class)
	}
	if fetchErr.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", fetchErr.Attempts)
	}
}

func TestFetchUncached_SharesRetryAndGate(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("%PDF-1.4 payload"))
	}))
	defer server.Close()

	c, _ := New(fastConfig())

	body, err := c.FetchUncached(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("FetchUncached() error = %v, want success on second attempt", err)
	}
	if string(body) != "%PDF-1.4 payload" {
		t.Errorf("body = %q", body)
	}
	if calls != 2 {
		t.Errorf("server saw %d requests, want 2", calls)
	}
}

func TestFetch_RespectsInterval(t *testing.T) {
	var mu sync.Mutex
	var arrivals []time.Time
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		arrivals = append(arrivals, time.Now())
		mu.Unlock()
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	cfg := fastConfig()
	cfg.Interval = 40 * time.Millisecond
	c, _ := New(cfg)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := c.Fetch(ctx, server.URL); err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if len(arrivals) != 3 {
		t.Fatalf("server saw %d requests, want 3", len(arrivals))
	}
	for i := 1; i < len(arrivals); i++ {
		spacing := arrivals[i].Sub(arrivals[i-1])
		if spacing < 35*time.Millisecond {
			t.Errorf("requests %d and %d spaced %v apart, want >= 40ms", i-1, i, spacing)
		}
	}
}
