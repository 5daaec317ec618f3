package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"recipe-aggregator/internal/infrastructure/config"

	gobreaker "github.com/sony/gobreaker/v2"
)

func TestGetSendsHeadersAndReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Mashape-Key") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`[{"id":1}]`))
	}))
	defer srv.Close()

	c := New(Options{Name: "headers", Timeout: time.Second})
	resp, err := c.Get(context.Background(), srv.URL, map[string]string{"X-Mashape-Key": "secret"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if string(resp.Body) != `[{"id":1}]` {
		t.Errorf("body = %q", resp.Body)
	}
}

func TestGetReturnsNon2xxWithoutError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(Options{Name: "notfound", Timeout: time.Second})
	resp, err := c.Get(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestBreakerOpensAfterConsecutiveServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(Options{
		Name:    "flaky",
		Timeout: time.Second,
		Breaker: config.BreakerConfig{MaxRequests: 1, Timeout: time.Minute, ConsecutiveFailures: 2},
	})

	for i := 0; i < 2; i++ {
		resp, err := c.Get(context.Background(), srv.URL, nil)
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if resp.StatusCode != http.StatusInternalServerError {
			t.Fatalf("call %d: status = %d", i, resp.StatusCode)
		}
	}

	_, err := c.Get(context.Background(), srv.URL, nil)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("err = %v, want open state", err)
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Errorf("server hits = %d, want 2", got)
	}
	if c.State() != "open" {
		t.Errorf("State() = %q", c.State())
	}
}

func TestGetHonoursCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(Options{Name: "cancelled", Timeout: time.Second, RequestsPerSecond: 1, Burst: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Get(ctx, srv.URL, nil); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
