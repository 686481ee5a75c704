package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"symptom-triage/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:               "0",
		CatalogPath:        "../../data/conditions.csv",
		LogLevel:           "INFO",
		MatchCutoff:        0.7,
		SessionIdleTimeout: time.Minute,
	}
}

func TestNewAppFailsWithoutCatalog(t *testing.T) {
	cfg := testConfig()
	cfg.CatalogPath = "does/not/exist.csv"
	if _, err := newApp(context.Background(), cfg); err == nil {
		t.Fatal("expected error for a missing catalog")
	}
}

func TestServeStopsSweeperAndServer(t *testing.T) {
	a, err := newApp(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	defer a.close()
	if a.memory == nil {
		t.Fatal("expected the in-memory session store without REDIS_ADDR")
	}

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", rec.Code)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancellation")
	}
}
