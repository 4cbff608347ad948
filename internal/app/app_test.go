package app

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/minicom/internal/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Store.Driver = config.DriverMemory
	cfg.ShutdownTimeout = time.Second
	return cfg
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Driver = "mongo"
	logger := zerolog.Nop()

	if _, err := New(context.Background(), &cfg, &logger); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestNewWithSQLite(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Driver = config.DriverSQLite
	cfg.Store.SQLitePath = t.TempDir() + "/chat.db"
	logger := zerolog.Nop()

	a, err := New(context.Background(), &cfg, &logger)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	a.cleanup()
}

func TestHandlerServesHealth(t *testing.T) {
	cfg := testConfig(t)
	logger := zerolog.Nop()

	a, err := New(context.Background(), &cfg, &logger)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer a.cleanup()

	ts := httptest.NewServer(a.Handler())
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Fatalf("unexpected health response: %d %q", resp.StatusCode, body)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	cfg := testConfig(t)
	cfg.Addr = addr
	logger := zerolog.Nop()

	a, err := New(context.Background(), &cfg, &logger)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- a.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := http.Get("http://" + addr + "/health")
		if err == nil {
			resp.Body.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server never came up: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
