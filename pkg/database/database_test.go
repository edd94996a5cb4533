package database_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/JaimeStill/dossier/pkg/database"
	"github.com/JaimeStill/dossier/pkg/lifecycle"
)

func testConfig() database.Config {
	return database.Config{
		Host:            "127.0.0.1",
		Port:            1,
		Name:            "testdb",
		User:            "testuser",
		Password:        "testpass",
		SSLMode:         "disable",
		MaxOpenConns:    42,
		MaxIdleConns:    7,
		ConnMaxLifetime: "10m",
		ConnTimeout:     "200ms",
	}
}

func TestNewSetsPoolParams(t *testing.T) {
	cfg := testConfig()
	sys, err := database.New(&cfg, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	conn := sys.Connection()
	defer conn.Close()

	if got := conn.Stats().MaxOpenConnections; got != 42 {
		t.Errorf("MaxOpenConnections = %d, want 42", got)
	}
	if sys.Ready() {
		t.Error("Ready() before any ping")
	}
}

func TestPingUnreachable(t *testing.T) {
	cfg := testConfig()
	sys, err := database.New(&cfg, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer sys.Connection().Close()

	err = sys.Ping(context.Background())
	if !errors.Is(err, database.ErrNotReady) {
		t.Errorf("Ping() error = %v, want ErrNotReady", err)
	}
	if sys.Ready() {
		t.Error("Ready() after failed ping")
	}
}

func TestStartLeavesUnreadyOnFailedPing(t *testing.T) {
	cfg := testConfig()
	sys, err := database.New(&cfg, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	lc := lifecycle.New(context.Background())
	if err := sys.Start(lc); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	lc.WaitForStartup()

	if sys.Ready() {
		t.Error("Ready() after failed startup ping")
	}
	if err := lc.Shutdown(5 * time.Second); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestStartRetriesBeforeGivingUp(t *testing.T) {
	cfg := testConfig()
	cfg.ConnRetries = 1
	sys, err := database.New(&cfg, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	lc := lifecycle.New(context.Background())
	start := time.Now()
	if err := sys.Start(lc); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	lc.WaitForStartup()

	if elapsed := time.Since(start); elapsed < 250*time.Millisecond {
		t.Errorf("startup took %v, want at least one backoff", elapsed)
	}
	if sys.Ready() {
		t.Error("Ready() after exhausted retries")
	}
	if err := lc.Shutdown(5 * time.Second); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}
