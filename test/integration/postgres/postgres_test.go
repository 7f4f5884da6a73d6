//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/telimanlogistique/telimanshare/pkg/store/meta"
	"github.com/telimanlogistique/telimanshare/pkg/store/meta/postgres"
)

// startPostgres starts a PostgreSQL container, or connects to an external
// instance configured via POSTGRES_HOST/POSTGRES_PORT.
func startPostgres(t *testing.T) (postgres.Config, func()) {
	t.Helper()
	ctx := context.Background()

	cfg := postgres.Config{
		Database: "telimanshare_test",
		User:     "telimanshare",
		Password: "telimanshare",
		SSLMode:  "disable",
	}

	if host := os.Getenv("POSTGRES_HOST"); host != "" {
		cfg.Host = host
		if portStr := os.Getenv("POSTGRES_PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				t.Fatalf("invalid POSTGRES_PORT: %v", err)
			}
			cfg.Port = port
		}
		return cfg, func() {}
	}

	// PostgreSQL outputs "database system is ready" twice during startup
	// (once during bootstrap, once when fully ready), so wait for 2 occurrences.
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase(cfg.Database),
		tcpostgres.WithUsername(cfg.User),
		tcpostgres.WithPassword(cfg.Password),
		testcontainers.WithWaitStrategyAndDeadline(2*time.Minute,
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get container port: %v", err)
	}

	cfg.Host = host
	cfg.Port = port.Int()

	return cfg, func() { _ = container.Terminate(ctx) }
}

// TestPostgresMetaStore_Integration exercises the PostgreSQL metadata store
// against a real server, including the migration run in New.
func TestPostgresMetaStore_Integration(t *testing.T) {
	ctx := context.Background()

	cfg, cleanup := startPostgres(t)
	defer cleanup()

	store, err := postgres.New(ctx, cfg)
	if err != nil {
		t.Fatalf("Failed to create postgres meta store: %v", err)
	}
	defer store.Close()

	t.Run("PutGetRoundTrip", func(t *testing.T) {
		record := &meta.MetaRecord{
			FilePath:      "BL/2026/",
			IsPublic:      false,
			AllowedEmails: []string{"aminata@teliman.ml", "moussa@teliman.ml"},
			OwnerEmail:    "admin@teliman.ml",
			UpdatedAt:     time.Now().UTC(),
		}
		if err := store.Put(ctx, record); err != nil {
			t.Fatalf("Put failed: %v", err)
		}

		got, err := store.Get(ctx, "BL/2026/")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.OwnerEmail != "admin@teliman.ml" {
			t.Errorf("Expected owner admin@teliman.ml, got %q", got.OwnerEmail)
		}
		if len(got.AllowedEmails) != 2 {
			t.Errorf("Expected 2 allowed emails, got %v", got.AllowedEmails)
		}
	})

	t.Run("PutReplacesExisting", func(t *testing.T) {
		record := &meta.MetaRecord{
			FilePath:   "BL/2026/",
			IsPublic:   true,
			OwnerEmail: "admin@teliman.ml",
			UpdatedAt:  time.Now().UTC(),
		}
		if err := store.Put(ctx, record); err != nil {
			t.Fatalf("Put failed: %v", err)
		}

		got, err := store.Get(ctx, "BL/2026/")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !got.IsPublic {
			t.Error("Expected record to be public after replacement")
		}
		if len(got.AllowedEmails) != 0 {
			t.Errorf("Expected empty allow-list after replacement, got %v", got.AllowedEmails)
		}
	})

	t.Run("ListPrefixAscending", func(t *testing.T) {
		for i, key := range []string{"FINANCE/b.pdf", "FINANCE/a.pdf", "CUSTOMS/z.pdf"} {
			record := &meta.MetaRecord{
				FilePath:   key,
				OwnerEmail: fmt.Sprintf("user%d@teliman.ml", i),
				UpdatedAt:  time.Now().UTC(),
			}
			if err := store.Put(ctx, record); err != nil {
				t.Fatalf("Put %q failed: %v", key, err)
			}
		}

		records, err := store.List(ctx, "FINANCE/")
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("Expected 2 records under FINANCE/, got %d", len(records))
		}
		if records[0].FilePath != "FINANCE/a.pdf" || records[1].FilePath != "FINANCE/b.pdf" {
			t.Errorf("Expected names ascending, got %q, %q", records[0].FilePath, records[1].FilePath)
		}
	})

	t.Run("GetMissingReturnsNotFound", func(t *testing.T) {
		_, err := store.Get(ctx, "nope/")
		if !errors.Is(err, meta.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("DeleteIsIdempotent", func(t *testing.T) {
		record := &meta.MetaRecord{FilePath: "tmp.txt", OwnerEmail: "x@y.z", UpdatedAt: time.Now().UTC()}
		if err := store.Put(ctx, record); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if err := store.Delete(ctx, "tmp.txt"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if err := store.Delete(ctx, "tmp.txt"); err != nil {
			t.Errorf("Second delete should be a no-op, got %v", err)
		}
		if _, err := store.Get(ctx, "tmp.txt"); !errors.Is(err, meta.ErrNotFound) {
			t.Errorf("Expected ErrNotFound after delete, got %v", err)
		}
	})

	t.Run("MigrationsAreIdempotent", func(t *testing.T) {
		// A second New against the same database must not fail
		second, err := postgres.New(ctx, cfg)
		if err != nil {
			t.Fatalf("Second New failed: %v", err)
		}
		_ = second.Close()
	})
}
