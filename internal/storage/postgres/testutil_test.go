package postgres

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"defi-hub/internal/domain"
)

// setupTestDB creates a PostgreSQL container for testing and applies migrations.
// Returns a cleanup function that must be called after tests complete.
func setupTestDB(t *testing.T) (*Pool, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err, "failed to create pool")

	runMigrations(t, ctx, pool)

	cleanup := func() {
		pool.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return pool, cleanup
}

// runMigrations applies the SQL files under internal/storage/migrations/postgres.
// The migrations package imports this one, so the files are read from disk.
func runMigrations(t *testing.T, ctx context.Context, pool *Pool) {
	t.Helper()

	migrationsDir := filepath.Join(findProjectRoot(t), "internal", "storage", "migrations", "postgres")

	entries, err := os.ReadDir(migrationsDir)
	require.NoError(t, err, "failed to read migrations directory")

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".sql" {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	for _, file := range files {
		sql, err := os.ReadFile(filepath.Join(migrationsDir, file))
		require.NoError(t, err, "failed to read migration file: %s", file)

		_, err = pool.Exec(ctx, string(sql))
		require.NoError(t, err, "failed to execute migration: %s", file)
	}
}

// findProjectRoot walks up from current directory to find go.mod.
func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err, "failed to get working directory")

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// fakeAdvert builds a valid advert with random text fields.
func fakeAdvert(start, end time.Time) *domain.Advert {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Advert{
		ID:          uuid.NewString(),
		Title:       gofakeit.Company(),
		Description: gofakeit.Name() + " " + gofakeit.Word(),
		ImageURL:    "https://cdn.example.com/" + gofakeit.Word() + ".png",
		LinkURL:     gofakeit.URL(),
		Placement:   domain.PlacementBanner,
		StartDate:   start.UTC().Truncate(time.Microsecond),
		EndDate:     end.UTC().Truncate(time.Microsecond),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// fakeSpotlight builds a spotlight entry with random token metadata.
func fakeSpotlight(rank int, start, end time.Time) *domain.SpotlightToken {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.SpotlightToken{
		ID:           uuid.NewString(),
		Chain:        "ethereum",
		TokenAddress: fmt.Sprintf("0x%040x", gofakeit.Uint64()),
		Symbol:       strings.ToUpper(gofakeit.Word()),
		Name:         gofakeit.Company(),
		Rank:         rank,
		StartDate:    start.UTC().Truncate(time.Microsecond),
		EndDate:      end.UTC().Truncate(time.Microsecond),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// ptr is a helper to create pointers to values.
func ptr[T any](v T) *T {
	return &v
}
