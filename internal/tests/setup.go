package tests

import (
	"context"
	"database/sql"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"

	"github.com/filekeep/server/internal/auth"
	"github.com/filekeep/server/internal/cleanup"
	"github.com/filekeep/server/internal/db"
	httphandler "github.com/filekeep/server/internal/http"
	"github.com/filekeep/server/internal/http/handlers"
	"github.com/filekeep/server/internal/repo"
	"github.com/filekeep/server/internal/storage"
)

// migrationDirs are tried in order so tests work from the module root or
// from this package's directory (go test ./...).
var migrationDirs = []string{
	"internal/db/migrations",
	"../../internal/db/migrations",
}

// ResolveMigrationDir returns the first existing migrations directory.
func ResolveMigrationDir() string {
	for _, dir := range migrationDirs {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			abs, _ := filepath.Abs(dir)
			return abs
		}
	}
	return ""
}

// RunMigrations runs goose Up using the resolved migration directory.
func RunMigrations(database *sql.DB) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	dir := ResolveMigrationDir()
	if dir == "" {
		return fmt.Errorf("migrations directory not found; run tests from the module root")
	}
	if err := goose.Up(database, dir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// TruncateAll truncates every table for a clean test state.
func TruncateAll(ctx context.Context, database *sql.DB) error {
	_, err := database.ExecContext(ctx,
		"TRUNCATE TABLE files, refresh_tokens, blacklisted_tokens, users RESTART IDENTITY CASCADE")
	if err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	return nil
}

// TestServer wires the full stack against the real database.
type TestServer struct {
	Server  *httptest.Server
	DB      *sql.DB
	Sweeper *cleanup.Scheduler
	Auth    *auth.AuthService
}

// NewTestServer skips the test when DATABASE_URL is unset; otherwise it
// migrates the schema and serves the real router over httptest.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		t.Skip("DATABASE_URL not set; skipping DB-backed test")
	}

	database, err := db.Open(context.Background(), databaseURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	require.NoError(t, RunMigrations(database))

	store, err := storage.NewDiskStore(t.TempDir())
	require.NoError(t, err)

	userRepo := repo.NewUserRepo(database)
	refreshRepo := repo.NewRefreshTokenRepo(database)
	blacklistRepo := repo.NewBlacklistRepo(database)
	fileRepo := repo.NewFileRepo(database)

	jwtService := auth.NewJWTService("e2e-test-secret", 10*time.Minute)
	hasher := auth.NewPasswordHasher(4)
	authService := auth.NewAuthService(userRepo, refreshRepo, blacklistRepo, jwtService, hasher, 7*24*time.Hour)
	sweeper := cleanup.New(refreshRepo, blacklistRepo, 24*time.Hour)

	authHandler := handlers.NewAuthHandler(authService)
	fileHandler := handlers.NewFileHandler(fileRepo, store)
	router := httphandler.NewRouter(authHandler, fileHandler, jwtService, blacklistRepo)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &TestServer{Server: srv, DB: database, Sweeper: sweeper, Auth: authService}
}

// BaseURL returns the test server's base URL.
func (ts *TestServer) BaseURL() string {
	return ts.Server.URL
}

// Truncate resets all tables, failing the test on error.
func (ts *TestServer) Truncate(t *testing.T) {
	t.Helper()
	require.NoError(t, TruncateAll(context.Background(), ts.DB))
}
