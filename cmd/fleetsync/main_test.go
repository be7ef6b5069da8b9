package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"golang.org/x/crypto/bcrypt"

	configapp "fleetsync/internal/config/application"
	"fleetsync/internal/infrastructure/database"
	"fleetsync/internal/infrastructure/database/queries"
	fleetinfra "fleetsync/internal/fleet/infrastructure"
)

func runCLI(t *testing.T, args ...string) error {
	t.Helper()
	return newApp().Run(append([]string{"fleetsync"}, args...))
}

func openQueries(t *testing.T, path string) *queries.Queries {
	t.Helper()
	db, err := database.ConnectSQLite(path)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return queries.New(db)
}

func TestSeed_DefaultsAreIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "fleet.db")

	for i := 0; i < 2; i++ {
		if err := runCLI(t, "seed", "--db", dbPath, "--cache", "memory", "--log-level", "ERROR"); err != nil {
			t.Fatalf("seed run %d failed: %v", i+1, err)
		}
	}

	q := openQueries(t, dbPath)
	rows, err := q.ListEntities(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 default entities after two runs, got %d", len(rows))
	}
	if rows[0].Name != "Robot A" {
		t.Errorf("expected first entity Robot A, got %q", rows[0].Name)
	}

	user, err := q.GetUserByEmail(context.Background(), "admin@test.com")
	if err != nil {
		t.Fatalf("expected admin user: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("test123")); err != nil {
		t.Errorf("stored hash does not match default password: %v", err)
	}
}

func TestSeed_FleetFile(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "fleet.db")
	fleetPath := filepath.Join(dir, "fleet.json")
	fleet := `{"name":"depot","entities":[{"name":"Rover","status":"moving","lat":1.5,"lon":2.5}]}`
	if err := os.WriteFile(fleetPath, []byte(fleet), 0o644); err != nil {
		t.Fatal(err)
	}

	err := runCLI(t, "seed", "--db", dbPath, "--cache", "memory", "--log-level", "ERROR",
		"--email", "ops@example.com", "--password", "s3cret", "--file", fleetPath)
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	q := openQueries(t, dbPath)
	rows, err := q.ListEntities(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Name != "Rover" || rows[0].Status != "moving" {
		t.Errorf("unexpected entities: %+v", rows)
	}
	if _, err := q.GetUserByEmail(context.Background(), "ops@example.com"); err != nil {
		t.Errorf("expected custom user: %v", err)
	}
}

func TestSeed_RejectsUnknownCacheBackend(t *testing.T) {
	err := runCLI(t, "seed", "--db", filepath.Join(t.TempDir(), "fleet.db"), "--cache", "memcached")

	var cfgErr *configapp.ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Field != "cache-backend" {
		t.Errorf("expected cache-backend ConfigError, got %v", err)
	}
}

func TestServe_RequiresJWTSecret(t *testing.T) {
	t.Setenv("FLEETSYNC_JWT_SECRET", "")

	err := runCLI(t, "serve", "--db", filepath.Join(t.TempDir(), "fleet.db"))

	var cfgErr *configapp.ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Field != "jwt-secret" {
		t.Errorf("expected jwt-secret ConfigError, got %v", err)
	}
}

func TestSeed_InvalidatesSharedRedisSnapshot(t *testing.T) {
	server := miniredis.RunT(t)
	key := fleetinfra.SnapshotKey("")
	// A running server cached an empty fleet before the seed.
	if err := server.Set(key, "[]"); err != nil {
		t.Fatal(err)
	}

	err := runCLI(t, "seed", "--db", filepath.Join(t.TempDir(), "fleet.db"), "--log-level", "ERROR",
		"--cache", "redis", "--redis-url", "redis://"+server.Addr()+"/0")
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	if server.Exists(key) {
		t.Errorf("seed left the pre-seed snapshot in redis: %q", mustGet(t, server, key))
	}
}

func mustGet(t *testing.T, server *miniredis.Miniredis, key string) string {
	t.Helper()
	v, err := server.Get(key)
	if err != nil {
		t.Fatal(err)
	}
	return v
}
