package application

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	fleetdomain "fleetsync/internal/fleet/domain"
	"fleetsync/internal/infrastructure/logger"
	"fleetsync/internal/shared/validation"
)

type fakeFleet struct {
	mu        sync.Mutex
	entities  fleetdomain.Snapshot
	listErr   error
	createErr error
}

func (f *fakeFleet) List(ctx context.Context) (fleetdomain.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.entities.Clone(), nil
}

func (f *fakeFleet) Create(ctx context.Context, req fleetdomain.NewEntity) (fleetdomain.Entity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return fleetdomain.Entity{}, f.createErr
	}
	status := req.Status
	if status == "" {
		status = fleetdomain.StatusIdle
	}
	e := fleetdomain.Entity{ID: int64(len(f.entities) + 1), Name: req.Name, Position: req.Position, Status: status}
	f.entities = append(f.entities, e)
	return e, nil
}

func setupTestLoader(t *testing.T) (*Loader, *fakeFleet) {
	t.Helper()
	fleet := &fakeFleet{}
	return NewLoader(logger.Discard(), fleet), fleet
}

func TestLoader_LoadConfig(t *testing.T) {
	tests := []struct {
		name        string
		config      string
		expectError bool
		errorType   string
		wantCreated int
	}{
		{
			name: "valid config",
			config: `{
				"name": "demo",
				"entities": [
					{"name": "Robot A", "status": "idle", "lat": 51.5, "lon": -0.12},
					{"name": "Robot B", "lat": 48.85, "lon": 2.35}
				]
			}`,
			wantCreated: 2,
		},
		{
			name:        "invalid JSON",
			config:      `{"name": "demo", "entities": [`,
			expectError: true,
			errorType:   "parse",
		},
		{
			name:        "config validation error - empty name",
			config:      `{"name": "", "entities": [{"name": "Robot A", "lat": 1, "lon": 2}]}`,
			expectError: true,
			errorType:   "validation",
		},
		{
			name:        "config validation error - empty entities",
			config:      `{"name": "demo", "entities": []}`,
			expectError: true,
			errorType:   "validation",
		},
		{
			name:        "missing entity name",
			config:      `{"name": "demo", "entities": [{"lat": 1, "lon": 2}]}`,
			expectError: true,
			errorType:   "validation",
		},
		{
			name:        "missing coordinates",
			config:      `{"name": "demo", "entities": [{"name": "Robot A"}]}`,
			expectError: true,
			errorType:   "validation",
		},
		{
			name: "duplicate entity",
			config: `{"name": "demo", "entities": [
				{"name": "Robot A", "lat": 1, "lon": 2},
				{"name": "Robot A", "lat": 3, "lon": 4}
			]}`,
			expectError: true,
			errorType:   "validation",
		},
		{
			name: "duplicate entity after trimming",
			config: `{"name": "demo", "entities": [
				{"name": "Robot A", "lat": 1, "lon": 2},
				{"name": "  Robot A ", "lat": 3, "lon": 4}
			]}`,
			expectError: true,
			errorType:   "validation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader, fleet := setupTestLoader(t)

			res, err := loader.LoadConfig(context.Background(), []byte(tt.config))

			if tt.expectError {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if tt.errorType == "parse" && !strings.HasPrefix(err.Error(), "failed to parse config") {
					t.Errorf("expected parse error, got: %v", err)
				}
				if tt.errorType == "validation" {
					var valErr validation.ConfigError
					if !errors.As(err, &valErr) {
						t.Errorf("expected validation error, got: %v", err)
					}
				}
				if len(fleet.entities) != 0 {
					t.Errorf("nothing should be written on error, got %d entities", len(fleet.entities))
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Created != tt.wantCreated {
				t.Errorf("expected %d created, got %d", tt.wantCreated, res.Created)
			}
		})
	}
}

func TestLoader_SkipsExistingNames(t *testing.T) {
	loader, fleet := setupTestLoader(t)
	config := []byte(`{"name": "demo", "entities": [
		{"name": "Robot A", "lat": 1, "lon": 2},
		{"name": "Robot B", "lat": 3, "lon": 4}
	]}`)

	if _, err := loader.LoadConfig(context.Background(), config); err != nil {
		t.Fatalf("first load: %v", err)
	}
	res, err := loader.LoadConfig(context.Background(), config)
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if res.Created != 0 || res.Skipped != 2 {
		t.Errorf("expected everything skipped, got %+v", res)
	}
	if len(fleet.entities) != 2 {
		t.Errorf("expected 2 entities, got %d", len(fleet.entities))
	}
}

func TestLoader_LoadDefaults(t *testing.T) {
	loader, fleet := setupTestLoader(t)

	res, err := loader.LoadDefaults(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Created != 3 {
		t.Fatalf("expected 3 created, got %+v", res)
	}
	if fleet.entities[1].Status != fleetdomain.StatusMoving {
		t.Errorf("expected second default entity to be moving, got %q", fleet.entities[1].Status)
	}
}

func TestLoader_LoadFile(t *testing.T) {
	loader, _ := setupTestLoader(t)

	path := filepath.Join(t.TempDir(), "fleet.json")
	os.WriteFile(path, []byte(`{"name": "demo", "entities": [{"name": "Robot A", "lat": 1, "lon": 2}]}`), 0o600)

	res, err := loader.LoadFile(context.Background(), path)
	if err != nil || res.Created != 1 {
		t.Fatalf("expected one entity created, got %+v, %v", res, err)
	}

	if _, err := loader.LoadFile(context.Background(), filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoader_StoreErrors(t *testing.T) {
	storeErr := fleetdomain.NewStoreError("insert", errors.New("disk I/O error"))

	loader, fleet := setupTestLoader(t)
	fleet.listErr = storeErr
	if _, err := loader.LoadDefaults(context.Background()); !errors.Is(err, fleetdomain.ErrTransientStore) {
		t.Errorf("expected transient store error from list, got %v", err)
	}

	loader, fleet = setupTestLoader(t)
	fleet.createErr = storeErr
	if _, err := loader.LoadDefaults(context.Background()); !errors.Is(err, fleetdomain.ErrTransientStore) {
		t.Errorf("expected transient store error from create, got %v", err)
	}
}

func TestLoader_LoadConfig_ConcurrentAccess(t *testing.T) {
	loader, fleet := setupTestLoader(t)
	config := []byte(`{"name": "demo", "entities": [{"name": "Robot A", "lat": 1, "lon": 2}]}`)

	var wg sync.WaitGroup
	errs := make(chan error, 10)

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := loader.LoadConfig(context.Background(), config); err != nil {
				errs <- err
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("unexpected error during concurrent access: %v", err)
	}
	if len(fleet.entities) != 1 {
		t.Errorf("expected a single entity after concurrent loads, got %d", len(fleet.entities))
	}
}
