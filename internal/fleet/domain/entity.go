package domain

import (
	"context"
	"fmt"
	"math"
	"time"

	"fleetsync/internal/shared/validation"
	"fleetsync/pkg/utils"
)

// Status is the movement state of a tracked entity.
type Status string

const (
	StatusIdle   Status = "idle"
	StatusMoving Status = "moving"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusIdle || s == StatusMoving
}

// MaxJitter is the largest movement range accepted by a move, in degrees.
const MaxJitter = 1.0

// Position is a latitude/longitude pair in degrees.
type Position struct {
	Lat float64
	Lon float64
}

// Finite reports whether both coordinates are real numbers.
func (p Position) Finite() bool {
	return isFinite(p.Lat) && isFinite(p.Lon)
}

// Offset returns p shifted by the given deltas.
func (p Position) Offset(dLat, dLon float64) Position {
	return Position{Lat: p.Lat + dLat, Lon: p.Lon + dLon}
}

func (p Position) String() string {
	return fmt.Sprintf("(%g, %g)", p.Lat, p.Lon)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Entity is one tracked unit as last committed to the store.
type Entity struct {
	ID        int64
	Name      string
	Position  Position
	Status    Status
	UpdatedAt time.Time
}

// Snapshot is the full entity set ordered by ID ascending.
type Snapshot []Entity

// IDs returns the entity ids in snapshot order.
func (s Snapshot) IDs() []int64 {
	ids := make([]int64, len(s))
	for i, e := range s {
		ids[i] = e.ID
	}
	return ids
}

// Clone returns a copy that shares no backing array with s.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	copy(out, s)
	return out
}

// NewEntity is a create request after defaults have been applied.
type NewEntity struct {
	Name     string
	Position Position
	Status   Status
}

// Valid implements validation.Validator.
func (n *NewEntity) Valid(ctx context.Context) map[string]string {
	problems := make(map[string]string, 3)

	if err := utils.CheckName(n.Name); err != nil {
		problems["name"] = err.Error()
	}
	if !isFinite(n.Position.Lat) {
		problems["position.lat"] = "must be a finite number"
	}
	if !isFinite(n.Position.Lon) {
		problems["position.lon"] = "must be a finite number"
	}
	if n.Status != "" && !n.Status.Valid() {
		problems["status"] = fmt.Sprintf("unknown status %q, expected %q or %q", n.Status, StatusIdle, StatusMoving)
	}

	return problems
}

// Normalize applies the idle default for an unspecified status.
func (n *NewEntity) Normalize() {
	if n.Status == "" {
		n.Status = StatusIdle
	}
}

// Validate returns a *validation.ValidationError describing every problem
// with n, or nil.
func (n *NewEntity) Validate(ctx context.Context) error {
	problems := n.Valid(ctx)
	if len(problems) > 0 {
		return validation.NewValidationError(problems, "entity")
	}
	return nil
}

var _ validation.Validator = (*NewEntity)(nil)
