package domain

import (
	"context"
	"errors"

	fleetdomain "fleetsync/internal/fleet/domain"
)

// State is the scheduler's lifecycle state.
type State int

const (
	Stopped State = iota
	Running
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Running:
		return "running"
	default:
		return "unknown"
	}
}

var (
	ErrAlreadyRunning = errors.New("simulation already running")
	ErrNotRunning     = errors.New("simulation is not running")
	ErrShutdown       = errors.New("simulation scheduler has shut down")
)

// Mover applies one simulated movement step to the whole fleet.
type Mover interface {
	MoveAll(ctx context.Context, jitter float64) ([]fleetdomain.Entity, error)
}

// Stats counts tick outcomes since the scheduler was created.
type Stats struct {
	Ticks   uint64
	Skipped uint64
	Failed  uint64
}
