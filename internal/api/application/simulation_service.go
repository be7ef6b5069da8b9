package application

import (
	"errors"

	simdomain "fleetsync/internal/simulation/domain"
)

// SimulationControl is the scheduler surface exposed over HTTP
type SimulationControl interface {
	State() simdomain.State
	Start() (simdomain.State, error)
	Stop() (simdomain.State, error)
}

// SimulationService maps scheduler transitions to API responses
type SimulationService struct {
	control SimulationControl
}

func NewSimulationService(control SimulationControl) *SimulationService {
	return &SimulationService{control: control}
}

// Status reports whether the simulation is running
func (s *SimulationService) Status() SimulationResponse {
	return SimulationResponse{Running: s.control.State() == simdomain.Running}
}

// Start starts the simulation. The response is filled in on ErrAlreadyRunning too.
func (s *SimulationService) Start() (SimulationResponse, error) {
	state, err := s.control.Start()
	resp := SimulationResponse{Running: state == simdomain.Running}
	switch {
	case errors.Is(err, simdomain.ErrAlreadyRunning):
		resp.Message = "Simulation already running"
	case err != nil:
		resp.Message = err.Error()
	default:
		resp.Message = "Simulation started"
	}
	return resp, err
}

// Stop stops the simulation. The response is filled in on ErrNotRunning too.
func (s *SimulationService) Stop() (SimulationResponse, error) {
	state, err := s.control.Stop()
	resp := SimulationResponse{Running: state == simdomain.Running}
	switch {
	case errors.Is(err, simdomain.ErrNotRunning):
		resp.Message = "Simulation is not running"
	case err != nil:
		resp.Message = err.Error()
	default:
		resp.Message = "Simulation stopped"
	}
	return resp, err
}
