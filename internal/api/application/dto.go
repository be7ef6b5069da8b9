package application

import (
	"encoding/json"
	"time"

	fleetdomain "fleetsync/internal/fleet/domain"
)

// EntityResponse represents an entity in API responses
type EntityResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PositionRequest is the nested position form of a create request
type PositionRequest struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

// CreateEntityRequest accepts both {name, lat, lon} and {name, position: {lat, lon}}
type CreateEntityRequest struct {
	Name     string           `json:"name"`
	Status   string           `json:"status,omitempty"`
	Lat      *float64         `json:"lat,omitempty"`
	Lon      *float64         `json:"lon,omitempty"`
	Position *PositionRequest `json:"position,omitempty"`
}

// MoveEntityRequest is the optional body of a move request
type MoveEntityRequest struct {
	Jitter *float64 `json:"jitter,omitempty" minimum:"0" maximum:"1"`
}

// LoginRequest carries user credentials
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries an issued bearer token
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SimulationResponse reports the simulation state
type SimulationResponse struct {
	Message string `json:"message,omitempty"`
	Running bool   `json:"running"`
}

// LoadFleetRequest represents the fleet payload
type LoadFleetRequest struct {
	Fleet json.RawMessage `json:"fleet"`
}

// LoadFleetResponse counts what a fleet load did
type LoadFleetResponse struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

// ErrorResponse represents an error in API responses
type ErrorResponse struct {
	Error string `json:"error"`
}

// ToEntityResponse converts a domain entity to an API response
func ToEntityResponse(e fleetdomain.Entity) EntityResponse {
	return EntityResponse{
		ID:        e.ID,
		Name:      e.Name,
		Status:    string(e.Status),
		Lat:       e.Position.Lat,
		Lon:       e.Position.Lon,
		UpdatedAt: e.UpdatedAt,
	}
}

// ToEntityResponses converts a snapshot, never returning nil
func ToEntityResponses(s fleetdomain.Snapshot) []EntityResponse {
	responses := make([]EntityResponse, len(s))
	for i, e := range s {
		responses[i] = ToEntityResponse(e)
	}
	return responses
}
