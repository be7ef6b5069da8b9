package domain

import (
	"context"
	"math"

	fleetdomain "fleetsync/internal/fleet/domain"
	"fleetsync/pkg/utils"
)

// EntityConfig is one entry of a fleet seed file. Coordinates are pointers so
// a missing value is told apart from zero.
type EntityConfig struct {
	Name   string   `json:"name"`
	Status string   `json:"status"`
	Lat    *float64 `json:"lat"`
	Lon    *float64 `json:"lon"`
}

func (c *EntityConfig) Valid(ctx context.Context) map[string]string {
	problems := make(map[string]string)

	if err := utils.CheckName(c.Name); err != nil {
		problems["name"] = err.Error()
	}
	if c.Lat == nil {
		problems["lat"] = "lat is required"
	} else if math.IsNaN(*c.Lat) || math.IsInf(*c.Lat, 0) {
		problems["lat"] = "must be a finite number"
	}
	if c.Lon == nil {
		problems["lon"] = "lon is required"
	} else if math.IsNaN(*c.Lon) || math.IsInf(*c.Lon, 0) {
		problems["lon"] = "must be a finite number"
	}
	if c.Status != "" && !fleetdomain.Status(c.Status).Valid() {
		problems["status"] = "status must be idle or moving"
	}

	return problems
}

// NewEntity converts a validated entry into a create request.
func (c *EntityConfig) NewEntity() fleetdomain.NewEntity {
	return fleetdomain.NewEntity{
		Name:     c.Name,
		Position: fleetdomain.Position{Lat: *c.Lat, Lon: *c.Lon},
		Status:   fleetdomain.Status(c.Status),
	}
}

// DefaultFleet is seeded when no fleet file is given.
func DefaultFleet() []EntityConfig {
	return []EntityConfig{
		{Name: "Robot A", Status: string(fleetdomain.StatusIdle), Lat: ptr(51.5), Lon: ptr(-0.12)},
		{Name: "Robot B", Status: string(fleetdomain.StatusMoving), Lat: ptr(48.85), Lon: ptr(2.35)},
		{Name: "Robot C", Status: string(fleetdomain.StatusIdle), Lat: ptr(40.71), Lon: ptr(-74.0)},
	}
}

func ptr(v float64) *float64 {
	return &v
}
