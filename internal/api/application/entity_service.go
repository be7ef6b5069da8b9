package application

import (
	"context"

	fleetdomain "fleetsync/internal/fleet/domain"
	"fleetsync/internal/shared/validation"
)

// EntityService adapts the mutation coordinator to API requests and responses
type EntityService struct {
	fleet      fleetdomain.Coordinator
	moveJitter float64
}

// NewEntityService creates a new entity service. moveJitter is used when a
// move request does not name its own.
func NewEntityService(fleet fleetdomain.Coordinator, moveJitter float64) *EntityService {
	return &EntityService{
		fleet:      fleet,
		moveJitter: moveJitter,
	}
}

// ListEntities returns all entities
func (s *EntityService) ListEntities(ctx context.Context) ([]EntityResponse, error) {
	snapshot, err := s.fleet.List(ctx)
	if err != nil {
		return nil, err
	}
	return ToEntityResponses(snapshot), nil
}

// CreateEntity resolves either request shape and creates the entity
func (s *EntityService) CreateEntity(ctx context.Context, req CreateEntityRequest) (*EntityResponse, error) {
	newEntity, err := req.toNewEntity()
	if err != nil {
		return nil, err
	}

	entity, err := s.fleet.Create(ctx, newEntity)
	if err != nil {
		return nil, err
	}

	response := ToEntityResponse(entity)
	return &response, nil
}

// MoveEntity nudges one entity. A nil jitter selects the configured default.
func (s *EntityService) MoveEntity(ctx context.Context, id int64, jitter *float64) (*EntityResponse, error) {
	j := s.moveJitter
	if jitter != nil {
		j = *jitter
	}

	entity, err := s.fleet.MoveOne(ctx, id, j)
	if err != nil {
		return nil, err
	}

	response := ToEntityResponse(entity)
	return &response, nil
}

// DeleteEntity removes one entity
func (s *EntityService) DeleteEntity(ctx context.Context, id int64) error {
	return s.fleet.Remove(ctx, id)
}

func (r CreateEntityRequest) toNewEntity() (fleetdomain.NewEntity, error) {
	lat, lon := r.Lat, r.Lon
	if r.Position != nil {
		if r.Position.Lat != nil {
			lat = r.Position.Lat
		}
		if r.Position.Lon != nil {
			lon = r.Position.Lon
		}
	}

	problems := make(map[string]string)
	if lat == nil {
		problems["position.lat"] = "lat is required"
	}
	if lon == nil {
		problems["position.lon"] = "lon is required"
	}
	if len(problems) > 0 {
		return fleetdomain.NewEntity{}, validation.NewValidationError(problems, "entity")
	}

	return fleetdomain.NewEntity{
		Name:     r.Name,
		Position: fleetdomain.Position{Lat: *lat, Lon: *lon},
		Status:   fleetdomain.Status(r.Status),
	}, nil
}
