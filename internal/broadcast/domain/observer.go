package domain

import (
	"context"
	"errors"
	"time"

	fleetdomain "fleetsync/internal/fleet/domain"
)

var (
	ErrHubClosed          = errors.New("broadcast hub is closed")
	ErrObserverRegistered = errors.New("observer already registered")
)

// Observer is one live push-channel connection.
type Observer interface {
	ID() string
	// Send writes one encoded message. It must return once ctx expires.
	Send(ctx context.Context, payload []byte) error
	Close() error
}

const (
	MessageSnapshot = "snapshot"
	MessageRemoved  = "removed"
)

// EntityPayload is the wire form of an entity on the push channel.
type EntityPayload struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is what observers receive after every committed change. Times use
// the same RFC 3339 encoding as the REST API.
type Message struct {
	Type       string          `json:"type"`
	Entities   []EntityPayload `json:"entities"`
	Removed    []int64         `json:"removed,omitempty"`
	ServerTime time.Time       `json:"server_time"`
}

// NewMessage converts a change into its wire form. A change without a
// snapshot only announces removals.
func NewMessage(change fleetdomain.Change, now time.Time) Message {
	msg := Message{
		Type:       MessageSnapshot,
		Removed:    change.Removed,
		ServerTime: now.UTC(),
	}
	if change.Entities == nil {
		msg.Type = MessageRemoved
		return msg
	}

	msg.Entities = make([]EntityPayload, len(change.Entities))
	for i, e := range change.Entities {
		msg.Entities[i] = EntityPayload{
			ID:        e.ID,
			Name:      e.Name,
			Status:    string(e.Status),
			Lat:       e.Position.Lat,
			Lon:       e.Position.Lon,
			UpdatedAt: e.UpdatedAt,
		}
	}
	return msg
}
