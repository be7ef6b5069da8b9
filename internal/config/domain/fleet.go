package domain

import (
	"context"
	"encoding/json"

	"fleetsync/pkg/utils"
)

// FleetConfig represents a fleet seed file
type FleetConfig struct {
	Name     string            `json:"name"`
	Entities []json.RawMessage `json:"entities"`
}

func (c *FleetConfig) Valid(ctx context.Context) map[string]string {
	problems := make(map[string]string, 2)

	err := utils.CheckName(c.Name)
	if err != nil {
		problems["name"] = err.Error()
	}

	if len(c.Entities) == 0 {
		problems["entities"] = "entities cannot be empty"
	}

	return problems
}
