package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	api "fleetsync/internal/api/application"
	configapp "fleetsync/internal/config/application"
	"fleetsync/internal/shared/validation"
)

// FleetLoader applies a fleet file
type FleetLoader interface {
	LoadConfig(ctx context.Context, rawConfig []byte) (configapp.LoadResult, error)
}

// FleetHandler handles bulk fleet loading
type FleetHandler struct {
	loader FleetLoader
}

// NewFleetHandler creates a new fleet handler
func NewFleetHandler(loader FleetLoader) *FleetHandler {
	return &FleetHandler{
		loader: loader,
	}
}

// LoadFleet handles POST /api/v1/fleet
// @Summary      Load a fleet
// @Description  Create every entity of a fleet file whose name is not taken yet
// @Tags         fleet
// @Accept       json
// @Produce      json
// @Param        fleet  body      application.LoadFleetRequest  true  "Fleet object"
// @Success      200    {object}  application.LoadFleetResponse
// @Failure      400    {object}  application.ErrorResponse
// @Failure      503    {object}  application.ErrorResponse
// @Security     BearerAuth
// @Router       /fleet [post]
func (h *FleetHandler) LoadFleet(w http.ResponseWriter, r *http.Request) {
	logger := getLogger(r)

	bodyBytes := make([]byte, 0)
	if r.Body != nil {
		var err error
		bodyBytes, err = io.ReadAll(r.Body)
		if err != nil {
			logger.Warn("Failed to read request body", "err", err)
			respondJSONError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
			return
		}
	}

	if len(bodyBytes) == 0 {
		logger.Warn("Empty request body")
		respondJSONError(w, http.StatusBadRequest, "Invalid request body: request body is required")
		return
	}

	// Try the wrapped format ({"fleet": {...}}) first, then the fleet file itself
	var req api.LoadFleetRequest
	var fleetBytes []byte
	if err := json.Unmarshal(bodyBytes, &req); err == nil && len(req.Fleet) > 0 {
		fleetBytes = req.Fleet
		logger.Debug("Parsed fleet as wrapped format")
	} else {
		var raw map[string]interface{}
		if err := json.Unmarshal(bodyBytes, &raw); err != nil {
			logger.Warn("Invalid JSON in request body", "err", err)
			respondJSONError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
			return
		}
		fleetBytes = bodyBytes
		logger.Debug("Parsed fleet as direct format")
	}

	res, err := h.loader.LoadConfig(r.Context(), fleetBytes)
	if err != nil {
		var cfgErr validation.ConfigError
		if errors.As(err, &cfgErr) || isParseError(err) {
			logger.Warn("Rejected fleet", "err", err)
			respondJSONError(w, http.StatusBadRequest, "Failed to load fleet: "+err.Error())
			return
		}
		respondError(w, r, "load fleet", err)
		return
	}

	logger.Info("Fleet loaded", "created", res.Created, "skipped", res.Skipped)
	respondJSON(w, http.StatusOK, api.LoadFleetResponse{Created: res.Created, Skipped: res.Skipped})
}

func isParseError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}
