package handlers

import (
	"errors"
	"net/http"

	api "fleetsync/internal/api/application"
	simdomain "fleetsync/internal/simulation/domain"
)

// SimulationHandler controls the movement simulation
type SimulationHandler struct {
	service *api.SimulationService
}

func NewSimulationHandler(service *api.SimulationService) *SimulationHandler {
	return &SimulationHandler{service: service}
}

// Status handles GET /api/v1/simulation
// @Summary      Simulation status
// @Tags         simulation
// @Produce      json
// @Success      200  {object}  application.SimulationResponse
// @Security     BearerAuth
// @Router       /simulation [get]
func (h *SimulationHandler) Status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.service.Status())
}

// Start handles POST /api/v1/simulation/start
// @Summary      Start the simulation
// @Tags         simulation
// @Produce      json
// @Success      200  {object}  application.SimulationResponse
// @Failure      400  {object}  application.SimulationResponse
// @Security     BearerAuth
// @Router       /simulation/start [post]
func (h *SimulationHandler) Start(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Start()
	h.respond(w, r, resp, err)
}

// Stop handles POST /api/v1/simulation/stop
// @Summary      Stop the simulation
// @Tags         simulation
// @Produce      json
// @Success      200  {object}  application.SimulationResponse
// @Failure      400  {object}  application.SimulationResponse
// @Security     BearerAuth
// @Router       /simulation/stop [post]
func (h *SimulationHandler) Stop(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Stop()
	h.respond(w, r, resp, err)
}

func (h *SimulationHandler) respond(w http.ResponseWriter, r *http.Request, resp api.SimulationResponse, err error) {
	switch {
	case err == nil:
		getLogger(r).Info(resp.Message)
		respondJSON(w, http.StatusOK, resp)
	case errors.Is(err, simdomain.ErrAlreadyRunning), errors.Is(err, simdomain.ErrNotRunning):
		respondJSON(w, http.StatusBadRequest, resp)
	default:
		respondError(w, r, "simulation", err)
	}
}
