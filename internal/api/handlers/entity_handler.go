package handlers

import (
	"net/http"

	api "fleetsync/internal/api/application"
)

// EntityHandler handles entity queries and mutations
type EntityHandler struct {
	service *api.EntityService
}

// NewEntityHandler creates a new entity handler
func NewEntityHandler(service *api.EntityService) *EntityHandler {
	return &EntityHandler{
		service: service,
	}
}

// ListEntities handles GET /api/v1/entities
// @Summary      List all entities
// @Description  Get every entity ordered by id. Served from cache when fresh.
// @Tags         entities
// @Produce      json
// @Success      200  {array}   application.EntityResponse
// @Failure      401  {object}  application.ErrorResponse
// @Failure      503  {object}  application.ErrorResponse
// @Failure      500  {object}  application.ErrorResponse
// @Security     BearerAuth
// @Router       /entities [get]
func (h *EntityHandler) ListEntities(w http.ResponseWriter, r *http.Request) {
	logger := getLogger(r)

	entities, err := h.service.ListEntities(r.Context())
	if err != nil {
		respondError(w, r, "list entities", err)
		return
	}

	logger.Debug("Listed entities", "count", len(entities))
	respondJSON(w, http.StatusOK, entities)
}

// CreateEntity handles POST /api/v1/entities
// @Summary      Create an entity
// @Description  Create an entity at the given position. Status defaults to idle.
// @Tags         entities
// @Accept       json
// @Produce      json
// @Param        entity  body      application.CreateEntityRequest  true  "Entity to create"
// @Success      201     {object}  application.EntityResponse
// @Failure      400     {object}  application.ErrorResponse
// @Failure      401     {object}  application.ErrorResponse
// @Failure      503     {object}  application.ErrorResponse
// @Security     BearerAuth
// @Router       /entities [post]
func (h *EntityHandler) CreateEntity(w http.ResponseWriter, r *http.Request) {
	logger := getLogger(r)

	var req api.CreateEntityRequest
	if err := decodeJSON(r, &req); err != nil {
		logger.Warn("Invalid JSON in request body", "err", err)
		respondJSONError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	entity, err := h.service.CreateEntity(r.Context(), req)
	if err != nil {
		respondError(w, r, "create entity", err)
		return
	}

	logger.Info("Entity created", "id", entity.ID, "name", entity.Name)
	respondJSON(w, http.StatusCreated, entity)
}

// MoveEntity handles POST /api/v1/entities/{id}/move
// @Summary      Move one entity
// @Description  Offset the entity by a uniform random amount in [-jitter/2, jitter/2] per axis and mark it moving.
// @Tags         entities
// @Accept       json
// @Produce      json
// @Param        id    path      int                              true   "Entity ID"
// @Param        move  body      application.MoveEntityRequest    false  "Optional jitter override"
// @Success      200   {object}  application.EntityResponse
// @Failure      400   {object}  application.ErrorResponse
// @Failure      404   {object}  application.ErrorResponse
// @Failure      503   {object}  application.ErrorResponse
// @Security     BearerAuth
// @Router       /entities/{id}/move [post]
func (h *EntityHandler) MoveEntity(w http.ResponseWriter, r *http.Request) {
	logger := getLogger(r)

	id, err := entityID(r)
	if err != nil {
		respondError(w, r, "move entity", err)
		return
	}

	var req api.MoveEntityRequest
	if err := decodeJSON(r, &req); err != nil {
		logger.Warn("Invalid JSON in request body", "err", err)
		respondJSONError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	entity, err := h.service.MoveEntity(r.Context(), id, req.Jitter)
	if err != nil {
		respondError(w, r, "move entity", err)
		return
	}

	logger.Debug("Entity moved", "id", id, "lat", entity.Lat, "lon", entity.Lon)
	respondJSON(w, http.StatusOK, entity)
}

// DeleteEntity handles DELETE /api/v1/entities/{id}
// @Summary      Delete an entity
// @Tags         entities
// @Param        id   path  int  true  "Entity ID"
// @Success      204
// @Failure      400  {object}  application.ErrorResponse
// @Failure      404  {object}  application.ErrorResponse
// @Failure      503  {object}  application.ErrorResponse
// @Security     BearerAuth
// @Router       /entities/{id} [delete]
func (h *EntityHandler) DeleteEntity(w http.ResponseWriter, r *http.Request) {
	id, err := entityID(r)
	if err != nil {
		respondError(w, r, "delete entity", err)
		return
	}

	if err := h.service.DeleteEntity(r.Context(), id); err != nil {
		respondError(w, r, "delete entity", err)
		return
	}

	getLogger(r).Info("Entity deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}
