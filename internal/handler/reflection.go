package handler

import (
	"log/slog"
	"net/http"

	"atelier/internal/domain/services"
	"atelier/internal/httputil"
)

// ReflectionHandler handles reflection HTTP requests
type ReflectionHandler struct {
	reflectionService services.ReflectionService
	logger            *slog.Logger
}

// NewReflectionHandler creates a new reflection handler
func NewReflectionHandler(reflectionService services.ReflectionService, logger *slog.Logger) *ReflectionHandler {
	return &ReflectionHandler{
		reflectionService: reflectionService,
		logger:            logger,
	}
}

// CreateReflection creates a new reflection owned by the caller
// POST /reflections/create
func (h *ReflectionHandler) CreateReflection(w http.ResponseWriter, r *http.Request) {
	p := httputil.PrincipalFrom(r)

	var req services.CreateReflectionRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	reflection, err := h.reflectionService.CreateReflection(r.Context(), p, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, reflection)
}

// ListReflections lists the reflections visible to the caller
// GET /reflections?status=&authorId=
func (h *ReflectionHandler) ListReflections(w http.ResponseWriter, r *http.Request) {
	p := httputil.PrincipalFrom(r)

	status := r.URL.Query().Get("status")
	authorID := r.URL.Query().Get("authorId")

	reflections, err := h.reflectionService.ListReflections(r.Context(), p, status, authorID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, reflections)
}

// GetReflection retrieves a reflection by ID
// GET /reflections/{id}
func (h *ReflectionHandler) GetReflection(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p := httputil.PrincipalFrom(r)

	reflection, err := h.reflectionService.GetReflection(r.Context(), p, id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, reflection)
}

// UpdateReflection replaces the content of an owned reflection
// PUT /reflections/{id}
func (h *ReflectionHandler) UpdateReflection(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p := httputil.PrincipalFrom(r)

	var req services.UpdateReflectionRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	reflection, err := h.reflectionService.UpdateReflection(r.Context(), p, id, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, reflection)
}

// PublishReflection transitions an owned reflection to published
// PATCH /reflections/{id}/publish
func (h *ReflectionHandler) PublishReflection(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p := httputil.PrincipalFrom(r)

	reflection, err := h.reflectionService.PublishReflection(r.Context(), p, id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, reflection)
}

// DeleteReflection removes an owned reflection
// DELETE /reflections/{id}
func (h *ReflectionHandler) DeleteReflection(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p := httputil.PrincipalFrom(r)

	if err := h.reflectionService.DeleteReflection(r.Context(), p, id); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]string{"message": "reflection deleted"})
}
