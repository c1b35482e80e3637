package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-env-manager/internal/model"
	"go-env-manager/internal/service"
)

type VariableHandler struct {
	variables *service.VariableService
}

func NewVariableHandler(variables *service.VariableService) *VariableHandler {
	return &VariableHandler{variables: variables}
}

func (h *VariableHandler) List(w http.ResponseWriter, r *http.Request) {
	vars, err := h.variables.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, vars, &model.Meta{Total: len(vars)})
}

func (h *VariableHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload model.SaveVariableRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	saved, err := h.variables.Save(r.Context(), payload.Name, payload.Value, true)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, saved, nil)
}

func (h *VariableHandler) Update(w http.ResponseWriter, r *http.Request) {
	var payload model.UpdateVariableRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	saved, err := h.variables.Save(r.Context(), chi.URLParam(r, "name"), payload.Value, false)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, saved, nil)
}

func (h *VariableHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.variables.Delete(r.Context(), name); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]string{"name": name}, nil)
}

func (h *VariableHandler) Segments(w http.ResponseWriter, r *http.Request) {
	segments, err := h.variables.PathSegments(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, segments, &model.Meta{Total: len(segments)})
}

func (h *VariableHandler) SaveSegments(w http.ResponseWriter, r *http.Request) {
	var payload model.PathSegmentsRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	saved, err := h.variables.SavePathSegments(r.Context(), chi.URLParam(r, "name"), payload.Segments)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, saved, nil)
}
