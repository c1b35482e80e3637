package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-env-manager/internal/model"
	"go-env-manager/internal/service"
)

type GroupHandler struct {
	groups *service.GroupService
}

func NewGroupHandler(groups *service.GroupService) *GroupHandler {
	return &GroupHandler{groups: groups}
}

func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groups.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, groups, &model.Meta{Total: len(groups)})
}

func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	group, err := h.groups.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, group, nil)
}

func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload model.SaveGroupRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	group, err := h.groups.Save(r.Context(), model.GroupInput{
		Name:        payload.Name,
		Description: payload.Description,
		Variables:   payload.Variables,
	}, model.SaveModeCreate)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, group, nil)
}

func (h *GroupHandler) Update(w http.ResponseWriter, r *http.Request) {
	var payload model.SaveGroupRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	group, err := h.groups.Save(r.Context(), model.GroupInput{
		ID:          chi.URLParam(r, "id"),
		Name:        payload.Name,
		Description: payload.Description,
		Variables:   payload.Variables,
		Revision:    payload.Revision,
	}, model.SaveModeEdit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, group, nil)
}

func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	result, err := h.groups.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, result, nil)
}

func (h *GroupHandler) BatchDelete(w http.ResponseWriter, r *http.Request) {
	var payload model.BatchDeleteRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	result := h.groups.DeleteBatch(r.Context(), payload.IDs)
	writeSuccess(w, http.StatusOK, result, &model.Meta{Total: len(result.Deleted)})
}

func (h *GroupHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	result, err := h.groups.ToggleActive(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, result, nil)
}
