package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-env-manager/internal/model"
	"go-env-manager/internal/service"
)

type TrashHandler struct {
	trash   *service.TrashService
	restore *service.RestoreService
}

func NewTrashHandler(trash *service.TrashService, restore *service.RestoreService) *TrashHandler {
	return &TrashHandler{trash: trash, restore: restore}
}

// List prunes expired records before returning the tab's contents.
func (h *TrashHandler) List(w http.ResponseWriter, r *http.Request) {
	tab, err := model.ParseTabType(chi.URLParam(r, "tab"))
	if err != nil {
		writeError(w, err)
		return
	}

	cleaned, err := h.trash.ClearOld(r.Context(), tab)
	if err != nil {
		writeError(w, err)
		return
	}

	records, err := h.trash.List(r.Context(), tab)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, records, &model.Meta{Total: len(records), Cleaned: cleaned})
}

func (h *TrashHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tab, err := model.ParseTabType(chi.URLParam(r, "tab"))
	if err != nil {
		writeError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.trash.Delete(r.Context(), tab, id); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]string{"id": id}, nil)
}

func (h *TrashHandler) Restore(w http.ResponseWriter, r *http.Request) {
	tab, err := model.ParseTabType(chi.URLParam(r, "tab"))
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.restore.Restore(r.Context(), tab, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, result, nil)
}

func (h *TrashHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	tab, err := model.ParseTabType(chi.URLParam(r, "tab"))
	if err != nil {
		writeError(w, err)
		return
	}

	cleaned, err := h.trash.ClearOld(r.Context(), tab)
	if err != nil {
		writeError(w, err)
		return
	}

	remaining, err := h.trash.Count(r.Context(), tab)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]int{"cleaned": cleaned}, &model.Meta{Total: remaining, Cleaned: cleaned})
}

func (h *TrashHandler) Settings(w http.ResponseWriter, r *http.Request) {
	tab, err := model.ParseTabType(chi.URLParam(r, "tab"))
	if err != nil {
		writeError(w, err)
		return
	}

	settings, err := h.trash.Settings(r.Context(), tab)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, settings, nil)
}

func (h *TrashHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	tab, err := model.ParseTabType(chi.URLParam(r, "tab"))
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.TrashSettingsPatch
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	settings, err := h.trash.UpdateSettings(r.Context(), tab, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, settings, nil)
}
