package handler

import (
	"net/http"

	"go-env-manager/internal/model"
	"go-env-manager/internal/service"
)

type SystemHandler struct {
	system *service.SystemService
}

func NewSystemHandler(system *service.SystemService) *SystemHandler {
	return &SystemHandler{system: system}
}

func (h *SystemHandler) Variables(w http.ResponseWriter, r *http.Request) {
	vars, err := h.system.ListSystem(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, vars, &model.Meta{Total: len(vars)})
}

func (h *SystemHandler) Groups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.system.ViewGroups(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, groups, &model.Meta{Total: len(groups)})
}
