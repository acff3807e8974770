package api

import (
	"net/http"

	"github.com/KangGunn/Madcamp-Week4/internal/domain/scrum"
)

// @Summary     List scrum times
// @Tags        scrum
// @Produce     json
// @Success     200  {array}   scrum.Setting
// @Failure     500  {object}  map[string]string  "server error"
// @Router      /api/v1/scrum-times [get]
func (h *Handler) handleListScrumTimes(w http.ResponseWriter, r *http.Request) {
	settings, err := h.scrum.List(r.Context())
	if err != nil {
		errorResponse(w, err)
		return
	}
	if settings == nil {
		settings = []scrum.Setting{}
	}
	writeJSON(w, http.StatusOK, settings)
}
