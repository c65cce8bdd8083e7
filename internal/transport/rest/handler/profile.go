package handler

import (
	"net/http"

	"go.uber.org/zap"

	"taxnavo/internal/service"
	"taxnavo/internal/transport/rest/middleware"
)

type ProfileHandler struct {
	svc    *service.ProfileService
	logger *zap.Logger
}

func NewProfileHandler(svc *service.ProfileService, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{svc: svc, logger: logger}
}

// Get handles GET /v1/profile
// @Summary Dashboard profile across tax years
// @Tags profile
// @Produce json
// @Success 200 {object} model.Profile
// @Security BearerAuth
// @Router /profile [get]
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile, err := h.svc.Get(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err, nil)
		return
	}
	profile.Email = middleware.GetEmail(r.Context())
	writeJSON(w, http.StatusOK, profile)
}
