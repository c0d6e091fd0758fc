package handler

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"betahub/internal/httputil"
	"betahub/internal/model"
	"betahub/internal/service"
)

type CheckInHandler struct {
	checkInService *service.CheckInService
	log            *logrus.Entry
}

func NewCheckInHandler(checkInService *service.CheckInService, logger logrus.FieldLogger) *CheckInHandler {
	return &CheckInHandler{
		checkInService: checkInService,
		log:            logger.WithField("component", "CheckInHandler"),
	}
}

// CheckIn handles POST /api/check-in
func (h *CheckInHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req model.CheckInRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body.")
		return
	}

	result, err := h.checkInService.CheckIn(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrMissingFields):
			httputil.WriteBadRequest(w, "testerEmail and appId are required.")
		case errors.Is(err, model.ErrNoApprovedRequest):
			httputil.WriteNotFound(w, "No approved test request found for this app.")
		case errors.Is(err, model.ErrAlreadyCheckedIn):
			httputil.WriteBadRequest(w, "You have already checked in today. Come back tomorrow!")
		default:
			h.log.WithError(err).WithFields(logrus.Fields{"app": req.AppID, "tester": req.TesterEmail}).Error("Check-in failed")
			httputil.WriteInternalError(w, "Failed to check in.")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}
