package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"betahub/internal/httputil"
	"betahub/internal/model"
	"betahub/internal/service"
)

type TesterRequestHandler struct {
	testerRequestService *service.TesterRequestService
	log                  *logrus.Entry
}

func NewTesterRequestHandler(testerRequestService *service.TesterRequestService, logger logrus.FieldLogger) *TesterRequestHandler {
	return &TesterRequestHandler{
		testerRequestService: testerRequestService,
		log:                  logger.WithField("component", "TesterRequestHandler"),
	}
}

// List handles GET /api/tester-requests?appId=|testerEmail=|developerEmail=
func (h *TesterRequestHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.ListFilter{
		AppID:          q.Get("appId"),
		TesterEmail:    q.Get("testerEmail"),
		DeveloperEmail: q.Get("developerEmail"),
	}

	requests, err := h.testerRequestService.List(r.Context(), filter)
	if err != nil {
		if errors.Is(err, model.ErrNoFilter) {
			httputil.WriteBadRequest(w, "An appId, testerEmail, or developerEmail query parameter is required.")
			return
		}
		h.log.WithError(err).WithField("filter", filter).Error("List tester requests failed")
		httputil.WriteInternalError(w, "Failed to fetch tester requests.")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, requests)
}

// Create handles POST /api/tester-requests
// The new request's id is not echoed back.
func (h *TesterRequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateTesterRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body.")
		return
	}

	if _, err := h.testerRequestService.Create(r.Context(), req); err != nil {
		switch {
		case errors.Is(err, model.ErrMissingFields):
			httputil.WriteBadRequest(w, "testerEmail and appId are required.")
		case errors.Is(err, model.ErrAlreadyRequested):
			httputil.WriteBadRequest(w, "You have already requested to test this app.")
		default:
			h.log.WithError(err).WithFields(logrus.Fields{"app": req.AppID, "tester": req.TesterEmail}).Error("Create tester request failed")
			httputil.WriteInternalError(w, "Failed to send request.")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, model.MessageResponse{Message: "Request sent successfully!"})
}

// Review handles PATCH /api/tester-requests/{id} (admin only)
func (h *TesterRequestHandler) Review(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body model.ReviewRequest
	if err := httputil.DecodeJSON(r, &body); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body.")
		return
	}

	req, err := h.testerRequestService.Review(r.Context(), id, body.Status)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidStatus):
			httputil.WriteBadRequest(w, "status must be \"approved\" or \"rejected\".")
		case errors.Is(err, model.ErrAlreadyReviewed):
			httputil.WriteBadRequest(w, "This request has already been reviewed.")
		case errors.Is(err, model.ErrRequestNotFound):
			httputil.WriteNotFound(w, "Tester request not found.")
		default:
			h.log.WithError(err).WithField("id", id).Error("Review tester request failed")
			httputil.WriteInternalError(w, "Failed to review request.")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, req)
}
