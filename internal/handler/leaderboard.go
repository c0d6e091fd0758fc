package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"betahub/internal/httputil"
	"betahub/internal/model"
	"betahub/internal/service"
)

type LeaderboardHandler struct {
	leaderboardService *service.LeaderboardService
	log                *logrus.Entry
}

func NewLeaderboardHandler(leaderboardService *service.LeaderboardService, logger logrus.FieldLogger) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboardService: leaderboardService,
		log:                logger.WithField("component", "LeaderboardHandler"),
	}
}

// Top handles GET /api/apps/{appId}/leaderboard?limit=
func (h *LeaderboardHandler) Top(w http.ResponseWriter, r *http.Request) {
	appID := chi.URLParam(r, "appId")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			httputil.WriteBadRequest(w, "limit must be between 1 and 100.")
			return
		}
		limit = parsed
	}

	entries, err := h.leaderboardService.Top(r.Context(), appID, limit)
	if err != nil {
		if errors.Is(err, model.ErrInvalidLimit) {
			httputil.WriteBadRequest(w, "limit must be between 1 and 100.")
			return
		}
		h.log.WithError(err).WithField("app", appID).Error("Leaderboard failed")
		httputil.WriteInternalError(w, "Failed to fetch leaderboard.")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, entries)
}
