package handler

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"betahub/internal/httputil"
	"betahub/internal/model"
	"betahub/internal/service"
	"betahub/internal/transport/http/middleware"
)

type AdminHandler struct {
	adminService *service.AdminService
	log          *logrus.Entry
}

func NewAdminHandler(adminService *service.AdminService, logger logrus.FieldLogger) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		log:          logger.WithField("component", "AdminHandler"),
	}
}

// Login handles POST /api/admin/login
// The session token is returned in the body and also set as a cookie for browsers.
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.AdminLoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body.")
		return
	}

	session, err := h.adminService.Login(req.Token)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidAdminToken):
			httputil.WriteUnauthorized(w, "Invalid admin token.")
		case errors.Is(err, model.ErrAdminNotConfigured):
			h.log.Warn("Admin login attempted but ADMIN_TOKEN_HASH or JWT_SECRET is not set")
			httputil.WriteUnauthorized(w, "Invalid admin token.")
		default:
			h.log.WithError(err).Error("Admin login failed")
			httputil.WriteInternalError(w, "Failed to log in.")
		}
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AdminCookieName,
		Value:    session.AccessToken,
		Path:     "/",
		MaxAge:   session.ExpiresIn,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})

	httputil.WriteJSON(w, http.StatusOK, session)
}
