package model

import "errors"

// AdminLoginRequest is the body of POST /api/admin/login.
type AdminLoginRequest struct {
	Token string `json:"token"`
}

// AdminSession is the short-lived bearer token issued to an admin.
type AdminSession struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int    `json:"expiresIn"` // seconds
}

// RoleAdmin is the only role carried by admin session tokens.
const RoleAdmin = "admin"

var (
	ErrInvalidAdminToken  = errors.New("invalid admin token")
	ErrAdminNotConfigured = errors.New("admin token hash not configured")
)
