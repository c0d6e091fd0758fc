package model

import (
	"errors"
	"strings"
)

// CheckInRequest is the body of POST /api/check-in.
type CheckInRequest struct {
	TesterEmail string `json:"testerEmail"`
	AppID       string `json:"appId"`
}

// Normalize trims surrounding whitespace from both keys.
func (c *CheckInRequest) Normalize() {
	c.TesterEmail = strings.TrimSpace(c.TesterEmail)
	c.AppID = strings.TrimSpace(c.AppID)
}

// CheckInResult is returned after a successful check-in.
type CheckInResult struct {
	Message    string `json:"message"`
	DaysTested int    `json:"daysTested"`
}

var (
	// ErrNoApprovedRequest is returned when the tester has no approved request for the app.
	ErrNoApprovedRequest = errors.New("no approved test request")

	// ErrAlreadyCheckedIn is returned on a second check-in within the same UTC day.
	ErrAlreadyCheckedIn = errors.New("already checked in today")
)
