package model

import (
	"errors"
	"fmt"
	"strings"
)

// RequestStatus is the review state of a tester request.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
)

// Valid reports whether s is one of the known statuses.
func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// TesterRequest is one tester's application to beta-test one app.
// DocID is the storage identifier and never leaves the server.
type TesterRequest struct {
	DocID        int64         `db:"doc_id" json:"-"`
	ID           string        `db:"id" json:"id"`
	TesterEmail  string        `db:"tester_email" json:"testerEmail"`
	AppID        string        `db:"app_id" json:"appId"`
	Status       RequestStatus `db:"status" json:"status"`
	DaysTested   int           `db:"days_tested" json:"daysTested"`
	LastTestDate *Date         `db:"last_test_date" json:"lastTestDate"`
	RequestedAt  int64         `db:"requested_at" json:"requestedAt"` // ms since epoch
}

// IsApproved reports whether the tester may check in.
func (r *TesterRequest) IsApproved() bool {
	return r.Status == StatusApproved
}

// IsPending reports whether the request is still awaiting review.
func (r *TesterRequest) IsPending() bool {
	return r.Status == StatusPending
}

// CheckedInOn reports whether the last check-in happened on day.
func (r *TesterRequest) CheckedInOn(day Date) bool {
	return r.LastTestDate != nil && r.LastTestDate.Equal(day)
}

// Validate checks a record decoded from the store.
func (r *TesterRequest) Validate() error {
	switch {
	case r.ID == "":
		return fmt.Errorf("%w: empty id (doc_id=%d)", ErrMalformedRecord, r.DocID)
	case r.TesterEmail == "" || r.AppID == "":
		return fmt.Errorf("%w: missing tester or app (id=%s)", ErrMalformedRecord, r.ID)
	case !r.Status.Valid():
		return fmt.Errorf("%w: unknown status %q (id=%s)", ErrMalformedRecord, r.Status, r.ID)
	case r.DaysTested < 0:
		return fmt.Errorf("%w: negative daysTested %d (id=%s)", ErrMalformedRecord, r.DaysTested, r.ID)
	}
	return nil
}

// RequestPatch lists the fields to merge into a stored request. Nil fields are left untouched.
type RequestPatch struct {
	Status       *RequestStatus
	DaysTested   *int
	LastTestDate *Date
}

// Empty reports whether the patch changes nothing.
func (p RequestPatch) Empty() bool {
	return p.Status == nil && p.DaysTested == nil && p.LastTestDate == nil
}

// RequestGuard makes an update conditional on the stored last_test_date.
// A nil LastTestDate matches a request that has never been checked in.
type RequestGuard struct {
	LastTestDate *Date
}

// CreateTesterRequest is the body of POST /api/tester-requests.
type CreateTesterRequest struct {
	TesterEmail string `json:"testerEmail"`
	AppID       string `json:"appId"`
}

// Normalize trims surrounding whitespace from both keys.
func (c *CreateTesterRequest) Normalize() {
	c.TesterEmail = strings.TrimSpace(c.TesterEmail)
	c.AppID = strings.TrimSpace(c.AppID)
}

// ReviewRequest is the body of PATCH /api/tester-requests/{id}.
type ReviewRequest struct {
	Status RequestStatus `json:"status"`
}

// ListFilter selects one of the listing modes. The first non-empty field wins,
// in the order AppID, TesterEmail, DeveloperEmail.
type ListFilter struct {
	AppID          string
	TesterEmail    string
	DeveloperEmail string
}

// MessageResponse is the generic {"message": ...} body.
type MessageResponse struct {
	Message string `json:"message"`
}

var (
	ErrMissingFields    = errors.New("testerEmail and appId are required")
	ErrNoFilter         = errors.New("no listing filter given")
	ErrAlreadyRequested = errors.New("tester already requested this app")
	ErrRequestNotFound  = errors.New("tester request not found")
	ErrInvalidStatus    = errors.New("review status must be approved or rejected")
	ErrAlreadyReviewed  = errors.New("tester request already reviewed")
	ErrMalformedRecord  = errors.New("malformed tester request record")
)
