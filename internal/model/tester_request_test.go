package model

import (
	"errors"
	"testing"
)

func TestTesterRequest_Validate(t *testing.T) {
	valid := TesterRequest{ID: "id", TesterEmail: "t@x.com", AppID: "app1", Status: StatusPending}

	tests := []struct {
		name    string
		mutate  func(r *TesterRequest)
		wantErr bool
	}{
		{name: "valid", mutate: func(r *TesterRequest) {}},
		{name: "empty id", mutate: func(r *TesterRequest) { r.ID = "" }, wantErr: true},
		{name: "missing app", mutate: func(r *TesterRequest) { r.AppID = "" }, wantErr: true},
		{name: "unknown status", mutate: func(r *TesterRequest) { r.Status = "archived" }, wantErr: true},
		{name: "negative days", mutate: func(r *TesterRequest) { r.DaysTested = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			err := r.Validate()
			if tt.wantErr != (err != nil) {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrMalformedRecord) {
				t.Errorf("error %v should wrap ErrMalformedRecord", err)
			}
		})
	}
}

func TestTesterRequest_CheckedInOn(t *testing.T) {
	day := MustParseDate("2024-01-01")

	never := TesterRequest{}
	if never.CheckedInOn(day) {
		t.Error("a request with no check-ins was not checked in on any day")
	}

	r := TesterRequest{LastTestDate: day.Ptr()}
	if !r.CheckedInOn(day) {
		t.Error("expected same-day match")
	}
	if r.CheckedInOn(day.AddDays(1)) {
		t.Error("next day must not match")
	}
}

func TestRequestPatch_Empty(t *testing.T) {
	if !(RequestPatch{}).Empty() {
		t.Error("zero patch should be empty")
	}
	days := 1
	if (RequestPatch{DaysTested: &days}).Empty() {
		t.Error("patch with daysTested is not empty")
	}
}
