package model

import "errors"

const (
	LeaderboardDefaultLimit = 10
	LeaderboardMaxLimit     = 100
)

// LeaderboardEntry is one approved tester ranked by days tested.
type LeaderboardEntry struct {
	TesterEmail string `json:"testerEmail"`
	DaysTested  int    `json:"daysTested"`
}

var ErrInvalidLimit = errors.New("limit must be between 1 and 100")
