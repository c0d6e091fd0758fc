package repository

import (
	"context"

	"betahub/internal/model"
)

type TesterRequestRepository interface {
	// FindByTesterAndApp returns the request for the pair, optionally restricted to a status.
	// Returns (nil, nil) when nothing matches.
	FindByTesterAndApp(ctx context.Context, testerEmail, appID string, status *model.RequestStatus) (*model.TesterRequest, error)
	GetByID(ctx context.Context, id string) (*model.TesterRequest, error)
	ListByApp(ctx context.Context, appID string) ([]model.TesterRequest, error)
	ListByTester(ctx context.Context, testerEmail string) ([]model.TesterRequest, error)
	// ListByDeveloper resolves the developer's apps first, then loads their requests in one batch.
	ListByDeveloper(ctx context.Context, developerEmail string) ([]model.TesterRequest, error)
	// Insert reports false when the (tester_email, app_id) pair already exists.
	Insert(ctx context.Context, req *model.TesterRequest) (bool, error)
	// UpdateFields merges patch into the row. With a non-nil guard the write only
	// applies while last_test_date still equals guard.LastTestDate.
	UpdateFields(ctx context.Context, docID int64, patch model.RequestPatch, guard *model.RequestGuard) (bool, error)
}

type AppRepository interface {
	ListIDsByDeveloper(ctx context.Context, developerEmail string) ([]string, error)
	// Upsert registers an app or updates its owner and name.
	Upsert(ctx context.Context, app *model.App) error
}
