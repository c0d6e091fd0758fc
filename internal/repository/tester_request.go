package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"betahub/internal/model"
)

const testerRequestColumns = `doc_id, id, tester_email, app_id, status, days_tested, last_test_date, requested_at`

type testerRequestRepository struct {
	db   *sqlx.DB
	apps AppRepository
}

func NewTesterRequestRepository(db *sqlx.DB, apps AppRepository) TesterRequestRepository {
	return &testerRequestRepository{db: db, apps: apps}
}

// FindByTesterAndApp returns at most one request. The pair is unique, but should
// duplicates ever exist the oldest row (lowest doc_id) wins.
func (r *testerRequestRepository) FindByTesterAndApp(ctx context.Context, testerEmail, appID string, status *model.RequestStatus) (*model.TesterRequest, error) {
	query := `SELECT ` + testerRequestColumns + ` FROM tester_requests WHERE tester_email = $1 AND app_id = $2`
	args := []interface{}{testerEmail, appID}
	if status != nil {
		query += ` AND status = $3`
		args = append(args, string(*status))
	}
	query += ` ORDER BY doc_id LIMIT 1`

	var req model.TesterRequest
	if err := r.db.GetContext(ctx, &req, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find tester request: %w", err)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *testerRequestRepository) GetByID(ctx context.Context, id string) (*model.TesterRequest, error) {
	query := `SELECT ` + testerRequestColumns + ` FROM tester_requests WHERE id = $1`

	var req model.TesterRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get tester request: %w", err)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *testerRequestRepository) ListByApp(ctx context.Context, appID string) ([]model.TesterRequest, error) {
	query := `SELECT ` + testerRequestColumns + ` FROM tester_requests
		WHERE app_id = $1
		ORDER BY requested_at DESC, doc_id DESC`
	return r.list(ctx, "app", query, appID)
}

func (r *testerRequestRepository) ListByTester(ctx context.Context, testerEmail string) ([]model.TesterRequest, error) {
	query := `SELECT ` + testerRequestColumns + ` FROM tester_requests
		WHERE tester_email = $1
		ORDER BY requested_at DESC, doc_id DESC`
	return r.list(ctx, "tester", query, testerEmail)
}

// ListByDeveloper is a two-stage lookup: the developer's app ids, then every
// request for those apps in a single ANY($1) query rather than one query per app.
func (r *testerRequestRepository) ListByDeveloper(ctx context.Context, developerEmail string) ([]model.TesterRequest, error) {
	appIDs, err := r.apps.ListIDsByDeveloper(ctx, developerEmail)
	if err != nil {
		return nil, err
	}
	if len(appIDs) == 0 {
		return []model.TesterRequest{}, nil
	}

	query := `SELECT ` + testerRequestColumns + ` FROM tester_requests
		WHERE app_id = ANY($1)
		ORDER BY requested_at DESC, doc_id DESC`
	return r.list(ctx, "developer", query, pq.Array(appIDs))
}

func (r *testerRequestRepository) list(ctx context.Context, mode, query string, arg interface{}) ([]model.TesterRequest, error) {
	requests := []model.TesterRequest{}
	if err := r.db.SelectContext(ctx, &requests, query, arg); err != nil {
		return nil, fmt.Errorf("failed to list tester requests by %s: %w", mode, err)
	}
	for i := range requests {
		if err := requests[i].Validate(); err != nil {
			return nil, err
		}
	}
	return requests, nil
}

func (r *testerRequestRepository) Insert(ctx context.Context, req *model.TesterRequest) (bool, error) {
	query := `
		INSERT INTO tester_requests (id, tester_email, app_id, status, days_tested, last_test_date, requested_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (tester_email, app_id) DO NOTHING
		RETURNING doc_id
	`
	err := r.db.QueryRowxContext(ctx, query,
		req.ID,
		req.TesterEmail,
		req.AppID,
		string(req.Status),
		req.DaysTested,
		req.LastTestDate,
		req.RequestedAt,
	).Scan(&req.DocID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert tester request: %w", err)
	}
	return true, nil
}

func (r *testerRequestRepository) UpdateFields(ctx context.Context, docID int64, patch model.RequestPatch, guard *model.RequestGuard) (bool, error) {
	if patch.Empty() {
		return false, fmt.Errorf("update tester request %d: empty patch", docID)
	}

	var sets []string
	var args []interface{}
	set := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Status != nil {
		set("status", string(*patch.Status))
	}
	if patch.DaysTested != nil {
		set("days_tested", *patch.DaysTested)
	}
	if patch.LastTestDate != nil {
		set("last_test_date", *patch.LastTestDate)
	}

	args = append(args, docID)
	query := fmt.Sprintf("UPDATE tester_requests SET %s WHERE doc_id = $%d", strings.Join(sets, ", "), len(args))

	if guard != nil {
		args = append(args, guard.LastTestDate)
		query += fmt.Sprintf(" AND last_test_date IS NOT DISTINCT FROM $%d::date", len(args))
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update tester request: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}
