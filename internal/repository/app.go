package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"betahub/internal/model"
)

type appRepository struct {
	db *sqlx.DB
}

func NewAppRepository(db *sqlx.DB) AppRepository {
	return &appRepository{db: db}
}

func (r *appRepository) ListIDsByDeveloper(ctx context.Context, developerEmail string) ([]string, error) {
	query := `SELECT app_id FROM apps WHERE developer_email = $1 ORDER BY app_id`
	appIDs := []string{}
	if err := r.db.SelectContext(ctx, &appIDs, query, developerEmail); err != nil {
		return nil, fmt.Errorf("failed to list apps for developer: %w", err)
	}
	return appIDs, nil
}

func (r *appRepository) Upsert(ctx context.Context, app *model.App) error {
	query := `
		INSERT INTO apps (app_id, developer_email, name)
		VALUES (:app_id, :developer_email, :name)
		ON CONFLICT (app_id) DO UPDATE
		SET developer_email = EXCLUDED.developer_email, name = EXCLUDED.name
	`
	if _, err := r.db.NamedExecContext(ctx, query, app); err != nil {
		return fmt.Errorf("failed to upsert app: %w", err)
	}
	return nil
}
