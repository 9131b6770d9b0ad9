package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/creatorsync/internal/models"
)

type CreatorProfileRepository interface {
	GetByID(ctx context.Context, id int64) (*models.CreatorProfile, error)
	CheckByUserID(ctx context.Context, profileID, userID int64) (bool, error)
}

type creatorProfileRepository struct {
	db *sql.DB
}

func NewCreatorProfileRepository(db *sql.DB) CreatorProfileRepository {
	return &creatorProfileRepository{db: db}
}

func (r *creatorProfileRepository) GetByID(ctx context.Context, id int64) (*models.CreatorProfile, error) {
	query := `SELECT id, tenant_id, user_id, display_name, created_at, updated_at FROM creator_profiles WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var p models.CreatorProfile
	err := row.Scan(&p.ID, &p.TenantID, &p.UserID, &p.DisplayName, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &p, nil
}

func (r *creatorProfileRepository) CheckByUserID(ctx context.Context, profileID, userID int64) (bool, error) {
	query := `SELECT 1 FROM creator_profiles WHERE id = $1 AND user_id = $2`

	var result int
	err := r.db.QueryRowContext(ctx, query, profileID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}
