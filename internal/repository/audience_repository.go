package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/creatorsync/internal/models"
)

type AudienceRepository interface {
	ReplaceForAccount(ctx context.Context, accountID int64, demographics []*models.AudienceDemographic) error
	ListByAccountID(ctx context.Context, accountID int64) ([]*models.AudienceDemographic, error)
}

type audienceRepository struct {
	db *sql.DB
}

func NewAudienceRepository(db *sql.DB) AudienceRepository {
	return &audienceRepository{db: db}
}

// ReplaceForAccount swaps the whole demographic set in one transaction;
// providers report a full breakdown every time, so merging makes no sense.
func (r *audienceRepository) ReplaceForAccount(ctx context.Context, accountID int64, demographics []*models.AudienceDemographic) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer tx.Rollback()

	deleteQuery := `DELETE FROM audience_demographics WHERE social_account_id = $1`
	if _, err := tx.ExecContext(ctx, deleteQuery, accountID); err != nil {
		slog.Info(err.Error())
		return err
	}

	insertQuery := `
		INSERT INTO audience_demographics(social_account_id, dimension_type, dimension_value, percentage, count)
		VALUES ($1, $2, $3, $4, $5)`
	for _, d := range demographics {
		if _, err := tx.ExecContext(ctx, insertQuery, accountID, d.DimensionType, d.DimensionValue, d.Percentage, d.Count); err != nil {
			slog.Info(err.Error())
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *audienceRepository) ListByAccountID(ctx context.Context, accountID int64) ([]*models.AudienceDemographic, error) {
	query := `
		SELECT id, social_account_id, dimension_type, dimension_value, percentage, count, created_at
		FROM audience_demographics
		WHERE social_account_id = $1
		ORDER BY dimension_type, percentage DESC`

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var demographics []*models.AudienceDemographic
	for rows.Next() {
		var d models.AudienceDemographic
		err := rows.Scan(&d.ID, &d.SocialAccountID, &d.DimensionType, &d.DimensionValue, &d.Percentage, &d.Count, &d.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		demographics = append(demographics, &d)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return demographics, nil
}
