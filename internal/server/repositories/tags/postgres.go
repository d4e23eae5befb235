// Package tags provides the PostgreSQL-backed tag catalogue.
package tags

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/habits/internal/common"
	"github.com/dmitrijs2005/habits/internal/dbx"
	"github.com/dmitrijs2005/habits/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts tag; a nil Color gets models.DefaultTagColor. A taken name
// yields common.ErrorAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, tag *models.Tag) (*models.Tag, error) {

	query :=
		`INSERT INTO tags (name, color)
         VALUES ($1, COALESCE($2, $3))
		 RETURNING id, name, color, created_at, updated_at
		 `

	created := &models.Tag{}
	err := r.db.QueryRowContext(ctx, query, tag.Name, tag.Color, models.DefaultTagColor).
		Scan(&created.ID, &created.Name, &created.Color, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: tag name", common.ErrorAlreadyExists)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]models.Tag, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, color, created_at, updated_at FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.Tag, 0)
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
