// Package entries provides PostgreSQL-backed storage for habit completion
// entries.
package entries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/habits/internal/common"
	"github.com/dmitrijs2005/habits/internal/dbx"
	"github.com/dmitrijs2005/habits/internal/server/models"
)

// PostgresRepository implements entry storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create records a completion of entry.HabitID, provided userID owns the
// habit; otherwise common.ErrorNotFound is returned and nothing is written.
// A zero CompletionDate means now.
func (r *PostgresRepository) Create(ctx context.Context, userID string, entry *models.Entry) (*models.Entry, error) {
	query := `
		INSERT INTO entries (habit_id, completion_date, note)
		SELECT h.id, COALESCE($2, now()), $3
		FROM habits h
		WHERE h.id = $1 AND h.user_id = $4
		RETURNING id, habit_id, completion_date, note
	`

	var completion any
	if !entry.CompletionDate.IsZero() {
		completion = entry.CompletionDate
	}

	created := &models.Entry{}
	err := r.db.QueryRowContext(ctx, query, entry.HabitID, completion, entry.Note, userID).
		Scan(&created.ID, &created.HabitID, &created.CompletionDate, &created.Note)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return created, nil
}

// ListRecent returns up to limit entries of habitID, most recent first.
func (r *PostgresRepository) ListRecent(ctx context.Context, habitID string, limit int) ([]models.Entry, error) {
	query := `
		SELECT id, habit_id, completion_date, note FROM entries
		WHERE habit_id = $1
		ORDER BY completion_date DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, habitID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}
	defer rows.Close()

	result := make([]models.Entry, 0, limit)
	for rows.Next() {
		var item models.Entry
		if err := rows.Scan(&item.ID, &item.HabitID, &item.CompletionDate, &item.Note); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
