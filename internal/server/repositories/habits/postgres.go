// Package habits provides the PostgreSQL-backed habit store.
package habits

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/dmitrijs2005/habits/internal/common"
	"github.com/dmitrijs2005/habits/internal/dbx"
	"github.com/dmitrijs2005/habits/internal/server/models"
)

const habitColumns = `id, user_id, name, description, frequency, target_count, is_active, created_at, updated_at`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHabit(row rowScanner, h *models.Habit) error {
	return row.Scan(&h.ID, &h.UserID, &h.Name, &h.Description, &h.Frequency,
		&h.TargetCount, &h.IsActive, &h.CreatedAt, &h.UpdatedAt)
}

// Create inserts habit. A nil TargetCount falls back to 1.
func (r *PostgresRepository) Create(ctx context.Context, habit *models.Habit) (*models.Habit, error) {

	query :=
		`INSERT INTO habits (user_id, name, description, frequency, target_count)
         VALUES ($1, $2, $3, $4, COALESCE($5, 1))
		 RETURNING ` + habitColumns

	created := &models.Habit{}
	err := scanHabit(r.db.QueryRowContext(ctx, query,
		habit.UserID, habit.Name, habit.Description, habit.Frequency, habit.TargetCount), created)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, userID, habitID string) (*models.Habit, error) {
	query := `SELECT ` + habitColumns + ` FROM habits WHERE id = $1 AND user_id = $2`

	h := &models.Habit{}
	if err := scanHabit(r.db.QueryRowContext(ctx, query, habitID, userID), h); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return h, nil
}

// Update applies the non-nil fields of changes and bumps updated_at. When
// changes is empty only updated_at moves. Returns common.ErrorNotFound when
// the user owns no such habit.
func (r *PostgresRepository) Update(ctx context.Context, userID, habitID string, changes models.HabitChanges) (*models.Habit, error) {

	b := psql.Update("habits")
	if changes.Name != nil {
		b = b.Set("name", *changes.Name)
	}
	if changes.Description != nil {
		b = b.Set("description", *changes.Description)
	}
	if changes.Frequency != nil {
		b = b.Set("frequency", string(*changes.Frequency))
	}
	if changes.TargetCount != nil {
		b = b.Set("target_count", *changes.TargetCount)
	}
	if changes.IsActive != nil {
		b = b.Set("is_active", *changes.IsActive)
	}

	query, args, err := b.
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": habitID, "user_id": userID}).
		Suffix("RETURNING " + habitColumns).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	h := &models.Habit{}
	if err := scanHabit(r.db.QueryRowContext(ctx, query, args...), h); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return h, nil
}

// Delete removes the habit. Entries and tag assignments go with it through
// ON DELETE CASCADE.
func (r *PostgresRepository) Delete(ctx context.Context, userID, habitID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM habits WHERE id = $1 AND user_id = $2`, habitID, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// ListByUser returns the user's habits, newest first, each with its tags
// sorted by name. Habits without tags carry an empty, non-nil slice.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.HabitWithTags, error) {
	query := `
		SELECT h.id, h.user_id, h.name, h.description, h.frequency, h.target_count,
		       h.is_active, h.created_at, h.updated_at,
		       t.id, t.name, t.color, t.created_at, t.updated_at
		FROM habits h
		LEFT JOIN habit_tags ht ON ht.habit_id = h.id
		LEFT JOIN tags t ON t.id = ht.tag_id
		WHERE h.user_id = $1
		ORDER BY h.created_at DESC, h.id, t.name
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.HabitWithTags, 0)
	var current *models.HabitWithTags

	for rows.Next() {
		var (
			h                    models.Habit
			tagID, tagName       sql.NullString
			tagColor             sql.NullString
			tagCreated, tagUpdtd sql.NullTime
		)
		if err := rows.Scan(
			&h.ID, &h.UserID, &h.Name, &h.Description, &h.Frequency, &h.TargetCount,
			&h.IsActive, &h.CreatedAt, &h.UpdatedAt,
			&tagID, &tagName, &tagColor, &tagCreated, &tagUpdtd,
		); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}

		if current == nil || current.ID != h.ID {
			current = &models.HabitWithTags{Habit: h, Tags: []models.Tag{}}
			result = append(result, current)
		}

		if tagID.Valid {
			current.Tags = append(current.Tags, models.Tag{
				ID:        tagID.String,
				Name:      tagName.String,
				Color:     nullString(tagColor),
				CreatedAt: nullTime(tagCreated),
				UpdatedAt: nullTime(tagUpdtd),
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func nullTime(t sql.NullTime) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time
}
