// Package habittags provides the PostgreSQL-backed habit/tag join store.
package habittags

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/dmitrijs2005/habits/internal/common"
	"github.com/dmitrijs2005/habits/internal/dbx"
	"github.com/dmitrijs2005/habits/internal/server/models"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Insert assigns tagIDs to habitID in a single statement. Repeated ids are
// collapsed; an empty list is a no-op. An id that names no tag yields
// common.ErrorUnknownTag.
func (r *PostgresRepository) Insert(ctx context.Context, habitID string, tagIDs []string) error {
	ids := unique(tagIDs)
	if len(ids) == 0 {
		return nil
	}

	b := psql.Insert("habit_tags").Columns("habit_id", "tag_id")
	for _, id := range ids {
		b = b.Values(habitID, id)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: %w", common.ErrorUnknownTag, err)
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteByHabit(ctx context.Context, habitID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM habit_tags WHERE habit_id = $1`, habitID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ListTagsByHabit returns the habit's tags ordered by name.
func (r *PostgresRepository) ListTagsByHabit(ctx context.Context, habitID string) ([]models.Tag, error) {
	query := `
		SELECT t.id, t.name, t.color, t.created_at, t.updated_at
		FROM tags t
		JOIN habit_tags ht ON ht.tag_id = t.id
		WHERE ht.habit_id = $1
		ORDER BY t.name
	`
	rows, err := r.db.QueryContext(ctx, query, habitID)
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

func unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
