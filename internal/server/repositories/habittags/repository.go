package habittags

import (
	"context"

	"github.com/dmitrijs2005/habits/internal/server/models"
)

// Repository maintains the habit/tag assignment table.
type Repository interface {
	Insert(ctx context.Context, habitID string, tagIDs []string) error
	DeleteByHabit(ctx context.Context, habitID string) error
	ListTagsByHabit(ctx context.Context, habitID string) ([]models.Tag, error)
}
