package habits

import (
	"context"

	"github.com/dmitrijs2005/habits/internal/server/models"
)

// Repository stores habits. Every read and write is scoped to the owning
// user; a habit owned by someone else behaves as if it did not exist.
type Repository interface {
	Create(ctx context.Context, habit *models.Habit) (*models.Habit, error)
	GetByID(ctx context.Context, userID, habitID string) (*models.Habit, error)
	Update(ctx context.Context, userID, habitID string, changes models.HabitChanges) (*models.Habit, error)
	Delete(ctx context.Context, userID, habitID string) error
	ListByUser(ctx context.Context, userID string) ([]*models.HabitWithTags, error)
}
