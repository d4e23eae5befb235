package entries

import (
	"context"

	"github.com/dmitrijs2005/habits/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, userID string, entry *models.Entry) (*models.Entry, error)
	ListRecent(ctx context.Context, habitID string, limit int) ([]models.Entry, error)
}
