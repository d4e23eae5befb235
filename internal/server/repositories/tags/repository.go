package tags

import (
	"context"

	"github.com/dmitrijs2005/habits/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, tag *models.Tag) (*models.Tag, error)
	List(ctx context.Context) ([]models.Tag, error)
}
