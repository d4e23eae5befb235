package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/habits/internal/server/models"
	"github.com/dmitrijs2005/habits/internal/server/repositories/repomanager"
)

// TagService manages the shared tag catalogue.
type TagService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewTagService(db *sql.DB, m repomanager.RepositoryManager) *TagService {
	return &TagService{db: db, repomanager: m}
}

func (s *TagService) List(ctx context.Context) ([]models.Tag, error) {
	list, err := s.repomanager.Tags(s.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing tags: %w", err)
	}
	return list, nil
}

// Create adds a tag. A taken name yields common.ErrorAlreadyExists.
func (s *TagService) Create(ctx context.Context, name string, color *string) (*models.Tag, error) {
	tag, err := s.repomanager.Tags(s.db).Create(ctx, &models.Tag{Name: name, Color: color})
	if err != nil {
		return nil, fmt.Errorf("error creating tag: %w", err)
	}
	return tag, nil
}
