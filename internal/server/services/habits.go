package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/habits/internal/dbx"
	"github.com/dmitrijs2005/habits/internal/server/models"
	"github.com/dmitrijs2005/habits/internal/server/repositories/repomanager"
)

// RecentEntriesLimit caps the entries returned by HabitService.Stats.
const RecentEntriesLimit = 10

// CreateHabitInput describes a new habit and the tags to attach to it.
type CreateHabitInput struct {
	Name        string
	Description *string
	Frequency   models.Frequency
	TargetCount *int
	TagIDs      []string
}

// UpdateHabitInput is a partial update. A nil TagIDs leaves the tag set as
// is; a non-nil, possibly empty, slice replaces it.
type UpdateHabitInput struct {
	Changes models.HabitChanges
	TagIDs  *[]string
}

// HabitService manages a user's habits, their tag assignments and
// completion entries. Every operation is scoped to the calling user.
type HabitService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewHabitService(db *sql.DB, m repomanager.RepositoryManager) *HabitService {
	return &HabitService{db: db, repomanager: m}
}

// Create inserts the habit and one join row per distinct tag id in a single
// transaction. If any tag is rejected nothing is stored.
func (s *HabitService) Create(ctx context.Context, userID string, in CreateHabitInput) (*models.HabitWithTags, error) {
	var result *models.HabitWithTags

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		habit, err := s.repomanager.Habits(tx).Create(ctx, &models.Habit{
			UserID:      userID,
			Name:        in.Name,
			Description: in.Description,
			Frequency:   in.Frequency,
			TargetCount: in.TargetCount,
		})
		if err != nil {
			return fmt.Errorf("error creating habit: %w", err)
		}

		tags, err := s.assignTags(ctx, tx, habit.ID, in.TagIDs)
		if err != nil {
			return err
		}

		result = &models.HabitWithTags{Habit: *habit, Tags: tags}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Update applies in to the user's habit within one transaction. When
// in.TagIDs is set the existing assignments are removed and the new ones
// inserted. Returns common.ErrorNotFound if the user owns no such habit.
func (s *HabitService) Update(ctx context.Context, userID, habitID string, in UpdateHabitInput) (*models.HabitWithTags, error) {
	var result *models.HabitWithTags

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		habit, err := s.repomanager.Habits(tx).Update(ctx, userID, habitID, in.Changes)
		if err != nil {
			return fmt.Errorf("error updating habit: %w", err)
		}

		joins := s.repomanager.HabitTags(tx)

		var tags []models.Tag
		if in.TagIDs != nil {
			if err := joins.DeleteByHabit(ctx, habit.ID); err != nil {
				return fmt.Errorf("error clearing habit tags: %w", err)
			}
			tags, err = s.assignTags(ctx, tx, habit.ID, *in.TagIDs)
		} else {
			tags, err = joins.ListTagsByHabit(ctx, habit.ID)
		}
		if err != nil {
			return err
		}

		result = &models.HabitWithTags{Habit: *habit, Tags: tags}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *HabitService) assignTags(ctx context.Context, tx dbx.DBTX, habitID string, tagIDs []string) ([]models.Tag, error) {
	joins := s.repomanager.HabitTags(tx)
	if len(tagIDs) == 0 {
		return []models.Tag{}, nil
	}
	if err := joins.Insert(ctx, habitID, tagIDs); err != nil {
		return nil, fmt.Errorf("error assigning tags: %w", err)
	}
	tags, err := joins.ListTagsByHabit(ctx, habitID)
	if err != nil {
		return nil, fmt.Errorf("error loading tags: %w", err)
	}
	return tags, nil
}

// Delete removes the user's habit. Entries and tag assignments are removed
// by the database. Returns common.ErrorNotFound when nothing matched.
func (s *HabitService) Delete(ctx context.Context, userID, habitID string) error {
	if err := s.repomanager.Habits(s.db).Delete(ctx, userID, habitID); err != nil {
		return fmt.Errorf("error deleting habit: %w", err)
	}
	return nil
}

// List returns the user's habits with tags, newest first.
func (s *HabitService) List(ctx context.Context, userID string) ([]*models.HabitWithTags, error) {
	list, err := s.repomanager.Habits(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing habits: %w", err)
	}
	return list, nil
}

// Stats returns one habit with its tags and its RecentEntriesLimit most
// recent entries.
func (s *HabitService) Stats(ctx context.Context, userID, habitID string) (*models.HabitStats, error) {
	habit, err := s.repomanager.Habits(s.db).GetByID(ctx, userID, habitID)
	if err != nil {
		return nil, fmt.Errorf("error loading habit: %w", err)
	}

	tags, err := s.repomanager.HabitTags(s.db).ListTagsByHabit(ctx, habit.ID)
	if err != nil {
		return nil, fmt.Errorf("error loading tags: %w", err)
	}

	recent, err := s.repomanager.Entries(s.db).ListRecent(ctx, habit.ID, RecentEntriesLimit)
	if err != nil {
		return nil, fmt.Errorf("error loading entries: %w", err)
	}

	return &models.HabitStats{Habit: *habit, Tags: tags, Entries: recent}, nil
}

// Complete records a completion entry for the user's habit.
func (s *HabitService) Complete(ctx context.Context, userID string, entry models.Entry) (*models.Entry, error) {
	created, err := s.repomanager.Entries(s.db).Create(ctx, userID, &entry)
	if err != nil {
		return nil, fmt.Errorf("error completing habit: %w", err)
	}
	return created, nil
}
