package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/dmitrijs2005/habits/internal/dbx"
	"github.com/dmitrijs2005/habits/internal/server/models"
	"github.com/dmitrijs2005/habits/internal/server/repositories/entries"
	"github.com/dmitrijs2005/habits/internal/server/repositories/habits"
	"github.com/dmitrijs2005/habits/internal/server/repositories/habittags"
	"github.com/dmitrijs2005/habits/internal/server/repositories/tags"
	"github.com/dmitrijs2005/habits/internal/server/repositories/users"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func ptr[T any](v T) *T { return &v }

type fakeUsersRepo struct {
	created   *models.User
	createErr error

	byEmail *models.User
	getErr  error
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = u
	out := *u
	out.ID = "u-1"
	out.CreatedAt = time.Now()
	out.UpdatedAt = out.CreatedAt
	return &out, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.byEmail, nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.byEmail, nil
}

type fakeHabitsRepo struct {
	createIn  *models.Habit
	createErr error

	updateChanges models.HabitChanges
	updateErr     error

	deleteErr error

	getOut *models.Habit
	getErr error

	listOut []*models.HabitWithTags
	listErr error
}

func (f *fakeHabitsRepo) Create(ctx context.Context, h *models.Habit) (*models.Habit, error) {
	f.createIn = h
	if f.createErr != nil {
		return nil, f.createErr
	}
	out := *h
	out.ID = "h-1"
	out.IsActive = true
	return &out, nil
}

func (f *fakeHabitsRepo) GetByID(ctx context.Context, userID, habitID string) (*models.Habit, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

func (f *fakeHabitsRepo) Update(ctx context.Context, userID, habitID string, c models.HabitChanges) (*models.Habit, error) {
	f.updateChanges = c
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &models.Habit{ID: habitID, UserID: userID, Name: "updated"}, nil
}

func (f *fakeHabitsRepo) Delete(ctx context.Context, userID, habitID string) error {
	return f.deleteErr
}

func (f *fakeHabitsRepo) ListByUser(ctx context.Context, userID string) ([]*models.HabitWithTags, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listOut, nil
}

type fakeHabitTagsRepo struct {
	rows      map[string][]string
	insertErr error
	deleted   []string
	listErr   error
}

func newFakeHabitTags() *fakeHabitTagsRepo {
	return &fakeHabitTagsRepo{rows: map[string][]string{}}
}

func (f *fakeHabitTagsRepo) Insert(ctx context.Context, habitID string, tagIDs []string) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.rows[habitID] = append(f.rows[habitID], tagIDs...)
	return nil
}

func (f *fakeHabitTagsRepo) DeleteByHabit(ctx context.Context, habitID string) error {
	f.deleted = append(f.deleted, habitID)
	delete(f.rows, habitID)
	return nil
}

func (f *fakeHabitTagsRepo) ListTagsByHabit(ctx context.Context, habitID string) ([]models.Tag, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Tag, 0, len(f.rows[habitID]))
	for _, id := range f.rows[habitID] {
		out = append(out, models.Tag{ID: id, Name: "tag " + id})
	}
	return out, nil
}

type fakeTagsRepo struct {
	createErr error
	listOut   []models.Tag
	listErr   error
}

func (f *fakeTagsRepo) Create(ctx context.Context, t *models.Tag) (*models.Tag, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	out := *t
	out.ID = "t-1"
	if out.Color == nil {
		out.Color = ptr(models.DefaultTagColor)
	}
	return &out, nil
}

func (f *fakeTagsRepo) List(ctx context.Context) ([]models.Tag, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listOut, nil
}

type fakeEntriesRepo struct {
	createUser string
	createErr  error

	listLimit int
	listOut   []models.Entry
	listErr   error
}

func (f *fakeEntriesRepo) Create(ctx context.Context, userID string, e *models.Entry) (*models.Entry, error) {
	f.createUser = userID
	if f.createErr != nil {
		return nil, f.createErr
	}
	out := *e
	out.ID = "e-1"
	return &out, nil
}

func (f *fakeEntriesRepo) ListRecent(ctx context.Context, habitID string, limit int) ([]models.Entry, error) {
	f.listLimit = limit
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listOut, nil
}

type fakeRepoManager struct {
	u  *fakeUsersRepo
	h  *fakeHabitsRepo
	ht *fakeHabitTagsRepo
	t  *fakeTagsRepo
	e  *fakeEntriesRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository           { return m.u }
func (m *fakeRepoManager) Habits(db dbx.DBTX) habits.Repository         { return m.h }
func (m *fakeRepoManager) HabitTags(db dbx.DBTX) habittags.Repository   { return m.ht }
func (m *fakeRepoManager) Tags(db dbx.DBTX) tags.Repository             { return m.t }
func (m *fakeRepoManager) Entries(db dbx.DBTX) entries.Repository       { return m.e }
