// Package httpapi is the REST surface of the habits server: routing,
// middleware, request validation and JSON responses.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/habits/internal/logging"
	"github.com/dmitrijs2005/habits/internal/server/models"
	"github.com/dmitrijs2005/habits/internal/server/services"
)

type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, string, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
}

type HabitService interface {
	Create(ctx context.Context, userID string, in services.CreateHabitInput) (*models.HabitWithTags, error)
	Update(ctx context.Context, userID, habitID string, in services.UpdateHabitInput) (*models.HabitWithTags, error)
	Delete(ctx context.Context, userID, habitID string) error
	List(ctx context.Context, userID string) ([]*models.HabitWithTags, error)
	Stats(ctx context.Context, userID, habitID string) (*models.HabitStats, error)
	Complete(ctx context.Context, userID string, entry models.Entry) (*models.Entry, error)
}

type TagService interface {
	List(ctx context.Context) ([]models.Tag, error)
	Create(ctx context.Context, name string, color *string) (*models.Tag, error)
}

type api struct {
	users     UserService
	habits    HabitService
	tags      TagService
	validator *Validator
	log       logging.Logger
	dev       bool
	now       func() time.Time
}

// internalError logs err and answers 500 with msg. The error text is only
// included in the body in the dev stage.
func (a *api) internalError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	a.log.Error(r.Context(), msg, "error", err, "path", r.URL.Path)
	body := internalBody{Error: msg}
	if a.dev {
		body.Details = err.Error()
	}
	writeJSON(w, http.StatusInternalServerError, body)
}

// decodeAndValidate fills dst from the request body and validates it.
// It writes the 400 response itself and returns false on failure.
func (a *api) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) bool {
	if err := decodeJSON(r, dst); err != nil {
		if !(allowEmpty && err == errEmptyBody) {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return false
		}
	}
	if errs := a.validator.Struct(dst); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Body Validation Failed!", Details: errs})
		return false
	}
	return true
}
