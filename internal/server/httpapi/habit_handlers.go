package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/dmitrijs2005/habits/internal/common"
	"github.com/dmitrijs2005/habits/internal/server/auth"
	"github.com/dmitrijs2005/habits/internal/server/models"
	"github.com/dmitrijs2005/habits/internal/server/services"
)

const msgHabitNotFound = "Habit not found!"

type createHabitRequest struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Description *string  `json:"description"`
	Frequency   string   `json:"frequency" validate:"required,frequency"`
	TargetCount *int     `json:"targetCount" validate:"omitempty,min=1"`
	TagIDs      []string `json:"tagIds" validate:"omitempty,dive,uuid"`
}

type updateHabitRequest struct {
	Name        *string   `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string   `json:"description"`
	Frequency   *string   `json:"frequency" validate:"omitempty,frequency"`
	TargetCount *int      `json:"targetCount" validate:"omitempty,min=1"`
	IsActive    *bool     `json:"isActive"`
	TagIDs      *[]string `json:"tagIds" validate:"omitempty,dive,uuid"`
}

type completeHabitRequest struct {
	CompletionDate *time.Time `json:"completionDate"`
	Note           *string    `json:"note" validate:"omitempty,max=255"`
}

type habitResponse struct {
	Message string                `json:"message"`
	Habit   *models.HabitWithTags `json:"habit"`
}

// habitID returns the {id} path variable in canonical UUID form, or writes a
// 400 and returns false if it is not a UUID.
func habitID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:   "Params Validation Failed!",
			Details: []FieldError{{Field: "id", Message: "Invalid UUID"}},
		})
		return "", false
	}
	return id.String(), true
}

func userID(r *http.Request) string {
	id, _ := auth.IdentityFromContext(r.Context())
	return id.ID
}

func (a *api) listHabits(w http.ResponseWriter, r *http.Request) {
	list, err := a.habits.List(r.Context(), userID(r))
	if err != nil {
		a.internalError(w, r, err, "Failed to get habits!")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"habits": list})
}

func (a *api) createHabit(w http.ResponseWriter, r *http.Request) {
	var req createHabitRequest
	if !a.decodeAndValidate(w, r, &req, false) {
		return
	}

	habit, err := a.habits.Create(r.Context(), userID(r), services.CreateHabitInput{
		Name:        req.Name,
		Description: req.Description,
		Frequency:   models.Frequency(req.Frequency),
		TargetCount: req.TargetCount,
		TagIDs:      req.TagIDs,
	})
	if err != nil {
		if errors.Is(err, common.ErrorUnknownTag) {
			writeError(w, http.StatusBadRequest, "One or more tags do not exist")
			return
		}
		a.internalError(w, r, err, "Failed to create habit!")
		return
	}

	writeJSON(w, http.StatusCreated, habitResponse{Message: "Habit created successfully", Habit: habit})
}

func (a *api) updateHabit(w http.ResponseWriter, r *http.Request) {
	id, ok := habitID(w, r)
	if !ok {
		return
	}
	var req updateHabitRequest
	if !a.decodeAndValidate(w, r, &req, false) {
		return
	}

	changes := models.HabitChanges{
		Name:        req.Name,
		Description: req.Description,
		TargetCount: req.TargetCount,
		IsActive:    req.IsActive,
	}
	if req.Frequency != nil {
		f := models.Frequency(*req.Frequency)
		changes.Frequency = &f
	}

	habit, err := a.habits.Update(r.Context(), userID(r), id, services.UpdateHabitInput{Changes: changes, TagIDs: req.TagIDs})
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorNotFound):
			writeError(w, http.StatusNotFound, msgHabitNotFound)
		case errors.Is(err, common.ErrorUnknownTag):
			writeError(w, http.StatusBadRequest, "One or more tags do not exist")
		default:
			a.internalError(w, r, err, "Failed to update habit!")
		}
		return
	}

	writeJSON(w, http.StatusOK, habitResponse{Message: "Habit updated successfully", Habit: habit})
}

func (a *api) deleteHabit(w http.ResponseWriter, r *http.Request) {
	id, ok := habitID(w, r)
	if !ok {
		return
	}

	if err := a.habits.Delete(r.Context(), userID(r), id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			writeError(w, http.StatusNotFound, msgHabitNotFound)
			return
		}
		a.internalError(w, r, err, "Failed to delete habit!")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Habit deleted successfully"})
}

func (a *api) habitStats(w http.ResponseWriter, r *http.Request) {
	id, ok := habitID(w, r)
	if !ok {
		return
	}

	stats, err := a.habits.Stats(r.Context(), userID(r), id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			writeError(w, http.StatusNotFound, msgHabitNotFound)
			return
		}
		a.internalError(w, r, err, "Failed to get habit!")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"habit": stats})
}

func (a *api) completeHabit(w http.ResponseWriter, r *http.Request) {
	id, ok := habitID(w, r)
	if !ok {
		return
	}
	var req completeHabitRequest
	if !a.decodeAndValidate(w, r, &req, true) {
		return
	}

	entry := models.Entry{HabitID: id, Note: req.Note}
	if req.CompletionDate != nil {
		entry.CompletionDate = *req.CompletionDate
	}

	created, err := a.habits.Complete(r.Context(), userID(r), entry)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			writeError(w, http.StatusNotFound, msgHabitNotFound)
			return
		}
		a.internalError(w, r, err, "Failed to complete habit!")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"message": "Habit completed", "entry": created})
}
