package models

import "time"

// Entry records one completion of a habit.
type Entry struct {
	ID             string    `json:"id"`
	HabitID        string    `json:"habitId"`
	CompletionDate time.Time `json:"completionDate"`
	Note           *string   `json:"note"`
}
