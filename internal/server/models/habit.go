package models

import "time"

// Frequency is how often a habit is meant to be performed.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// Frequencies lists every valid Frequency.
var Frequencies = []Frequency{FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly}

// Valid reports whether f is one of Frequencies.
func (f Frequency) Valid() bool {
	for _, v := range Frequencies {
		if f == v {
			return true
		}
	}
	return false
}

// Habit is a habit definition owned by a single user.
type Habit struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Frequency   Frequency `json:"frequency"`
	TargetCount *int      `json:"targetCount"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// HabitChanges is a partial update of a Habit. Nil fields are left as is.
type HabitChanges struct {
	Name        *string
	Description *string
	Frequency   *Frequency
	TargetCount *int
	IsActive    *bool
}

// HabitWithTags is a habit together with its assigned tags.
type HabitWithTags struct {
	Habit
	Tags []Tag `json:"tags"`
}

// HabitStats is a habit with its tags and most recent completion entries.
type HabitStats struct {
	Habit
	Tags    []Tag   `json:"tags"`
	Entries []Entry `json:"entries"`
}
