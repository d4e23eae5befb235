package models

import "time"

// DefaultTagColor is used when a tag is created without a color.
const DefaultTagColor = "#7f728a"

// Tag categorizes habits. Tag names are globally unique.
type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     *string   `json:"color"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
