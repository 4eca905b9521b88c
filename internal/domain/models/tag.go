package models

import (
	"time"
)

type Tag struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Slug      string    `json:"slug" db:"slug"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ReflectionTag is the association row between a reflection and a tag.
type ReflectionTag struct {
	ReflectionID string    `json:"reflection_id" db:"reflection_id"`
	TagID        string    `json:"tag_id" db:"tag_id"`
	AssignedAt   time.Time `json:"assigned_at" db:"assigned_at"`
}
