package models

import (
	"time"

	"atelier/internal/domain"
)

type Reflection struct {
	ID              string     `json:"id" db:"id"`
	AuthorID        string     `json:"author_id" db:"author_id"`
	Status          string     `json:"status" db:"status"` // draft | published
	PublishDate     *time.Time `json:"publish_date" db:"publish_date"`
	Title           string     `json:"title" db:"title"`
	Slug            string     `json:"slug" db:"slug"`
	Body            string     `json:"body" db:"body"`
	Excerpt         *string    `json:"excerpt,omitempty" db:"excerpt"`
	FeaturedImageID *string    `json:"featured_image_id,omitempty" db:"featured_image_id"`
	Tags            []Tag      `json:"tags"` // joined via reflection_tags, not a column
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// Published reports whether the reflection is publicly visible.
func (r *Reflection) Published() bool {
	return r.Status == domain.StatusPublished
}

// Publish transitions the reflection to published and stamps the publish
// date. Publishing an already-published reflection re-stamps the date.
func (r *Reflection) Publish(now time.Time) {
	r.Status = domain.StatusPublished
	r.PublishDate = &now
}
