package models

import (
	"time"
)

type Album struct {
	ID          string     `json:"id" db:"id"`
	UploadedBy  string     `json:"uploaded_by" db:"uploaded_by"`
	Title       string     `json:"title" db:"title"`
	Description *string    `json:"description,omitempty" db:"description"`
	Location    *string    `json:"location,omitempty" db:"location"`
	TakenOn     *time.Time `json:"taken_on,omitempty" db:"taken_on"` // date only
	Images      []Image    `json:"images"`                           // owned rows, cascade on delete
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

type Image struct {
	ID      string `json:"id" db:"id"`
	AlbumID string `json:"album_id" db:"album_id"`
	UserID  string `json:"user_id" db:"user_id"`
	URL     string `json:"url" db:"url"`
	// Bucket-relative object key; kept out of API responses.
	StoragePath string    `json:"-" db:"storage_path"`
	Width       *int      `json:"width,omitempty" db:"width"`
	Height      *int      `json:"height,omitempty" db:"height"`
	SizeBytes   *int64    `json:"size_bytes,omitempty" db:"size_bytes"`
	Alt         *string   `json:"alt,omitempty" db:"alt"`
	Caption     *string   `json:"caption,omitempty" db:"caption"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
