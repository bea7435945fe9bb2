package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID             uuid.UUID `json:"id" db:"id"`
	Username       string    `json:"username" db:"username"`
	DisplayName    string    `json:"displayName" db:"display_name"`
	Email          string    `json:"email" db:"email"`
	HashedPassword string    `json:"-" db:"password_hash"`
	PhotoURL       string    `json:"photoUrl,omitempty" db:"photo_url"`
	Points         int       `json:"points" db:"points"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
	LastActive     time.Time `json:"lastActive" db:"last_active"`
}

// LibraryItem is a story saved to a user's personal library, denormalized so
// the shelf renders without a content-backend round trip.
type LibraryItem struct {
	ID         string    `json:"id" db:"id"` // "{userId}_{storyId}"
	UserID     uuid.UUID `json:"userId" db:"user_id"`
	StoryID    string    `json:"storyId" db:"story_id"`
	StoryTitle string    `json:"storyTitle" db:"story_title"`
	CoverURL   string    `json:"coverUrl,omitempty" db:"cover_url"`
	AddedAt    time.Time `json:"addedAt" db:"added_at"`
}
