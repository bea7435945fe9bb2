package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Favorite marks a story as a user's favorite. Toggled (created/deleted),
// never updated in place. Story title and cover are denormalized so the
// favorites screen renders without a join against the content backend.
type Favorite struct {
	ID         string    `json:"id" db:"id"` // "{userId}_{storyId}"
	UserID     uuid.UUID `json:"userId" db:"user_id"`
	StoryID    string    `json:"storyId" db:"story_id"`
	StoryTitle string    `json:"storyTitle" db:"story_title"`
	CoverURL   string    `json:"coverUrl,omitempty" db:"cover_url"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// FavoriteKey builds the deterministic favorite document id.
func FavoriteKey(userID uuid.UUID, storyID string) string {
	return fmt.Sprintf("%s_%s", userID.String(), storyID)
}
