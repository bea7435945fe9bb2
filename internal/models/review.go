package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Review is a user's rating of a story. One review per (user, story): the
// document id is the composite key, so a resubmission replaces the earlier
// review instead of accumulating next to it.
type Review struct {
	ID          string    `json:"id"` // "{userId}_{storyId}"
	StoryID     string    `json:"storyId"`
	StoryTitle  string    `json:"storyTitle"`
	AuthorID    uuid.UUID `json:"authorId"`
	AuthorName  string    `json:"authorName"`
	AuthorPhoto string    `json:"authorPhoto,omitempty"`
	Rating      int       `json:"rating"` // 1-5
	Comment     string    `json:"comment"`
	Timestamp   time.Time `json:"timestamp"`
	LikeCount   int       `json:"likeCount"`
	LikedBy     []string  `json:"likedBy"`
}

// ReviewKey builds the deterministic review document id.
func ReviewKey(userID uuid.UUID, storyID string) string {
	return fmt.Sprintf("%s_%s", userID.String(), storyID)
}

// LikedByUser reports whether the given user is in the review's like set.
func (r *Review) LikedByUser(userID string) bool {
	for _, u := range r.LikedBy {
		if u == userID {
			return true
		}
	}
	return false
}
