package models

import (
	"time"

	"github.com/google/uuid"
)

// PostType enumerates the kinds of activity a community post can carry.
type PostType string

const (
	PostTypeText          PostType = "text"
	PostTypeStoryShare    PostType = "story_share"
	PostTypeAchievement   PostType = "achievement"
	PostTypeQuizResult    PostType = "quiz_result"
	PostTypeStoryComplete PostType = "story_complete"
)

type Post struct {
	ID                uuid.UUID         `json:"id"`
	AuthorID          uuid.UUID         `json:"authorId"`
	AuthorDisplayName string            `json:"authorDisplayName"`
	AuthorPhoto       string            `json:"authorPhoto,omitempty"`
	Content           string            `json:"content"`
	Type              PostType          `json:"type"`
	Metadata          map[string]string `json:"metadata,omitempty"` // free-form, keyed by post type
	Timestamp         time.Time         `json:"timestamp"`
	LikeCount         int               `json:"likeCount"`
	LikedBy           []string          `json:"likedBy"`
	ReplyCount        int               `json:"replyCount"`
}

// LikedByUser reports whether the given user is in the post's like set.
func (p *Post) LikedByUser(userID string) bool {
	for _, u := range p.LikedBy {
		if u == userID {
			return true
		}
	}
	return false
}
