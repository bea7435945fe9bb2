package models

import (
	"time"

	"github.com/google/uuid"
)

// Reply is a comment on a community post. Creating one increments the parent
// post's ReplyCount in the same write path.
type Reply struct {
	ID                uuid.UUID `json:"id"`
	PostID            uuid.UUID `json:"postId"`
	AuthorID          uuid.UUID `json:"authorId"`
	AuthorDisplayName string    `json:"authorDisplayName"`
	Content           string    `json:"content"`
	Timestamp         time.Time `json:"timestamp"`
	LikeCount         int       `json:"likeCount"`
}
