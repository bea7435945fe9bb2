package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationKind enumerates what a notification is about.
type NotificationKind string

const (
	NotificationFriendRequest   NotificationKind = "friend_request"
	NotificationRequestAccepted NotificationKind = "request_accepted"
	NotificationNewFollower     NotificationKind = "new_follower"
	NotificationPostLike        NotificationKind = "post_like"
	NotificationPostReply       NotificationKind = "post_reply"
)

type Notification struct {
	ID          uuid.UUID        `json:"id"`
	RecipientID uuid.UUID        `json:"recipientId"`
	ActorID     uuid.UUID        `json:"actorId"`
	ActorName   string           `json:"actorName"`
	Kind        NotificationKind `json:"kind"`
	RefID       string           `json:"refId,omitempty"` // post, friendship or follow id
	CreatedAt   time.Time        `json:"createdAt"`
	IsRead      bool             `json:"isRead"`
}
