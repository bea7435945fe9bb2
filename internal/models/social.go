package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FriendshipStatus tracks the lifecycle of a friend request.
type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
	FriendshipDeclined FriendshipStatus = "declined"
)

// Friendship links two users. The document id is the sorted pair of the two
// user ids, so at most one friendship exists per unordered pair regardless of
// which side sent the request.
type Friendship struct {
	ID         string           `json:"id" db:"id"`
	Users      []string         `json:"users" db:"-"` // both user ids, sorted
	SenderID   uuid.UUID        `json:"senderId" db:"sender_id"`
	ReceiverID uuid.UUID        `json:"receiverId" db:"receiver_id"`
	Status     FriendshipStatus `json:"status" db:"status"`
	CreatedAt  time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time        `json:"updatedAt" db:"updated_at"`
}

// FriendshipKey builds the sorted-pair friendship id. The same key comes out
// for either direction of the pair.
func FriendshipKey(a, b uuid.UUID) string {
	as, bs := a.String(), b.String()
	if bs < as {
		as, bs = bs, as
	}
	return fmt.Sprintf("%s_%s", as, bs)
}

// Follow is a directed edge from one user to another user or to a story
// author. User follows and author follows live in separate collections but
// share this shape.
type Follow struct {
	ID         string    `json:"id" db:"id"` // "{followerId}_{targetId}"
	FollowerID uuid.UUID `json:"followerId" db:"follower_id"`
	TargetID   string    `json:"targetId" db:"target_id"` // user uuid or CMS author id
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// FollowKey builds the deterministic follow document id.
func FollowKey(followerID uuid.UUID, targetID string) string {
	return fmt.Sprintf("%s_%s", followerID.String(), targetID)
}
