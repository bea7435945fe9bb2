// internal/database/adapter.go
package database

import (
	"context"

	"english-tales/internal/models"

	"github.com/google/uuid"
)

// DBAdapter defines the common interface for database operations. Both the
// MongoDB and PostgreSQL backends implement it; actors only ever see this
// interface. Every method returns either a typed model or a *utils.AppError,
// never a raw driver error.
//
// Toggle-style operations (likes, favorites, follows) are single atomic
// conditional writes: the (applied bool) result reports whether the write
// changed anything, so a repeated toggle in the same direction is resolved
// idempotently instead of corrupting a counter.
type DBAdapter interface {
	// Connection
	Close(ctx context.Context) error

	// User methods
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
	UpdateUserActivity(ctx context.Context, id uuid.UUID) error

	// Community feed
	SavePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error)
	GetFeedPosts(ctx context.Context, limit int) ([]*models.Post, error)
	LikePost(ctx context.Context, postID, userID uuid.UUID) (bool, error)
	UnlikePost(ctx context.Context, postID, userID uuid.UUID) (bool, error)
	SaveReply(ctx context.Context, reply *models.Reply) error
	GetPostReplies(ctx context.Context, postID uuid.UUID) ([]*models.Reply, error)

	// Reviews
	SaveReview(ctx context.Context, review *models.Review) error
	GetStoryReviews(ctx context.Context, storyID string) ([]*models.Review, error)
	GetUserReviews(ctx context.Context, userID uuid.UUID) ([]*models.Review, error)
	LikeReview(ctx context.Context, reviewID string, userID uuid.UUID) (bool, error)
	UnlikeReview(ctx context.Context, reviewID string, userID uuid.UUID) (bool, error)

	// Favorites and library
	SaveFavorite(ctx context.Context, fav *models.Favorite) (bool, error)
	DeleteFavorite(ctx context.Context, userID uuid.UUID, storyID string) (bool, error)
	GetUserFavorites(ctx context.Context, userID uuid.UUID) ([]*models.Favorite, error)
	SaveLibraryItem(ctx context.Context, item *models.LibraryItem) (bool, error)
	DeleteLibraryItem(ctx context.Context, userID uuid.UUID, storyID string) (bool, error)
	GetUserLibrary(ctx context.Context, userID uuid.UUID) ([]*models.LibraryItem, error)

	// Social graph
	GetFriendship(ctx context.Context, id string) (*models.Friendship, error)
	SaveFriendship(ctx context.Context, friendship *models.Friendship) error
	UpdateFriendshipStatus(ctx context.Context, id string, status models.FriendshipStatus) error
	DeleteFriendship(ctx context.Context, id string) error
	GetUserFriendships(ctx context.Context, userID uuid.UUID, status models.FriendshipStatus) ([]*models.Friendship, error)
	SaveFollow(ctx context.Context, follow *models.Follow, author bool) (bool, error)
	DeleteFollow(ctx context.Context, followerID uuid.UUID, targetID string, author bool) (bool, error)
	GetFollowing(ctx context.Context, followerID uuid.UUID, author bool) ([]*models.Follow, error)
	GetFollowers(ctx context.Context, targetID string) ([]*models.Follow, error)

	// Reading progress
	SaveProgress(ctx context.Context, progress *models.ReadingProgress) error
	GetProgress(ctx context.Context, userID uuid.UUID, storyID string) (*models.ReadingProgress, error)
	GetUserProgress(ctx context.Context, userID uuid.UUID) ([]*models.ReadingProgress, error)

	// Notifications
	SaveNotification(ctx context.Context, notification *models.Notification) error
	GetUserNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Notification, error)
	MarkNotificationRead(ctx context.Context, id uuid.UUID) error
	MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) error

	// Activity log and leaderboard
	RecordActivity(ctx context.Context, entry *models.ActivityLogEntry) (bool, error)
	AddLeaderboardPoints(ctx context.Context, userID uuid.UUID, displayName string, points int, completedDelta int) error
	GetLeaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error)
}
