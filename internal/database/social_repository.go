// internal/database/social_repository.go
package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"english-tales/internal/models"
	"english-tales/internal/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FriendshipDocument represents the MongoDB schema for a friendship. The _id
// is the sorted pair of user ids, so at most one document exists per
// unordered pair regardless of request direction.
type FriendshipDocument struct {
	ID         string    `bson:"_id"`
	Users      []string  `bson:"users"`
	SenderID   string    `bson:"senderid"`
	ReceiverID string    `bson:"receiverid"`
	Status     string    `bson:"status"`
	CreatedAt  time.Time `bson:"createdat"`
	UpdatedAt  time.Time `bson:"updatedat"`
}

// FollowDocument represents a directed follow edge; shared by the `follows`
// and `author_follows` collections.
type FollowDocument struct {
	ID         string    `bson:"_id"`
	FollowerID string    `bson:"followerid"`
	TargetID   string    `bson:"targetid"`
	CreatedAt  time.Time `bson:"createdat"`
}

func documentToFriendship(doc *FriendshipDocument) (*models.Friendship, error) {
	senderID, err := uuid.Parse(doc.SenderID)
	if err != nil {
		return nil, fmt.Errorf("invalid sender ID: %v", err)
	}
	receiverID, err := uuid.Parse(doc.ReceiverID)
	if err != nil {
		return nil, fmt.Errorf("invalid receiver ID: %v", err)
	}

	return &models.Friendship{
		ID:         doc.ID,
		Users:      doc.Users,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Status:     models.FriendshipStatus(doc.Status),
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
	}, nil
}

// GetFriendship retrieves a friendship by its sorted-pair id.
func (m *MongoDB) GetFriendship(ctx context.Context, id string) (*models.Friendship, error) {
	var doc FriendshipDocument

	err := m.Friendships.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewAppError(utils.ErrNotFound, "Friendship not found", err)
	}
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to fetch friendship", err)
	}

	return documentToFriendship(&doc)
}

// SaveFriendship inserts a new friendship document. A duplicate key means a
// request for this pair already exists in some direction.
func (m *MongoDB) SaveFriendship(ctx context.Context, friendship *models.Friendship) error {
	doc := &FriendshipDocument{
		ID:         friendship.ID,
		Users:      friendship.Users,
		SenderID:   friendship.SenderID.String(),
		ReceiverID: friendship.ReceiverID.String(),
		Status:     string(friendship.Status),
		CreatedAt:  friendship.CreatedAt,
		UpdatedAt:  friendship.UpdatedAt,
	}

	_, err := m.Friendships.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return utils.NewRequestPendingError()
	}
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "Failed to save friendship", err)
	}
	return nil
}

// UpdateFriendshipStatus moves a friendship to accepted/declined.
func (m *MongoDB) UpdateFriendshipStatus(ctx context.Context, id string, status models.FriendshipStatus) error {
	filter := bson.M{"_id": id}
	update := bson.M{"$set": bson.M{
		"status":    string(status),
		"updatedat": time.Now(),
	}}

	result, err := m.Friendships.UpdateOne(ctx, filter, update)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "Failed to update friendship", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewAppError(utils.ErrNotFound, "Friendship not found", nil)
	}
	return nil
}

// DeleteFriendship removes a friendship document entirely.
func (m *MongoDB) DeleteFriendship(ctx context.Context, id string) error {
	result, err := m.Friendships.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "Failed to delete friendship", err)
	}
	if result.DeletedCount == 0 {
		return utils.NewAppError(utils.ErrNotFound, "Friendship not found", nil)
	}
	return nil
}

// GetUserFriendships retrieves friendships involving the user, optionally
// filtered by status (empty status means all).
func (m *MongoDB) GetUserFriendships(ctx context.Context, userID uuid.UUID, status models.FriendshipStatus) ([]*models.Friendship, error) {
	filter := bson.M{"users": userID.String()}
	if status != "" {
		filter["status"] = string(status)
	}

	opts := options.Find().SetSort(bson.D{{Key: "updatedat", Value: -1}})

	cursor, err := m.Friendships.Find(ctx, filter, opts)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to fetch friendships", err)
	}
	defer cursor.Close(ctx)

	var friendships []*models.Friendship
	for cursor.Next(ctx) {
		var doc FriendshipDocument
		if err := cursor.Decode(&doc); err != nil {
			log.Printf("Error decoding friendship document: %v", err)
			continue
		}

		friendship, err := documentToFriendship(&doc)
		if err != nil {
			log.Printf("Error converting friendship document: %v", err)
			continue
		}
		friendships = append(friendships, friendship)
	}

	if err := cursor.Err(); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Friendship cursor iteration failed", err)
	}

	return friendships, nil
}

func (m *MongoDB) followCollection(author bool) *mongo.Collection {
	if author {
		return m.AuthorFollows
	}
	return m.Follows
}

// SaveFollow inserts a follow edge. Returns false when the follower already
// follows the target.
func (m *MongoDB) SaveFollow(ctx context.Context, follow *models.Follow, author bool) (bool, error) {
	doc := &FollowDocument{
		ID:         follow.ID,
		FollowerID: follow.FollowerID.String(),
		TargetID:   follow.TargetID,
		CreatedAt:  follow.CreatedAt,
	}

	_, err := m.followCollection(author).InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, utils.NewAppError(utils.ErrDatabase, "Failed to save follow", err)
	}
	return true, nil
}

// DeleteFollow removes a follow edge. Returns false when it did not exist.
func (m *MongoDB) DeleteFollow(ctx context.Context, followerID uuid.UUID, targetID string, author bool) (bool, error) {
	id := models.FollowKey(followerID, targetID)
	result, err := m.followCollection(author).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, utils.NewAppError(utils.ErrDatabase, "Failed to delete follow", err)
	}
	return result.DeletedCount > 0, nil
}

// GetFollowing retrieves the targets a user follows.
func (m *MongoDB) GetFollowing(ctx context.Context, followerID uuid.UUID, author bool) ([]*models.Follow, error) {
	return m.findFollows(ctx, m.followCollection(author), bson.M{"followerid": followerID.String()})
}

// GetFollowers retrieves the users following a target user.
func (m *MongoDB) GetFollowers(ctx context.Context, targetID string) ([]*models.Follow, error) {
	return m.findFollows(ctx, m.Follows, bson.M{"targetid": targetID})
}

func (m *MongoDB) findFollows(ctx context.Context, collection *mongo.Collection, filter bson.M) ([]*models.Follow, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdat", Value: -1}})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to fetch follows", err)
	}
	defer cursor.Close(ctx)

	var follows []*models.Follow
	for cursor.Next(ctx) {
		var doc FollowDocument
		if err := cursor.Decode(&doc); err != nil {
			log.Printf("Error decoding follow document: %v", err)
			continue
		}

		followerID, err := uuid.Parse(doc.FollowerID)
		if err != nil {
			continue
		}

		follows = append(follows, &models.Follow{
			ID:         doc.ID,
			FollowerID: followerID,
			TargetID:   doc.TargetID,
			CreatedAt:  doc.CreatedAt,
		})
	}

	if err := cursor.Err(); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Follow cursor iteration failed", err)
	}

	return follows, nil
}
