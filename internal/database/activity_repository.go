// internal/database/activity_repository.go
package database

import (
	"context"
	"log"
	"time"

	"english-tales/internal/models"
	"english-tales/internal/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ActivityDocument represents one reading milestone. The _id embeds user,
// story and activity type, which is what makes recording idempotent.
type ActivityDocument struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"userid"`
	StoryID   string    `bson:"storyid"`
	Type      string    `bson:"type"`
	Points    int       `bson:"points"`
	CreatedAt time.Time `bson:"createdat"`
}

// LeaderboardDocument is a user's aggregate score row.
type LeaderboardDocument struct {
	ID               string    `bson:"_id"` // user id
	DisplayName      string    `bson:"displayname"`
	PhotoURL         string    `bson:"photourl,omitempty"`
	Points           int       `bson:"points"`
	StoriesCompleted int       `bson:"storiescompleted"`
	UpdatedAt        time.Time `bson:"updatedat"`
}

// RecordActivity inserts an activity-log entry. Returns false when the same
// milestone was already recorded (duplicate idempotent id), in which case no
// points should be awarded again.
func (m *MongoDB) RecordActivity(ctx context.Context, entry *models.ActivityLogEntry) (bool, error) {
	doc := &ActivityDocument{
		ID:        entry.ID,
		UserID:    entry.UserID.String(),
		StoryID:   entry.StoryID,
		Type:      string(entry.Type),
		Points:    entry.Points,
		CreatedAt: entry.CreatedAt,
	}

	_, err := m.ActivityLog.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, utils.NewAppError(utils.ErrDatabase, "Failed to record activity", err)
	}
	return true, nil
}

// AddLeaderboardPoints bumps a user's score row, creating it on first use.
func (m *MongoDB) AddLeaderboardPoints(ctx context.Context, userID uuid.UUID, displayName string, points int, completedDelta int) error {
	opts := options.Update().SetUpsert(true)
	filter := bson.M{"_id": userID.String()}
	update := bson.M{
		"$inc": bson.M{
			"points":           points,
			"storiescompleted": completedDelta,
		},
		"$set": bson.M{
			"displayname": displayName,
			"updatedat":   time.Now(),
		},
	}

	if _, err := m.Leaderboard.UpdateOne(ctx, filter, update, opts); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "Failed to update leaderboard", err)
	}
	return nil
}

// GetLeaderboard retrieves the top scorers, highest points first.
func (m *MongoDB) GetLeaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "points", Value: -1},
		{Key: "updatedat", Value: 1},
	})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := m.Leaderboard.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to fetch leaderboard", err)
	}
	defer cursor.Close(ctx)

	var entries []*models.LeaderboardEntry
	for cursor.Next(ctx) {
		var doc LeaderboardDocument
		if err := cursor.Decode(&doc); err != nil {
			log.Printf("Error decoding leaderboard document: %v", err)
			continue
		}

		userID, err := uuid.Parse(doc.ID)
		if err != nil {
			continue
		}

		entries = append(entries, &models.LeaderboardEntry{
			UserID:           userID,
			DisplayName:      doc.DisplayName,
			PhotoURL:         doc.PhotoURL,
			Points:           doc.Points,
			StoriesCompleted: doc.StoriesCompleted,
			UpdatedAt:        doc.UpdatedAt,
		})
	}

	if err := cursor.Err(); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Leaderboard cursor iteration failed", err)
	}

	return entries, nil
}
