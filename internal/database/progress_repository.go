// internal/database/progress_repository.go
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

// ProgressDocument represents the MongoDB schema for reading progress.
// The _id is "{userId}_{storyId}", one document per (user, story).
type ProgressDocument struct {
	ID            string    `bson:"_id"`
	UserID        string    `bson:"userid"`
	StoryID       string    `bson:"storyid"`
	Percentage    float64   `bson:"percentage"`
	LastBlockKey  string    `bson:"lastblockkey"`
	PageIndex     int       `bson:"pageindex"`
	IsCompleted   bool      `bson:"iscompleted"`
	ReadingTimeMs int64     `bson:"readingtimems"`
	QuizScore     int       `bson:"quizscore"`
	QuizTotal     int       `bson:"quiztotal"`
	UpdatedAt     time.Time `bson:"updatedat"`
}

func progressToDocument(progress *models.ReadingProgress) *ProgressDocument {
	return &ProgressDocument{
		ID:            progress.ID,
		UserID:        progress.UserID.String(),
		StoryID:       progress.StoryID,
		Percentage:    progress.Percentage,
		LastBlockKey:  progress.LastBlockKey,
		PageIndex:     progress.PageIndex,
		IsCompleted:   progress.IsCompleted,
		ReadingTimeMs: progress.ReadingTimeMs,
		QuizScore:     progress.QuizScore,
		QuizTotal:     progress.QuizTotal,
		UpdatedAt:     progress.UpdatedAt,
	}
}

func documentToProgress(doc *ProgressDocument) (*models.ReadingProgress, error) {
	userID, err := uuid.Parse(doc.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid progress user ID: %v", err)
	}

	return &models.ReadingProgress{
		ID:            doc.ID,
		UserID:        userID,
		StoryID:       doc.StoryID,
		Percentage:    doc.Percentage,
		LastBlockKey:  doc.LastBlockKey,
		PageIndex:     doc.PageIndex,
		IsCompleted:   doc.IsCompleted,
		ReadingTimeMs: doc.ReadingTimeMs,
		QuizScore:     doc.QuizScore,
		QuizTotal:     doc.QuizTotal,
		UpdatedAt:     doc.UpdatedAt,
	}, nil
}

// SaveProgress upserts a reading-progress document.
func (m *MongoDB) SaveProgress(ctx context.Context, progress *models.ReadingProgress) error {
	doc := progressToDocument(progress)

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"_id": progress.ID}
	update := bson.M{"$set": doc}

	if _, err := m.Progress.UpdateOne(ctx, filter, update, opts); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "Failed to save progress", err)
	}
	return nil
}

// GetProgress retrieves a user's progress for one story.
func (m *MongoDB) GetProgress(ctx context.Context, userID uuid.UUID, storyID string) (*models.ReadingProgress, error) {
	var doc ProgressDocument

	err := m.Progress.FindOne(ctx, bson.M{"_id": models.ProgressKey(userID, storyID)}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewAppError(utils.ErrNotFound, "No progress for story", err)
	}
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to fetch progress", err)
	}

	return documentToProgress(&doc)
}

// GetUserProgress retrieves all of a user's progress documents, most recently
// updated first.
func (m *MongoDB) GetUserProgress(ctx context.Context, userID uuid.UUID) ([]*models.ReadingProgress, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updatedat", Value: -1}})

	cursor, err := m.Progress.Find(ctx, bson.M{"userid": userID.String()}, opts)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to fetch progress list", err)
	}
	defer cursor.Close(ctx)

	var progressList []*models.ReadingProgress
	for cursor.Next(ctx) {
		var doc ProgressDocument
		if err := cursor.Decode(&doc); err != nil {
			log.Printf("Error decoding progress document: %v", err)
			continue
		}

		progress, err := documentToProgress(&doc)
		if err != nil {
			log.Printf("Error converting progress document: %v", err)
			continue
		}
		progressList = append(progressList, progress)
	}

	if err := cursor.Err(); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Progress cursor iteration failed", err)
	}

	return progressList, nil
}
