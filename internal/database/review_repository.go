// internal/database/review_repository.go
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
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ReviewDocument represents the MongoDB schema for a story review. The _id is
// the composite "{userId}_{storyId}" key, so a user keeps at most one review
// per story.
type ReviewDocument struct {
	ID          string    `bson:"_id"`
	StoryID     string    `bson:"storyid"`
	StoryTitle  string    `bson:"storytitle"`
	AuthorID    string    `bson:"authorid"`
	AuthorName  string    `bson:"authorname"`
	AuthorPhoto string    `bson:"authorphoto,omitempty"`
	Rating      int       `bson:"rating"`
	Comment     string    `bson:"comment"`
	Timestamp   time.Time `bson:"timestamp"`
	LikeCount   int       `bson:"likecount"`
	LikedBy     []string  `bson:"likedby"`
}

func reviewToDocument(review *models.Review) *ReviewDocument {
	likedBy := review.LikedBy
	if likedBy == nil {
		likedBy = []string{}
	}
	return &ReviewDocument{
		ID:          review.ID,
		StoryID:     review.StoryID,
		StoryTitle:  review.StoryTitle,
		AuthorID:    review.AuthorID.String(),
		AuthorName:  review.AuthorName,
		AuthorPhoto: review.AuthorPhoto,
		Rating:      review.Rating,
		Comment:     review.Comment,
		Timestamp:   review.Timestamp,
		LikeCount:   review.LikeCount,
		LikedBy:     likedBy,
	}
}

func documentToReview(doc *ReviewDocument) (*models.Review, error) {
	authorID, err := uuid.Parse(doc.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("invalid review author ID: %v", err)
	}

	return &models.Review{
		ID:          doc.ID,
		StoryID:     doc.StoryID,
		StoryTitle:  doc.StoryTitle,
		AuthorID:    authorID,
		AuthorName:  doc.AuthorName,
		AuthorPhoto: doc.AuthorPhoto,
		Rating:      doc.Rating,
		Comment:     doc.Comment,
		Timestamp:   doc.Timestamp,
		LikeCount:   doc.LikeCount,
		LikedBy:     doc.LikedBy,
	}, nil
}

// SaveReview upserts a review under its composite id. Resubmitting replaces
// the earlier review for the same (user, story) pair.
func (m *MongoDB) SaveReview(ctx context.Context, review *models.Review) error {
	if review.Rating < 1 || review.Rating > 5 {
		return utils.NewInvalidRatingError(review.Rating)
	}

	doc := reviewToDocument(review)

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"_id": review.ID}
	update := bson.M{"$set": doc}

	if _, err := m.Reviews.UpdateOne(ctx, filter, update, opts); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "Failed to save review", err)
	}
	return nil
}

// GetStoryReviews retrieves all reviews for a story, newest first.
func (m *MongoDB) GetStoryReviews(ctx context.Context, storyID string) ([]*models.Review, error) {
	return m.findReviews(ctx, bson.M{"storyid": storyID})
}

// GetUserReviews retrieves all reviews written by a user, newest first.
func (m *MongoDB) GetUserReviews(ctx context.Context, userID uuid.UUID) ([]*models.Review, error) {
	return m.findReviews(ctx, bson.M{"authorid": userID.String()})
}

func (m *MongoDB) findReviews(ctx context.Context, filter bson.M) ([]*models.Review, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})

	cursor, err := m.Reviews.Find(ctx, filter, opts)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to fetch reviews", err)
	}
	defer cursor.Close(ctx)

	var reviews []*models.Review
	for cursor.Next(ctx) {
		var doc ReviewDocument
		if err := cursor.Decode(&doc); err != nil {
			log.Printf("Error decoding review document: %v", err)
			continue
		}

		review, err := documentToReview(&doc)
		if err != nil {
			log.Printf("Error converting review document: %v", err)
			continue
		}
		reviews = append(reviews, review)
	}

	if err := cursor.Err(); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Review cursor iteration failed", err)
	}

	return reviews, nil
}

// LikeReview adds userID to a review's like set in one conditional update.
func (m *MongoDB) LikeReview(ctx context.Context, reviewID string, userID uuid.UUID) (bool, error) {
	filter := bson.M{
		"_id":     reviewID,
		"likedby": bson.M{"$ne": userID.String()},
	}
	update := bson.M{
		"$addToSet": bson.M{"likedby": userID.String()},
		"$inc":      bson.M{"likecount": 1},
	}

	result, err := m.Reviews.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, utils.NewAppError(utils.ErrDatabase, "Failed to like review", err)
	}
	if result.MatchedCount == 0 {
		return false, m.resolveUnmatchedReviewUpdate(ctx, reviewID)
	}
	return true, nil
}

// UnlikeReview removes userID from a review's like set.
func (m *MongoDB) UnlikeReview(ctx context.Context, reviewID string, userID uuid.UUID) (bool, error) {
	filter := bson.M{
		"_id":     reviewID,
		"likedby": userID.String(),
	}
	update := bson.M{
		"$pull": bson.M{"likedby": userID.String()},
		"$inc":  bson.M{"likecount": -1},
	}

	result, err := m.Reviews.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, utils.NewAppError(utils.ErrDatabase, "Failed to unlike review", err)
	}
	if result.MatchedCount == 0 {
		return false, m.resolveUnmatchedReviewUpdate(ctx, reviewID)
	}
	return true, nil
}

func (m *MongoDB) resolveUnmatchedReviewUpdate(ctx context.Context, reviewID string) error {
	count, err := m.Reviews.CountDocuments(ctx, bson.M{"_id": reviewID})
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "Failed to check review existence", err)
	}
	if count == 0 {
		return utils.NewAppError(utils.ErrNotFound, "Review not found", nil)
	}
	return nil
}
