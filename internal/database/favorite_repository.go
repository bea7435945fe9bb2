// internal/database/favorite_repository.go
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

// FavoriteDocument represents the MongoDB schema for a favorite. The _id is
// "{userId}_{storyId}", which is the uniqueness guarantee.
type FavoriteDocument struct {
	ID         string    `bson:"_id"`
	UserID     string    `bson:"userid"`
	StoryID    string    `bson:"storyid"`
	StoryTitle string    `bson:"storytitle"`
	CoverURL   string    `bson:"coverurl,omitempty"`
	CreatedAt  time.Time `bson:"createdat"`
}

// LibraryDocument represents a story shelved in a user's library.
type LibraryDocument struct {
	ID         string    `bson:"_id"`
	UserID     string    `bson:"userid"`
	StoryID    string    `bson:"storyid"`
	StoryTitle string    `bson:"storytitle"`
	CoverURL   string    `bson:"coverurl,omitempty"`
	AddedAt    time.Time `bson:"addedat"`
}

// SaveFavorite inserts a favorite. Returns false when the story was already a
// favorite (duplicate composite key).
func (m *MongoDB) SaveFavorite(ctx context.Context, fav *models.Favorite) (bool, error) {
	doc := &FavoriteDocument{
		ID:         fav.ID,
		UserID:     fav.UserID.String(),
		StoryID:    fav.StoryID,
		StoryTitle: fav.StoryTitle,
		CoverURL:   fav.CoverURL,
		CreatedAt:  fav.CreatedAt,
	}

	_, err := m.Favorites.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, utils.NewAppError(utils.ErrDatabase, "Failed to save favorite", err)
	}
	return true, nil
}

// DeleteFavorite removes a favorite. Returns false when it did not exist.
func (m *MongoDB) DeleteFavorite(ctx context.Context, userID uuid.UUID, storyID string) (bool, error) {
	result, err := m.Favorites.DeleteOne(ctx, bson.M{"_id": models.FavoriteKey(userID, storyID)})
	if err != nil {
		return false, utils.NewAppError(utils.ErrDatabase, "Failed to delete favorite", err)
	}
	return result.DeletedCount > 0, nil
}

// GetUserFavorites retrieves a user's favorites, newest first.
func (m *MongoDB) GetUserFavorites(ctx context.Context, userID uuid.UUID) ([]*models.Favorite, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdat", Value: -1}})

	cursor, err := m.Favorites.Find(ctx, bson.M{"userid": userID.String()}, opts)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to fetch favorites", err)
	}
	defer cursor.Close(ctx)

	var favorites []*models.Favorite
	for cursor.Next(ctx) {
		var doc FavoriteDocument
		if err := cursor.Decode(&doc); err != nil {
			log.Printf("Error decoding favorite document: %v", err)
			continue
		}

		uid, err := uuid.Parse(doc.UserID)
		if err != nil {
			continue
		}

		favorites = append(favorites, &models.Favorite{
			ID:         doc.ID,
			UserID:     uid,
			StoryID:    doc.StoryID,
			StoryTitle: doc.StoryTitle,
			CoverURL:   doc.CoverURL,
			CreatedAt:  doc.CreatedAt,
		})
	}

	if err := cursor.Err(); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Favorite cursor iteration failed", err)
	}

	return favorites, nil
}

// SaveLibraryItem shelves a story in the user's library. Returns false when it
// was already shelved.
func (m *MongoDB) SaveLibraryItem(ctx context.Context, item *models.LibraryItem) (bool, error) {
	doc := &LibraryDocument{
		ID:         item.ID,
		UserID:     item.UserID.String(),
		StoryID:    item.StoryID,
		StoryTitle: item.StoryTitle,
		CoverURL:   item.CoverURL,
		AddedAt:    item.AddedAt,
	}

	_, err := m.Library.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, utils.NewAppError(utils.ErrDatabase, "Failed to save library item", err)
	}
	return true, nil
}

// DeleteLibraryItem removes a story from the user's library.
func (m *MongoDB) DeleteLibraryItem(ctx context.Context, userID uuid.UUID, storyID string) (bool, error) {
	result, err := m.Library.DeleteOne(ctx, bson.M{"_id": models.FavoriteKey(userID, storyID)})
	if err != nil {
		return false, utils.NewAppError(utils.ErrDatabase, "Failed to delete library item", err)
	}
	return result.DeletedCount > 0, nil
}

// GetUserLibrary retrieves the user's shelf, most recently added first.
func (m *MongoDB) GetUserLibrary(ctx context.Context, userID uuid.UUID) ([]*models.LibraryItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "addedat", Value: -1}})

	cursor, err := m.Library.Find(ctx, bson.M{"userid": userID.String()}, opts)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to fetch library", err)
	}
	defer cursor.Close(ctx)

	var items []*models.LibraryItem
	for cursor.Next(ctx) {
		var doc LibraryDocument
		if err := cursor.Decode(&doc); err != nil {
			log.Printf("Error decoding library document: %v", err)
			continue
		}

		uid, err := uuid.Parse(doc.UserID)
		if err != nil {
			continue
		}

		items = append(items, &models.LibraryItem{
			ID:         doc.ID,
			UserID:     uid,
			StoryID:    doc.StoryID,
			StoryTitle: doc.StoryTitle,
			CoverURL:   doc.CoverURL,
			AddedAt:    doc.AddedAt,
		})
	}

	if err := cursor.Err(); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Library cursor iteration failed", err)
	}

	return items, nil
}
