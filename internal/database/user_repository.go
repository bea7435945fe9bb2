// internal/database/user_repository.go
package database

import (
	"context"
	"fmt"
	"time"

	"english-tales/internal/models"
	"english-tales/internal/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserDocument represents the MongoDB schema for a user account.
type UserDocument struct {
	ID             string    `bson:"_id"`
	Username       string    `bson:"username"`
	DisplayName    string    `bson:"displayname"`
	Email          string    `bson:"email"`
	HashedPassword string    `bson:"passwordhash"`
	PhotoURL       string    `bson:"photourl,omitempty"`
	Points         int       `bson:"points"`
	CreatedAt      time.Time `bson:"createdat"`
	UpdatedAt      time.Time `bson:"updatedat"`
	LastActive     time.Time `bson:"lastactive"`
}

func userToDocument(user *models.User) *UserDocument {
	return &UserDocument{
		ID:             user.ID.String(),
		Username:       user.Username,
		DisplayName:    user.DisplayName,
		Email:          user.Email,
		HashedPassword: user.HashedPassword,
		PhotoURL:       user.PhotoURL,
		Points:         user.Points,
		CreatedAt:      user.CreatedAt,
		UpdatedAt:      user.UpdatedAt,
		LastActive:     user.LastActive,
	}
}

func documentToUser(doc *UserDocument) (*models.User, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID: %v", err)
	}

	return &models.User{
		ID:             id,
		Username:       doc.Username,
		DisplayName:    doc.DisplayName,
		Email:          doc.Email,
		HashedPassword: doc.HashedPassword,
		PhotoURL:       doc.PhotoURL,
		Points:         doc.Points,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
		LastActive:     doc.LastActive,
	}, nil
}

// GetUser retrieves a user by ID.
func (m *MongoDB) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var doc UserDocument

	err := m.Users.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewUserNotFoundError(id.String())
	}
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to fetch user", err)
	}

	return documentToUser(&doc)
}

// GetUserByEmail retrieves a user by email address.
func (m *MongoDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var doc UserDocument

	err := m.Users.FindOne(ctx, bson.M{"email": email}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewAppError(utils.ErrUserNotFound, "User not found: "+email, err)
	}
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to fetch user", err)
	}

	return documentToUser(&doc)
}

// SaveUser creates or updates a user account.
func (m *MongoDB) SaveUser(ctx context.Context, user *models.User) error {
	doc := userToDocument(user)

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"_id": user.ID.String()}
	update := bson.M{"$set": doc}

	if _, err := m.Users.UpdateOne(ctx, filter, update, opts); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "Failed to save user", err)
	}
	return nil
}

// UpdateUserActivity stamps the user's last-active time.
func (m *MongoDB) UpdateUserActivity(ctx context.Context, id uuid.UUID) error {
	filter := bson.M{"_id": id.String()}
	update := bson.M{"$set": bson.M{"lastactive": time.Now()}}

	result, err := m.Users.UpdateOne(ctx, filter, update)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "Failed to update user activity", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewUserNotFoundError(id.String())
	}
	return nil
}
