// internal/database/notification_repository.go
package database

import (
	"context"
	"log"
	"time"

	"english-tales/internal/models"
	"english-tales/internal/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NotificationDocument represents the MongoDB schema for a notification.
type NotificationDocument struct {
	ID          string    `bson:"_id"`
	RecipientID string    `bson:"recipientid"`
	ActorID     string    `bson:"actorid"`
	ActorName   string    `bson:"actorname"`
	Kind        string    `bson:"kind"`
	RefID       string    `bson:"refid,omitempty"`
	CreatedAt   time.Time `bson:"createdat"`
	IsRead      bool      `bson:"isread"`
}

// SaveNotification stores a notification for later delivery/listing.
func (m *MongoDB) SaveNotification(ctx context.Context, notification *models.Notification) error {
	doc := &NotificationDocument{
		ID:          notification.ID.String(),
		RecipientID: notification.RecipientID.String(),
		ActorID:     notification.ActorID.String(),
		ActorName:   notification.ActorName,
		Kind:        string(notification.Kind),
		RefID:       notification.RefID,
		CreatedAt:   notification.CreatedAt,
		IsRead:      notification.IsRead,
	}

	if _, err := m.Notifications.InsertOne(ctx, doc); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "Failed to save notification", err)
	}
	return nil
}

// GetUserNotifications retrieves a user's notifications, newest first.
func (m *MongoDB) GetUserNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdat", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := m.Notifications.Find(ctx, bson.M{"recipientid": userID.String()}, opts)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to fetch notifications", err)
	}
	defer cursor.Close(ctx)

	var notifications []*models.Notification
	for cursor.Next(ctx) {
		var doc NotificationDocument
		if err := cursor.Decode(&doc); err != nil {
			log.Printf("Error decoding notification document: %v", err)
			continue
		}

		id, err := uuid.Parse(doc.ID)
		if err != nil {
			continue
		}
		recipientID, err := uuid.Parse(doc.RecipientID)
		if err != nil {
			continue
		}
		actorID, err := uuid.Parse(doc.ActorID)
		if err != nil {
			continue
		}

		notifications = append(notifications, &models.Notification{
			ID:          id,
			RecipientID: recipientID,
			ActorID:     actorID,
			ActorName:   doc.ActorName,
			Kind:        models.NotificationKind(doc.Kind),
			RefID:       doc.RefID,
			CreatedAt:   doc.CreatedAt,
			IsRead:      doc.IsRead,
		})
	}

	if err := cursor.Err(); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Notification cursor iteration failed", err)
	}

	return notifications, nil
}

// MarkNotificationRead marks one notification as read.
func (m *MongoDB) MarkNotificationRead(ctx context.Context, id uuid.UUID) error {
	filter := bson.M{"_id": id.String()}
	update := bson.M{"$set": bson.M{"isread": true}}

	result, err := m.Notifications.UpdateOne(ctx, filter, update)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "Failed to mark notification read", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewAppError(utils.ErrNotFound, "Notification not found", nil)
	}
	return nil
}

// MarkAllNotificationsRead marks every unread notification for the user.
func (m *MongoDB) MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) error {
	filter := bson.M{"recipientid": userID.String(), "isread": false}
	update := bson.M{"$set": bson.M{"isread": true}}

	if _, err := m.Notifications.UpdateMany(ctx, filter, update); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "Failed to mark notifications read", err)
	}
	return nil
}
