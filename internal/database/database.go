// internal/database/database.go
package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoDB struct {
	Client        *mongo.Client
	Users         *mongo.Collection
	Posts         *mongo.Collection
	Replies       *mongo.Collection
	Reviews       *mongo.Collection
	Favorites     *mongo.Collection
	Library       *mongo.Collection
	Friendships   *mongo.Collection
	Follows       *mongo.Collection
	AuthorFollows *mongo.Collection
	Progress      *mongo.Collection
	Notifications *mongo.Collection
	Leaderboard   *mongo.Collection
	ActivityLog   *mongo.Collection
}

func NewMongoDB(uri string, dbName string) (*MongoDB, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %v", err)
	}

	// Ping the database to verify connection
	if err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %v", err)
	}

	log.Println("Successfully connected to MongoDB!")

	db := client.Database(dbName)
	return &MongoDB{
		Client:        client,
		Users:         db.Collection("users"),
		Posts:         db.Collection("posts"),
		Replies:       db.Collection("replies"),
		Reviews:       db.Collection("reviews"),
		Favorites:     db.Collection("favorites"),
		Library:       db.Collection("library"),
		Friendships:   db.Collection("friendships"),
		Follows:       db.Collection("follows"),
		AuthorFollows: db.Collection("author_follows"),
		Progress:      db.Collection("progress"),
		Notifications: db.Collection("notifications"),
		Leaderboard:   db.Collection("leaderboard"),
		ActivityLog:   db.Collection("user_activity_log"),
	}, nil
}

func (m *MongoDB) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}
