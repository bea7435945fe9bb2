// internal/database/post_repository.go
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

// PostDocument represents the MongoDB schema for a community post.
type PostDocument struct {
	ID                string            `bson:"_id"`
	AuthorID          string            `bson:"authorid"`
	AuthorDisplayName string            `bson:"authordisplayname"`
	AuthorPhoto       string            `bson:"authorphoto,omitempty"`
	Content           string            `bson:"content"`
	Type              string            `bson:"type"`
	Metadata          map[string]string `bson:"metadata,omitempty"`
	Timestamp         time.Time         `bson:"timestamp"`
	LikeCount         int               `bson:"likecount"`
	LikedBy           []string          `bson:"likedby"`
	ReplyCount        int               `bson:"replycount"`
}

// ReplyDocument represents the MongoDB schema for a post reply.
type ReplyDocument struct {
	ID                string    `bson:"_id"`
	PostID            string    `bson:"postid"`
	AuthorID          string    `bson:"authorid"`
	AuthorDisplayName string    `bson:"authordisplayname"`
	Content           string    `bson:"content"`
	Timestamp         time.Time `bson:"timestamp"`
	LikeCount         int       `bson:"likecount"`
}

func postToDocument(post *models.Post) *PostDocument {
	likedBy := post.LikedBy
	if likedBy == nil {
		likedBy = []string{}
	}
	return &PostDocument{
		ID:                post.ID.String(),
		AuthorID:          post.AuthorID.String(),
		AuthorDisplayName: post.AuthorDisplayName,
		AuthorPhoto:       post.AuthorPhoto,
		Content:           post.Content,
		Type:              string(post.Type),
		Metadata:          post.Metadata,
		Timestamp:         post.Timestamp,
		LikeCount:         post.LikeCount,
		LikedBy:           likedBy,
		ReplyCount:        post.ReplyCount,
	}
}

func documentToPost(doc *PostDocument) (*models.Post, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid post ID: %v", err)
	}

	authorID, err := uuid.Parse(doc.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("invalid author ID: %v", err)
	}

	return &models.Post{
		ID:                id,
		AuthorID:          authorID,
		AuthorDisplayName: doc.AuthorDisplayName,
		AuthorPhoto:       doc.AuthorPhoto,
		Content:           doc.Content,
		Type:              models.PostType(doc.Type),
		Metadata:          doc.Metadata,
		Timestamp:         doc.Timestamp,
		LikeCount:         doc.LikeCount,
		LikedBy:           doc.LikedBy,
		ReplyCount:        doc.ReplyCount,
	}, nil
}

// SavePost creates or updates a post.
func (m *MongoDB) SavePost(ctx context.Context, post *models.Post) error {
	doc := postToDocument(post)

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"_id": post.ID.String()}
	update := bson.M{"$set": doc}

	if _, err := m.Posts.UpdateOne(ctx, filter, update, opts); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "Failed to save post", err)
	}
	return nil
}

// GetPost retrieves a post by its ID.
func (m *MongoDB) GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	var doc PostDocument

	err := m.Posts.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewAppError(utils.ErrNotFound, "Post not found", err)
	}
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to fetch post", err)
	}

	return documentToPost(&doc)
}

// GetFeedPosts retrieves the most recent community posts, newest first.
func (m *MongoDB) GetFeedPosts(ctx context.Context, limit int) ([]*models.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := m.Posts.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to fetch feed", err)
	}
	defer cursor.Close(ctx)

	var posts []*models.Post
	for cursor.Next(ctx) {
		var doc PostDocument
		if err := cursor.Decode(&doc); err != nil {
			log.Printf("Error decoding post document: %v", err)
			continue
		}

		post, err := documentToPost(&doc)
		if err != nil {
			log.Printf("Error converting document to model: %v", err)
			continue
		}
		posts = append(posts, post)
	}

	if err := cursor.Err(); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Feed cursor iteration failed", err)
	}

	return posts, nil
}

// LikePost adds userID to the post's like set and bumps the counter in one
// conditional update. Returns false when the user had already liked the post.
func (m *MongoDB) LikePost(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	filter := bson.M{
		"_id":     postID.String(),
		"likedby": bson.M{"$ne": userID.String()},
	}
	update := bson.M{
		"$addToSet": bson.M{"likedby": userID.String()},
		"$inc":      bson.M{"likecount": 1},
	}

	result, err := m.Posts.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, utils.NewAppError(utils.ErrDatabase, "Failed to like post", err)
	}
	if result.MatchedCount == 0 {
		return false, m.resolveUnmatchedPostUpdate(ctx, postID)
	}
	return true, nil
}

// UnlikePost removes userID from the like set and decrements the counter.
// Returns false when the user had not liked the post.
func (m *MongoDB) UnlikePost(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	filter := bson.M{
		"_id":     postID.String(),
		"likedby": userID.String(),
	}
	update := bson.M{
		"$pull": bson.M{"likedby": userID.String()},
		"$inc":  bson.M{"likecount": -1},
	}

	result, err := m.Posts.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, utils.NewAppError(utils.ErrDatabase, "Failed to unlike post", err)
	}
	if result.MatchedCount == 0 {
		return false, m.resolveUnmatchedPostUpdate(ctx, postID)
	}
	return true, nil
}

// resolveUnmatchedPostUpdate distinguishes "post missing" from "toggle was
// already in the requested state".
func (m *MongoDB) resolveUnmatchedPostUpdate(ctx context.Context, postID uuid.UUID) error {
	count, err := m.Posts.CountDocuments(ctx, bson.M{"_id": postID.String()})
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "Failed to check post existence", err)
	}
	if count == 0 {
		return utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}
	return nil
}

// SaveReply stores a reply and increments the parent post's reply counter in
// the same write path.
func (m *MongoDB) SaveReply(ctx context.Context, reply *models.Reply) error {
	doc := &ReplyDocument{
		ID:                reply.ID.String(),
		PostID:            reply.PostID.String(),
		AuthorID:          reply.AuthorID.String(),
		AuthorDisplayName: reply.AuthorDisplayName,
		Content:           reply.Content,
		Timestamp:         reply.Timestamp,
		LikeCount:         reply.LikeCount,
	}

	if _, err := m.Replies.InsertOne(ctx, doc); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "Failed to save reply", err)
	}

	filter := bson.M{"_id": reply.PostID.String()}
	update := bson.M{"$inc": bson.M{"replycount": 1}}
	result, err := m.Posts.UpdateOne(ctx, filter, update)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "Failed to bump reply count", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}
	return nil
}

// GetPostReplies retrieves all replies for a post, oldest first.
func (m *MongoDB) GetPostReplies(ctx context.Context, postID uuid.UUID) ([]*models.Reply, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})

	cursor, err := m.Replies.Find(ctx, bson.M{"postid": postID.String()}, opts)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to fetch replies", err)
	}
	defer cursor.Close(ctx)

	var replies []*models.Reply
	for cursor.Next(ctx) {
		var doc ReplyDocument
		if err := cursor.Decode(&doc); err != nil {
			log.Printf("Error decoding reply document: %v", err)
			continue
		}

		id, err := uuid.Parse(doc.ID)
		if err != nil {
			continue
		}
		parsedPostID, err := uuid.Parse(doc.PostID)
		if err != nil {
			continue
		}
		authorID, err := uuid.Parse(doc.AuthorID)
		if err != nil {
			continue
		}

		replies = append(replies, &models.Reply{
			ID:                id,
			PostID:            parsedPostID,
			AuthorID:          authorID,
			AuthorDisplayName: doc.AuthorDisplayName,
			Content:           doc.Content,
			Timestamp:         doc.Timestamp,
			LikeCount:         doc.LikeCount,
		})
	}

	if err := cursor.Err(); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Reply cursor iteration failed", err)
	}

	return replies, nil
}
