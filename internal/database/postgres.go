// internal/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"log"
	"time"

	"english-tales/internal/models"
	"english-tales/internal/utils"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresDB implements DBAdapter on PostgreSQL. Where the Mongo adapter
// leans on composite document ids for uniqueness, this one gets the same
// guarantees from primary keys and UNIQUE constraints, and the toggle
// operations are single conditional statements.
type PostgresDB struct {
	db *sqlx.DB
}

const pgSchema = `
CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	display_name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	photo_url TEXT NOT NULL DEFAULT '',
	points INT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	last_active TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS posts (
	id UUID PRIMARY KEY,
	author_id UUID NOT NULL,
	author_display_name TEXT NOT NULL,
	author_photo TEXT NOT NULL DEFAULT '',
	content TEXT NOT NULL,
	type TEXT NOT NULL,
	metadata JSONB,
	ts TIMESTAMPTZ NOT NULL,
	like_count INT NOT NULL DEFAULT 0,
	liked_by TEXT[] NOT NULL DEFAULT '{}',
	reply_count INT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS replies (
	id UUID PRIMARY KEY,
	post_id UUID NOT NULL REFERENCES posts(id),
	author_id UUID NOT NULL,
	author_display_name TEXT NOT NULL,
	content TEXT NOT NULL,
	ts TIMESTAMPTZ NOT NULL,
	like_count INT NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_replies_post ON replies(post_id);

CREATE TABLE IF NOT EXISTS reviews (
	id TEXT PRIMARY KEY,
	story_id TEXT NOT NULL,
	story_title TEXT NOT NULL,
	author_id UUID NOT NULL,
	author_name TEXT NOT NULL,
	author_photo TEXT NOT NULL DEFAULT '',
	rating INT NOT NULL CHECK (rating BETWEEN 1 AND 5),
	comment TEXT NOT NULL,
	ts TIMESTAMPTZ NOT NULL,
	like_count INT NOT NULL DEFAULT 0,
	liked_by TEXT[] NOT NULL DEFAULT '{}',
	UNIQUE (author_id, story_id)
);
CREATE INDEX IF NOT EXISTS idx_reviews_story ON reviews(story_id);

CREATE TABLE IF NOT EXISTS favorites (
	id TEXT PRIMARY KEY,
	user_id UUID NOT NULL,
	story_id TEXT NOT NULL,
	story_title TEXT NOT NULL,
	cover_url TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	UNIQUE (user_id, story_id)
);

CREATE TABLE IF NOT EXISTS library (
	id TEXT PRIMARY KEY,
	user_id UUID NOT NULL,
	story_id TEXT NOT NULL,
	story_title TEXT NOT NULL,
	cover_url TEXT NOT NULL DEFAULT '',
	added_at TIMESTAMPTZ NOT NULL,
	UNIQUE (user_id, story_id)
);

CREATE TABLE IF NOT EXISTS friendships (
	id TEXT PRIMARY KEY,
	sender_id UUID NOT NULL,
	receiver_id UUID NOT NULL,
	status TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS follows (
	id TEXT PRIMARY KEY,
	follower_id UUID NOT NULL,
	target_id TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	UNIQUE (follower_id, target_id)
);

CREATE TABLE IF NOT EXISTS author_follows (
	id TEXT PRIMARY KEY,
	follower_id UUID NOT NULL,
	target_id TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	UNIQUE (follower_id, target_id)
);

CREATE TABLE IF NOT EXISTS progress (
	id TEXT PRIMARY KEY,
	user_id UUID NOT NULL,
	story_id TEXT NOT NULL,
	percentage DOUBLE PRECISION NOT NULL,
	last_block_key TEXT NOT NULL DEFAULT '',
	page_index INT NOT NULL DEFAULT 0,
	is_completed BOOLEAN NOT NULL DEFAULT FALSE,
	reading_time_ms BIGINT NOT NULL DEFAULT 0,
	quiz_score INT NOT NULL DEFAULT 0,
	quiz_total INT NOT NULL DEFAULT 0,
	updated_at TIMESTAMPTZ NOT NULL,
	UNIQUE (user_id, story_id)
);

CREATE TABLE IF NOT EXISTS notifications (
	id UUID PRIMARY KEY,
	recipient_id UUID NOT NULL,
	actor_id UUID NOT NULL,
	actor_name TEXT NOT NULL,
	kind TEXT NOT NULL,
	ref_id TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	is_read BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications(recipient_id, created_at DESC);

CREATE TABLE IF NOT EXISTS user_activity_log (
	id TEXT PRIMARY KEY,
	user_id UUID NOT NULL,
	story_id TEXT NOT NULL,
	type TEXT NOT NULL,
	points INT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS leaderboard (
	user_id UUID PRIMARY KEY,
	display_name TEXT NOT NULL,
	photo_url TEXT NOT NULL DEFAULT '',
	points INT NOT NULL DEFAULT 0,
	stories_completed INT NOT NULL DEFAULT 0,
	updated_at TIMESTAMPTZ NOT NULL
);
`

// NewPostgresDB connects and runs the idempotent schema setup.
func NewPostgresDB(uri string) (*PostgresDB, error) {
	db, err := sqlx.Connect("postgres", uri)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to connect to PostgreSQL", err)
	}

	if _, err := db.Exec(pgSchema); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to create schema", err)
	}

	log.Println("Successfully connected to PostgreSQL!")
	return &PostgresDB{db: db}, nil
}

func (p *PostgresDB) Close(ctx context.Context) error {
	return p.db.Close()
}

func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}

// --- Users ---

func (p *PostgresDB) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := p.db.GetContext(ctx, &user,
		`SELECT id, username, display_name, email, password_hash, photo_url, points, created_at, updated_at, last_active
		 FROM users WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, utils.NewUserNotFoundError(id.String())
	}
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to fetch user", err)
	}
	return &user, nil
}

func (p *PostgresDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := p.db.GetContext(ctx, &user,
		`SELECT id, username, display_name, email, password_hash, photo_url, points, created_at, updated_at, last_active
		 FROM users WHERE email = $1`, email)
	if err == sql.ErrNoRows {
		return nil, utils.NewAppError(utils.ErrUserNotFound, "User not found: "+email, err)
	}
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to fetch user", err)
	}
	return &user, nil
}

func (p *PostgresDB) SaveUser(ctx context.Context, user *models.User) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO users (id, username, display_name, email, password_hash, photo_url, points, created_at, updated_at, last_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			display_name = EXCLUDED.display_name,
			email = EXCLUDED.email,
			password_hash = EXCLUDED.password_hash,
			photo_url = EXCLUDED.photo_url,
			points = EXCLUDED.points,
			updated_at = EXCLUDED.updated_at,
			last_active = EXCLUDED.last_active`,
		user.ID, user.Username, user.DisplayName, user.Email, user.HashedPassword,
		user.PhotoURL, user.Points, user.CreatedAt, user.UpdatedAt, user.LastActive)
	if isUniqueViolation(err) {
		return utils.NewAppError(utils.ErrUserAlreadyExists, "Email or username already registered", err)
	}
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "Failed to save user", err)
	}
	return nil
}

func (p *PostgresDB) UpdateUserActivity(ctx context.Context, id uuid.UUID) error {
	result, err := p.db.ExecContext(ctx,
		`UPDATE users SET last_active = NOW() WHERE id = $1`, id)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "Failed to update user activity", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return utils.NewUserNotFoundError(id.String())
	}
	return nil
}

// --- Community feed ---

type pgPostRow struct {
	ID                uuid.UUID      `db:"id"`
	AuthorID          uuid.UUID      `db:"author_id"`
	AuthorDisplayName string         `db:"author_display_name"`
	AuthorPhoto       string         `db:"author_photo"`
	Content           string         `db:"content"`
	Type              string         `db:"type"`
	Metadata          []byte         `db:"metadata"`
	Timestamp         time.Time      `db:"ts"`
	LikeCount         int            `db:"like_count"`
	LikedBy           pq.StringArray `db:"liked_by"`
	ReplyCount        int            `db:"reply_count"`
}

func (r *pgPostRow) toModel() *models.Post {
	post := &models.Post{
		ID:                r.ID,
		AuthorID:          r.AuthorID,
		AuthorDisplayName: r.AuthorDisplayName,
		AuthorPhoto:       r.AuthorPhoto,
		Content:           r.Content,
		Type:              models.PostType(r.Type),
		Timestamp:         r.Timestamp,
		LikeCount:         r.LikeCount,
		LikedBy:           []string(r.LikedBy),
		ReplyCount:        r.ReplyCount,
	}
	if len(r.Metadata) > 0 {
		post.Metadata = decodeMetadata(r.Metadata)
	}
	return post
}

func (p *PostgresDB) SavePost(ctx context.Context, post *models.Post) error {
	metadata := encodeMetadata(post.Metadata)
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO posts (id, author_id, author_display_name, author_photo, content, type, metadata, ts, like_count, liked_by, reply_count)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			like_count = EXCLUDED.like_count,
			liked_by = EXCLUDED.liked_by,
			reply_count = EXCLUDED.reply_count`,
		post.ID, post.AuthorID, post.AuthorDisplayName, post.AuthorPhoto, post.Content,
		string(post.Type), metadata, post.Timestamp, post.LikeCount,
		pq.StringArray(post.LikedBy), post.ReplyCount)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "Failed to save post", err)
	}
	return nil
}

func (p *PostgresDB) GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	var row pgPostRow
	err := p.db.GetContext(ctx, &row, `SELECT * FROM posts WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, utils.NewAppError(utils.ErrNotFound, "Post not found", err)
	}
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to fetch post", err)
	}
	return row.toModel(), nil
}

func (p *PostgresDB) GetFeedPosts(ctx context.Context, limit int) ([]*models.Post, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []pgPostRow
	err := p.db.SelectContext(ctx, &rows,
		`SELECT * FROM posts ORDER BY ts DESC LIMIT $1`, limit)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to fetch feed", err)
	}

	posts := make([]*models.Post, 0, len(rows))
	for i := range rows {
		posts = append(posts, rows[i].toModel())
	}
	return posts, nil
}

func (p *PostgresDB) LikePost(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	result, err := p.db.ExecContext(ctx,
		`UPDATE posts
		 SET liked_by = array_append(liked_by, $2), like_count = like_count + 1
		 WHERE id = $1 AND NOT ($2 = ANY(liked_by))`,
		postID, userID.String())
	if err != nil {
		return false, utils.NewAppError(utils.ErrDatabase, "Failed to like post", err)
	}
	return p.resolvePostToggle(ctx, postID, result)
}

func (p *PostgresDB) UnlikePost(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	result, err := p.db.ExecContext(ctx,
		`UPDATE posts
		 SET liked_by = array_remove(liked_by, $2), like_count = like_count - 1
		 WHERE id = $1 AND $2 = ANY(liked_by)`,
		postID, userID.String())
	if err != nil {
		return false, utils.NewAppError(utils.ErrDatabase, "Failed to unlike post", err)
	}
	return p.resolvePostToggle(ctx, postID, result)
}

func (p *PostgresDB) resolvePostToggle(ctx context.Context, postID uuid.UUID, result sql.Result) (bool, error) {
	if n, _ := result.RowsAffected(); n > 0 {
		return true, nil
	}
	var exists bool
	if err := p.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM posts WHERE id = $1)`, postID); err != nil {
		return false, utils.NewAppError(utils.ErrDatabase, "Failed to check post existence", err)
	}
	if !exists {
		return false, utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}
	return false, nil
}

func (p *PostgresDB) SaveReply(ctx context.Context, reply *models.Reply) error {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "Failed to begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO replies (id, post_id, author_id, author_display_name, content, ts, like_count)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		reply.ID, reply.PostID, reply.AuthorID, reply.AuthorDisplayName,
		reply.Content, reply.Timestamp, reply.LikeCount)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "Failed to save reply", err)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE posts SET reply_count = reply_count + 1 WHERE id = $1`, reply.PostID)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "Failed to bump reply count", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}

	if err := tx.Commit(); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "Failed to commit reply", err)
	}
	return nil
}

func (p *PostgresDB) GetPostReplies(ctx context.Context, postID uuid.UUID) ([]*models.Reply, error) {
	type replyRow struct {
		ID                uuid.UUID `db:"id"`
		PostID            uuid.UUID `db:"post_id"`
		AuthorID          uuid.UUID `db:"author_id"`
		AuthorDisplayName string    `db:"author_display_name"`
		Content           string    `db:"content"`
		Timestamp         time.Time `db:"ts"`
		LikeCount         int       `db:"like_count"`
	}

	var rows []replyRow
	err := p.db.SelectContext(ctx, &rows,
		`SELECT * FROM replies WHERE post_id = $1 ORDER BY ts ASC`, postID)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to fetch replies", err)
	}

	replies := make([]*models.Reply, 0, len(rows))
	for _, r := range rows {
		replies = append(replies, &models.Reply{
			ID:                r.ID,
			PostID:            r.PostID,
			AuthorID:          r.AuthorID,
			AuthorDisplayName: r.AuthorDisplayName,
			Content:           r.Content,
			Timestamp:         r.Timestamp,
			LikeCount:         r.LikeCount,
		})
	}
	return replies, nil
}

// --- Reviews ---

type pgReviewRow struct {
	ID          string         `db:"id"`
	StoryID     string         `db:"story_id"`
	StoryTitle  string         `db:"story_title"`
	AuthorID    uuid.UUID      `db:"author_id"`
	AuthorName  string         `db:"author_name"`
	AuthorPhoto string         `db:"author_photo"`
	Rating      int            `db:"rating"`
	Comment     string         `db:"comment"`
	Timestamp   time.Time      `db:"ts"`
	LikeCount   int            `db:"like_count"`
	LikedBy     pq.StringArray `db:"liked_by"`
}

func (r *pgReviewRow) toModel() *models.Review {
	return &models.Review{
		ID:          r.ID,
		StoryID:     r.StoryID,
		StoryTitle:  r.StoryTitle,
		AuthorID:    r.AuthorID,
		AuthorName:  r.AuthorName,
		AuthorPhoto: r.AuthorPhoto,
		Rating:      r.Rating,
		Comment:     r.Comment,
		Timestamp:   r.Timestamp,
		LikeCount:   r.LikeCount,
		LikedBy:     []string(r.LikedBy),
	}
}

func (p *PostgresDB) SaveReview(ctx context.Context, review *models.Review) error {
	if review.Rating < 1 || review.Rating > 5 {
		return utils.NewInvalidRatingError(review.Rating)
	}

	_, err := p.db.ExecContext(ctx,
		`INSERT INTO reviews (id, story_id, story_title, author_id, author_name, author_photo, rating, comment, ts, like_count, liked_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (author_id, story_id) DO UPDATE SET
			rating = EXCLUDED.rating,
			comment = EXCLUDED.comment,
			ts = EXCLUDED.ts`,
		review.ID, review.StoryID, review.StoryTitle, review.AuthorID, review.AuthorName,
		review.AuthorPhoto, review.Rating, review.Comment, review.Timestamp,
		review.LikeCount, pq.StringArray(review.LikedBy))
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "Failed to save review", err)
	}
	return nil
}

func (p *PostgresDB) GetStoryReviews(ctx context.Context, storyID string) ([]*models.Review, error) {
	return p.findReviews(ctx, `SELECT * FROM reviews WHERE story_id = $1 ORDER BY ts DESC`, storyID)
}

func (p *PostgresDB) GetUserReviews(ctx context.Context, userID uuid.UUID) ([]*models.Review, error) {
	return p.findReviews(ctx, `SELECT * FROM reviews WHERE author_id = $1 ORDER BY ts DESC`, userID)
}

func (p *PostgresDB) findReviews(ctx context.Context, query string, arg interface{}) ([]*models.Review, error) {
	var rows []pgReviewRow
	if err := p.db.SelectContext(ctx, &rows, query, arg); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to fetch reviews", err)
	}

	reviews := make([]*models.Review, 0, len(rows))
	for i := range rows {
		reviews = append(reviews, rows[i].toModel())
	}
	return reviews, nil
}

func (p *PostgresDB) LikeReview(ctx context.Context, reviewID string, userID uuid.UUID) (bool, error) {
	result, err := p.db.ExecContext(ctx,
		`UPDATE reviews
		 SET liked_by = array_append(liked_by, $2), like_count = like_count + 1
		 WHERE id = $1 AND NOT ($2 = ANY(liked_by))`,
		reviewID, userID.String())
	if err != nil {
		return false, utils.NewAppError(utils.ErrDatabase, "Failed to like review", err)
	}
	return p.resolveReviewToggle(ctx, reviewID, result)
}

func (p *PostgresDB) UnlikeReview(ctx context.Context, reviewID string, userID uuid.UUID) (bool, error) {
	result, err := p.db.ExecContext(ctx,
		`UPDATE reviews
		 SET liked_by = array_remove(liked_by, $2), like_count = like_count - 1
		 WHERE id = $1 AND $2 = ANY(liked_by)`,
		reviewID, userID.String())
	if err != nil {
		return false, utils.NewAppError(utils.ErrDatabase, "Failed to unlike review", err)
	}
	return p.resolveReviewToggle(ctx, reviewID, result)
}

func (p *PostgresDB) resolveReviewToggle(ctx context.Context, reviewID string, result sql.Result) (bool, error) {
	if n, _ := result.RowsAffected(); n > 0 {
		return true, nil
	}
	var exists bool
	if err := p.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM reviews WHERE id = $1)`, reviewID); err != nil {
		return false, utils.NewAppError(utils.ErrDatabase, "Failed to check review existence", err)
	}
	if !exists {
		return false, utils.NewAppError(utils.ErrNotFound, "Review not found", nil)
	}
	return false, nil
}

// --- Favorites and library ---

func (p *PostgresDB) SaveFavorite(ctx context.Context, fav *models.Favorite) (bool, error) {
	result, err := p.db.ExecContext(ctx,
		`INSERT INTO favorites (id, user_id, story_id, story_title, cover_url, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id, story_id) DO NOTHING`,
		fav.ID, fav.UserID, fav.StoryID, fav.StoryTitle, fav.CoverURL, fav.CreatedAt)
	if err != nil {
		return false, utils.NewAppError(utils.ErrDatabase, "Failed to save favorite", err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

func (p *PostgresDB) DeleteFavorite(ctx context.Context, userID uuid.UUID, storyID string) (bool, error) {
	result, err := p.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND story_id = $2`, userID, storyID)
	if err != nil {
		return false, utils.NewAppError(utils.ErrDatabase, "Failed to delete favorite", err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

func (p *PostgresDB) GetUserFavorites(ctx context.Context, userID uuid.UUID) ([]*models.Favorite, error) {
	var favorites []*models.Favorite
	err := p.db.SelectContext(ctx, &favorites,
		`SELECT id, user_id, story_id, story_title, cover_url, created_at
		 FROM favorites WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to fetch favorites", err)
	}
	return favorites, nil
}

func (p *PostgresDB) SaveLibraryItem(ctx context.Context, item *models.LibraryItem) (bool, error) {
	result, err := p.db.ExecContext(ctx,
		`INSERT INTO library (id, user_id, story_id, story_title, cover_url, added_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id, story_id) DO NOTHING`,
		item.ID, item.UserID, item.StoryID, item.StoryTitle, item.CoverURL, item.AddedAt)
	if err != nil {
		return false, utils.NewAppError(utils.ErrDatabase, "Failed to save library item", err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

func (p *PostgresDB) DeleteLibraryItem(ctx context.Context, userID uuid.UUID, storyID string) (bool, error) {
	result, err := p.db.ExecContext(ctx,
		`DELETE FROM library WHERE user_id = $1 AND story_id = $2`, userID, storyID)
	if err != nil {
		return false, utils.NewAppError(utils.ErrDatabase, "Failed to delete library item", err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

func (p *PostgresDB) GetUserLibrary(ctx context.Context, userID uuid.UUID) ([]*models.LibraryItem, error) {
	var items []*models.LibraryItem
	err := p.db.SelectContext(ctx, &items,
		`SELECT id, user_id, story_id, story_title, cover_url, added_at
		 FROM library WHERE user_id = $1 ORDER BY added_at DESC`, userID)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to fetch library", err)
	}
	return items, nil
}

// --- Social graph ---

func (p *PostgresDB) GetFriendship(ctx context.Context, id string) (*models.Friendship, error) {
	var friendship models.Friendship
	err := p.db.GetContext(ctx, &friendship,
		`SELECT id, sender_id, receiver_id, status, created_at, updated_at
		 FROM friendships WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, utils.NewAppError(utils.ErrNotFound, "Friendship not found", err)
	}
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to fetch friendship", err)
	}
	friendship.Users = []string{friendship.SenderID.String(), friendship.ReceiverID.String()}
	return &friendship, nil
}

func (p *PostgresDB) SaveFriendship(ctx context.Context, friendship *models.Friendship) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO friendships (id, sender_id, receiver_id, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		friendship.ID, friendship.SenderID, friendship.ReceiverID,
		string(friendship.Status), friendship.CreatedAt, friendship.UpdatedAt)
	if isUniqueViolation(err) {
		return utils.NewRequestPendingError()
	}
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "Failed to save friendship", err)
	}
	return nil
}

func (p *PostgresDB) UpdateFriendshipStatus(ctx context.Context, id string, status models.FriendshipStatus) error {
	result, err := p.db.ExecContext(ctx,
		`UPDATE friendships SET status = $2, updated_at = NOW() WHERE id = $1`, id, string(status))
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "Failed to update friendship", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return utils.NewAppError(utils.ErrNotFound, "Friendship not found", nil)
	}
	return nil
}

func (p *PostgresDB) DeleteFriendship(ctx context.Context, id string) error {
	result, err := p.db.ExecContext(ctx, `DELETE FROM friendships WHERE id = $1`, id)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "Failed to delete friendship", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return utils.NewAppError(utils.ErrNotFound, "Friendship not found", nil)
	}
	return nil
}

func (p *PostgresDB) GetUserFriendships(ctx context.Context, userID uuid.UUID, status models.FriendshipStatus) ([]*models.Friendship, error) {
	query := `SELECT id, sender_id, receiver_id, status, created_at, updated_at
		 FROM friendships WHERE (sender_id = $1 OR receiver_id = $1)`
	args := []interface{}{userID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, string(status))
	}
	query += ` ORDER BY updated_at DESC`

	var friendships []*models.Friendship
	if err := p.db.SelectContext(ctx, &friendships, query, args...); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to fetch friendships", err)
	}
	for _, f := range friendships {
		f.Users = []string{f.SenderID.String(), f.ReceiverID.String()}
	}
	return friendships, nil
}

func followTable(author bool) string {
	if author {
		return "author_follows"
	}
	return "follows"
}

func (p *PostgresDB) SaveFollow(ctx context.Context, follow *models.Follow, author bool) (bool, error) {
	result, err := p.db.ExecContext(ctx,
		`INSERT INTO `+followTable(author)+` (id, follower_id, target_id, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (follower_id, target_id) DO NOTHING`,
		follow.ID, follow.FollowerID, follow.TargetID, follow.CreatedAt)
	if err != nil {
		return false, utils.NewAppError(utils.ErrDatabase, "Failed to save follow", err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

func (p *PostgresDB) DeleteFollow(ctx context.Context, followerID uuid.UUID, targetID string, author bool) (bool, error) {
	result, err := p.db.ExecContext(ctx,
		`DELETE FROM `+followTable(author)+` WHERE follower_id = $1 AND target_id = $2`,
		followerID, targetID)
	if err != nil {
		return false, utils.NewAppError(utils.ErrDatabase, "Failed to delete follow", err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

func (p *PostgresDB) GetFollowing(ctx context.Context, followerID uuid.UUID, author bool) ([]*models.Follow, error) {
	var follows []*models.Follow
	err := p.db.SelectContext(ctx, &follows,
		`SELECT id, follower_id, target_id, created_at FROM `+followTable(author)+`
		 WHERE follower_id = $1 ORDER BY created_at DESC`, followerID)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to fetch follows", err)
	}
	return follows, nil
}

func (p *PostgresDB) GetFollowers(ctx context.Context, targetID string) ([]*models.Follow, error) {
	var follows []*models.Follow
	err := p.db.SelectContext(ctx, &follows,
		`SELECT id, follower_id, target_id, created_at FROM follows
		 WHERE target_id = $1 ORDER BY created_at DESC`, targetID)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to fetch followers", err)
	}
	return follows, nil
}

// --- Reading progress ---

func (p *PostgresDB) SaveProgress(ctx context.Context, progress *models.ReadingProgress) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO progress (id, user_id, story_id, percentage, last_block_key, page_index, is_completed, reading_time_ms, quiz_score, quiz_total, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (user_id, story_id) DO UPDATE SET
			percentage = EXCLUDED.percentage,
			last_block_key = EXCLUDED.last_block_key,
			page_index = EXCLUDED.page_index,
			is_completed = EXCLUDED.is_completed,
			reading_time_ms = EXCLUDED.reading_time_ms,
			quiz_score = EXCLUDED.quiz_score,
			quiz_total = EXCLUDED.quiz_total,
			updated_at = EXCLUDED.updated_at`,
		progress.ID, progress.UserID, progress.StoryID, progress.Percentage,
		progress.LastBlockKey, progress.PageIndex, progress.IsCompleted,
		progress.ReadingTimeMs, progress.QuizScore, progress.QuizTotal, progress.UpdatedAt)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "Failed to save progress", err)
	}
	return nil
}

func (p *PostgresDB) GetProgress(ctx context.Context, userID uuid.UUID, storyID string) (*models.ReadingProgress, error) {
	var progress models.ReadingProgress
	err := p.db.GetContext(ctx, &progress,
		`SELECT id, user_id, story_id, percentage, last_block_key, page_index, is_completed, reading_time_ms, quiz_score, quiz_total, updated_at
		 FROM progress WHERE user_id = $1 AND story_id = $2`, userID, storyID)
	if err == sql.ErrNoRows {
		return nil, utils.NewAppError(utils.ErrNotFound, "No progress for story", err)
	}
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to fetch progress", err)
	}
	return &progress, nil
}

func (p *PostgresDB) GetUserProgress(ctx context.Context, userID uuid.UUID) ([]*models.ReadingProgress, error) {
	var progressList []*models.ReadingProgress
	err := p.db.SelectContext(ctx, &progressList,
		`SELECT id, user_id, story_id, percentage, last_block_key, page_index, is_completed, reading_time_ms, quiz_score, quiz_total, updated_at
		 FROM progress WHERE user_id = $1 ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to fetch progress list", err)
	}
	return progressList, nil
}

// --- Notifications ---

type pgNotificationRow struct {
	ID          uuid.UUID `db:"id"`
	RecipientID uuid.UUID `db:"recipient_id"`
	ActorID     uuid.UUID `db:"actor_id"`
	ActorName   string    `db:"actor_name"`
	Kind        string    `db:"kind"`
	RefID       string    `db:"ref_id"`
	CreatedAt   time.Time `db:"created_at"`
	IsRead      bool      `db:"is_read"`
}

func (p *PostgresDB) SaveNotification(ctx context.Context, notification *models.Notification) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO notifications (id, recipient_id, actor_id, actor_name, kind, ref_id, created_at, is_read)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		notification.ID, notification.RecipientID, notification.ActorID, notification.ActorName,
		string(notification.Kind), notification.RefID, notification.CreatedAt, notification.IsRead)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "Failed to save notification", err)
	}
	return nil
}

func (p *PostgresDB) GetUserNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []pgNotificationRow
	err := p.db.SelectContext(ctx, &rows,
		`SELECT * FROM notifications WHERE recipient_id = $1 ORDER BY created_at DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to fetch notifications", err)
	}

	notifications := make([]*models.Notification, 0, len(rows))
	for _, r := range rows {
		notifications = append(notifications, &models.Notification{
			ID:          r.ID,
			RecipientID: r.RecipientID,
			ActorID:     r.ActorID,
			ActorName:   r.ActorName,
			Kind:        models.NotificationKind(r.Kind),
			RefID:       r.RefID,
			CreatedAt:   r.CreatedAt,
			IsRead:      r.IsRead,
		})
	}
	return notifications, nil
}

func (p *PostgresDB) MarkNotificationRead(ctx context.Context, id uuid.UUID) error {
	result, err := p.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1`, id)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "Failed to mark notification read", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return utils.NewAppError(utils.ErrNotFound, "Notification not found", nil)
	}
	return nil
}

func (p *PostgresDB) MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) error {
	_, err := p.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE recipient_id = $1 AND is_read = FALSE`, userID)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "Failed to mark notifications read", err)
	}
	return nil
}

// --- Activity log and leaderboard ---

func (p *PostgresDB) RecordActivity(ctx context.Context, entry *models.ActivityLogEntry) (bool, error) {
	result, err := p.db.ExecContext(ctx,
		`INSERT INTO user_activity_log (id, user_id, story_id, type, points, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO NOTHING`,
		entry.ID, entry.UserID, entry.StoryID, string(entry.Type), entry.Points, entry.CreatedAt)
	if err != nil {
		return false, utils.NewAppError(utils.ErrDatabase, "Failed to record activity", err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

func (p *PostgresDB) AddLeaderboardPoints(ctx context.Context, userID uuid.UUID, displayName string, points int, completedDelta int) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO leaderboard (user_id, display_name, points, stories_completed, updated_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 ON CONFLICT (user_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			points = leaderboard.points + EXCLUDED.points,
			stories_completed = leaderboard.stories_completed + EXCLUDED.stories_completed,
			updated_at = NOW()`,
		userID, displayName, points, completedDelta)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "Failed to update leaderboard", err)
	}
	return nil
}

func (p *PostgresDB) GetLeaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	var entries []*models.LeaderboardEntry
	err := p.db.SelectContext(ctx, &entries,
		`SELECT user_id, display_name, photo_url, points, stories_completed, updated_at
		 FROM leaderboard ORDER BY points DESC, updated_at ASC LIMIT $1`, limit)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to fetch leaderboard", err)
	}
	return entries, nil
}
