package actors

import (
	"context"
	"sync"

	"english-tales/internal/database"
	"english-tales/internal/models"
	"english-tales/internal/utils"

	"github.com/google/uuid"
)

// fakeDB is an in-memory DBAdapter for actor tests. Toggle methods keep
// the same conditional-write semantics as the real adapters: (false, nil)
// when the document is already in the requested state. Individual methods
// can be made to fail by name via failOn.
type fakeDB struct {
	mu sync.Mutex

	users         map[uuid.UUID]*models.User
	posts         map[uuid.UUID]*models.Post
	replies       map[uuid.UUID][]*models.Reply
	reviews       map[string]*models.Review
	favorites     map[string]*models.Favorite
	library       map[string]*models.LibraryItem
	friendships   map[string]*models.Friendship
	follows       map[string]*models.Follow
	authorFollows map[string]*models.Follow
	progress      map[string]*models.ReadingProgress
	notifications map[uuid.UUID]*models.Notification
	activities    map[string]*models.ActivityLogEntry
	leaderboard   map[uuid.UUID]*models.LeaderboardEntry

	failOn map[string]bool
	calls  map[string]int
}

var _ database.DBAdapter = (*fakeDB)(nil)

func newFakeDB() *fakeDB {
	return &fakeDB{
		users:         make(map[uuid.UUID]*models.User),
		posts:         make(map[uuid.UUID]*models.Post),
		replies:       make(map[uuid.UUID][]*models.Reply),
		reviews:       make(map[string]*models.Review),
		favorites:     make(map[string]*models.Favorite),
		library:       make(map[string]*models.LibraryItem),
		friendships:   make(map[string]*models.Friendship),
		follows:       make(map[string]*models.Follow),
		authorFollows: make(map[string]*models.Follow),
		progress:      make(map[string]*models.ReadingProgress),
		notifications: make(map[uuid.UUID]*models.Notification),
		activities:    make(map[string]*models.ActivityLogEntry),
		leaderboard:   make(map[uuid.UUID]*models.LeaderboardEntry),
		failOn:        make(map[string]bool),
		calls:         make(map[string]int),
	}
}

func (f *fakeDB) setFail(method string, fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failOn[method] = fail
}

func (f *fakeDB) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// enter records the call and reports whether it should fail. Callers must
// hold no lock; enter takes and releases it.
func (f *fakeDB) enter(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
	if f.failOn[method] {
		return utils.NewAppError(utils.ErrDatabase, "simulated failure: "+method, nil)
	}
	return nil
}

func (f *fakeDB) Close(ctx context.Context) error { return nil }

func (f *fakeDB) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if err := f.enter("GetUser"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, utils.NewUserNotFoundError(id.String())
	}
	copied := *user
	return &copied, nil
}

func (f *fakeDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := f.enter("GetUserByEmail"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, utils.NewUserNotFoundError(email)
}

func (f *fakeDB) SaveUser(ctx context.Context, user *models.User) error {
	if err := f.enter("SaveUser"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeDB) UpdateUserActivity(ctx context.Context, id uuid.UUID) error {
	return f.enter("UpdateUserActivity")
}

func (f *fakeDB) SavePost(ctx context.Context, post *models.Post) error {
	if err := f.enter("SavePost"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *post
	copied.LikedBy = append([]string(nil), post.LikedBy...)
	f.posts[post.ID] = &copied
	return nil
}

func (f *fakeDB) GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	if err := f.enter("GetPost"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	post, ok := f.posts[id]
	if !ok {
		return nil, utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}
	copied := *post
	copied.LikedBy = append([]string(nil), post.LikedBy...)
	return &copied, nil
}

func (f *fakeDB) GetFeedPosts(ctx context.Context, limit int) ([]*models.Post, error) {
	if err := f.enter("GetFeedPosts"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	posts := make([]*models.Post, 0, len(f.posts))
	for _, post := range f.posts {
		copied := *post
		copied.LikedBy = append([]string(nil), post.LikedBy...)
		posts = append(posts, &copied)
	}
	return posts, nil
}

func (f *fakeDB) LikePost(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	if err := f.enter("LikePost"); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	post, ok := f.posts[postID]
	if !ok {
		return false, utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}
	if post.LikedByUser(userID.String()) {
		return false, nil
	}
	post.LikedBy = append(post.LikedBy, userID.String())
	post.LikeCount++
	return true, nil
}

func (f *fakeDB) UnlikePost(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	if err := f.enter("UnlikePost"); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	post, ok := f.posts[postID]
	if !ok {
		return false, utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}
	if !post.LikedByUser(userID.String()) {
		return false, nil
	}
	filtered := post.LikedBy[:0]
	for _, id := range post.LikedBy {
		if id != userID.String() {
			filtered = append(filtered, id)
		}
	}
	post.LikedBy = filtered
	post.LikeCount--
	return true, nil
}

func (f *fakeDB) SaveReply(ctx context.Context, reply *models.Reply) error {
	if err := f.enter("SaveReply"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *reply
	f.replies[reply.PostID] = append(f.replies[reply.PostID], &copied)
	if post, ok := f.posts[reply.PostID]; ok {
		post.ReplyCount++
	}
	return nil
}

func (f *fakeDB) GetPostReplies(ctx context.Context, postID uuid.UUID) ([]*models.Reply, error) {
	if err := f.enter("GetPostReplies"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*models.Reply(nil), f.replies[postID]...), nil
}

func (f *fakeDB) SaveReview(ctx context.Context, review *models.Review) error {
	if err := f.enter("SaveReview"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *review
	copied.LikedBy = append([]string(nil), review.LikedBy...)
	f.reviews[review.ID] = &copied
	return nil
}

func (f *fakeDB) GetStoryReviews(ctx context.Context, storyID string) ([]*models.Review, error) {
	if err := f.enter("GetStoryReviews"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	reviews := make([]*models.Review, 0)
	for _, review := range f.reviews {
		if review.StoryID == storyID {
			copied := *review
			reviews = append(reviews, &copied)
		}
	}
	return reviews, nil
}

func (f *fakeDB) GetUserReviews(ctx context.Context, userID uuid.UUID) ([]*models.Review, error) {
	if err := f.enter("GetUserReviews"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	reviews := make([]*models.Review, 0)
	for _, review := range f.reviews {
		if review.AuthorID == userID {
			copied := *review
			reviews = append(reviews, &copied)
		}
	}
	return reviews, nil
}

func (f *fakeDB) LikeReview(ctx context.Context, reviewID string, userID uuid.UUID) (bool, error) {
	if err := f.enter("LikeReview"); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	review, ok := f.reviews[reviewID]
	if !ok {
		return false, utils.NewAppError(utils.ErrNotFound, "Review not found", nil)
	}
	if review.LikedByUser(userID.String()) {
		return false, nil
	}
	review.LikedBy = append(review.LikedBy, userID.String())
	review.LikeCount++
	return true, nil
}

func (f *fakeDB) UnlikeReview(ctx context.Context, reviewID string, userID uuid.UUID) (bool, error) {
	if err := f.enter("UnlikeReview"); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	review, ok := f.reviews[reviewID]
	if !ok {
		return false, utils.NewAppError(utils.ErrNotFound, "Review not found", nil)
	}
	if !review.LikedByUser(userID.String()) {
		return false, nil
	}
	filtered := review.LikedBy[:0]
	for _, id := range review.LikedBy {
		if id != userID.String() {
			filtered = append(filtered, id)
		}
	}
	review.LikedBy = filtered
	review.LikeCount--
	return true, nil
}

func (f *fakeDB) SaveFavorite(ctx context.Context, fav *models.Favorite) (bool, error) {
	if err := f.enter("SaveFavorite"); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.favorites[fav.ID]; exists {
		return false, nil
	}
	copied := *fav
	f.favorites[fav.ID] = &copied
	return true, nil
}

func (f *fakeDB) DeleteFavorite(ctx context.Context, userID uuid.UUID, storyID string) (bool, error) {
	if err := f.enter("DeleteFavorite"); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := models.FavoriteKey(userID, storyID)
	if _, exists := f.favorites[key]; !exists {
		return false, nil
	}
	delete(f.favorites, key)
	return true, nil
}

func (f *fakeDB) GetUserFavorites(ctx context.Context, userID uuid.UUID) ([]*models.Favorite, error) {
	if err := f.enter("GetUserFavorites"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	favorites := make([]*models.Favorite, 0)
	for _, fav := range f.favorites {
		if fav.UserID == userID {
			copied := *fav
			favorites = append(favorites, &copied)
		}
	}
	return favorites, nil
}

func (f *fakeDB) SaveLibraryItem(ctx context.Context, item *models.LibraryItem) (bool, error) {
	if err := f.enter("SaveLibraryItem"); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.library[item.ID]; exists {
		return false, nil
	}
	copied := *item
	f.library[item.ID] = &copied
	return true, nil
}

func (f *fakeDB) DeleteLibraryItem(ctx context.Context, userID uuid.UUID, storyID string) (bool, error) {
	if err := f.enter("DeleteLibraryItem"); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := models.FavoriteKey(userID, storyID)
	if _, exists := f.library[key]; !exists {
		return false, nil
	}
	delete(f.library, key)
	return true, nil
}

func (f *fakeDB) GetUserLibrary(ctx context.Context, userID uuid.UUID) ([]*models.LibraryItem, error) {
	if err := f.enter("GetUserLibrary"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	items := make([]*models.LibraryItem, 0)
	for _, item := range f.library {
		if item.UserID == userID {
			copied := *item
			items = append(items, &copied)
		}
	}
	return items, nil
}

func (f *fakeDB) GetFriendship(ctx context.Context, id string) (*models.Friendship, error) {
	if err := f.enter("GetFriendship"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	friendship, ok := f.friendships[id]
	if !ok {
		return nil, utils.NewAppError(utils.ErrNotFound, "Friendship not found", nil)
	}
	copied := *friendship
	return &copied, nil
}

func (f *fakeDB) SaveFriendship(ctx context.Context, friendship *models.Friendship) error {
	if err := f.enter("SaveFriendship"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.friendships[friendship.ID]; exists {
		return utils.NewRequestPendingError()
	}
	copied := *friendship
	copied.Users = append([]string(nil), friendship.Users...)
	f.friendships[friendship.ID] = &copied
	return nil
}

func (f *fakeDB) UpdateFriendshipStatus(ctx context.Context, id string, status models.FriendshipStatus) error {
	if err := f.enter("UpdateFriendshipStatus"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	friendship, ok := f.friendships[id]
	if !ok {
		return utils.NewAppError(utils.ErrNotFound, "Friendship not found", nil)
	}
	friendship.Status = status
	return nil
}

func (f *fakeDB) DeleteFriendship(ctx context.Context, id string) error {
	if err := f.enter("DeleteFriendship"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.friendships, id)
	return nil
}

func (f *fakeDB) GetUserFriendships(ctx context.Context, userID uuid.UUID, status models.FriendshipStatus) ([]*models.Friendship, error) {
	if err := f.enter("GetUserFriendships"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	userKey := userID.String()
	friendships := make([]*models.Friendship, 0)
	for _, friendship := range f.friendships {
		if friendship.SenderID.String() != userKey && friendship.ReceiverID.String() != userKey {
			continue
		}
		if status != "" && friendship.Status != status {
			continue
		}
		copied := *friendship
		friendships = append(friendships, &copied)
	}
	return friendships, nil
}

func (f *fakeDB) followStore(author bool) map[string]*models.Follow {
	if author {
		return f.authorFollows
	}
	return f.follows
}

func (f *fakeDB) SaveFollow(ctx context.Context, follow *models.Follow, author bool) (bool, error) {
	if err := f.enter("SaveFollow"); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	store := f.followStore(author)
	if _, exists := store[follow.ID]; exists {
		return false, nil
	}
	copied := *follow
	store[follow.ID] = &copied
	return true, nil
}

func (f *fakeDB) DeleteFollow(ctx context.Context, followerID uuid.UUID, targetID string, author bool) (bool, error) {
	if err := f.enter("DeleteFollow"); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	store := f.followStore(author)
	key := models.FollowKey(followerID, targetID)
	if _, exists := store[key]; !exists {
		return false, nil
	}
	delete(store, key)
	return true, nil
}

func (f *fakeDB) GetFollowing(ctx context.Context, followerID uuid.UUID, author bool) ([]*models.Follow, error) {
	if err := f.enter("GetFollowing"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	follows := make([]*models.Follow, 0)
	for _, follow := range f.followStore(author) {
		if follow.FollowerID == followerID {
			copied := *follow
			follows = append(follows, &copied)
		}
	}
	return follows, nil
}

func (f *fakeDB) GetFollowers(ctx context.Context, targetID string) ([]*models.Follow, error) {
	if err := f.enter("GetFollowers"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	followers := make([]*models.Follow, 0)
	for _, follow := range f.follows {
		if follow.TargetID == targetID {
			copied := *follow
			followers = append(followers, &copied)
		}
	}
	return followers, nil
}

func (f *fakeDB) SaveProgress(ctx context.Context, progress *models.ReadingProgress) error {
	if err := f.enter("SaveProgress"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *progress
	f.progress[progress.ID] = &copied
	return nil
}

func (f *fakeDB) GetProgress(ctx context.Context, userID uuid.UUID, storyID string) (*models.ReadingProgress, error) {
	if err := f.enter("GetProgress"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	progress, ok := f.progress[models.ProgressKey(userID, storyID)]
	if !ok {
		return nil, utils.NewAppError(utils.ErrNotFound, "No progress for story", nil)
	}
	copied := *progress
	return &copied, nil
}

func (f *fakeDB) GetUserProgress(ctx context.Context, userID uuid.UUID) ([]*models.ReadingProgress, error) {
	if err := f.enter("GetUserProgress"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	list := make([]*models.ReadingProgress, 0)
	for _, progress := range f.progress {
		if progress.UserID == userID {
			copied := *progress
			list = append(list, &copied)
		}
	}
	return list, nil
}

func (f *fakeDB) SaveNotification(ctx context.Context, notification *models.Notification) error {
	if err := f.enter("SaveNotification"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *notification
	f.notifications[notification.ID] = &copied
	return nil
}

func (f *fakeDB) GetUserNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Notification, error) {
	if err := f.enter("GetUserNotifications"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	list := make([]*models.Notification, 0)
	for _, notification := range f.notifications {
		if notification.RecipientID == userID {
			copied := *notification
			list = append(list, &copied)
		}
	}
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (f *fakeDB) MarkNotificationRead(ctx context.Context, id uuid.UUID) error {
	if err := f.enter("MarkNotificationRead"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if notification, ok := f.notifications[id]; ok {
		notification.IsRead = true
	}
	return nil
}

func (f *fakeDB) MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) error {
	if err := f.enter("MarkAllNotificationsRead"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, notification := range f.notifications {
		if notification.RecipientID == userID {
			notification.IsRead = true
		}
	}
	return nil
}

func (f *fakeDB) RecordActivity(ctx context.Context, entry *models.ActivityLogEntry) (bool, error) {
	if err := f.enter("RecordActivity"); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.activities[entry.ID]; exists {
		return false, nil
	}
	copied := *entry
	f.activities[entry.ID] = &copied
	return true, nil
}

func (f *fakeDB) AddLeaderboardPoints(ctx context.Context, userID uuid.UUID, displayName string, points int, completedDelta int) error {
	if err := f.enter("AddLeaderboardPoints"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.leaderboard[userID]
	if !ok {
		entry = &models.LeaderboardEntry{UserID: userID, DisplayName: displayName}
		f.leaderboard[userID] = entry
	}
	entry.Points += points
	entry.StoriesCompleted += completedDelta
	return nil
}

func (f *fakeDB) GetLeaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error) {
	if err := f.enter("GetLeaderboard"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	entries := make([]*models.LeaderboardEntry, 0, len(f.leaderboard))
	for _, entry := range f.leaderboard {
		copied := *entry
		entries = append(entries, &copied)
	}
	return entries, nil
}
