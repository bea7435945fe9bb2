package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ActivityType enumerates the reading milestones recorded to the activity log.
type ActivityType string

const (
	ActivityStoryStarted   ActivityType = "story_started"
	ActivityStoryCompleted ActivityType = "story_completed"
	ActivityQuizPassed     ActivityType = "quiz_passed"
)

// ActivityLogEntry records a reading milestone. The document id embeds user,
// story and activity type, so recording the same milestone twice is a no-op.
type ActivityLogEntry struct {
	ID        string       `json:"id"` // "{userId}_{storyId}_{activityType}"
	UserID    uuid.UUID    `json:"userId"`
	StoryID   string       `json:"storyId"`
	Type      ActivityType `json:"type"`
	Points    int          `json:"points"`
	CreatedAt time.Time    `json:"createdAt"`
}

// ActivityKey builds the idempotent activity-log document id.
func ActivityKey(userID uuid.UUID, storyID string, activity ActivityType) string {
	return fmt.Sprintf("%s_%s_%s", userID.String(), storyID, activity)
}

// LeaderboardEntry is a user's aggregate score row.
type LeaderboardEntry struct {
	UserID           uuid.UUID `json:"userId" db:"user_id"`
	DisplayName      string    `json:"displayName" db:"display_name"`
	PhotoURL         string    `json:"photoUrl,omitempty" db:"photo_url"`
	Points           int       `json:"points" db:"points"`
	StoriesCompleted int       `json:"storiesCompleted" db:"stories_completed"`
	UpdatedAt        time.Time `json:"updatedAt" db:"updated_at"`
}

// Points awarded per activity type.
const (
	PointsStoryStarted   = 5
	PointsStoryCompleted = 25
	PointsQuizPassed     = 15
)

// PointsFor returns the score value of an activity.
func PointsFor(activity ActivityType) int {
	switch activity {
	case ActivityStoryStarted:
		return PointsStoryStarted
	case ActivityStoryCompleted:
		return PointsStoryCompleted
	case ActivityQuizPassed:
		return PointsQuizPassed
	default:
		return 0
	}
}
