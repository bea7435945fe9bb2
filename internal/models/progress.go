package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ReadingProgress tracks where a user is in a story. LastBlockKey anchors
// position restoration to a content block's identity; the percentage is the
// fallback when that block no longer exists after a re-fetch.
type ReadingProgress struct {
	ID            string    `json:"id" db:"id"` // "{userId}_{storyId}"
	UserID        uuid.UUID `json:"userId" db:"user_id"`
	StoryID       string    `json:"storyId" db:"story_id"`
	Percentage    float64   `json:"percentage" db:"percentage"` // 0-100
	LastBlockKey  string    `json:"lastBlockKey" db:"last_block_key"`
	PageIndex     int       `json:"pageIndex" db:"page_index"`
	IsCompleted   bool      `json:"isCompleted" db:"is_completed"`
	ReadingTimeMs int64     `json:"readingTimeMs" db:"reading_time_ms"`
	QuizScore     int       `json:"quizScore" db:"quiz_score"`
	QuizTotal     int       `json:"quizTotal" db:"quiz_total"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

// ProgressKey builds the deterministic progress document id.
func ProgressKey(userID uuid.UUID, storyID string) string {
	return fmt.Sprintf("%s_%s", userID.String(), storyID)
}
