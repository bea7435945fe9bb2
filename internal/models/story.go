package models

import "time"

// Content-backend (CMS) types. The engine never writes these; stories,
// authors and categories are managed out of band and fetched read-only.

// BlockType enumerates the kinds of content blocks a story body is made of.
type BlockType string

const (
	BlockText       BlockType = "text"
	BlockHeading    BlockType = "heading"
	BlockImage      BlockType = "image"
	BlockCheckpoint BlockType = "checkpoint"
)

// Block is one unit of a story's rich-content body. Key is the stable
// per-block identity used to anchor reading-position restoration.
type Block struct {
	Key        string      `json:"_key"`
	Type       BlockType   `json:"_type"`
	Text       string      `json:"text,omitempty"`
	ImageURL   string      `json:"imageUrl,omitempty"`
	Checkpoint *Checkpoint `json:"checkpoint,omitempty"`
}

// Checkpoint is an inline quiz embedded in a story body.
type Checkpoint struct {
	Title     string               `json:"title"`
	Questions []CheckpointQuestion `json:"questions"`
}

type CheckpointQuestion struct {
	Prompt  string   `json:"prompt"`
	Choices []string `json:"choices"`
	Answer  int      `json:"answer"` // index into Choices
}

// StoryDifficulty is the CEFR-ish reading level of a story.
type StoryDifficulty string

const (
	DifficultyBeginner     StoryDifficulty = "beginner"
	DifficultyIntermediate StoryDifficulty = "intermediate"
	DifficultyAdvanced     StoryDifficulty = "advanced"
)

type Story struct {
	ID             string          `json:"_id"`
	Title          string          `json:"title"`
	Slug           string          `json:"slug"`
	Description    string          `json:"description,omitempty"`
	CoverURL       string          `json:"coverUrl,omitempty"`
	AuthorID       string          `json:"authorId"`
	AuthorName     string          `json:"authorName,omitempty"`
	CategoryIDs    []string        `json:"categoryIds,omitempty"`
	Content        []Block         `json:"content,omitempty"`
	Difficulty     StoryDifficulty `json:"difficulty,omitempty"`
	ReadingTimeMin int             `json:"readingTimeMin,omitempty"`
	IsPremium      bool            `json:"isPremium"`
	IsFeatured     bool            `json:"isFeatured"`
	DailyPickFor   string          `json:"dailyPickFor,omitempty"` // "2006-01-02"
	PublishedAt    time.Time       `json:"publishedAt"`
}

type Author struct {
	ID         string `json:"_id"`
	Name       string `json:"name"`
	Bio        string `json:"bio,omitempty"`
	PhotoURL   string `json:"photoUrl,omitempty"`
	StoryCount int    `json:"storyCount,omitempty"`
}

type Category struct {
	ID         string `json:"_id"`
	Title      string `json:"title"`
	Slug       string `json:"slug"`
	IconURL    string `json:"iconUrl,omitempty"`
	StoryCount int    `json:"storyCount,omitempty"`
}
