// Package cms is the read-only client for the story content backend.
// Stories, authors and categories live in a hosted CMS queried over HTTP
// with a GROQ-style query endpoint. All reads go through the QueryCache.
package cms

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"english-tales/internal/config"
	"english-tales/internal/models"
	"english-tales/internal/utils"

	"resty.dev/v3"
)

// Client issues content queries against the CMS query endpoint. It never
// writes; all mutable state belongs to the app database.
type Client struct {
	client  *resty.Client
	baseURL string
}

func NewClient(cfg *config.CMSConfig) *Client {
	client := resty.NewWithTransportSettings(&resty.TransportSettings{
		DialerTimeout:         5 * time.Second,
		DialerKeepAlive:       30 * time.Second,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
	})
	if cfg.Token != "" {
		client.SetAuthToken(cfg.Token)
	}

	return &Client{
		client:  client,
		baseURL: fmt.Sprintf("%s/v2021-10-21/data/query/%s", cfg.BaseURL, cfg.Dataset),
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}

type queryResult struct {
	Result json.RawMessage `json:"result"`
}

// query runs a GROQ query with optional $-parameters and decodes the
// result envelope into out.
func (c *Client) query(ctx context.Context, groq string, params map[string]string, out interface{}) error {
	req := c.client.R().
		WithContext(ctx).
		SetQueryParam("query", groq).
		SetResult(&queryResult{})

	for name, value := range params {
		// parameter values are JSON-encoded per the query API
		encoded, err := json.Marshal(value)
		if err != nil {
			return utils.NewAppError(utils.ErrInvalidInput, "Bad query parameter "+name, err)
		}
		req.SetQueryParam("$"+name, string(encoded))
	}

	res, err := req.Get(c.baseURL)
	if err != nil {
		return utils.NewAppError(utils.ErrContentBackend, "Content backend unreachable", err)
	}
	if res.IsError() {
		return utils.NewAppError(utils.ErrContentBackend,
			fmt.Sprintf("Content backend returned %d", res.StatusCode()), nil)
	}

	raw := res.Result().(*queryResult).Result
	if len(raw) == 0 || string(raw) == "null" {
		return utils.NewAppError(utils.ErrNotFound, "No content matched the query", nil)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return utils.NewAppError(utils.ErrContentBackend, "Malformed content response", err)
	}
	return nil
}

const storyFields = `_id, title, "slug": slug.current, description, difficulty,
	"coverUrl": cover.asset->url, "authorId": author._ref, "authorName": author->name,
	"categoryIds": categories[]._ref, readingTimeMin, isPremium, isFeatured,
	dailyPickFor, publishedAt`

// ListStories returns story summaries (no body blocks) newest first.
func (c *Client) ListStories(ctx context.Context, limit int) ([]*models.Story, error) {
	if limit <= 0 {
		limit = 50
	}
	groq := fmt.Sprintf(`*[_type == "story"] | order(publishedAt desc) [0...%d] {%s}`, limit, storyFields)

	var stories []*models.Story
	if err := c.query(ctx, groq, nil, &stories); err != nil {
		return nil, err
	}
	return stories, nil
}

// GetStoryBySlug returns one story including its content blocks.
func (c *Client) GetStoryBySlug(ctx context.Context, slug string) (*models.Story, error) {
	groq := fmt.Sprintf(`*[_type == "story" && slug.current == $slug][0] {%s, content}`, storyFields)

	var story models.Story
	err := c.query(ctx, groq, map[string]string{"slug": slug}, &story)
	if err != nil {
		if utils.IsErrorCode(err, utils.ErrNotFound) {
			return nil, utils.NewStoryNotFoundError(slug)
		}
		return nil, err
	}
	return &story, nil
}

// GetAuthor returns an author profile with their story count.
func (c *Client) GetAuthor(ctx context.Context, authorID string) (*models.Author, error) {
	groq := `*[_type == "author" && _id == $id][0] {
		_id, name, "photoUrl": photo.asset->url, bio,
		"storyCount": count(*[_type == "story" && author._ref == ^._id])
	}`

	var author models.Author
	if err := c.query(ctx, groq, map[string]string{"id": authorID}, &author); err != nil {
		return nil, err
	}
	return &author, nil
}

// ListCategories returns all categories with story counts.
func (c *Client) ListCategories(ctx context.Context) ([]*models.Category, error) {
	groq := `*[_type == "category"] | order(title asc) {
		_id, title, "slug": slug.current, "iconUrl": icon.asset->url,
		"storyCount": count(*[_type == "story" && references(^._id)])
	}`

	var categories []*models.Category
	if err := c.query(ctx, groq, nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// StoriesByCategory returns story summaries referencing the category.
func (c *Client) StoriesByCategory(ctx context.Context, categoryID string) ([]*models.Story, error) {
	groq := fmt.Sprintf(`*[_type == "story" && references($category)] | order(publishedAt desc) {%s}`, storyFields)

	var stories []*models.Story
	if err := c.query(ctx, groq, map[string]string{"category": categoryID}, &stories); err != nil {
		return nil, err
	}
	return stories, nil
}

// Search matches the term against story titles and descriptions.
// Terms shorter than two characters are rejected before any request
// is made.
func (c *Client) Search(ctx context.Context, term string) ([]*models.Story, error) {
	if len(term) < MinSearchLength {
		return nil, utils.NewAppError(utils.ErrInvalidInput, "Search term too short", nil)
	}
	groq := fmt.Sprintf(`*[_type == "story" && (title match $term || description match $term)]
		| order(publishedAt desc) [0...25] {%s}`, storyFields)

	var stories []*models.Story
	err := c.query(ctx, groq, map[string]string{"term": term + "*"}, &stories)
	if err != nil {
		if utils.IsErrorCode(err, utils.ErrNotFound) {
			return []*models.Story{}, nil
		}
		return nil, err
	}
	return stories, nil
}

// FeaturedStories returns the editorially flagged set.
func (c *Client) FeaturedStories(ctx context.Context) ([]*models.Story, error) {
	groq := fmt.Sprintf(`*[_type == "story" && isFeatured == true] | order(publishedAt desc) {%s}`, storyFields)

	var stories []*models.Story
	if err := c.query(ctx, groq, nil, &stories); err != nil {
		return nil, err
	}
	return stories, nil
}

// DailyPick returns the story scheduled for the given date (YYYY-MM-DD).
func (c *Client) DailyPick(ctx context.Context, date string) (*models.Story, error) {
	groq := fmt.Sprintf(`*[_type == "story" && dailyPickFor == $date][0] {%s}`, storyFields)

	var story models.Story
	if err := c.query(ctx, groq, map[string]string{"date": date}, &story); err != nil {
		return nil, err
	}
	return &story, nil
}
