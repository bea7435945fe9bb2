package handlers

import (
	"net/http"
	"strconv"
	"time"

	"english-tales/internal/reader"
	"english-tales/internal/utils"
)

// HandleStories lists story summaries
func (s *Server) HandleStories() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.Metrics.IncrementRequests()

		query := r.URL.Query()
		if categoryID := query.Get("category"); categoryID != "" {
			stories, err := s.Content.StoriesByCategory(r.Context(), categoryID)
			if err != nil {
				s.respondError(w, err)
				return
			}
			s.respond(w, stories)
			return
		}

		limit, _ := strconv.Atoi(query.Get("limit"))
		stories, err := s.Content.ListStories(r.Context(), limit)
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.respond(w, stories)
	}
}

// HandleStory returns one story with its content blocks
func (s *Server) HandleStory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		slug := r.URL.Query().Get("slug")
		if slug == "" {
			http.Error(w, "slug is required", http.StatusBadRequest)
			return
		}

		story, err := s.Content.GetStoryBySlug(r.Context(), slug)
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.respond(w, story)
	}
}

// HandleSearch runs a story search. Terms shorter than two characters
// come back as a 400 rather than an empty query against the backend.
func (s *Server) HandleSearch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		term := r.URL.Query().Get("q")
		if len(term) < 2 {
			s.respondError(w, utils.NewAppError(utils.ErrQueryNotReady, "Search term must be at least 2 characters", nil))
			return
		}

		stories, err := s.Content.Search(r.Context(), term)
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.respond(w, stories)
	}
}

// HandleCategories lists all categories
func (s *Server) HandleCategories() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := s.Content.ListCategories(r.Context())
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.respond(w, categories)
	}
}

// HandleFeatured lists the editorially featured stories
func (s *Server) HandleFeatured() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stories, err := s.Content.FeaturedStories(r.Context())
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.respond(w, stories)
	}
}

// HandleDailyPick returns today's scheduled story
func (s *Server) HandleDailyPick() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date := r.URL.Query().Get("date")
		if date == "" {
			date = time.Now().Format("2006-01-02")
		}

		story, err := s.Content.DailyPick(r.Context(), date)
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.respond(w, story)
	}
}

// HandleAuthor returns a story author's profile
func (s *Server) HandleAuthor() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authorID := r.URL.Query().Get("id")
		if authorID == "" {
			http.Error(w, "id is required", http.StatusBadRequest)
			return
		}

		author, err := s.Content.GetAuthor(r.Context(), authorID)
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.respond(w, author)
	}
}

// PaginateResponse is a story laid out for a viewport plus the restored
// page index for the caller's saved position.
type PaginateResponse struct {
	Slug         string        `json:"slug"`
	PageCount    int           `json:"pageCount"`
	Pages        []reader.Page `json:"pages"`
	RestoredPage int           `json:"restoredPage"`
}

// HandleStoryPages lays a story out into pages for the given viewport
// and font, and locates the caller's saved position in the new layout.
func (s *Server) HandleStoryPages() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		query := r.URL.Query()
		slug := query.Get("slug")
		if slug == "" {
			http.Error(w, "slug is required", http.StatusBadRequest)
			return
		}

		width, _ := strconv.ParseFloat(query.Get("width"), 64)
		height, _ := strconv.ParseFloat(query.Get("height"), 64)
		fontSize, _ := strconv.ParseFloat(query.Get("fontSize"), 64)
		if width <= 0 || height <= 0 {
			http.Error(w, "width and height are required", http.StatusBadRequest)
			return
		}
		if fontSize <= 0 {
			fontSize = 16
		}

		story, err := s.Content.GetStoryBySlug(r.Context(), slug)
		if err != nil {
			s.respondError(w, err)
			return
		}

		paginator := reader.NewPaginator(
			reader.Viewport{Width: width, Height: height},
			reader.FontSettings{
				FontSize:     fontSize,
				AvgCharWidth: fontSize * 0.55,
				LineHeight:   fontSize * 1.5,
			},
		)
		pages := paginator.BuildPages(story.Content)

		blockKey := query.Get("blockKey")
		percentage, _ := strconv.ParseFloat(query.Get("percentage"), 64)
		restored := reader.FindPageByBlockKey(pages, blockKey, percentage)

		s.respond(w, &PaginateResponse{
			Slug:         slug,
			PageCount:    len(pages),
			Pages:        pages,
			RestoredPage: restored,
		})
	}
}
