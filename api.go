package pubtree

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/pubtree/doctree"
	"github.com/eringen/pubtree/textdoc"
)

// createPostRequest is the JSON body of POST /api/create-post. Title and
// Body are untyped so a non-string value gets the same message as a missing one.
type createPostRequest struct {
	Title           any      `json:"title"`
	Body            any      `json:"body"`
	Slug            string   `json:"slug"`
	MetaDescription string   `json:"metaDescription"`
	Image           string   `json:"image"`
	ImageAlt        string   `json:"imageAlt"`
	Categories      []string `json:"categories"`
}

type createdPost struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Slug   string `json:"slug"`
	Status string `json:"status"`
}

type createPostResponse struct {
	Success bool        `json:"success"`
	Post    createdPost `json:"post"`
}

// requireAPIKey checks the bearer token against SiteConfig.APIKey.
// Failed attempts count against the client's AuthLimiter budget.
func (a *App) requireAPIKey(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if a.Config.APIKey == "" {
			return apiError(c, http.StatusInternalServerError, "API key not configured on server")
		}
		ip := c.RealIP()
		if !a.authLimiter.Check(ip) {
			return apiError(c, http.StatusTooManyRequests, "Too many failed attempts. Try again later.")
		}
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if !strings.HasPrefix(header, "Bearer ") {
			a.authLimiter.Record(ip)
			return apiError(c, http.StatusUnauthorized, "Missing or invalid authorization header")
		}
		token := strings.TrimPrefix(header, "Bearer ")
		if subtle.ConstantTimeCompare([]byte(token), []byte(a.Config.APIKey)) != 1 {
			a.authLimiter.Record(ip)
			a.Logger.Warn().Str("ip", ip).Msg("invalid API key")
			return apiError(c, http.StatusUnauthorized, "Invalid API key")
		}
		return next(c)
	}
}

func handleCreatePostMethod(c echo.Context) error {
	return apiError(c, http.StatusMethodNotAllowed, "Method not allowed. Use POST to create posts.")
}

func (a *App) handleCreatePost(c echo.Context) error {
	var req createPostRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he
		}
		return apiError(c, http.StatusBadRequest, "Invalid JSON body")
	}

	title, ok := req.Title.(string)
	if !ok || title == "" {
		return apiError(c, http.StatusBadRequest, "Title is required and must be a string")
	}
	body, ok := req.Body.(string)
	if !ok || body == "" {
		return apiError(c, http.StatusBadRequest, "Body is required and must be a string")
	}

	slug := strings.TrimSpace(req.Slug)
	if slug == "" {
		slug = Slugify(title)
	}
	if slug == "" {
		return apiError(c, http.StatusBadRequest, "Slug could not be derived from title")
	}

	categories, err := a.ensureCategories(req.Categories)
	if err != nil {
		return a.createFailed(c, err)
	}

	post := Post{
		Title:           title,
		Slug:            slug,
		Content:         textdoc.Parse(body),
		Categories:      categories,
		MetaDescription: strings.TrimSpace(req.MetaDescription),
		Status:          StatusPublished,
	}

	if req.Image != "" {
		alt := req.ImageAlt
		if alt == "" {
			alt = title
		}
		m, err := a.fetchHeroImage(c.Request().Context(), req.Image, alt)
		if err != nil {
			a.Logger.Warn().Err(err).Str("image", req.Image).Msg("hero image skipped, creating post without it")
		} else {
			post.HeroImage = m.ID
		}
	}

	post, err = a.Store.CreatePost(post)
	if errors.Is(err, ErrSlugTaken) {
		return apiError(c, http.StatusConflict, "A post with this slug already exists")
	}
	if err != nil {
		return a.createFailed(c, err)
	}
	a.Cache.Invalidate()

	a.Logger.Info().
		Str("id", post.ID).
		Str("slug", post.Slug).
		Int("blocks", len(post.Content.Children)).
		Msg("post created")

	return c.JSON(http.StatusCreated, createPostResponse{
		Success: true,
		Post: createdPost{
			ID:     post.ID,
			Title:  post.Title,
			Slug:   post.Slug,
			Status: post.Status,
		},
	})
}

func (a *App) createFailed(c echo.Context, err error) error {
	a.Logger.Error().Err(err).Msg("create post failed")
	return c.JSON(http.StatusInternalServerError, map[string]string{
		"error":   "Failed to create post",
		"message": err.Error(),
	})
}

// ensureCategories slugifies names and creates any category that does not
// exist yet, titled with the name as given.
func (a *App) ensureCategories(names []string) ([]string, error) {
	var slugs []string
	seen := make(map[string]bool)
	for _, name := range names {
		name = strings.TrimSpace(name)
		slug := Slugify(name)
		if slug == "" || seen[slug] {
			continue
		}
		seen[slug] = true
		_, err := a.Store.GetCategory(slug)
		if errors.Is(err, ErrNotFound) {
			err = a.Store.SaveCategory(Category{Slug: slug, Title: name, HeroContent: doctree.Empty()})
		}
		if err != nil {
			return nil, err
		}
		slugs = append(slugs, slug)
	}
	return slugs, nil
}
