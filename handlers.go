package pubtree

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/pubtree/richtext"
	"github.com/eringen/pubtree/summary"
)

const (
	relatedPostsLimit    = 4
	categoryPostsLimit   = 50
	metaDescriptionWords = 30
)

func postPath(slug string) string {
	return "/" + url.PathEscape(slug) + "/"
}

// mediaURL returns the absolute URL of an uploaded file.
func mediaURL(base string, m Media) string {
	return strings.TrimRight(BuildURL(base), "/") + "/public/" + uploadsSubdir + "/" + url.PathEscape(m.Filename)
}

// card derives the list view of p. Excerpts and reading times are computed
// from the stored tree on every call.
func (a *App) card(p Post) PostCard {
	return PostCard{
		Post:        p,
		URL:         postPath(p.Slug),
		Excerpt:     summary.Excerpt(richtext.HTML(p.Content), a.Config.ExcerptWords),
		ReadingTime: summary.ReadingTime(p.Content, a.Config.WordsPerMinute),
		Date:        FormatSwedishDate(a.inZone(p.PublishedAt)),
	}
}

func (a *App) cards(posts []Post) []PostCard {
	cards := make([]PostCard, 0, len(posts))
	for _, p := range posts {
		cards = append(cards, a.card(p))
	}
	return cards
}

func (a *App) handleHome(c echo.Context) error {
	return a.renderList(c, 1)
}

func (a *App) handlePage(c echo.Context) error {
	n, err := strconv.Atoi(c.Param("n"))
	if err != nil || n < 1 {
		return echo.ErrNotFound
	}
	if n == 1 {
		return c.Redirect(http.StatusMovedPermanently, "/")
	}
	return a.renderList(c, n)
}

func (a *App) renderList(c echo.Context, page int) error {
	posts, err := a.Cache.ListPosts("")
	if err != nil {
		return err
	}
	per := a.Config.PostsPerPage
	total := (len(posts) + per - 1) / per
	if total == 0 {
		total = 1
	}
	if page > total {
		return echo.ErrNotFound
	}
	start := (page - 1) * per
	end := start + per
	if end > len(posts) {
		end = len(posts)
	}

	meta := PageMeta{
		SiteName:    a.Config.Name,
		Title:       a.Config.Name,
		Description: a.Config.Description,
		URL:         BuildURL(a.Config.URL),
		OGType:      "website",
		JSONLD:      []string{WebsiteJSONLD(a.Config)},
	}
	if page > 1 {
		meta.Title = fmt.Sprintf("%s | Sida %d", a.Config.Name, page)
		meta.URL = BuildURL(a.Config.URL, "page", strconv.Itoa(page))
	}
	return Render(c, a.Views.Home(HomeData{
		Meta:       meta,
		Cards:      a.cards(posts[start:end]),
		Page:       page,
		TotalPages: total,
	}))
}

// handleSlug resolves a top-level slug as a post, then a category, then a page.
func (a *App) handleSlug(c echo.Context) error {
	slug := c.Param("slug")

	post, err := a.Cache.GetPost(slug)
	if err == nil {
		return a.renderPost(c, post)
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	cat, err := a.Cache.GetCategory(slug)
	if err == nil {
		return a.renderCategory(c, cat)
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	page, err := a.Store.GetPage(slug)
	if err == nil {
		return a.renderPage(c, page)
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	return echo.ErrNotFound
}

func (a *App) renderPost(c echo.Context, post Post) error {
	cfg := a.Config
	body := richtext.HTML(post.Content)
	words := summary.WordCount(summary.PlainText(post.Content))
	minutes := summary.ReadingTime(post.Content, cfg.WordsPerMinute)

	description := post.MetaDescription
	if description == "" {
		description = summary.ExcerptText(body, metaDescriptionWords)
	}

	var hero *Media
	imageURL := ""
	if post.HeroImage != "" {
		m, err := a.Store.GetMedia(post.HeroImage)
		switch {
		case err == nil:
			hero = &m
			imageURL = mediaURL(cfg.URL, m)
		case errors.Is(err, ErrNotFound):
			a.Logger.Warn().Str("post", post.Slug).Str("media", post.HeroImage).Msg("hero image missing")
		default:
			return err
		}
	}

	crumbs := []Crumb{{Name: "Hem", URL: BuildURL(cfg.URL)}}
	if primary := post.PrimaryCategory(); primary != "" {
		if cat, err := a.Cache.GetCategory(primary); err == nil {
			crumbs = append(crumbs, Crumb{Name: cat.Title, URL: BuildURL(cfg.URL, cat.Slug)})
		}
	}
	crumbs = append(crumbs, Crumb{Name: post.Title, URL: BuildURL(cfg.URL, post.Slug)})

	all, err := a.Cache.ListPosts("")
	if err != nil {
		return err
	}

	return Render(c, a.Views.Post(PostData{
		Meta: PageMeta{
			SiteName:    cfg.Name,
			Title:       post.Title,
			Description: description,
			URL:         BuildURL(cfg.URL, post.Slug),
			OGType:      "article",
			Image:       imageURL,
			JSONLD: []string{
				ArticleJSONLD(cfg, post, description, words, minutes, imageURL),
				BreadcrumbJSONLD(crumbs),
			},
		},
		Post:        post,
		Hero:        hero,
		ReadingTime: minutes,
		DateDisplay: ArticleDateDisplay(a.inZone(post.PublishedAt), a.inZone(post.UpdatedAt)),
		Breadcrumbs: crumbs,
		Related:     a.cards(RelatedPosts(post, all, relatedPostsLimit)),
	}))
}

func (a *App) renderCategory(c echo.Context, cat Category) error {
	cfg := a.Config
	posts, err := a.Cache.ListPosts(cat.Slug)
	if err != nil {
		return err
	}
	if len(posts) > categoryPostsLimit {
		posts = posts[:categoryPostsLimit]
	}
	heroHTML := richtext.HTML(cat.HeroContent)
	crumbs := []Crumb{
		{Name: "Hem", URL: BuildURL(cfg.URL)},
		{Name: cat.Title, URL: BuildURL(cfg.URL, cat.Slug)},
	}
	return Render(c, a.Views.Category(CategoryData{
		Meta: PageMeta{
			SiteName:    cfg.Name,
			Title:       cat.Title,
			Description: summary.ExcerptText(heroHTML, metaDescriptionWords),
			URL:         BuildURL(cfg.URL, cat.Slug),
			OGType:      "website",
			JSONLD: []string{
				CollectionPageJSONLD(cfg, cat, heroHTML, posts),
				BreadcrumbJSONLD(crumbs),
			},
		},
		Category:    cat,
		Cards:       a.cards(posts),
		Breadcrumbs: crumbs,
	}))
}

func (a *App) renderPage(c echo.Context, page Page) error {
	cfg := a.Config
	description := page.MetaDescription
	if description == "" {
		description = summary.ExcerptText(richtext.HTML(page.Content), metaDescriptionWords)
	}
	return Render(c, a.Views.Page(PageData{
		Meta: PageMeta{
			SiteName:    cfg.Name,
			Title:       page.Title,
			Description: description,
			URL:         BuildURL(cfg.URL, page.Slug),
			OGType:      "website",
			JSONLD:      []string{WebsiteJSONLD(cfg)},
		},
		Page: page,
	}))
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.Cache.ListPosts("")
	if err != nil {
		return err
	}
	cats, err := a.Cache.ListCategories()
	if err != nil {
		return err
	}
	pages, err := a.Store.ListPages()
	if err != nil {
		return err
	}
	return a.renderSitemap(c, posts, cats, pages)
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Cache.ListPosts("")
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

func (a *App) handleFavicon(c echo.Context) error {
	return c.File(filepath.Join(a.Config.StaticDir, "favicon.svg"))
}

// handleRobots serves <static>/robots.txt when present, otherwise a default
// that points crawlers at the sitemap and away from the API.
func (a *App) handleRobots(c echo.Context) error {
	path := filepath.Join(a.Config.StaticDir, "robots.txt")
	if _, err := os.Stat(path); err == nil {
		return c.File(path)
	}
	base := strings.TrimRight(BuildURL(a.Config.URL), "/")
	return c.String(http.StatusOK, "User-agent: *\nAllow: /\nDisallow: /api/\n\nSitemap: "+base+"/sitemap.xml\n")
}
