package pubtree

import (
	"time"

	"github.com/eringen/pubtree/doctree"
)

// Post statuses.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Post is the core content type stored in SQLite and rendered by templates.
type Post struct {
	ID              string
	Title           string
	Slug            string
	Content         *doctree.Root
	Categories      []string // category slugs, first one is primary
	MetaDescription string
	HeroImage       string // media ID, empty when the post has no image
	Status          string
	PublishedAt     time.Time
	UpdatedAt       time.Time
}

// Published reports whether the post is visible on the site.
func (p Post) Published() bool {
	return p.Status == StatusPublished
}

// PrimaryCategory returns the first category slug, or "".
func (p Post) PrimaryCategory() string {
	if len(p.Categories) == 0 {
		return ""
	}
	return p.Categories[0]
}

// Category groups posts and carries its own hero content.
type Category struct {
	Slug        string
	Title       string
	HeroContent *doctree.Root
}

// Page is a standalone content page such as "om-oss".
type Page struct {
	Slug            string
	Title           string
	Content         *doctree.Root
	MetaDescription string
	UpdatedAt       time.Time
}

// Media describes a stored upload under <static>/uploads.
type Media struct {
	ID         string
	Filename   string
	Alt        string
	Width      int
	Height     int
	Size       int
	MIME       string
	UploadedAt time.Time
}

// PostCard is a post prepared for list views. Excerpt is HTML.
type PostCard struct {
	Post        Post
	URL         string
	Excerpt     string
	ReadingTime int
	Date        string
}

// Crumb is one breadcrumb entry.
type Crumb struct {
	Name string
	URL  string
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	SiteName    string
	Title       string
	Description string
	URL         string   // canonical + og:url
	OGType      string   // "website" or "article"
	Image       string   // og:image, absolute
	JSONLD      []string // serialized JSON-LD blocks
}

// HomeData is passed to the home and pagination views.
type HomeData struct {
	Meta       PageMeta
	Cards      []PostCard
	Page       int
	TotalPages int
}

// PostData is passed to the single post view.
type PostData struct {
	Meta        PageMeta
	Post        Post
	Hero        *Media
	ReadingTime int
	DateDisplay string
	Breadcrumbs []Crumb
	Related     []PostCard
}

// CategoryData is passed to the category view.
type CategoryData struct {
	Meta        PageMeta
	Category    Category
	Cards       []PostCard
	Breadcrumbs []Crumb
}

// PageData is passed to the standalone page view.
type PageData struct {
	Meta PageMeta
	Page Page
}
