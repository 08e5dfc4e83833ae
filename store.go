package pubtree

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/eringen/pubtree/doctree"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = sql.ErrNoRows
	// ErrSlugTaken is returned by CreatePost when the slug is already used.
	ErrSlugTaken = errors.New("pubtree: slug already taken")
)

// timeLayout sorts lexically; all stored times are UTC.
const timeLayout = "2006-01-02T15:04:05.000Z"

// Store wraps a SQLite database and provides CRUD operations for site content.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets readers proceed during writes; busy_timeout makes writers wait
	// instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
		PRAGMA foreign_keys=ON;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS posts (
    id TEXT PRIMARY KEY,
    slug TEXT NOT NULL UNIQUE,
    title TEXT NOT NULL,
    content TEXT NOT NULL,
    categories TEXT NOT NULL DEFAULT ',,',
    meta_description TEXT NOT NULL DEFAULT '',
    hero_image TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'published',
    published_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS posts_published_at ON posts (status, published_at);
CREATE TABLE IF NOT EXISTS categories (
    slug TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    hero_content TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS pages (
    slug TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    content TEXT NOT NULL,
    meta_description TEXT NOT NULL DEFAULT '',
    updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS media (
    id TEXT PRIMARY KEY,
    filename TEXT NOT NULL UNIQUE,
    alt TEXT NOT NULL DEFAULT '',
    width INTEGER NOT NULL,
    height INTEGER NOT NULL,
    size INTEGER NOT NULL,
    mime TEXT NOT NULL,
    uploaded_at TEXT NOT NULL
);
`)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

const postColumns = `id, slug, title, content, categories, meta_description, hero_image, status, published_at, updated_at`

func scanPost(row scanner) (Post, error) {
	var p Post
	var content, categories, publishedAt, updatedAt string
	if err := row.Scan(&p.ID, &p.Slug, &p.Title, &content, &categories, &p.MetaDescription,
		&p.HeroImage, &p.Status, &publishedAt, &updatedAt); err != nil {
		return Post{}, err
	}
	root, err := decodeTree(content)
	if err != nil {
		return Post{}, fmt.Errorf("pubtree: post %q: %w", p.Slug, err)
	}
	p.Content = root
	p.Categories = ParseCategories(categories)
	p.PublishedAt = parseTime(publishedAt)
	p.UpdatedAt = parseTime(updatedAt)
	return p, nil
}

func (s *Store) queryPosts(query string, args ...any) ([]Post, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// ListPosts returns all published posts ordered by publish date descending.
// If category is non-empty, results are filtered to posts in that category.
func (s *Store) ListPosts(category string) ([]Post, error) {
	if category == "" {
		return s.queryPosts(`SELECT ` + postColumns + ` FROM posts WHERE status = 'published' ORDER BY published_at DESC`)
	}
	return s.queryPosts(`SELECT `+postColumns+` FROM posts WHERE status = 'published' AND instr(categories, ',' || ? || ',') > 0 ORDER BY published_at DESC`,
		normalizeCategory(category))
}

// ListAllPosts returns every post (published and drafts) ordered by publish date descending.
func (s *Store) ListAllPosts() ([]Post, error) {
	return s.queryPosts(`SELECT ` + postColumns + ` FROM posts ORDER BY published_at DESC`)
}

// GetPost returns a single published post by slug.
func (s *Store) GetPost(slug string) (Post, error) {
	return scanPost(s.db.QueryRow(`SELECT `+postColumns+` FROM posts WHERE slug = ? AND status = 'published'`, slug))
}

// GetPostAny returns a post by slug regardless of status.
func (s *Store) GetPostAny(slug string) (Post, error) {
	return scanPost(s.db.QueryRow(`SELECT `+postColumns+` FROM posts WHERE slug = ?`, slug))
}

// CreatePost inserts a new post and returns it with ID and timestamps
// filled in. It returns ErrSlugTaken if the slug already exists.
func (s *Store) CreatePost(p Post) (Post, error) {
	p = preparePost(p)
	args, err := postArgs(p)
	if err != nil {
		return Post{}, err
	}
	_, err = s.db.Exec(`INSERT INTO posts (`+postColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return Post{}, ErrSlugTaken
		}
		return Post{}, err
	}
	return p, nil
}

// SavePost upserts a post by slug. An existing post keeps its ID.
func (s *Store) SavePost(p Post) error {
	p = preparePost(p)
	args, err := postArgs(p)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT INTO posts (`+postColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(slug) DO UPDATE SET
    title = excluded.title,
    content = excluded.content,
    categories = excluded.categories,
    meta_description = excluded.meta_description,
    hero_image = excluded.hero_image,
    status = excluded.status,
    published_at = excluded.published_at,
    updated_at = excluded.updated_at`, args...)
	return err
}

// DeletePost removes a post by slug.
func (s *Store) DeletePost(slug string) error {
	_, err := s.db.Exec(`DELETE FROM posts WHERE slug = ?`, slug)
	return err
}

func preparePost(p Post) Post {
	now := time.Now().UTC()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = StatusPublished
	}
	if p.PublishedAt.IsZero() {
		p.PublishedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}
	if p.Content == nil {
		p.Content = doctree.Empty()
	}
	return p
}

func postArgs(p Post) ([]any, error) {
	content, err := doctree.Marshal(p.Content)
	if err != nil {
		return nil, fmt.Errorf("pubtree: encode post %q: %w", p.Slug, err)
	}
	return []any{p.ID, p.Slug, p.Title, string(content), JoinCategories(p.Categories),
		p.MetaDescription, p.HeroImage, p.Status, formatTime(p.PublishedAt), formatTime(p.UpdatedAt)}, nil
}

// SaveCategory upserts a category by slug.
func (s *Store) SaveCategory(c Category) error {
	hero, err := encodeTree(c.HeroContent)
	if err != nil {
		return fmt.Errorf("pubtree: encode category %q: %w", c.Slug, err)
	}
	_, err = s.db.Exec(`INSERT OR REPLACE INTO categories (slug, title, hero_content) VALUES (?, ?, ?)`,
		c.Slug, c.Title, hero)
	return err
}

// GetCategory returns a category by slug.
func (s *Store) GetCategory(slug string) (Category, error) {
	return scanCategory(s.db.QueryRow(`SELECT slug, title, hero_content FROM categories WHERE slug = ?`, slug))
}

// ListCategories returns all categories ordered by title.
func (s *Store) ListCategories() ([]Category, error) {
	rows, err := s.db.Query(`SELECT slug, title, hero_content FROM categories ORDER BY title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func scanCategory(row scanner) (Category, error) {
	var c Category
	var hero string
	if err := row.Scan(&c.Slug, &c.Title, &hero); err != nil {
		return Category{}, err
	}
	root, err := decodeTree(hero)
	if err != nil {
		return Category{}, fmt.Errorf("pubtree: category %q: %w", c.Slug, err)
	}
	c.HeroContent = root
	return c, nil
}

// SavePage upserts a page by slug.
func (s *Store) SavePage(p Page) error {
	content, err := encodeTree(p.Content)
	if err != nil {
		return fmt.Errorf("pubtree: encode page %q: %w", p.Slug, err)
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}
	_, err = s.db.Exec(`INSERT OR REPLACE INTO pages (slug, title, content, meta_description, updated_at) VALUES (?, ?, ?, ?, ?)`,
		p.Slug, p.Title, content, p.MetaDescription, formatTime(p.UpdatedAt))
	return err
}

// GetPage returns a page by slug.
func (s *Store) GetPage(slug string) (Page, error) {
	return scanPage(s.db.QueryRow(`SELECT slug, title, content, meta_description, updated_at FROM pages WHERE slug = ?`, slug))
}

// ListPages returns all pages ordered by slug.
func (s *Store) ListPages() ([]Page, error) {
	rows, err := s.db.Query(`SELECT slug, title, content, meta_description, updated_at FROM pages ORDER BY slug`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

func scanPage(row scanner) (Page, error) {
	var p Page
	var content, updatedAt string
	if err := row.Scan(&p.Slug, &p.Title, &content, &p.MetaDescription, &updatedAt); err != nil {
		return Page{}, err
	}
	root, err := decodeTree(content)
	if err != nil {
		return Page{}, fmt.Errorf("pubtree: page %q: %w", p.Slug, err)
	}
	p.Content = root
	p.UpdatedAt = parseTime(updatedAt)
	return p, nil
}

// SaveMedia inserts a media record, assigning an ID when empty.
func (s *Store) SaveMedia(m Media) (Media, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.UploadedAt.IsZero() {
		m.UploadedAt = time.Now()
	}
	_, err := s.db.Exec(`INSERT INTO media (id, filename, alt, width, height, size, mime, uploaded_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Filename, m.Alt, m.Width, m.Height, m.Size, m.MIME, formatTime(m.UploadedAt))
	if err != nil {
		return Media{}, err
	}
	return m, nil
}

const mediaColumns = `id, filename, alt, width, height, size, mime, uploaded_at`

// GetMedia returns a media record by ID.
func (s *Store) GetMedia(id string) (Media, error) {
	return scanMedia(s.db.QueryRow(`SELECT `+mediaColumns+` FROM media WHERE id = ?`, id))
}

// ListMedia returns all media records, newest first.
func (s *Store) ListMedia() ([]Media, error) {
	rows, err := s.db.Query(`SELECT ` + mediaColumns + ` FROM media ORDER BY uploaded_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var media []Media
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, err
		}
		media = append(media, m)
	}
	return media, rows.Err()
}

// MediaFilenameTaken reports whether a media record already uses filename.
func (s *Store) MediaFilenameTaken(filename string) (bool, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM media WHERE filename = ?`, filename).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func scanMedia(row scanner) (Media, error) {
	var m Media
	var uploadedAt string
	if err := row.Scan(&m.ID, &m.Filename, &m.Alt, &m.Width, &m.Height, &m.Size, &m.MIME, &uploadedAt); err != nil {
		return Media{}, err
	}
	m.UploadedAt = parseTime(uploadedAt)
	return m, nil
}

func encodeTree(root *doctree.Root) (string, error) {
	if root == nil {
		root = doctree.Empty()
	}
	b, err := doctree.Marshal(root)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeTree(data string) (*doctree.Root, error) {
	return doctree.Unmarshal([]byte(data))
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// JoinCategories normalizes slugs into the stored ",a,b," form.
func JoinCategories(cats []string) string {
	normalized := make([]string, 0, len(cats))
	for _, c := range cats {
		if c = normalizeCategory(c); c != "" {
			normalized = append(normalized, c)
		}
	}
	return "," + strings.Join(normalized, ",") + ","
}

// ParseCategories splits a comma-delimited category string (e.g. ",bilar,el,") into a slice.
func ParseCategories(s string) []string {
	s = strings.Trim(s, ",")
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func normalizeCategory(c string) string {
	return strings.ToLower(strings.TrimSpace(c))
}
