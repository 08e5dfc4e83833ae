package pubtree

import (
	"sync"
	"time"
)

// PostCache is an in-memory cache of published posts and categories with TTL.
type PostCache struct {
	mu         sync.RWMutex
	posts      []Post
	categories []Category
	fetched    time.Time
	ttl        time.Duration
	store      *Store
}

// NewPostCache creates a PostCache backed by the given Store.
func NewPostCache(s *Store, ttl time.Duration) *PostCache {
	return &PostCache{store: s, ttl: ttl}
}

func (c *PostCache) valid() bool {
	return !c.fetched.IsZero() && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *PostCache) Invalidate() {
	c.mu.Lock()
	c.posts = nil
	c.categories = nil
	c.fetched = time.Time{}
	c.mu.Unlock()
}

func (c *PostCache) load() error {
	if c.valid() {
		return nil
	}
	posts, err := c.store.ListPosts("")
	if err != nil {
		return err
	}
	cats, err := c.store.ListCategories()
	if err != nil {
		return err
	}
	c.posts = posts
	c.categories = cats
	c.fetched = time.Now()
	return nil
}

// ensureLoaded returns cached posts and categories after ensuring the cache
// is fresh. Only a reload takes the write lock.
func (c *PostCache) ensureLoaded() ([]Post, []Category, error) {
	c.mu.RLock()
	if c.valid() {
		posts, cats := c.posts, c.categories
		c.mu.RUnlock()
		return posts, cats, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(); err != nil {
		return nil, nil, err
	}
	return c.posts, c.categories, nil
}

// ListPosts returns published posts newest first, optionally filtered by category slug.
func (c *PostCache) ListPosts(category string) ([]Post, error) {
	posts, _, err := c.ensureLoaded()
	if err != nil {
		return nil, err
	}
	if category == "" {
		return posts, nil
	}
	normalized := normalizeCategory(category)
	var filtered []Post
	for _, p := range posts {
		for _, cat := range p.Categories {
			if normalizeCategory(cat) == normalized {
				filtered = append(filtered, p)
				break
			}
		}
	}
	return filtered, nil
}

// GetPost returns a single published post by slug from the cache.
func (c *PostCache) GetPost(slug string) (Post, error) {
	posts, _, err := c.ensureLoaded()
	if err != nil {
		return Post{}, err
	}
	for _, p := range posts {
		if p.Slug == slug {
			return p, nil
		}
	}
	return Post{}, ErrNotFound
}

// ListCategories returns all categories ordered by title.
func (c *PostCache) ListCategories() ([]Category, error) {
	_, cats, err := c.ensureLoaded()
	return cats, err
}

// GetCategory returns a category by slug from the cache.
func (c *PostCache) GetCategory(slug string) (Category, error) {
	_, cats, err := c.ensureLoaded()
	if err != nil {
		return Category{}, err
	}
	for _, cat := range cats {
		if cat.Slug == slug {
			return cat, nil
		}
	}
	return Category{}, ErrNotFound
}
