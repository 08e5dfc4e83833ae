package pubtree

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// SiteConfig holds all configuration for a pubtree site.
type SiteConfig struct {
	Name        string // Site name (default "Blog")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Site description for RSS and meta tags
	Author      string // Author name for JSON-LD
	TimeZone    string // Zone used for displayed dates (default "Europe/Stockholm")

	Addr         string // Listen address (default ":3000")
	DatabasePath string // SQLite path (default "data/site.db")
	StaticDir    string // Static assets and uploads (default "public")
	BodyLimit    string // Max API request body, echo size syntax (default "2M")

	APIKey            string        // Bearer token for /api/create-post
	FailedAuthLimit   int           // Failed API auth attempts per window (default 5)
	FailedAuthWindow  time.Duration // (default 1min)
	ImageFetchTimeout time.Duration // Hero image download timeout (default 15s)
	MaxImageWidth     int           // Hero images are scaled down to this width (default 1600)

	PostsPerPage   int           // Cards per list page (default 6)
	ExcerptWords   int           // Card excerpt word limit (default 80)
	WordsPerMinute int           // Reading speed (default 200)
	PostCacheTTL   time.Duration // Post cache TTL (default 5min)
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Blog"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.TimeZone == "" {
		c.TimeZone = "Europe/Stockholm"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/site.db"
	}
	if c.StaticDir == "" {
		c.StaticDir = "public"
	}
	if c.BodyLimit == "" {
		c.BodyLimit = "2M"
	}
	if c.FailedAuthLimit <= 0 {
		c.FailedAuthLimit = 5
	}
	if c.FailedAuthWindow == 0 {
		c.FailedAuthWindow = time.Minute
	}
	if c.ImageFetchTimeout == 0 {
		c.ImageFetchTimeout = 15 * time.Second
	}
	if c.MaxImageWidth <= 0 {
		c.MaxImageWidth = 1600
	}
	if c.PostsPerPage <= 0 {
		c.PostsPerPage = 6
	}
	if c.ExcerptWords <= 0 {
		c.ExcerptWords = 80
	}
	if c.WordsPerMinute <= 0 {
		c.WordsPerMinute = 200
	}
	if c.PostCacheTTL == 0 {
		c.PostCacheTTL = 5 * time.Minute
	}
}

// fileConfig is the on-disk layout shared by the YAML and TOML loaders.
// Durations are strings ("90s", "5m").
type fileConfig struct {
	Site struct {
		Name        string `yaml:"name" toml:"name"`
		URL         string `yaml:"url" toml:"url"`
		Description string `yaml:"description" toml:"description"`
		Author      string `yaml:"author" toml:"author"`
		TimeZone    string `yaml:"timeZone" toml:"timeZone"`
	} `yaml:"site" toml:"site"`

	Server struct {
		Addr      string `yaml:"addr" toml:"addr"`
		StaticDir string `yaml:"staticDir" toml:"staticDir"`
		BodyLimit string `yaml:"bodyLimit" toml:"bodyLimit"`
	} `yaml:"server" toml:"server"`

	Database struct {
		Path string `yaml:"path" toml:"path"`
	} `yaml:"database" toml:"database"`

	API struct {
		Key               string `yaml:"key" toml:"key"`
		FailedAuthLimit   int    `yaml:"failedAuthLimit" toml:"failedAuthLimit"`
		FailedAuthWindow  string `yaml:"failedAuthWindow" toml:"failedAuthWindow"`
		ImageFetchTimeout string `yaml:"imageFetchTimeout" toml:"imageFetchTimeout"`
		MaxImageWidth     int    `yaml:"maxImageWidth" toml:"maxImageWidth"`
	} `yaml:"api" toml:"api"`

	Content struct {
		PostsPerPage   int    `yaml:"postsPerPage" toml:"postsPerPage"`
		ExcerptWords   int    `yaml:"excerptWords" toml:"excerptWords"`
		WordsPerMinute int    `yaml:"wordsPerMinute" toml:"wordsPerMinute"`
		CacheTTL       string `yaml:"cacheTTL" toml:"cacheTTL"`
	} `yaml:"content" toml:"content"`
}

// LoadConfig reads a YAML or TOML file (chosen by extension), applies
// environment overrides and fills defaults. An empty path skips the file.
func LoadConfig(path string) (SiteConfig, error) {
	var cfg SiteConfig
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("pubtree: read config: %w", err)
		}
		var fc fileConfig
		switch ext := filepath.Ext(path); ext {
		case ".yaml", ".yml":
			if err := yaml.Unmarshal(b, &fc); err != nil {
				return cfg, fmt.Errorf("pubtree: parse yaml: %w", err)
			}
		case ".toml":
			if err := toml.Unmarshal(b, &fc); err != nil {
				return cfg, fmt.Errorf("pubtree: parse toml: %w", err)
			}
		default:
			return cfg, fmt.Errorf("pubtree: unsupported config extension %q", ext)
		}
		if cfg, err = fc.siteConfig(); err != nil {
			return cfg, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	cfg.setDefaults()
	return cfg, nil
}

func (fc fileConfig) siteConfig() (SiteConfig, error) {
	cfg := SiteConfig{
		Name:            fc.Site.Name,
		URL:             fc.Site.URL,
		Description:     fc.Site.Description,
		Author:          fc.Site.Author,
		TimeZone:        fc.Site.TimeZone,
		Addr:            fc.Server.Addr,
		StaticDir:       fc.Server.StaticDir,
		BodyLimit:       fc.Server.BodyLimit,
		DatabasePath:    fc.Database.Path,
		APIKey:          fc.API.Key,
		FailedAuthLimit: fc.API.FailedAuthLimit,
		MaxImageWidth:   fc.API.MaxImageWidth,
		PostsPerPage:    fc.Content.PostsPerPage,
		ExcerptWords:    fc.Content.ExcerptWords,
		WordsPerMinute:  fc.Content.WordsPerMinute,
	}
	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"api.failedAuthWindow", fc.API.FailedAuthWindow, &cfg.FailedAuthWindow},
		{"api.imageFetchTimeout", fc.API.ImageFetchTimeout, &cfg.ImageFetchTimeout},
		{"content.cacheTTL", fc.Content.CacheTTL, &cfg.PostCacheTTL},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return cfg, fmt.Errorf("pubtree: %s: %w", d.name, err)
		}
		*d.dst = v
	}
	return cfg, nil
}

// applyEnv overrides file values with the process environment.
func (c *SiteConfig) applyEnv() error {
	strs := map[string]*string{
		"SITE_NAME":        &c.Name,
		"SITE_URL":         &c.URL,
		"SITE_DESCRIPTION": &c.Description,
		"SITE_AUTHOR":      &c.Author,
		"SITE_TIMEZONE":    &c.TimeZone,
		"ADDR":             &c.Addr,
		"DATABASE_PATH":    &c.DatabasePath,
		"STATIC_DIR":       &c.StaticDir,
		"API_KEY":          &c.APIKey,
	}
	for key, dst := range strs {
		*dst = EnvOr(key, *dst)
	}
	ints := map[string]*int{
		"POSTS_PER_PAGE":   &c.PostsPerPage,
		"EXCERPT_WORDS":    &c.ExcerptWords,
		"WORDS_PER_MINUTE": &c.WordsPerMinute,
	}
	for key, dst := range ints {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("pubtree: %s: %w", key, err)
		}
		*dst = n
	}
	return nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Option configures additional App behavior.
type Option func(*App)

// WithLogger sets the logger used for requests and background work.
func WithLogger(l zerolog.Logger) Option {
	return func(a *App) {
		a.Logger = l
	}
}

// WithHTTPClient sets the client used to download hero images.
func WithHTTPClient(c *http.Client) Option {
	return func(a *App) {
		a.httpClient = c
	}
}

// WithStore uses an already opened store instead of opening DatabasePath.
func WithStore(s *Store) Option {
	return func(a *App) {
		a.Store = s
	}
}

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback runs after the built-in routes are registered.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}
