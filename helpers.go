package pubtree

import (
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slugify converts a title to a URL-safe slug. Diacritics are folded first,
// so "Bästa elbilen" becomes "basta-elbilen".
func Slugify(s string) string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(fold, s); err == nil {
		s = folded
	}
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	prev := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prev = false
		default:
			if !prev && b.Len() > 0 {
				b.WriteByte('-')
				prev = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// BuildURL joins a base URL with path segments, ensuring a trailing slash.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// RelatedPosts returns up to limit posts sharing current's primary category,
// newest first, excluding current itself.
func RelatedPosts(current Post, posts []Post, limit int) []Post {
	primary := normalizeCategory(current.PrimaryCategory())
	if primary == "" || limit <= 0 {
		return nil
	}
	var related []Post
	for _, p := range posts {
		if p.Slug == current.Slug {
			continue
		}
		for _, c := range p.Categories {
			if normalizeCategory(c) == primary {
				related = append(related, p)
				break
			}
		}
	}
	sort.SliceStable(related, func(i, j int) bool {
		return related[i].PublishedAt.After(related[j].PublishedAt)
	})
	if len(related) > limit {
		related = related[:limit]
	}
	return related
}

// StripHTML returns the text content of an HTML fragment with entities
// decoded and whitespace collapsed.
func StripHTML(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))
	var parts []string
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF, or a read error on a strings.Reader, which cannot happen.
			return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
		case html.TextToken:
			parts = append(parts, string(z.Text()))
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			parts = append(parts, " ")
		}
	}
}

func jsonLD(data map[string]interface{}) string {
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// WebsiteJSONLD returns a JSON-LD string for a WebSite schema using SiteConfig.
func WebsiteJSONLD(cfg SiteConfig) string {
	data := map[string]interface{}{
		"@context":    "https://schema.org",
		"@type":       "WebSite",
		"name":        cfg.Name,
		"url":         BuildURL(cfg.URL),
		"description": cfg.Description,
		"inLanguage":  "sv-SE",
	}
	if cfg.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  cfg.Author,
		}
	}
	return jsonLD(data)
}

// ArticleJSONLD returns a JSON-LD string for an Article schema.
// imageURL may be empty.
func ArticleJSONLD(cfg SiteConfig, post Post, description string, wordCount, minutes int, imageURL string) string {
	postURL := BuildURL(cfg.URL, post.Slug)
	data := map[string]interface{}{
		"@context":      "https://schema.org",
		"@type":         "Article",
		"headline":      post.Title,
		"description":   StripHTML(description),
		"datePublished": post.PublishedAt.Format("2006-01-02T15:04:05Z07:00"),
		"dateModified":  post.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
		"url":           postURL,
		"wordCount":     wordCount,
		"timeRequired":  fmt.Sprintf("PT%dM", minutes),
		"inLanguage":    "sv-SE",
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
	}
	if cfg.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  cfg.Author,
		}
	}
	if cfg.Name != "" {
		data["publisher"] = map[string]string{
			"@type": "Organization",
			"name":  cfg.Name,
		}
	}
	if imageURL != "" {
		data["image"] = imageURL
	}
	if len(post.Categories) > 0 {
		data["articleSection"] = post.PrimaryCategory()
		data["keywords"] = strings.Join(post.Categories, ", ")
	}
	return jsonLD(data)
}

// BreadcrumbJSONLD returns a JSON-LD string for a BreadcrumbList schema.
func BreadcrumbJSONLD(crumbs []Crumb) string {
	items := make([]map[string]interface{}, 0, len(crumbs))
	for i, c := range crumbs {
		items = append(items, map[string]interface{}{
			"@type":    "ListItem",
			"position": i + 1,
			"name":     c.Name,
			"item":     c.URL,
		})
	}
	return jsonLD(map[string]interface{}{
		"@context":        "https://schema.org",
		"@type":           "BreadcrumbList",
		"itemListElement": items,
	})
}

// CollectionPageJSONLD returns a JSON-LD string for a category listing.
// heroHTML is the rendered hero content; its text becomes the description.
func CollectionPageJSONLD(cfg SiteConfig, cat Category, heroHTML string, posts []Post) string {
	parts := make([]map[string]interface{}, 0, len(posts))
	for _, p := range posts {
		parts = append(parts, map[string]interface{}{
			"@type":    "Article",
			"headline": p.Title,
			"url":      BuildURL(cfg.URL, p.Slug),
		})
	}
	data := map[string]interface{}{
		"@context":   "https://schema.org",
		"@type":      "CollectionPage",
		"name":       cat.Title,
		"url":        BuildURL(cfg.URL, cat.Slug),
		"inLanguage": "sv-SE",
		"hasPart":    parts,
	}
	if desc := StripHTML(heroHTML); desc != "" {
		data["description"] = desc
	}
	return jsonLD(data)
}
