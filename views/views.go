// Package views is the default pubtree theme: plain semantic HTML with one
// stylesheet at /public/styles.css. Sites that want their own markup supply
// a different pubtree.ViewFuncs.
package views

import (
	"context"
	"io"
	"net/url"
	"strconv"

	"github.com/a-h/templ"

	"github.com/eringen/pubtree"
	"github.com/eringen/pubtree/richtext"
	"github.com/eringen/pubtree/summary"
)

// Default returns the built-in theme.
func Default() pubtree.ViewFuncs {
	return pubtree.ViewFuncs{
		Home:        Home,
		Post:        Post,
		Category:    Category,
		Page:        Page,
		NotFound:    NotFound,
		ServerError: ServerError,
	}
}

// writer keeps the first write error so markup can be emitted without
// checking every call.
type writer struct {
	ctx context.Context
	w   io.Writer
	err error
}

func (w *writer) raw(s string) {
	if w.err == nil {
		_, w.err = io.WriteString(w.w, s)
	}
}

func (w *writer) text(s string) {
	w.raw(templ.EscapeString(s))
}

func (w *writer) render(c templ.Component) {
	if w.err == nil {
		w.err = c.Render(w.ctx, w.w)
	}
}

func component(fn func(w *writer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{ctx: ctx, w: out}
		fn(w)
		return w.err
	})
}

func layout(meta pubtree.PageMeta, body func(w *writer)) templ.Component {
	return component(func(w *writer) {
		w.raw(`<!DOCTYPE html><html lang="sv"><head><meta charset="utf-8">`)
		w.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		w.raw(`<title>`)
		w.text(meta.Title)
		w.raw(`</title>`)
		if meta.Description != "" {
			w.raw(`<meta name="description" content="`)
			w.text(meta.Description)
			w.raw(`">`)
			w.raw(`<meta property="og:description" content="`)
			w.text(meta.Description)
			w.raw(`">`)
		}
		if meta.URL != "" {
			w.raw(`<link rel="canonical" href="`)
			w.text(meta.URL)
			w.raw(`"><meta property="og:url" content="`)
			w.text(meta.URL)
			w.raw(`">`)
		}
		w.raw(`<meta property="og:title" content="`)
		w.text(meta.Title)
		w.raw(`">`)
		if meta.OGType != "" {
			w.raw(`<meta property="og:type" content="`)
			w.text(meta.OGType)
			w.raw(`">`)
		}
		if meta.SiteName != "" {
			w.raw(`<meta property="og:site_name" content="`)
			w.text(meta.SiteName)
			w.raw(`">`)
		}
		if meta.Image != "" {
			w.raw(`<meta property="og:image" content="`)
			w.text(meta.Image)
			w.raw(`">`)
		}
		w.raw(`<link rel="alternate" type="application/rss+xml" href="/feed.xml">`)
		w.raw(`<link rel="stylesheet" href="/public/styles.css">`)
		// JSON-LD is produced by encoding/json, which escapes <, > and &.
		for _, ld := range meta.JSONLD {
			w.raw(`<script type="application/ld+json">`)
			w.raw(ld)
			w.raw(`</script>`)
		}
		w.raw(`</head><body><header class="site-header"><a href="/">`)
		if meta.SiteName != "" {
			w.text(meta.SiteName)
		} else {
			w.text("Start")
		}
		w.raw(`</a></header><main>`)
		body(w)
		w.raw(`</main><footer class="site-footer"><a href="/feed.xml">RSS</a></footer></body></html>`)
	})
}

func cards(w *writer, cards []pubtree.PostCard) {
	w.raw(`<div class="cards">`)
	for _, c := range cards {
		w.raw(`<article class="card"><h2><a href="`)
		w.text(c.URL)
		w.raw(`">`)
		w.text(c.Post.Title)
		w.raw(`</a></h2><p class="meta"><time datetime="`)
		w.text(c.Post.PublishedAt.Format("2006-01-02"))
		w.raw(`">`)
		w.text(c.Date)
		w.raw(`</time> · <span class="reading-time">`)
		w.text(summary.FormatReadingTime(c.ReadingTime))
		w.raw(`</span></p>`)
		// Excerpts are built from rendered, escaped HTML with tags stripped.
		w.raw(`<div class="excerpt">`)
		w.raw(c.Excerpt)
		w.raw(`</div></article>`)
	}
	w.raw(`</div>`)
}

func breadcrumbs(w *writer, crumbs []pubtree.Crumb) {
	if len(crumbs) == 0 {
		return
	}
	w.raw(`<nav class="breadcrumbs" aria-label="Brödsmulor"><ol>`)
	for i, c := range crumbs {
		w.raw(`<li>`)
		if i == len(crumbs)-1 {
			w.raw(`<span aria-current="page">`)
			w.text(c.Name)
			w.raw(`</span>`)
		} else {
			w.raw(`<a href="`)
			w.text(c.URL)
			w.raw(`">`)
			w.text(c.Name)
			w.raw(`</a>`)
		}
		w.raw(`</li>`)
	}
	w.raw(`</ol></nav>`)
}

func pagePath(n int) string {
	if n <= 1 {
		return "/"
	}
	return "/page/" + strconv.Itoa(n) + "/"
}

// Home renders the paginated post list.
func Home(data pubtree.HomeData) templ.Component {
	return layout(data.Meta, func(w *writer) {
		if len(data.Cards) == 0 {
			w.raw(`<p class="empty">Inga inlägg ännu.</p>`)
			return
		}
		cards(w, data.Cards)
		if data.TotalPages <= 1 {
			return
		}
		w.raw(`<nav class="pagination">`)
		if data.Page > 1 {
			w.raw(`<a rel="prev" href="` + pagePath(data.Page-1) + `">Nyare inlägg</a>`)
		}
		w.raw(`<span>Sida ` + strconv.Itoa(data.Page) + ` av ` + strconv.Itoa(data.TotalPages) + `</span>`)
		if data.Page < data.TotalPages {
			w.raw(`<a rel="next" href="` + pagePath(data.Page+1) + `">Äldre inlägg</a>`)
		}
		w.raw(`</nav>`)
	})
}

// Post renders a single article.
func Post(data pubtree.PostData) templ.Component {
	return layout(data.Meta, func(w *writer) {
		breadcrumbs(w, data.Breadcrumbs)
		w.raw(`<article class="post"><header><h1>`)
		w.text(data.Post.Title)
		w.raw(`</h1><p class="meta"><time datetime="`)
		w.text(data.Post.PublishedAt.Format("2006-01-02"))
		w.raw(`">`)
		w.text(data.DateDisplay)
		w.raw(`</time> · <span class="reading-time">`)
		w.text(summary.FormatReadingTime(data.ReadingTime) + " läsning")
		w.raw(`</span></p></header>`)
		if data.Hero != nil {
			w.raw(`<figure class="hero"><img src="/public/uploads/`)
			w.text(url.PathEscape(data.Hero.Filename))
			w.raw(`" alt="`)
			w.text(data.Hero.Alt)
			w.raw(`" width="` + strconv.Itoa(data.Hero.Width) + `" height="` + strconv.Itoa(data.Hero.Height) + `"></figure>`)
		}
		w.raw(`<div class="content">`)
		w.render(richtext.RichText(data.Post.Content))
		w.raw(`</div></article>`)
		if len(data.Related) > 0 {
			w.raw(`<section class="related"><h2>Relaterade inlägg</h2>`)
			cards(w, data.Related)
			w.raw(`</section>`)
		}
	})
}

// Category renders a category with its hero content and posts.
func Category(data pubtree.CategoryData) templ.Component {
	return layout(data.Meta, func(w *writer) {
		breadcrumbs(w, data.Breadcrumbs)
		w.raw(`<section class="category"><h1>`)
		w.text(data.Category.Title)
		w.raw(`</h1><div class="hero-content">`)
		w.render(richtext.RichText(data.Category.HeroContent))
		w.raw(`</div>`)
		if len(data.Cards) == 0 {
			w.raw(`<p class="empty">Inga inlägg i den här kategorin.</p>`)
		} else {
			cards(w, data.Cards)
		}
		w.raw(`</section>`)
	})
}

// Page renders a standalone page.
func Page(data pubtree.PageData) templ.Component {
	return layout(data.Meta, func(w *writer) {
		w.raw(`<article class="page"><h1>`)
		w.text(data.Page.Title)
		w.raw(`</h1><div class="content">`)
		w.render(richtext.RichText(data.Page.Content))
		w.raw(`</div></article>`)
	})
}

// NotFound renders the 404 page.
func NotFound() templ.Component {
	return layout(pubtree.PageMeta{Title: "Sidan kunde inte hittas"}, func(w *writer) {
		w.raw(`<section class="error"><h1>404</h1><p>Sidan du letar efter finns inte.</p><p><a href="/">Till startsidan</a></p></section>`)
	})
}

// ServerError renders the 500 page.
func ServerError() templ.Component {
	return layout(pubtree.PageMeta{Title: "Något gick fel"}, func(w *writer) {
		w.raw(`<section class="error"><h1>500</h1><p>Något gick fel. Försök igen om en stund.</p></section>`)
	})
}
