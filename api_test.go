package pubtree

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/pubtree/doctree"
)

func postJSON(a *App, body string, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/create-post", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	return rec
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body["error"]
}

func pngServer(t *testing.T, w, h int) *httptest.Server {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bilder/Röd Bil.png" {
			http.NotFound(rw, r)
			return
		}
		rw.Header().Set("Content-Type", "image/png")
		rw.Write(buf.Bytes())
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCreatePostMethodNotAllowed(t *testing.T) {
	a := newTestApp(t, nil)
	rec := get(a, "/api/create-post")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "Method not allowed. Use POST to create posts.", errorMessage(t, rec))
}

func TestCreatePostAuth(t *testing.T) {
	a := newTestApp(t, nil)
	body := `{"title":"T","body":"B"}`

	tests := []struct {
		name string
		auth string
		code int
		msg  string
	}{
		{"missing header", "", http.StatusUnauthorized, "Missing or invalid authorization header"},
		{"basic scheme", "Basic aGVtbGln", http.StatusUnauthorized, "Missing or invalid authorization header"},
		{"wrong key", "Bearer fel", http.StatusUnauthorized, "Invalid API key"},
	}
	for _, tt := range tests {
		rec := postJSON(a, body, tt.auth)
		assert.Equal(t, tt.code, rec.Code, tt.name)
		assert.Equal(t, tt.msg, errorMessage(t, rec), tt.name)
	}
}

func TestCreatePostWithoutServerKey(t *testing.T) {
	a := newTestApp(t, func(c *SiteConfig) { c.APIKey = "" })
	rec := postJSON(a, `{"title":"T","body":"B"}`, "Bearer anything")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "API key not configured on server", errorMessage(t, rec))
}

func TestCreatePostFailedAuthLimited(t *testing.T) {
	a := newTestApp(t, func(c *SiteConfig) { c.FailedAuthLimit = 2 })
	for i := 0; i < 2; i++ {
		rec := postJSON(a, `{}`, "Bearer fel")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec := postJSON(a, `{"title":"T","body":"B"}`, "Bearer hemlig")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestCreatePostValidation(t *testing.T) {
	a := newTestApp(t, nil)
	tests := []struct {
		body string
		msg  string
	}{
		{`not json`, "Invalid JSON body"},
		{`{"body":"B"}`, "Title is required and must be a string"},
		{`{"title":42,"body":"B"}`, "Title is required and must be a string"},
		{`{"title":"","body":"B"}`, "Title is required and must be a string"},
		{`{"title":"   ","body":"B"}`, "Slug could not be derived from title"},
		{`{"title":"T"}`, "Body is required and must be a string"},
		{`{"title":"T","body":""}`, "Body is required and must be a string"},
		{`{"title":"T","body":["B"]}`, "Body is required and must be a string"},
		{`{"title":"!!!","body":"B"}`, "Slug could not be derived from title"},
	}
	for _, tt := range tests {
		rec := postJSON(a, tt.body, "Bearer hemlig")
		assert.Equal(t, http.StatusBadRequest, rec.Code, tt.body)
		assert.Equal(t, tt.msg, errorMessage(t, rec), tt.body)
	}
}

func TestCreatePost(t *testing.T) {
	a := newTestApp(t, nil)
	body := `{
		"title": "Bästa elbilen 2025",
		"body": "# Inledning\nVi har testat.\nMånga bilar.\n\n## Resultat\nVinnaren är klar.",
		"metaDescription": "Vårt test",
		"categories": ["Elbilar", "elbilar", "Tester"]
	}`
	rec := postJSON(a, body, "Bearer hemlig")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp createPostResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Post.ID)
	assert.Equal(t, "Bästa elbilen 2025", resp.Post.Title)
	assert.Equal(t, "basta-elbilen-2025", resp.Post.Slug)
	assert.Equal(t, StatusPublished, resp.Post.Status)

	post, err := a.Store.GetPost("basta-elbilen-2025")
	require.NoError(t, err)
	assert.Equal(t, resp.Post.ID, post.ID)
	assert.Equal(t, "Vårt test", post.MetaDescription)
	assert.Equal(t, []string{"elbilar", "tester"}, post.Categories)
	assert.Empty(t, post.HeroImage)

	require.Len(t, post.Content.Children, 4)
	h, ok := post.Content.Children[0].(*doctree.Heading)
	require.True(t, ok)
	assert.Equal(t, 1, h.Level)
	p, ok := post.Content.Children[1].(*doctree.Paragraph)
	require.True(t, ok)
	assert.Equal(t, "Vi har testat. Många bilar.", p.Children[0].(*doctree.TextRun).Text)

	cat, err := a.Store.GetCategory("tester")
	require.NoError(t, err)
	assert.Equal(t, "Tester", cat.Title)

	// The cache is invalidated, so the post is served immediately.
	assert.Equal(t, http.StatusOK, get(a, "/basta-elbilen-2025/").Code)
}

func TestCreatePostExplicitSlugAndConflict(t *testing.T) {
	a := newTestApp(t, nil)
	body := `{"title":"Första","body":"Text","slug":"egen-slug"}`
	rec := postJSON(a, body, "Bearer hemlig")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(a, body, "Bearer hemlig")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "A post with this slug already exists", errorMessage(t, rec))
}

func TestCreatePostWhitespaceFields(t *testing.T) {
	a := newTestApp(t, nil)
	rec := postJSON(a, `{"title":"Tom","body":"  \n\t "}`, "Bearer hemlig")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	post, err := a.Store.GetPost("tom")
	require.NoError(t, err)
	require.Len(t, post.Content.Children, 1)
	assert.True(t, post.Content.IsEmpty())

	rec = postJSON(a, `{"title":"   ","body":"Text","slug":"blank-titel"}`, "Bearer hemlig")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	_, err = a.Store.GetPost("blank-titel")
	require.NoError(t, err)
}

// fileServer serves testdata/name at /name.
func fileServer(t *testing.T, name, contentType string) *httptest.Server {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/"+name {
			http.NotFound(rw, r)
			return
		}
		rw.Header().Set("Content-Type", contentType)
		rw.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCreatePostWithWebPHeroImage(t *testing.T) {
	a := newTestApp(t, func(c *SiteConfig) { c.MaxImageWidth = 120 })
	srv := fileServer(t, "hero.webp", "image/webp")

	body, err := json.Marshal(map[string]any{"title": "Webb bild", "body": "Text.", "image": srv.URL + "/hero.webp"})
	require.NoError(t, err)
	rec := postJSON(a, string(body), "Bearer hemlig")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	post, err := a.Store.GetPost("webb-bild")
	require.NoError(t, err)
	require.NotEmpty(t, post.HeroImage)
	m, err := a.Store.GetMedia(post.HeroImage)
	require.NoError(t, err)
	assert.Equal(t, "hero.jpg", m.Filename)
	assert.Equal(t, 120, m.Width)
	assert.Equal(t, 80, m.Height)
	assert.Equal(t, "image/jpeg", m.MIME)
}

func TestCreatePostOversizedImageSkipped(t *testing.T) {
	a := newTestApp(t, nil)
	header := pngHeader(50000, 50000)
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "image/png")
		rw.Write(header)
	}))
	t.Cleanup(srv.Close)

	body, err := json.Marshal(map[string]any{"title": "Jättebild", "body": "Text.", "image": srv.URL + "/stor.png"})
	require.NoError(t, err)
	rec := postJSON(a, string(body), "Bearer hemlig")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	post, err := a.Store.GetPost("jattebild")
	require.NoError(t, err)
	assert.Empty(t, post.HeroImage)
	_, err = os.Stat(filepath.Join(a.Config.StaticDir, uploadsSubdir, "stor.jpg"))
	assert.True(t, os.IsNotExist(err))
}

func TestCreatePostWithHeroImage(t *testing.T) {
	a := newTestApp(t, func(c *SiteConfig) { c.MaxImageWidth = 800 })
	srv := pngServer(t, 1600, 900)

	body, err := json.Marshal(map[string]any{
		"title": "Röd bil",
		"body":  "En röd bil.",
		"image": srv.URL + "/bilder/R%C3%B6d%20Bil.png",
	})
	require.NoError(t, err)
	rec := postJSON(a, string(body), "Bearer hemlig")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	post, err := a.Store.GetPost("rod-bil")
	require.NoError(t, err)
	require.NotEmpty(t, post.HeroImage)

	m, err := a.Store.GetMedia(post.HeroImage)
	require.NoError(t, err)
	assert.Equal(t, "rod-bil.jpg", m.Filename)
	assert.Equal(t, "Röd bil", m.Alt)
	assert.Equal(t, 800, m.Width)
	assert.Equal(t, 450, m.Height)
	assert.Equal(t, "image/jpeg", m.MIME)

	info, err := os.Stat(filepath.Join(a.Config.StaticDir, uploadsSubdir, m.Filename))
	require.NoError(t, err)
	assert.EqualValues(t, m.Size, info.Size())

	// A second upload of the same name gets a numbered filename.
	body, err = json.Marshal(map[string]any{
		"title":    "Röd bil igen",
		"body":     "Samma bild.",
		"image":    srv.URL + "/bilder/R%C3%B6d%20Bil.png",
		"imageAlt": "Samma bil",
	})
	require.NoError(t, err)
	rec = postJSON(a, string(body), "Bearer hemlig")
	require.Equal(t, http.StatusCreated, rec.Code)
	second, err := a.Store.GetPost("rod-bil-igen")
	require.NoError(t, err)
	m2, err := a.Store.GetMedia(second.HeroImage)
	require.NoError(t, err)
	assert.Equal(t, "rod-bil-2.jpg", m2.Filename)
	assert.Equal(t, "Samma bil", m2.Alt)
}

func TestCreatePostImageFailureStillCreates(t *testing.T) {
	a := newTestApp(t, nil)
	srv := pngServer(t, 10, 10)

	for _, image := range []string{srv.URL + "/saknas.png", "ftp://example.se/bild.png"} {
		body, err := json.Marshal(map[string]any{"title": "Utan bild " + image, "body": "Text.", "image": image})
		require.NoError(t, err)
		rec := postJSON(a, string(body), "Bearer hemlig")
		require.Equal(t, http.StatusCreated, rec.Code, image)

		var resp createPostResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		post, err := a.Store.GetPost(resp.Post.Slug)
		require.NoError(t, err)
		assert.Empty(t, post.HeroImage, image)
	}
}

func TestCreatePostBodyLimit(t *testing.T) {
	a := newTestApp(t, func(c *SiteConfig) { c.BodyLimit = "1K" })
	big := `{"title":"Stor","body":"` + strings.Repeat("ord ", 1000) + `"}`
	rec := postJSON(a, big, "Bearer hemlig")
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
