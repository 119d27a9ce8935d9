package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewriabinin/blog/internal/content"
	"github.com/matthewriabinin/blog/internal/fetch"
	"github.com/matthewriabinin/blog/pkg/markdown"
)

const manifest = `
chrome:
  title: Blog
feed:
  author: Someone
  authorURI: https://example.com/someone
posts: [posts/a.md]
pages:
  - {path: /first, post: posts/a.md}
  - {path: /second, post: posts/b.md}
`

var posts = fstest.MapFS{
	"posts/a.md": {Data: []byte("---\ndate: 2020-03-14\n---\n# First post\n\nOpening   line\nof the post.")},
	"posts/b.md": {Data: []byte("---\ntitle: Second\ndescription: Summary\n---\nbody")},
}

func newBuilder(t *testing.T, fsys fstest.MapFS) *Builder {
	t.Helper()
	site, err := content.Load(strings.NewReader(manifest))
	require.NoError(t, err)
	b := New(site, fetch.FSFetcher{FS: fsys}, markdown.New(), nil)
	b.Updated = time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	return b
}

func TestBuild(t *testing.T) {
	xml, err := newBuilder(t, posts).Build(context.Background(), "https://blog.test/")
	require.NoError(t, err)

	out := string(xml)
	assert.Contains(t, out, "First post")
	assert.Contains(t, out, "Second")
	assert.Contains(t, out, "https://blog.test/first")
	assert.Contains(t, out, "https://blog.test/second")
	assert.Contains(t, out, "Someone")
	assert.Less(t, strings.Index(out, "https://blog.test/first"), strings.Index(out, "https://blog.test/second"))
}

func TestEntry_Fields(t *testing.T) {
	b := newBuilder(t, posts)
	pages := b.site.Pages()

	e, err := b.entry(pages[0], string(posts["posts/a.md"].Data), "https://blog.test")
	require.NoError(t, err)
	assert.Equal(t, "First post", e.Title)
	assert.Equal(t, "Opening line of the post.", e.Description)
	assert.Equal(t, time.Date(2020, 3, 14, 0, 0, 0, 0, time.UTC), e.PubDate.UTC())
	assert.Contains(t, e.Content, "<h1>First post</h1>")

	e, err = b.entry(pages[1], string(posts["posts/b.md"].Data), "https://blog.test")
	require.NoError(t, err)
	assert.Equal(t, "Second", e.Title)
	assert.Equal(t, "Summary", e.Description)
	assert.Equal(t, b.Updated, e.PubDate, "undated posts use the feed time")
}

func TestServeHTTP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://blog.test/feed.xml", nil)
	w := httptest.NewRecorder()
	newBuilder(t, posts).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/atom+xml; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "http://blog.test/first")
}

func TestServeHTTP_MissingPost(t *testing.T) {
	partial := fstest.MapFS{"posts/a.md": posts["posts/a.md"]}

	req := httptest.NewRequest(http.MethodGet, "http://blog.test/feed.xml", nil)
	w := httptest.NewRecorder()
	newBuilder(t, partial).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestBaseURL(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://blog.test/feed.xml", nil)
	assert.Equal(t, "http://blog.test", BaseURL(req))

	req.Header.Set("X-Forwarded-Proto", "https")
	assert.Equal(t, "https://blog.test", BaseURL(req))
}
