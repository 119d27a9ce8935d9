package page

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewriabinin/blog/internal/content"
	"github.com/matthewriabinin/blog/internal/fetch"
	"github.com/matthewriabinin/blog/pkg/renderer/html"
	"github.com/matthewriabinin/blog/pkg/scheduler"
	"github.com/matthewriabinin/blog/pkg/vdom"
)

const testManifest = `
chrome:
  title: Blog
mainFeatured:
  title: Hero
  linkText: Continue reading…
featured:
  - title: First
    link: first
posts:
  - posts/a.md
  - posts/b.md
  - posts/c.md
sidebar:
  title: About
  archives:
    - {title: March 2020, url: "#"}
  social:
    - {name: GitHub, icon: github}
`

var testFS = fstest.MapFS{
	"posts/a.md": {Data: []byte("# Alpha\n\nfirst post")},
	"posts/b.md": {Data: []byte("# Beta\n\nsecond post")},
	"posts/c.md": {Data: []byte("# Gamma\n\nthird post")},
}

func testSite(t *testing.T) *content.Site {
	t.Helper()
	site, err := content.Load(strings.NewReader(testManifest))
	require.NoError(t, err)
	return site
}

func waitSettled(t *testing.T, p Page) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, p.Wait(ctx))
}

func renderString(t *testing.T, node *vdom.VNode) string {
	t.Helper()
	out, err := html.RenderToString(node)
	require.NoError(t, err)
	return out
}

func TestIndex_LoadsInOrder(t *testing.T) {
	var settled []Phase
	idx := NewIndex(testSite(t), Options{
		Fetcher:  fetch.FSFetcher{FS: testFS},
		OnSettle: func(_ string, phase Phase, _ time.Duration) { settled = append(settled, phase) },
	})
	assert.Equal(t, PhaseIdle, idx.Phase())

	require.NoError(t, idx.Mount(context.Background()))
	waitSettled(t, idx)

	assert.Equal(t, PhaseLoaded, idx.Phase())
	assert.Equal(t, []string{
		"# Alpha\n\nfirst post",
		"# Beta\n\nsecond post",
		"# Gamma\n\nthird post",
	}, idx.Contents())
	assert.Equal(t, []Phase{PhaseLoaded}, settled)

	out := renderString(t, idx.Render())
	a := strings.Index(out, "<h1>Alpha</h1>")
	b := strings.Index(out, "<h1>Beta</h1>")
	c := strings.Index(out, "<h1>Gamma</h1>")
	require.True(t, a >= 0 && b >= 0 && c >= 0, out)
	assert.True(t, a < b && b < c, "feed keeps configured order")
	assert.Contains(t, out, "From the firehose")
	assert.Contains(t, out, "Hero")
}

func TestIndex_OneFailureShowsNoContent(t *testing.T) {
	failing := fetch.FetcherFunc(func(ctx context.Context, loc string) (string, error) {
		if loc == "posts/b.md" {
			return "", errors.New("connection reset")
		}
		return fetch.FSFetcher{FS: testFS}.Fetch(ctx, loc)
	})

	idx := NewIndex(testSite(t), Options{Fetcher: failing})
	require.NoError(t, idx.Mount(context.Background()))
	waitSettled(t, idx)

	assert.Equal(t, PhaseFailed, idx.Phase())
	assert.Empty(t, idx.Contents())
	assert.Error(t, idx.Snapshot().Err)

	results := idx.Results()
	require.Len(t, results, 3)
	assert.True(t, results[0].OK())
	assert.False(t, results[1].OK())
	assert.True(t, results[2].OK())

	out := renderString(t, idx.Render())
	assert.NotContains(t, out, "Alpha")
	assert.NotContains(t, out, "Gamma")
	assert.Contains(t, out, "From the firehose", "static content still renders")
}

func TestIndex_UnmountBeforeResolve(t *testing.T) {
	release := make(chan struct{})
	var started sync.WaitGroup
	started.Add(3)
	blocking := fetch.FetcherFunc(func(ctx context.Context, loc string) (string, error) {
		started.Done()
		<-release
		return "late " + loc, nil
	})

	idx := NewIndex(testSite(t), Options{Fetcher: blocking})
	var changes atomic.Int32
	idx.Watch(func(Snapshot[IndexData]) { changes.Add(1) })

	require.NoError(t, idx.Mount(context.Background()))
	started.Wait()
	before := changes.Load()

	assert.NotPanics(t, func() {
		idx.Unmount()
		close(release)
		waitSettled(t, idx)
	})

	assert.Equal(t, PhaseLoading, idx.Phase(), "late completion must not move state")
	assert.Empty(t, idx.Contents())
	assert.Equal(t, before, changes.Load())

	assert.NotPanics(t, idx.Unmount, "second unmount is a no-op")
}

func TestComposer_Lifecycle(t *testing.T) {
	s := NewSingle("posts/a.md", Options{Fetcher: fetch.FSFetcher{FS: testFS}})

	assert.ErrorIs(t, s.Wait(context.Background()), ErrNotMounted)
	require.NoError(t, s.Mount(context.Background()))
	assert.ErrorIs(t, s.Mount(context.Background()), ErrMounted)

	waitSettled(t, s)
	s.Unmount()
	assert.ErrorIs(t, s.Mount(context.Background()), ErrMounted, "no way back to idle")
	assert.Equal(t, PhaseLoaded, s.Phase())
}

func TestComposer_UnmountFromWatcher(t *testing.T) {
	sched := scheduler.NewScheduler()
	s := NewSingle("posts/a.md", Options{Fetcher: fetch.FSFetcher{FS: testFS}, Scheduler: sched})

	var seen []Phase
	s.Watch(func(snap Snapshot[SingleData]) {
		seen = append(seen, snap.Phase)
		if snap.Phase.Settled() {
			s.Unmount()
		}
	})

	require.NoError(t, s.Mount(context.Background()))
	waitSettled(t, s)

	assert.Equal(t, []Phase{PhaseLoading, PhaseLoaded}, seen)
	assert.Equal(t, PhaseLoaded, s.Phase())

	fiber := make(chan *scheduler.Fiber, 1)
	go func() { fiber <- s.Fiber() }()
	select {
	case f := <-fiber:
		assert.Nil(t, f)
	case <-time.After(time.Second):
		t.Fatal("composer still locked after unmount from watcher")
	}
	assert.Zero(t, sched.FiberCount())
}

func TestComposer_UnmountFromOnSettle(t *testing.T) {
	var s *Single
	unmounted := make(chan struct{})
	s = NewSingle("posts/missing.md", Options{
		Fetcher: fetch.FSFetcher{FS: testFS},
		OnSettle: func(_ string, phase Phase, _ time.Duration) {
			assert.Equal(t, PhaseFailed, phase)
			s.Unmount()
			close(unmounted)
		},
	})

	require.NoError(t, s.Mount(context.Background()))
	waitSettled(t, s)

	select {
	case <-unmounted:
	case <-time.After(time.Second):
		t.Fatal("OnSettle blocked on unmount")
	}
	assert.Equal(t, PhaseFailed, s.Phase())
	assert.ErrorIs(t, s.Mount(context.Background()), ErrMounted)
}

func TestComposer_UnmountWhileLoading(t *testing.T) {
	s := NewSingle("posts/a.md", Options{Fetcher: fetch.FSFetcher{FS: testFS}})
	s.Watch(func(snap Snapshot[SingleData]) {
		if snap.Phase == PhaseLoading {
			s.Unmount()
		}
	})

	require.NoError(t, s.Mount(context.Background()))
	waitSettled(t, s)
	assert.Equal(t, PhaseLoading, s.Phase(), "completion after unmount is dropped")
}

func TestComposer_WaitHonoursContext(t *testing.T) {
	hang := fetch.FetcherFunc(func(ctx context.Context, loc string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})

	s := NewSingle("posts/a.md", Options{Fetcher: hang})
	require.NoError(t, s.Mount(context.Background()))
	defer s.Unmount()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Wait(ctx), context.DeadlineExceeded)
	assert.Equal(t, PhaseLoading, s.Phase())
}

func TestSingle_Loads(t *testing.T) {
	s := NewSingle("posts/b.md", Options{Fetcher: fetch.FSFetcher{FS: testFS}})
	assert.Empty(t, s.Title())

	require.NoError(t, s.Mount(context.Background()))
	waitSettled(t, s)

	assert.Equal(t, PhaseLoaded, s.Phase())
	assert.Equal(t, "# Beta\n\nsecond post", s.Content())
	assert.Equal(t, "Beta", s.Title())
	assert.Equal(t, "posts/b.md", s.Locator())

	out := renderString(t, s.Render())
	assert.Equal(t, `<main class="post"><div class="markdown"><h1>Beta</h1><p>second post</p></div></main>`, out)
}

func TestSingle_FailureLeavesContentEmpty(t *testing.T) {
	s := NewSingle("posts/missing.md", Options{Fetcher: fetch.FSFetcher{FS: testFS}})
	require.NoError(t, s.Mount(context.Background()))
	waitSettled(t, s)

	assert.Equal(t, PhaseFailed, s.Phase())
	assert.Empty(t, s.Content())
	assert.Equal(t, `<main class="post"></main>`, renderString(t, s.Render()))
}

func TestSingle_OnScheduler(t *testing.T) {
	sched := scheduler.NewScheduler()
	var patches []vdom.Patch
	sched.SetPatchApplier(func(p []vdom.Patch) { patches = append(patches, p...) })

	release := make(chan struct{})
	gated := fetch.FetcherFunc(func(ctx context.Context, loc string) (string, error) {
		<-release
		return fetch.FSFetcher{FS: testFS}.Fetch(ctx, loc)
	})

	s := NewSingle("posts/c.md", Options{Fetcher: gated, Scheduler: sched})
	require.NoError(t, s.Mount(context.Background()))
	fiber := s.Fiber()
	require.NotNil(t, fiber)

	// First render: the empty page.
	sched.Flush()
	require.Len(t, patches, 1)
	assert.Equal(t, vdom.OpInsertNode, patches[0].Op)

	close(release)
	waitSettled(t, s)
	assert.True(t, fiber.IsDirty())

	patches = nil
	sched.Flush()
	require.Len(t, patches, 1)
	assert.Equal(t, vdom.OpInsertNode, patches[0].Op)
	assert.Equal(t, "div", patches[0].Node.Tag)
	assert.Contains(t, fiber.VNode().TextContent(), "Gamma")

	s.Unmount()
	assert.Zero(t, sched.FiberCount())
	assert.Nil(t, s.Fiber())
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "idle", PhaseIdle.String())
	assert.Equal(t, "loading", PhaseLoading.String())
	assert.Equal(t, "loaded", PhaseLoaded.String())
	assert.Equal(t, "failed", PhaseFailed.String())
	assert.True(t, PhaseFailed.Settled())
	assert.False(t, PhaseLoading.Settled())
}
