package ui

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewriabinin/blog/internal/fetch"
	"github.com/matthewriabinin/blog/pkg/page"
	"github.com/matthewriabinin/blog/pkg/scheduler"
	"github.com/matthewriabinin/blog/pkg/server"
)

var posts = fstest.MapFS{
	"posts/a.md": {Data: []byte("# Alpha\n\ntext")},
}

func newPreview(t *testing.T, locator string) (*Preview, page.Page) {
	t.Helper()
	sched := scheduler.NewScheduler()
	p := page.NewSingle(locator, page.Options{
		Fetcher:   fetch.FSFetcher{FS: posts},
		Scheduler: sched,
	})
	m := NewPreview(context.Background(), "/a", "/a", p, sched)
	m.Init()
	return m, p
}

func settle(t *testing.T, p page.Page) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, p.Wait(ctx))
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestPreview_RunsToLoaded(t *testing.T) {
	m, p := newPreview(t, "posts/a.md")

	_, cmd := m.Update(m.mount()())
	assert.False(t, isQuit(cmd))
	settle(t, p)

	_, cmd = m.Update(tickMsg(time.Now()))
	assert.True(t, isQuit(cmd))
	assert.True(t, m.Done())
	assert.NoError(t, m.Err())

	var phases []page.Phase
	for _, tr := range m.Transitions() {
		phases = append(phases, tr.Phase)
	}
	assert.Equal(t, []page.Phase{page.PhaseIdle, page.PhaseLoading, page.PhaseLoaded}, phases)
	assert.Positive(t, m.Patches())

	view := m.View()
	assert.Contains(t, view, "preview /a")
	assert.Contains(t, view, "loaded")
	assert.NotContains(t, view, "quit")
}

func TestPreview_Failed(t *testing.T) {
	m, p := newPreview(t, "posts/missing.md")

	m.Update(m.mount()())
	settle(t, p)
	m.Update(tickMsg(time.Now()))

	assert.True(t, m.Done())
	assert.Equal(t, page.PhaseFailed, m.Transitions()[len(m.Transitions())-1].Phase)
	assert.Contains(t, m.View(), "failed")
}

func TestPreview_MountError(t *testing.T) {
	m, p := newPreview(t, "posts/a.md")
	require.NoError(t, p.Mount(context.Background()))
	defer p.Unmount()

	_, cmd := m.Update(m.mount()())
	assert.True(t, isQuit(cmd))
	assert.ErrorIs(t, m.Err(), page.ErrMounted)
	assert.Contains(t, m.View(), "error:")
}

func TestPreview_Quit(t *testing.T) {
	m, _ := newPreview(t, "posts/a.md")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.True(t, isQuit(cmd))
	assert.False(t, m.Done())
}

func TestRouteTable(t *testing.T) {
	out := RouteTable(&server.RouteTable{Routes: []server.RouteEntry{
		{Path: "/new-post", Component: "single"},
		{Path: "/notes", Component: "single", Middleware: 2},
		{Path: "/", Component: "index", Exact: true},
	}})

	assert.Contains(t, out, "PATH")
	assert.Contains(t, out, "/new-post")
	assert.Contains(t, out, "MIDDLEWARE")
	assert.Contains(t, out, "/notes")
	assert.Contains(t, out, "exact")
	assert.Less(t, strings.Index(out, "/new-post"), strings.Index(out, "index"))
}

func TestBanner(t *testing.T) {
	out := Banner(BannerInfo{Title: "Blog", Addr: "localhost:3000", Mode: "embed", Posts: 4, Routes: 4, Watch: true})
	assert.Contains(t, out, "http://localhost:3000")
	assert.Contains(t, out, "4 posts, 4 routes")
	assert.Contains(t, out, "watching")
}

