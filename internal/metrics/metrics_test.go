package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewriabinin/blog/internal/fetch"
	"github.com/matthewriabinin/blog/pkg/page"
)

func TestObserveFetch(t *testing.T) {
	m := New()
	var obs fetch.Observer = m.ObserveFetch

	obs("a.md", time.Millisecond, nil)
	obs("b.md", time.Millisecond, nil)
	obs("c.md", time.Millisecond, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.fetches.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetches.WithLabelValues("error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.fetchDuration))
}

func TestObserveSettle(t *testing.T) {
	m := New()
	var settle page.SettleFunc = m.ObserveSettle

	settle("index", page.PhaseLoaded, 10*time.Millisecond)
	settle("index", page.PhaseFailed, 10*time.Millisecond)
	settle("index", page.PhaseLoaded, 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.settled.WithLabelValues("index", "loaded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.settled.WithLabelValues("index", "failed")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveFetch("a.md", time.Millisecond, nil)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `blog_fetch_total{result="ok"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
