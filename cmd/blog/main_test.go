package main

import (
	"bytes"
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewriabinin/blog/internal/config"
	"github.com/matthewriabinin/blog/pkg/server"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCommand()
	root.SetArgs(append([]string{"--env", ""}, args...))
	root.SetOut(&out)
	root.SetErr(io.Discard)
	err := root.Execute()
	return out.String(), err
}

func TestRoutes(t *testing.T) {
	out, err := execute(t, "routes")
	require.NoError(t, err)
	assert.Contains(t, out, "/new-post")
	assert.Contains(t, out, "/shmidt-decomposition")
	assert.Contains(t, out, "prefix")
}

func TestRoutes_JSON(t *testing.T) {
	out, err := execute(t, "routes", "--json", "--exact-root")
	require.NoError(t, err)

	var table server.RouteTable
	require.NoError(t, json.Unmarshal([]byte(out), &table))
	require.Len(t, table.Routes, 4)
	assert.Equal(t, "/new-post", table.Routes[0].Path)
	assert.Equal(t, "single", table.Routes[0].Component)

	root := table.Routes[3]
	assert.Equal(t, "/", root.Path)
	assert.Equal(t, "index", root.Component)
	assert.True(t, root.Exact)
}

func TestInvalidLogLevel(t *testing.T) {
	_, err := execute(t, "routes", "--log-level", "loud")
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("BLOG_CONTENT_MODE", "http")
	_, err := execute(t, "routes")
	assert.ErrorIs(t, err, config.ErrInvalid, "http mode needs a base URL")
}

func TestMissingConfigFile(t *testing.T) {
	_, err := execute(t, "--config", "nope.yaml", "routes")
	assert.Error(t, err)
}

func TestDisplayAddr(t *testing.T) {
	assert.Equal(t, "localhost:3000", displayAddr("", 3000))
	assert.Equal(t, "0.0.0.0:80", displayAddr("0.0.0.0", 80))
}
