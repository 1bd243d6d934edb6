package web

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-while/go-chainui/internal/app"
	"github.com/go-while/go-chainui/internal/config"
	"github.com/go-while/go-chainui/internal/routes"
)

func writeBundle(t *testing.T, dir string) {
	t.Helper()
	for name, f := range testBundle() {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, f.Data, 0o644))
	}
}

// replaceFile swaps content in with a single rename.
func replaceFile(t *testing.T, path, content string) {
	t.Helper()
	tmp := filepath.Join(t.TempDir(), filepath.Base(path))
	require.NoError(t, os.WriteFile(tmp, []byte(content), 0o644))
	require.NoError(t, os.Rename(tmp, path))
}

func TestWatchBundleRemounts(t *testing.T) {
	dir := t.TempDir()
	writeBundle(t, dir)

	cfg := config.NewDefaultConfig()
	cfg.Dev.Proxy = map[string]string{"/api": "http://127.0.0.1:9"}
	bundle, err := DiskBundle(dir)
	require.NoError(t, err)
	a, err := app.Bootstrap(cfg.Build, routes.Default(), bundle)
	require.NoError(t, err)
	s, err := NewServer(Options{Config: cfg, App: a, Bundle: bundle, Dev: true})
	require.NoError(t, err)

	w, err := s.WatchBundle(dir, 10*time.Millisecond)
	require.NoError(t, err)
	defer w.Stop()

	view := filepath.Join(dir, "views", "node.html")
	replaceFile(t, view, `<section class="view-node">edited</section>`)
	require.Eventually(t, func() bool {
		return strings.Contains(get(s, "/").Body.String(), "edited")
	}, 5*time.Second, 20*time.Millisecond)

	// a broken view keeps the previous one mounted
	replaceFile(t, view, `{{ .Broken`)
	require.Eventually(t, func() bool {
		return strings.Contains(get(s, "/metrics").Body.String(), `chainui_app_remounts_total{result="error"}`)
	}, 5*time.Second, 20*time.Millisecond)
	assert.Contains(t, get(s, "/").Body.String(), "edited")

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
}

func TestSkipWatch(t *testing.T) {
	assert.True(t, skipWatchDir(".git"))
	assert.True(t, skipWatchDir("node_modules"))
	assert.True(t, skipWatchDir(".cache"))
	assert.False(t, skipWatchDir("views"))

	assert.True(t, skipWatchPath("/x/views/.node.html.swp"))
	assert.True(t, skipWatchPath("/x/node_modules/a.js"))
	assert.False(t, skipWatchPath("/x/views/node.html"))
}
