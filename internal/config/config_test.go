package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())

	prefix, target, err := cfg.ProxyRule()
	require.NoError(t, err)
	assert.Equal(t, "/api", prefix)
	assert.Equal(t, "http://localhost:5000", target)
	assert.Equal(t, "#app", cfg.Build.MountSelector)
	assert.Equal(t, HistoryModeHistory, cfg.Build.History)
	assert.Equal(t, []string{"views"}, cfg.Build.Plugins)
	assert.Equal(t, ".", cfg.Build.Root)
}

func TestDefaultPluginsNotShared(t *testing.T) {
	a := NewDefaultConfig()
	a.Build.Plugins[0] = "changed"
	assert.Equal(t, "views", NewDefaultConfig().Build.Plugins[0])
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(c *MainConfig)
		want   error
	}{
		{"bad listen", func(c *MainConfig) { c.Web.Listen = "nope" }, ErrInvalidListen},
		{"port out of range", func(c *MainConfig) { c.Web.Listen = ":70000" }, ErrInvalidListen},
		{"ssl without cert", func(c *MainConfig) { c.Web.SSL = true }, ErrInvalidSSL},
		{"class selector", func(c *MainConfig) { c.Build.MountSelector = ".app" }, ErrInvalidSelector},
		{"compound selector", func(c *MainConfig) { c.Build.MountSelector = "#app .x" }, ErrInvalidSelector},
		{"hash history", func(c *MainConfig) { c.Build.History = HistoryModeHash }, ErrInvalidHistory},
		{"no plugins", func(c *MainConfig) { c.Build.Plugins = nil }, ErrNoPlugins},
		{"two proxy rules", func(c *MainConfig) { c.Dev.Proxy["/other"] = "http://localhost:6000" }, ErrProxyRules},
		{"no proxy rule", func(c *MainConfig) { c.Dev.Proxy = nil }, ErrProxyRules},
		{"relative prefix", func(c *MainConfig) { c.Dev.Proxy = map[string]string{"api": DefaultProxyTarget} }, ErrInvalidProxy},
		{"tls target", func(c *MainConfig) { c.Dev.Proxy = map[string]string{"/api": "https://localhost:5000"} }, ErrInvalidProxy},
		{"target with path", func(c *MainConfig) { c.Dev.Proxy = map[string]string{"/api": "http://localhost:5000/v1"} }, ErrInvalidProxy},
		{"target with query", func(c *MainConfig) { c.Dev.Proxy = map[string]string{"/api": "http://localhost:5000?x=1"} }, ErrInvalidProxy},
		{"log format", func(c *MainConfig) { c.Log.Format = "xml" }, ErrInvalidLog},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tc.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), tc.want)
		})
	}
}

func TestValidateAcceptsOriginTargets(t *testing.T) {
	for _, target := range []string{"http://localhost:5000", "http://localhost:5000/", "http://10.0.0.2:8080"} {
		cfg := NewDefaultConfig()
		cfg.Dev.Proxy = map[string]string{"/api": target}
		assert.NoError(t, cfg.Validate(), target)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, NewDefaultConfig(), cfg)
}

func TestLoadOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chainui.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
web:
  listen: "0.0.0.0:8080"
build:
  root: ./frontend
dev:
  proxy:
    /backend: http://127.0.0.1:5001
log:
  level: debug
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "0.0.0.0:8080", cfg.Web.Listen)
	assert.True(t, cfg.Web.Metrics, "unset keys keep defaults")
	assert.Equal(t, "./frontend", cfg.Build.Root)
	assert.Equal(t, "#app", cfg.Build.MountSelector)
	assert.Equal(t, map[string]string{"/backend": "http://127.0.0.1:5001"}, cfg.Dev.Proxy)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chainui.yaml")
	require.NoError(t, os.WriteFile(path, []byte("web:\n  lisen: \":1\"\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
