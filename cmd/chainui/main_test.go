package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/go-while/go-chainui/internal/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRoutesCommand(t *testing.T) {
	out, err := execute(t, "routes")
	require.NoError(t, err)
	assert.Contains(t, out, "/          node     Node\n")
	assert.Contains(t, out, "/network   network  Network\n")
}

func TestVersionCommand(t *testing.T) {
	config.AppVersion = "1.2.3"
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "chainui 1.2.3\n", out)
}

func TestUnknownFlag(t *testing.T) {
	_, err := execute(t, "serve", "--nope")
	assert.Error(t, err)
}

func TestApplyFlagsServe(t *testing.T) {
	cfg := config.NewDefaultConfig()
	applyFlags(cfg, &serveFlags{
		listen:      ":8443",
		ssl:         true,
		certFile:    "cert.pem",
		keyFile:     "key.pem",
		pprofAddr:   ":51111",
		proxyTarget: "http://10.0.0.1:5000",
	}, false, zap.NewNop().Sugar())

	assert.Equal(t, ":8443", cfg.Web.Listen)
	assert.True(t, cfg.Web.SSL)
	assert.Equal(t, "cert.pem", cfg.Web.CertFile)
	assert.Equal(t, "key.pem", cfg.Web.KeyFile)
	assert.Equal(t, ":51111", cfg.Web.PprofAddr)
	// dev-only flags are ignored by serve
	assert.Equal(t, map[string]string{config.DefaultProxyPrefix: config.DefaultProxyTarget}, cfg.Dev.Proxy)
}

func TestApplyFlagsDev(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Dev.Proxy = map[string]string{"/backend": "http://localhost:5000"}
	applyFlags(cfg, &serveFlags{
		root:        "ui",
		proxyTarget: "http://localhost:5001",
		socks5:      "127.0.0.1:9050",
	}, true, zap.NewNop().Sugar())

	assert.Equal(t, "ui", cfg.Build.Root)
	assert.Equal(t, map[string]string{"/backend": "http://localhost:5001"}, cfg.Dev.Proxy)
	assert.Equal(t, "127.0.0.1:9050", cfg.Dev.SOCKS5)
	assert.Equal(t, config.DefaultListenAddr, cfg.Web.Listen)
}

func TestSetupRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chainui.yaml")
	require.NoError(t, os.WriteFile(path, []byte("build:\n  history: hash\n"), 0o644))

	_, _, _, err := setup(&globalFlags{configPath: path, logLevel: "error"}, &serveFlags{}, false)
	assert.ErrorIs(t, err, config.ErrInvalidHistory)

	_, _, _, err = setup(&globalFlags{logLevel: "loud"}, &serveFlags{}, false)
	assert.ErrorIs(t, err, config.ErrInvalidLog)
}

func TestLoadBundle(t *testing.T) {
	cfg := config.NewDefaultConfig()
	b, err := loadBundle(cfg, false)
	require.NoError(t, err)
	_, err = b.Open("index.html")
	assert.NoError(t, err)

	cfg.Build.Root = filepath.Join(t.TempDir(), "missing")
	_, err = loadBundle(cfg, true)
	assert.Error(t, err)
}

func TestLogBundleFiles(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	bundle := fstest.MapFS{
		"index.html":      {Data: []byte("<div id=\"app\"></div>")},
		"assets/app.js":   {Data: []byte("console.log(1)")},
		"views/node.html": {Data: []byte("<p>node</p>")},
	}
	logBundleFiles(bundle, "dist", zap.New(core).Sugar())

	assert.Equal(t, 1, logs.FilterMessage("[WEB]: Serving 3 bundle files from dist").Len())
	listed := logs.FilterMessageSnippet("[WEB]: bundle file ")
	require.Equal(t, 3, listed.Len())
	assert.Equal(t, "[WEB]: bundle file assets/app.js", listed.All()[0].Message)
}

func TestRunServerStopsOnContext(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Web.Listen = "127.0.0.1:0"
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, runServer(ctx, cfg, false, zap.NewNop()))
}
