package web

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-while/go-chainui/internal/app"
	"github.com/go-while/go-chainui/internal/config"
	"github.com/go-while/go-chainui/internal/routes"
)

func TestEmbeddedBundleMounts(t *testing.T) {
	bundle := EmbeddedBundle()
	files, err := ListBundleFiles(bundle)
	require.NoError(t, err)
	assert.Contains(t, files, "index.html")
	assert.Contains(t, files, "views/node.html")
	assert.Contains(t, files, "views/network.html")
	assert.Contains(t, files, "assets/main.js")

	a, err := app.Bootstrap(config.NewDefaultConfig().Build, routes.Default(), bundle)
	require.NoError(t, err)
	page, err := a.Render("/network")
	require.NoError(t, err)
	assert.True(t, page.Matched)
}

func TestBundleFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"/assets/main.js", "assets/main.js", true},
		{"/robots.txt", "robots.txt", true},
		{"/assets/../assets/style.css", "assets/style.css", true},
		{"/", "", false},
		{"/index.html", "", false},
		{"/views", "", false},
		{"/views/node.html", "", false},
		{"/../views/node.html", "", false},
	}
	for _, tt := range tests {
		got, ok := bundleFileName(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestDiskBundle(t *testing.T) {
	_, err := DiskBundle(t.TempDir())
	assert.NoError(t, err)

	_, err = DiskBundle("/does/not/exist")
	assert.Error(t, err)
}

func TestFingerprintStable(t *testing.T) {
	a := Fingerprint([]byte("x"))
	assert.Equal(t, a, Fingerprint([]byte("x")))
	assert.NotEqual(t, a, Fingerprint([]byte("y")))
	assert.Len(t, a, 34)
}
