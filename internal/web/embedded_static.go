package web

import (
	"bytes"
	"embed"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/blake2b"
)

// EmbeddedStaticFS holds the production bundle: host page, views and assets.
//
//go:embed static
var EmbeddedStaticFS embed.FS

// EmbeddedBundle returns the production bundle rooted at static/.
func EmbeddedBundle() fs.FS {
	sub, err := fs.Sub(EmbeddedStaticFS, "static")
	if err != nil {
		panic("Failed to create embedded static filesystem: " + err.Error())
	}
	return sub
}

// DiskBundle returns the development bundle served live from root.
func DiskBundle(root string) (fs.FS, error) {
	st, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("bundle root: %w", err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("bundle root %s is not a directory", root)
	}
	return os.DirFS(root), nil
}

// ListBundleFiles returns all files of a bundle for debugging
func ListBundleFiles(bundle fs.FS) ([]string, error) {
	var files []string
	err := fs.WalkDir(bundle, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// etagCache keeps content fingerprints keyed by name, size and mtime.
type etagCache struct {
	m sync.Map
}

type etagKey struct {
	name    string
	size    int64
	modTime time.Time
}

func (e *etagCache) get(name string, st fs.FileInfo, data []byte) string {
	key := etagKey{name: name, size: st.Size(), modTime: st.ModTime()}
	if v, ok := e.m.Load(key); ok {
		return v.(string)
	}
	tag := Fingerprint(data)
	e.m.Store(key, tag)
	return tag
}

// Fingerprint returns a quoted strong ETag for content.
func Fingerprint(data []byte) string {
	sum := blake2b.Sum256(data)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

// bundleFileName maps a request path to a servable bundle file.
// The host page and view sources are not served as files.
func bundleFileName(urlPath string) (string, bool) {
	name := strings.TrimPrefix(path.Clean("/"+urlPath), "/")
	if name == "" || !fs.ValidPath(name) {
		return "", false
	}
	if name == "index.html" || name == "views" || strings.HasPrefix(name, "views/") {
		return "", false
	}
	return name, true
}

// serveBundleFile writes a bundle file with an ETag; false when there is no such file.
func (s *WebServer) serveBundleFile(c *gin.Context, urlPath string) bool {
	name, ok := bundleFileName(urlPath)
	if !ok {
		return false
	}
	f, err := s.bundle.Open(name)
	if err != nil {
		return false
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil || st.IsDir() {
		return false
	}
	data, err := io.ReadAll(f)
	if err != nil {
		s.logger.Sugar().Warnf("[WEB]: read bundle file %s: %v", name, err)
		return false
	}

	c.Header("ETag", s.etags.get(name, st, data))
	http.ServeContent(c.Writer, c.Request, st.Name(), st.ModTime(), bytes.NewReader(data))
	return true
}
