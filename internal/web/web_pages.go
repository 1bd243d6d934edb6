package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const htmlContentType = "text/html; charset=utf-8"

// pageHandler renders the host page for a route table path.
func (s *WebServer) pageHandler(c *gin.Context) {
	s.renderPage(c, c.Request.URL.Path)
}

// assetHandler serves /assets/* from the bundle.
func (s *WebServer) assetHandler(c *gin.Context) {
	if !s.serveBundleFile(c, c.Request.URL.Path) {
		c.String(http.StatusNotFound, "404 page not found")
	}
}

// noRoute serves other bundle files, else the host page with an empty mount
// element and status 404.
func (s *WebServer) noRoute(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.String(http.StatusNotFound, "404 page not found")
		return
	}
	if s.serveBundleFile(c, c.Request.URL.Path) {
		return
	}
	s.renderPage(c, c.Request.URL.Path)
}

func (s *WebServer) renderPage(c *gin.Context, path string) {
	page, err := s.App.Render(path)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "render failed", err)
		return
	}
	if page.Matched {
		c.Set(routeLabelKey, page.Route.Path)
	}
	c.Data(page.Status, htmlContentType, page.Body)
}

// renderError logs err and writes a plain error response.
func (s *WebServer) renderError(c *gin.Context, statusCode int, message string, err error) {
	s.logger.Error("[WEB]: "+message,
		zap.String("request_id", GetRequestID(c)),
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", statusCode),
		zap.Error(err),
	)
	_ = c.Error(err)
	c.String(statusCode, "Error: %s", message)
}
