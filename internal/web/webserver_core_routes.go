package web

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/go-while/go-chainui/internal/app"
	"github.com/go-while/go-chainui/internal/config"
	"github.com/go-while/go-chainui/internal/devproxy"
)

// Options wires a WebServer.
type Options struct {
	Config *config.MainConfig
	App    *app.App    // bootstrapped and mounted
	Bundle fs.FS       // same bundle the App was mounted from
	Dev    bool        // development mode: dev proxy enabled
	Logger *zap.Logger // nil means no logging
}

// WebServer hosts the mounted application.
type WebServer struct {
	Router    *gin.Engine
	Config    *config.WebConfig
	App       *app.App
	Proxy     *devproxy.Proxy // nil outside development mode
	Metrics   *Metrics
	StartTime time.Time

	dev        bool
	handler    http.Handler
	bundle     fs.FS
	etags      *etagCache
	logger     *zap.Logger
	httpServer *http.Server
}

// NewServer creates a new web server instance
func NewServer(opts Options) (*WebServer, error) {
	if opts.Config == nil || opts.App == nil || opts.Bundle == nil {
		return nil, errors.New("web: config, app and bundle are required")
	}
	if !opts.App.Mounted() {
		return nil, app.ErrNotMounted
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// Set Gin to release mode for production
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	// Routes match exactly: /network/ is not /network
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false

	// Configure Gin to trust reverse proxy headers
	// Set trusted proxies for common reverse proxy setups (nginx, etc.)
	if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}); err != nil {
		return nil, fmt.Errorf("web: trusted proxies: %w", err)
	}

	server := &WebServer{
		Router:    router,
		Config:    &opts.Config.Web,
		App:       opts.App,
		Metrics:   NewMetrics(),
		StartTime: time.Now(),
		dev:       opts.Dev,
		bundle:    opts.Bundle,
		etags:     &etagCache{},
		logger:    logger,
	}

	if opts.Dev {
		proxy, err := newDevProxy(opts.Config, logger, server.Metrics)
		if err != nil {
			return nil, err
		}
		server.Proxy = proxy
	}

	server.setupMiddleware()
	server.setupRoutes()
	server.handler = server.devRelay(router)
	server.httpServer = &http.Server{
		Addr:              server.Config.Listen,
		Handler:           server.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return server, nil
}

func newDevProxy(cfg *config.MainConfig, logger *zap.Logger, m *Metrics) (*devproxy.Proxy, error) {
	prefix, target, err := cfg.ProxyRule()
	if err != nil {
		return nil, err
	}
	dialer, err := devproxy.NewDialer(devproxy.DialerConfig{SOCKS5: cfg.Dev.SOCKS5})
	if err != nil {
		return nil, err
	}
	return devproxy.New(devproxy.Rule{Prefix: prefix, Target: target},
		devproxy.WithLogger(logger),
		devproxy.WithDialer(dialer),
		devproxy.WithErrorHook(m.ProxyError),
	)
}

// setupMiddleware installs the middleware chain. Relayed dev requests never
// enter it, see devRelay.
func (s *WebServer) setupMiddleware() {
	s.Router.Use(gin.Recovery())
	s.Router.Use(LoggerMiddleware(s.logger))
	s.Router.Use(s.Metrics.Middleware())
	s.Router.Use(RequestIDMiddleware())

	// Configure security headers based on SSL setup
	secureConfig := secure.Config{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		IsDevelopment:      s.dev,
	}
	// Only add SSL-specific headers if SSL is enabled on the application itself
	// (not when running behind a reverse proxy like nginx with SSL)
	if s.Config.SSL {
		secureConfig.SSLRedirect = true
		secureConfig.STSSeconds = 31536000
		secureConfig.STSIncludeSubdomains = true
	}
	s.Router.Use(secure.New(secureConfig))

	if s.Config.CORS {
		s.Router.Use(cors.New(cors.Config{
			AllowAllOrigins: true,
			AllowMethods:    []string{"GET", "HEAD", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
			ExposeHeaders:   []string{"X-Request-ID"},
			MaxAge:          12 * time.Hour,
		}))
	}
	s.Router.Use(NoCacheMiddleware())
}

// setupRoutes configures all HTTP routes
func (s *WebServer) setupRoutes() {
	getHead := []string{http.MethodGet, http.MethodHead}

	// Page routes, one per route table entry
	for _, r := range s.App.Table().Routes() {
		s.Router.Match(getHead, r.Path, s.pageHandler)
	}

	s.Router.Match(getHead, "/assets/*filepath", s.assetHandler)
	s.Router.GET("/favicon.ico", func(c *gin.Context) {
		if !s.serveBundleFile(c, "/favicon.ico") {
			c.Status(http.StatusNoContent)
		}
	})
	s.Router.GET("/robots.txt", func(c *gin.Context) {
		if !s.serveBundleFile(c, "/robots.txt") {
			// Fallback to inline robots.txt with all allowed
			c.String(http.StatusOK, "User-agent: *\nDisallow:\n")
		}
	})
	s.Router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	if s.Config.Metrics {
		s.Router.GET("/metrics", gin.WrapH(s.Metrics.Handler()))
	}

	s.Router.NoRoute(s.noRoute)
}

// Handler returns the root http.Handler: the dev relay in front of the engine.
func (s *WebServer) Handler() http.Handler {
	return s.handler
}

// Start starts the web server with SSL support if configured.
// It returns http.ErrServerClosed after Shutdown.
func (s *WebServer) Start() error {
	if s.Config.SSL {
		if s.Config.CertFile == "" || s.Config.KeyFile == "" {
			return config.ErrInvalidSSL
		}
		s.logger.Sugar().Infof("[WEB]: Starting HTTPS server on %s", s.Config.Listen)
		return s.httpServer.ListenAndServeTLS(s.Config.CertFile, s.Config.KeyFile)
	}
	s.logger.Sugar().Infof("[WEB]: Starting HTTP server on %s", s.Config.Listen)
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting connections and waits for active requests.
func (s *WebServer) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
