package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	prof "github.com/go-while/go-cpu-mem-profiler"
	"go.uber.org/zap"

	"github.com/go-while/go-chainui/internal/app"
	"github.com/go-while/go-chainui/internal/config"
	"github.com/go-while/go-chainui/internal/logging"
	"github.com/go-while/go-chainui/internal/routes"
	"github.com/go-while/go-chainui/internal/web"
)

const shutdownTimeout = 10 * time.Second

var Prof *prof.Profiler

// setup loads the configuration, builds the logger and applies flag overrides.
func setup(g *globalFlags, f *serveFlags, dev bool) (*config.MainConfig, *zap.Logger, func(), error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	logger, done, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return nil, nil, nil, err
	}
	log := logger.Sugar()
	if g.configPath != "" {
		log.Infof("[WEB]: Loaded config file %s", g.configPath)
	}
	applyFlags(cfg, f, dev, log)
	if err := cfg.Validate(); err != nil {
		log.Errorf("[WEB]: Invalid configuration: %v", err)
		done()
		return nil, nil, nil, err
	}
	return cfg, logger, done, nil
}

// applyFlags overrides configuration values with command-line flags.
func applyFlags(cfg *config.MainConfig, f *serveFlags, dev bool, log *zap.SugaredLogger) {
	if f.listen != "" {
		cfg.Web.Listen = f.listen
		log.Infof("[WEB]: Overriding listen address with command-line flag: %s", cfg.Web.Listen)
	} else {
		log.Infof("[WEB]: No listen flag provided, using: %s", cfg.Web.Listen)
	}
	if f.ssl {
		cfg.Web.SSL = true
		log.Infof("[WEB]: SSL enabled via command-line flag")
	}
	if f.certFile != "" {
		cfg.Web.CertFile = f.certFile
		log.Infof("[WEB]: SSL cert file set: %s", cfg.Web.CertFile)
	}
	if f.keyFile != "" {
		cfg.Web.KeyFile = f.keyFile
		log.Infof("[WEB]: SSL key file set: %s", cfg.Web.KeyFile)
	}
	if f.pprofAddr != "" {
		cfg.Web.PprofAddr = f.pprofAddr
	}
	if !dev {
		return
	}
	if f.root != "" {
		cfg.Build.Root = f.root
		log.Infof("[WEB]: Serving bundle from %s", cfg.Build.Root)
	}
	if f.proxyTarget != "" {
		prefix, _, err := cfg.ProxyRule()
		if err != nil {
			prefix = config.DefaultProxyPrefix
		}
		cfg.Dev.Proxy = map[string]string{prefix: f.proxyTarget}
		log.Infof("[WEB]: Overriding proxy target with command-line flag: %s -> %s", prefix, f.proxyTarget)
	}
	if f.socks5 != "" {
		cfg.Dev.SOCKS5 = f.socks5
		log.Infof("[WEB]: Dialing backend via SOCKS5 proxy %s", cfg.Dev.SOCKS5)
	}
}

// loadBundle picks the embedded build or the on-disk development bundle.
func loadBundle(cfg *config.MainConfig, dev bool) (fs.FS, error) {
	if !dev {
		return web.EmbeddedBundle(), nil
	}
	return web.DiskBundle(cfg.Build.Root)
}

// logBundleFiles reports what the development bundle holds at startup.
func logBundleFiles(bundle fs.FS, root string, log *zap.SugaredLogger) {
	files, err := web.ListBundleFiles(bundle)
	if err != nil {
		log.Warnf("[WEB]: Cannot list bundle %s: %v", root, err)
		return
	}
	log.Infof("[WEB]: Serving %d bundle files from %s", len(files), root)
	for _, name := range files {
		log.Debugf("[WEB]: bundle file %s", name)
	}
}

// runServer bootstraps the app, starts the web server and blocks until a
// shutdown signal, a server error or ctx is done.
func runServer(ctx context.Context, cfg *config.MainConfig, dev bool, logger *zap.Logger) error {
	log := logger.Sugar()
	mode := "production"
	if dev {
		mode = "development"
	}
	log.Infof("Starting chainui: %s server (version: %s)", mode, config.AppVersion)

	if cfg.Web.PprofAddr != "" {
		Prof = prof.NewProf()
		go Prof.PprofWeb(cfg.Web.PprofAddr)
		log.Infof("[WEB]: pprof web endpoint on %s", cfg.Web.PprofAddr)
	}

	bundle, err := loadBundle(cfg, dev)
	if err != nil {
		return err
	}
	if dev {
		logBundleFiles(bundle, cfg.Build.Root, log)
	}
	application, err := app.Bootstrap(cfg.Build, routes.Default(), bundle)
	if err != nil {
		return fmt.Errorf("mount application: %w", err)
	}
	log.Infof("[WEB]: Application mounted at %s with %d routes", application.Selector(), application.Table().Len())

	server, err := web.NewServer(web.Options{
		Config: cfg,
		App:    application,
		Bundle: bundle,
		Dev:    dev,
		Logger: logger,
	})
	if err != nil {
		return err
	}
	if server.Proxy != nil {
		rule := server.Proxy.Rule()
		log.Infof("[WEB]: Proxying %s* to %s", rule.Prefix, rule.Target)
	}

	if dev {
		watcher, err := server.WatchBundle(cfg.Build.Root, web.DefaultWatchDelay)
		if err != nil {
			log.Warnf("[WEB]: Bundle watcher disabled: %v", err)
		} else {
			defer watcher.Stop()
		}
	}

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	// Start web server in goroutine to make it non-blocking
	webServerErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			webServerErrChan <- err
		}
	}()
	log.Infof("[WEB]: Server started successfully. Press Ctrl+C to gracefully shutdown...")

	select {
	case <-sigChan:
		log.Infof("[WEB]: Received shutdown signal, initiating graceful shutdown...")
	case <-ctx.Done():
		log.Infof("[WEB]: Context cancelled, initiating graceful shutdown...")
	case err := <-webServerErrChan:
		log.Errorf("[WEB]: Failed to start web server: %v", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("[WEB]: Error during shutdown: %v", err)
		return err
	}
	log.Infof("[WEB]: Graceful shutdown completed")
	return nil
}
