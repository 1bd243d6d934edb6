// Package config provides configuration management for go-chainui.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

var AppVersion = "-unset-" // will be set at build time

const (
	// Web defaults
	DefaultListenAddr = "127.0.0.1:5173"

	// Build defaults
	DefaultRoot          = "."
	DefaultMountSelector = "#app"
	HistoryModeHistory   = "history"
	HistoryModeHash      = "hash"

	// Dev-server proxy defaults
	DefaultProxyPrefix = "/api"
	DefaultProxyTarget = "http://localhost:5000"

	// Log defaults
	LogFormatAuto    = "auto"
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

// DefaultPlugins is the plugin set registered by the build configuration.
var DefaultPlugins = []string{"views"}

var (
	ErrInvalidListen   = errors.New("invalid listen address")
	ErrInvalidSSL      = errors.New("ssl enabled but cert_file or key_file not specified")
	ErrInvalidSelector = errors.New("mount selector must be an id selector like #app")
	ErrInvalidHistory  = errors.New("unsupported history mode")
	ErrNoPlugins       = errors.New("no build plugins configured")
	ErrProxyRules      = errors.New("exactly one proxy rule is required")
	ErrInvalidProxy    = errors.New("invalid proxy rule")
	ErrInvalidLog      = errors.New("invalid log configuration")
)

// MainConfig holds the main configuration for go-chainui
type MainConfig struct {
	// Web host settings
	Web WebConfig `yaml:"web"`

	// Build tool settings: root directory, plugins, mount target
	Build BuildConfig `yaml:"build"`

	// Development server settings
	Dev DevConfig `yaml:"dev"`

	// Logging settings
	Log LogConfig `yaml:"log"`

	AppVersion string `yaml:"-"` // Application version, set at build time
}

// WebConfig holds the HTTP host configuration
type WebConfig struct {
	Listen    string `yaml:"listen"`
	SSL       bool   `yaml:"ssl"`
	CertFile  string `yaml:"cert_file,omitempty"`
	KeyFile   string `yaml:"key_file,omitempty"`
	Metrics   bool   `yaml:"metrics"`
	CORS      bool   `yaml:"cors"`
	PprofAddr string `yaml:"pprof_addr,omitempty"`
}

// BuildConfig mirrors what the front-end build tool declares
type BuildConfig struct {
	Root          string   `yaml:"root"`
	Plugins       []string `yaml:"plugins"`
	MountSelector string   `yaml:"mount_selector"`
	History       string   `yaml:"history"`
}

// DevConfig holds development-only settings. Proxy maps one path prefix to one backend origin.
type DevConfig struct {
	Proxy  map[string]string `yaml:"proxy"`
	SOCKS5 string            `yaml:"socks5,omitempty"` // optional upstream dialer host:port
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// NewDefaultConfig returns a configuration with sensible defaults
func NewDefaultConfig() *MainConfig {
	return &MainConfig{
		AppVersion: AppVersion,
		Web: WebConfig{
			Listen:  DefaultListenAddr,
			Metrics: true,
			CORS:    true,
		},
		Build: BuildConfig{
			Root:          DefaultRoot,
			Plugins:       append([]string(nil), DefaultPlugins...),
			MountSelector: DefaultMountSelector,
			History:       HistoryModeHistory,
		},
		Dev: DevConfig{
			Proxy: map[string]string{
				DefaultProxyPrefix: DefaultProxyTarget,
			},
		},
		Log: LogConfig{
			Level:      "info",
			Format:     LogFormatAuto,
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 14,
		},
	}
}

// ProxyRule returns the single configured prefix and target.
func (c *MainConfig) ProxyRule() (prefix, target string, err error) {
	if len(c.Dev.Proxy) != 1 {
		return "", "", fmt.Errorf("%w: got %d", ErrProxyRules, len(c.Dev.Proxy))
	}
	for p, t := range c.Dev.Proxy {
		prefix, target = p, t
	}
	return prefix, target, nil
}

// Validate checks the configuration for values the host cannot start with.
func (c *MainConfig) Validate() error {
	_, port, err := net.SplitHostPort(c.Web.Listen)
	if err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidListen, c.Web.Listen, err)
	}
	p, err := strconv.Atoi(port)
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("%w %q: port must be between 1 and 65535", ErrInvalidListen, c.Web.Listen)
	}
	if c.Web.SSL && (c.Web.CertFile == "" || c.Web.KeyFile == "") {
		return ErrInvalidSSL
	}

	sel := c.Build.MountSelector
	if len(sel) < 2 || sel[0] != '#' || strings.ContainsAny(sel[1:], " .#[>:") {
		return fmt.Errorf("%w: %q", ErrInvalidSelector, sel)
	}
	if c.Build.History != HistoryModeHistory {
		return fmt.Errorf("%w: %q", ErrInvalidHistory, c.Build.History)
	}
	if len(c.Build.Plugins) == 0 {
		return ErrNoPlugins
	}

	prefix, target, err := c.ProxyRule()
	if err != nil {
		return err
	}
	if !strings.HasPrefix(prefix, "/") {
		return fmt.Errorf("%w: prefix %q must start with /", ErrInvalidProxy, prefix)
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "http" || u.Host == "" || (u.Path != "" && u.Path != "/") || u.RawQuery != "" {
		return fmt.Errorf("%w: target %q must be an http origin", ErrInvalidProxy, target)
	}

	switch c.Log.Format {
	case LogFormatAuto, LogFormatConsole, LogFormatJSON:
	default:
		return fmt.Errorf("%w: format %q", ErrInvalidLog, c.Log.Format)
	}
	return nil
}
