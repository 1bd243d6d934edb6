// Package devproxy relays development requests under one path prefix to a
// separate backend process. Requests pass through unchanged: no header
// rewriting, no retry, no timeout policy.
package devproxy

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

var (
	ErrInvalidPrefix = errors.New("proxy prefix must start with /")
	ErrInvalidTarget = errors.New("proxy target must be an http origin")
)

// Rule maps a path prefix to a backend origin.
type Rule struct {
	Prefix string
	Target string
}

// forwarding headers are stripped by httputil before Rewrite; the relay puts
// the client's values back so the backend sees the request as sent
var forwardedHeaders = []string{"Forwarded", "X-Forwarded-For", "X-Forwarded-Host", "X-Forwarded-Proto"}

// Proxy is an http.Handler forwarding requests that match Rule.
type Proxy struct {
	rule    Rule
	target  *url.URL
	rp      *httputil.ReverseProxy
	dialer  *Dialer
	logger  *zap.Logger
	onError func(r *http.Request, err error)
}

// Option configures a Proxy.
type Option func(*Proxy)

// WithLogger sets the logger for upstream failures.
func WithLogger(l *zap.Logger) Option {
	return func(p *Proxy) { p.logger = l }
}

// WithDialer routes backend connections through d.
func WithDialer(d *Dialer) Option {
	return func(p *Proxy) { p.dialer = d }
}

// WithErrorHook is called for every failed upstream round trip.
func WithErrorHook(fn func(r *http.Request, err error)) Option {
	return func(p *Proxy) { p.onError = fn }
}

// New validates rule and builds the relay.
func New(rule Rule, opts ...Option) (*Proxy, error) {
	if !strings.HasPrefix(rule.Prefix, "/") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPrefix, rule.Prefix)
	}
	target, err := url.Parse(rule.Target)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTarget, err)
	}
	if target.Scheme != "http" || target.Host == "" || (target.Path != "" && target.Path != "/") || target.RawQuery != "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTarget, rule.Target)
	}

	p := &Proxy{
		rule:   rule,
		target: target,
		logger: zap.NewNop(),
	}
	for _, o := range opts {
		o(p)
	}
	if p.dialer == nil {
		p.dialer, _ = NewDialer(DialerConfig{})
	}

	p.rp = &httputil.ReverseProxy{
		Rewrite:      p.rewrite,
		Transport:    p.transport(),
		ErrorHandler: p.errorHandler,
		ErrorLog:     zap.NewStdLog(p.logger),
	}
	return p, nil
}

// Rule returns the proxy rule.
func (p *Proxy) Rule() Rule { return p.rule }

// Matches reports whether path begins with the rule prefix.
// This is a plain string prefix: "/apiary" matches "/api".
func (p *Proxy) Matches(path string) bool {
	return strings.HasPrefix(path, p.rule.Prefix)
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.rp.ServeHTTP(w, r)
}

func (p *Proxy) rewrite(pr *httputil.ProxyRequest) {
	pr.Out.URL.Scheme = p.target.Scheme
	pr.Out.URL.Host = p.target.Host
	pr.Out.Host = pr.In.Host
	for _, h := range forwardedHeaders {
		if v, ok := pr.In.Header[h]; ok {
			pr.Out.Header[h] = v
		}
	}
}

func (p *Proxy) transport() *http.Transport {
	return &http.Transport{
		Proxy:               nil,
		DialContext:         p.dialer.DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 16,
		DisableCompression:  true,
	}
}

func (p *Proxy) errorHandler(w http.ResponseWriter, r *http.Request, err error) {
	p.logger.Warn("[PROXY]: upstream request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("target", p.rule.Target),
		zap.Error(err),
	)
	if p.onError != nil {
		p.onError(r, err)
	}
	w.WriteHeader(http.StatusBadGateway)
}
