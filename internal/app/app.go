// Package app is the application root: one route table, history navigation,
// and a host page the rendered views are mounted into.
package app

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/go-while/go-chainui/internal/config"
	"github.com/go-while/go-chainui/internal/routes"
)

var (
	ErrAlreadyMounted = errors.New("application already mounted")
	ErrNotMounted     = errors.New("application not mounted")
	ErrHistoryMode    = errors.New("only history navigation is supported")
	ErrNoRouter       = errors.New("application needs a route table")
)

// App is the single application instance of a process.
type App struct {
	table   *routes.Table
	history string
	plugins []Plugin

	reload sync.Mutex // one Remount at a time

	mu       sync.RWMutex
	mounted  bool
	selector string
	shell    *shell
	views    Views
}

// Option configures an App.
type Option func(*App)

// WithPlugins replaces the default plugin set.
func WithPlugins(p ...Plugin) Option {
	return func(a *App) { a.plugins = p }
}

// WithHistory sets the navigation mode. Only "history" is accepted by New.
func WithHistory(mode string) Option {
	return func(a *App) { a.history = mode }
}

// New builds the application root with exactly one router.
func New(table *routes.Table, opts ...Option) (*App, error) {
	if table == nil {
		return nil, ErrNoRouter
	}
	a := &App{
		table:   table,
		history: config.HistoryModeHistory,
		plugins: []Plugin{ViewsPlugin{Dir: "views"}},
	}
	for _, o := range opts {
		o(a)
	}
	if a.history != config.HistoryModeHistory {
		return nil, fmt.Errorf("%w: %q", ErrHistoryMode, a.history)
	}
	return a, nil
}

// Table returns the router's route table.
func (a *App) Table() *routes.Table { return a.table }

// Mounted reports whether Mount succeeded.
func (a *App) Mounted() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.mounted
}

// Selector returns the mount selector, empty before Mount.
func (a *App) Selector() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.selector
}

// Mount attaches the application to the element matching selector in the
// bundle's host page and compiles the page views. It succeeds once per App.
func (a *App) Mount(bundle fs.FS, selector string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mounted {
		return ErrAlreadyMounted
	}
	sh, views, err := a.load(bundle, selector)
	if err != nil {
		return err
	}
	a.shell, a.views, a.selector, a.mounted = sh, views, selector, true
	return nil
}

// Remount reloads the host page and views from bundle, keeping the selector.
// On error the previous state stays in place.
// Concurrent calls run one after another, so the last call's load wins.
func (a *App) Remount(bundle fs.FS) error {
	a.reload.Lock()
	defer a.reload.Unlock()

	a.mu.RLock()
	mounted, selector := a.mounted, a.selector
	a.mu.RUnlock()
	if !mounted {
		return ErrNotMounted
	}
	sh, views, err := a.load(bundle, selector)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.shell, a.views = sh, views
	a.mu.Unlock()
	return nil
}

func (a *App) load(bundle fs.FS, selector string) (*shell, Views, error) {
	sh, err := loadShell(bundle, selector)
	if err != nil {
		return nil, nil, err
	}
	views := make(Views)
	for _, p := range a.plugins {
		v, err := p.Compile(bundle, a.table.Components())
		if err != nil {
			return nil, nil, fmt.Errorf("plugin %s: %w", p.Name(), err)
		}
		for c, t := range v {
			views[c] = t
		}
	}
	return sh, views, nil
}

// ViewData is passed to every view template.
type ViewData struct {
	Title     string
	Path      string
	Component routes.Component
}

// Page is a rendered host page.
type Page struct {
	Status  int
	Route   routes.Route
	Matched bool
	Body    []byte
}

// Render renders the host page for path with the matched view in the mount
// element. An unmatched path renders an empty mount element with status 404.
func (a *App) Render(path string) (*Page, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.mounted {
		return nil, ErrNotMounted
	}

	route, ok := a.table.Match(path)
	if !ok {
		return &Page{Status: http.StatusNotFound, Body: a.shell.wrap(nil)}, nil
	}
	tmpl := a.views[route.Component]
	if tmpl == nil {
		return nil, fmt.Errorf("%w: %s", ErrViewMissing, route.Component)
	}
	var view bytes.Buffer
	if err := tmpl.Execute(&view, ViewData{
		Title:     Title(route.Component),
		Path:      route.Path,
		Component: route.Component,
	}); err != nil {
		return nil, fmt.Errorf("render %s: %w", route.Component, err)
	}
	return &Page{
		Status:  http.StatusOK,
		Route:   route,
		Matched: true,
		Body:    a.shell.wrap(view.Bytes()),
	}, nil
}

// Title returns the display title of a component.
func Title(c routes.Component) string {
	// a Caser keeps state and is not shared between goroutines
	return cases.Title(language.English).String(string(c))
}

// Bootstrap builds the application from the build configuration and mounts it
// into the bundle's host page: plugins resolved, one router, history navigation.
func Bootstrap(build config.BuildConfig, table *routes.Table, bundle fs.FS) (*App, error) {
	plugins, err := LookupPlugins(build.Plugins)
	if err != nil {
		return nil, err
	}
	a, err := New(table, WithPlugins(plugins...), WithHistory(build.History))
	if err != nil {
		return nil, err
	}
	if err := a.Mount(bundle, build.MountSelector); err != nil {
		return nil, err
	}
	return a, nil
}
