// Package routes holds the page route table: an ordered list of exact paths
// mapped to the page-level view rendered for them.
package routes

import (
	"errors"
	"fmt"
	"strings"
)

// Component identifies a page-level view.
type Component string

const (
	Node    Component = "node"    // single-node view
	Network Component = "network" // multi-node view
)

var (
	ErrInvalidPath   = errors.New("invalid route path")
	ErrDuplicatePath = errors.New("duplicate route path")
	ErrNoComponent   = errors.New("route without component")
)

// Route maps one exact URL path to a component.
type Route struct {
	Path      string
	Component Component
}

// Table is an ordered, immutable set of routes.
type Table struct {
	routes []Route
	index  map[string]int
}

// NewTable validates the routes and builds a table.
// Paths must be absolute, unique and free of :param or *wildcard segments.
func NewTable(routes ...Route) (*Table, error) {
	t := &Table{
		routes: make([]Route, 0, len(routes)),
		index:  make(map[string]int, len(routes)),
	}
	for _, r := range routes {
		if err := validatePath(r.Path); err != nil {
			return nil, err
		}
		if r.Component == "" {
			return nil, fmt.Errorf("%w: %s", ErrNoComponent, r.Path)
		}
		if _, dup := t.index[r.Path]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePath, r.Path)
		}
		t.index[r.Path] = len(t.routes)
		t.routes = append(t.routes, r)
	}
	return t, nil
}

// MustTable is NewTable that panics on error, for static tables.
func MustTable(routes ...Route) *Table {
	t, err := NewTable(routes...)
	if err != nil {
		panic(err)
	}
	return t
}

// Default returns the application's route table.
func Default() *Table {
	return MustTable(
		Route{Path: "/", Component: Node},
		Route{Path: "/network", Component: Network},
	)
}

// Match returns the route whose path equals path exactly.
func (t *Table) Match(path string) (Route, bool) {
	i, ok := t.index[path]
	if !ok {
		return Route{}, false
	}
	return t.routes[i], true
}

// Routes returns a copy of the table in declaration order.
func (t *Table) Routes() []Route {
	out := make([]Route, len(t.routes))
	copy(out, t.routes)
	return out
}

// Components returns the distinct components in declaration order.
func (t *Table) Components() []Component {
	seen := make(map[Component]bool, len(t.routes))
	var out []Component
	for _, r := range t.routes {
		if !seen[r.Component] {
			seen[r.Component] = true
			out = append(out, r.Component)
		}
	}
	return out
}

// Len returns the number of routes.
func (t *Table) Len() int {
	return len(t.routes)
}

func validatePath(p string) error {
	if p == "" || p[0] != '/' {
		return fmt.Errorf("%w: %q must start with /", ErrInvalidPath, p)
	}
	for _, seg := range strings.Split(p[1:], "/") {
		if strings.HasPrefix(seg, ":") || strings.HasPrefix(seg, "*") {
			return fmt.Errorf("%w: %q has a parameter segment", ErrInvalidPath, p)
		}
	}
	if strings.ContainsAny(p, "?#") {
		return fmt.Errorf("%w: %q contains query or fragment", ErrInvalidPath, p)
	}
	return nil
}
