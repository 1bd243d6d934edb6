package app

import (
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/go-while/go-chainui/internal/routes"
)

var (
	ErrUnknownPlugin = errors.New("unknown build plugin")
	ErrViewMissing   = errors.New("view component missing")
)

// Views holds one compiled template per page component.
type Views map[routes.Component]*template.Template

// Plugin compiles component files found in the bundle into views.
type Plugin interface {
	Name() string
	Compile(fsys fs.FS, components []routes.Component) (Views, error)
}

// ViewsPlugin compiles <Dir>/<component>.html files with html/template.
type ViewsPlugin struct {
	Dir string
}

func (p ViewsPlugin) Name() string { return "views" }

func (p ViewsPlugin) Compile(fsys fs.FS, components []routes.Component) (Views, error) {
	views := make(Views, len(components))
	for _, c := range components {
		file := path.Join(p.Dir, string(c)+".html")
		src, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrViewMissing, file, err)
		}
		tmpl, err := template.New(string(c)).Funcs(viewFuncs).Parse(string(src))
		if err != nil {
			return nil, fmt.Errorf("compile %s: %w", file, err)
		}
		views[c] = tmpl
	}
	return views, nil
}

var viewFuncs = template.FuncMap{
	"title": func(c routes.Component) string { return Title(c) },
	"lower": strings.ToLower,
}

var plugins = map[string]Plugin{
	"views": ViewsPlugin{Dir: "views"},
}

// LookupPlugin resolves a configured plugin name.
func LookupPlugin(name string) (Plugin, error) {
	p, ok := plugins[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %s)", ErrUnknownPlugin, name, strings.Join(PluginNames(), ", "))
	}
	return p, nil
}

// LookupPlugins resolves a list of names, keeping order.
func LookupPlugins(names []string) ([]Plugin, error) {
	out := make([]Plugin, 0, len(names))
	for _, n := range names {
		p, err := LookupPlugin(n)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// PluginNames lists the registered plugin names, sorted.
func PluginNames() []string {
	names := make([]string, 0, len(plugins))
	for n := range plugins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
