package app

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"

	"golang.org/x/net/html"
)

// ShellFile is the host page loaded from the bundle root.
const ShellFile = "index.html"

const mountMarker = "chainui-mount"

var ErrMountTargetMissing = errors.New("mount target not found in host page")

// shell is the host page split around the mount element's content.
type shell struct {
	prefix []byte
	suffix []byte
}

func (s *shell) wrap(view []byte) []byte {
	out := make([]byte, 0, len(s.prefix)+len(view)+len(s.suffix))
	out = append(out, s.prefix...)
	out = append(out, view...)
	return append(out, s.suffix...)
}

// loadShell parses index.html and cuts it at the element whose id matches selector.
// Existing children of the mount element are dropped, as a mount replaces them.
func loadShell(fsys fs.FS, selector string) (*shell, error) {
	src, err := fs.ReadFile(fsys, ShellFile)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ShellFile, err)
	}
	id, err := selectorID(selector)
	if err != nil {
		return nil, err
	}
	doc, err := html.Parse(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", ShellFile, err)
	}
	target := findByID(doc, id)
	if target == nil {
		return nil, fmt.Errorf("%w: %s", ErrMountTargetMissing, selector)
	}
	for c := target.FirstChild; c != nil; {
		next := c.NextSibling
		target.RemoveChild(c)
		c = next
	}
	target.AppendChild(&html.Node{Type: html.CommentNode, Data: mountMarker})

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, fmt.Errorf("render %s: %w", ShellFile, err)
	}
	out := buf.Bytes()
	marker := []byte("<!--" + mountMarker + "-->")
	i := bytes.Index(out, marker)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMountTargetMissing, selector)
	}
	return &shell{
		prefix: append([]byte(nil), out[:i]...),
		suffix: append([]byte(nil), out[i+len(marker):]...),
	}, nil
}

func selectorID(selector string) (string, error) {
	if len(selector) < 2 || selector[0] != '#' {
		return "", fmt.Errorf("%w: unsupported selector %q", ErrMountTargetMissing, selector)
	}
	return selector[1:], nil
}

func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Namespace == "" && a.Key == "id" && a.Val == id {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}
