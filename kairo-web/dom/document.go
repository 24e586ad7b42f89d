// Package dom is the page the client engine renders into: a mutable HTML
// tree with id/selector lookup and bubbling events. The router installs
// one fragment at a time; installing a new one drops every listener that
// was attached to the previous content.
package dom

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Listener handles an event dispatched on an element or one of its
// descendants.
type Listener func(*Event)

// Document owns the tree under the app container.
type Document struct {
	mu        sync.Mutex
	root      *html.Node
	listeners map[*html.Node]map[string][]Listener
}

// New returns an empty document with a single app container.
func New() *Document {
	return &Document{
		root: &html.Node{
			Type:     html.ElementNode,
			Data:     "div",
			DataAtom: atom.Div,
			Attr:     []html.Attribute{{Key: "id", Val: "app"}},
		},
		listeners: map[*html.Node]map[string][]Listener{},
	}
}

// SetContent parses markup and makes it the container's only content.
// Listeners bound to the previous content are discarded.
func (d *Document) SetContent(markup string) error {
	nodes, err := html.ParseFragment(strings.NewReader(markup), &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	})
	if err != nil {
		return fmt.Errorf("parse fragment: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for c := d.root.FirstChild; c != nil; {
		next := c.NextSibling
		d.root.RemoveChild(c)
		c = next
	}
	for _, n := range nodes {
		d.root.AppendChild(n)
	}
	d.listeners = map[*html.Node]map[string][]Listener{}
	return nil
}

// Root returns the app container.
func (d *Document) Root() *Element { return &Element{doc: d, n: d.root} }

// ByID returns the element with the given id inside the container, or nil.
func (d *Document) ByID(id string) *Element {
	if id == "" {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if n := findByID(d.root, id); n != nil {
		return d.wrap(n)
	}
	return nil
}

// Query returns the first element matching the CSS selector, or nil.
// Invalid selectors match nothing.
func (d *Document) Query(selector string) *Element { return d.Root().Query(selector) }

// QueryAll returns every element matching the CSS selector.
func (d *Document) QueryAll(selector string) []*Element { return d.Root().QueryAll(selector) }

// CreateElement returns a detached element. attrs are key/value pairs.
func (d *Document) CreateElement(tag string, attrs ...string) *Element {
	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return &Element{doc: d, n: n}
}

// HTML renders the container's content.
func (d *Document) HTML() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var buf bytes.Buffer
	for c := d.root.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&buf, c)
	}
	return buf.String()
}

// Text returns the text content of the container.
func (d *Document) Text() string { return d.Root().Text() }

// Walk calls fn for every element under the container in document order.
// Returning false skips the element's subtree. fn must not mutate the tree.
func (d *Document) Walk(fn func(*Element) bool) {
	d.mu.Lock()
	var order []*html.Node
	var visit func(*html.Node)
	skip := map[*html.Node]bool{}
	visit = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				order = append(order, c)
				visit(c)
			}
		}
	}
	visit(d.root)
	d.mu.Unlock()

	for _, n := range order {
		if skipped(n, skip) {
			skip[n] = true
			continue
		}
		if !fn(d.wrap(n)) {
			skip[n] = true
		}
	}
}

func skipped(n *html.Node, skip map[*html.Node]bool) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if skip[p] {
			return true
		}
	}
	return false
}

func (d *Document) wrap(n *html.Node) *Element { return &Element{doc: d, n: n} }

func findByID(n *html.Node, id string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if v, ok := attr(c, "id"); ok && v == id {
			return c
		}
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

func compile(selector string) cascadia.Selector {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil
	}
	return sel
}
