package dom

import (
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Element is a handle on one node of a Document. Handles are cheap; two
// handles on the same node compare equal through Is.
type Element struct {
	doc *Document
	n   *html.Node
}

// Is reports whether e and other refer to the same node.
func (e *Element) Is(other *Element) bool {
	return e != nil && other != nil && e.n == other.n
}

// Tag returns the lower-case tag name.
func (e *Element) Tag() string { return e.n.Data }

// ID returns the id attribute.
func (e *Element) ID() string {
	v, _ := e.Attr("id")
	return v
}

// Attr returns the named attribute and whether it is set.
func (e *Element) Attr(key string) (string, bool) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return attr(e.n, key)
}

// SetAttr sets or replaces an attribute.
func (e *Element) SetAttr(key, val string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	setAttr(e.n, key, val)
}

// RemoveAttr deletes an attribute if present.
func (e *Element) RemoveAttr(key string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	removeAttr(e.n, key)
}

func (e *Element) flag(key string) bool {
	_, ok := e.Attr(key)
	return ok
}

func (e *Element) setFlag(key string, on bool) {
	if on {
		e.SetAttr(key, "")
		return
	}
	e.RemoveAttr(key)
}

// Value is the current value of a form control.
func (e *Element) Value() string {
	v, _ := e.Attr("value")
	return v
}

func (e *Element) SetValue(v string) { e.SetAttr("value", v) }

func (e *Element) Checked() bool     { return e.flag("checked") }
func (e *Element) SetChecked(b bool) { e.setFlag("checked", b) }

func (e *Element) Disabled() bool     { return e.flag("disabled") }
func (e *Element) SetDisabled(b bool) { e.setFlag("disabled", b) }

func (e *Element) Hidden() bool     { return e.flag("hidden") }
func (e *Element) SetHidden(b bool) { e.setFlag("hidden", b) }

// Style returns one inline style property.
func (e *Element) Style(prop string) string {
	s, _ := e.Attr("style")
	return parseStyle(s)[prop]
}

// SetStyle sets one inline style property; an empty value removes it.
func (e *Element) SetStyle(prop, val string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	s, _ := attr(e.n, "style")
	props := parseStyle(s)
	keys := styleKeys(s)
	if val == "" {
		delete(props, prop)
	} else {
		if _, ok := props[prop]; !ok {
			keys = append(keys, prop)
		}
		props[prop] = val
	}
	var b strings.Builder
	for _, k := range keys {
		v, ok := props[k]
		if !ok {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("; ")
		}
		b.WriteString(k + ": " + v)
	}
	if b.Len() == 0 {
		removeAttr(e.n, "style")
		return
	}
	setAttr(e.n, "style", b.String())
}

// Visible reports whether the element itself is neither hidden nor
// display:none. Ancestors are not considered.
func (e *Element) Visible() bool {
	return !e.Hidden() && e.Style("display") != "none"
}

// HasClass reports whether name is in the class list.
func (e *Element) HasClass(name string) bool {
	c, _ := e.Attr("class")
	for _, f := range strings.Fields(c) {
		if f == name {
			return true
		}
	}
	return false
}

// ToggleClass adds name when on is true and removes it otherwise.
func (e *Element) ToggleClass(name string, on bool) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	c, _ := attr(e.n, "class")
	var out []string
	present := false
	for _, f := range strings.Fields(c) {
		if f == name {
			present = true
			if !on {
				continue
			}
		}
		out = append(out, f)
	}
	if on && !present {
		out = append(out, name)
	}
	if len(out) == 0 {
		removeAttr(e.n, "class")
		return
	}
	setAttr(e.n, "class", strings.Join(out, " "))
}

// Text returns the concatenated text of every descendant text node.
func (e *Element) Text() string {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	var b strings.Builder
	collectText(e.n, &b)
	return b.String()
}

// SetText replaces the element's children with a single text node.
func (e *Element) SetText(s string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	e.clearChildren()
	if s != "" {
		e.n.AppendChild(&html.Node{Type: html.TextNode, Data: s})
	}
}

// AppendText adds a text node after the existing children.
func (e *Element) AppendText(s string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	e.n.AppendChild(&html.Node{Type: html.TextNode, Data: s})
}

func (e *Element) clearChildren() {
	for c := e.n.FirstChild; c != nil; {
		next := c.NextSibling
		e.n.RemoveChild(c)
		e.doc.dropListeners(c)
		c = next
	}
}

// Children returns the element children in order.
func (e *Element) Children() []*Element {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	var out []*Element
	for c := e.n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, e.doc.wrap(c))
		}
	}
	return out
}

// Parent returns the parent element, or nil for detached or root nodes.
func (e *Element) Parent() *Element {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	if e.n.Parent == nil || e.n.Parent.Type != html.ElementNode {
		return nil
	}
	return e.doc.wrap(e.n.Parent)
}

// Connected reports whether the element is inside the document container.
func (e *Element) Connected() bool {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	for p := e.n; p != nil; p = p.Parent {
		if p == e.doc.root {
			return true
		}
	}
	return false
}

// AppendChild moves child to the end of e's children.
func (e *Element) AppendChild(child *Element) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	detach(child.n)
	e.n.AppendChild(child.n)
}

// Prepend moves child to the front of e's children.
func (e *Element) Prepend(child *Element) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	detach(child.n)
	if e.n.FirstChild == nil {
		e.n.AppendChild(child.n)
		return
	}
	e.n.InsertBefore(child.n, e.n.FirstChild)
}

// Remove detaches the element and forgets its listeners.
func (e *Element) Remove() {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	if e.n == e.doc.root {
		return
	}
	detach(e.n)
	e.doc.dropListeners(e.n)
}

// Matches reports whether the element matches the CSS selector.
func (e *Element) Matches(selector string) bool {
	sel := compile(selector)
	if sel == nil {
		return false
	}
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return sel.Match(e.n)
}

// Closest returns the nearest inclusive ancestor matching selector that
// lies inside the container.
func (e *Element) Closest(selector string) *Element {
	sel := compile(selector)
	if sel == nil {
		return nil
	}
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	for p := e.n; p != nil && p != e.doc.root; p = p.Parent {
		if p.Type == html.ElementNode && sel.Match(p) {
			return e.doc.wrap(p)
		}
	}
	return nil
}

// Query returns the first descendant matching selector, or nil.
func (e *Element) Query(selector string) *Element {
	sel := compile(selector)
	if sel == nil {
		return nil
	}
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	if n := cascadia.Query(e.n, sel); n != nil {
		return e.doc.wrap(n)
	}
	return nil
}

// QueryAll returns every descendant matching selector.
func (e *Element) QueryAll(selector string) []*Element {
	sel := compile(selector)
	if sel == nil {
		return nil
	}
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	nodes := cascadia.QueryAll(e.n, sel)
	out := make([]*Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, e.doc.wrap(n))
	}
	return out
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		out = append(out, a)
	}
	n.Attr = out
}

func detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

func collectText(n *html.Node, b *strings.Builder) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			b.WriteString(c.Data)
		case html.ElementNode:
			collectText(c, b)
		}
	}
}

func parseStyle(s string) map[string]string {
	out := map[string]string{}
	for _, decl := range strings.Split(s, ";") {
		k, v, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		k = strings.TrimSpace(strings.ToLower(k))
		if k == "" {
			continue
		}
		out[k] = strings.TrimSpace(v)
	}
	return out
}

func styleKeys(s string) []string {
	var keys []string
	seen := map[string]bool{}
	for _, decl := range strings.Split(s, ";") {
		k, _, ok := strings.Cut(decl, ":")
		k = strings.TrimSpace(strings.ToLower(k))
		if !ok || k == "" || seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}
	return keys
}
