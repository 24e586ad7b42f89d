package dom

import "golang.org/x/net/html"

// Event is delivered to listeners from the target up to the container.
type Event struct {
	Type    string
	Target  *Element
	Current *Element

	stopped bool
}

// StopPropagation keeps the event from reaching further ancestors.
func (ev *Event) StopPropagation() { ev.stopped = true }

// On registers fn for events of type typ dispatched on e or bubbling
// through it.
func (e *Element) On(typ string, fn Listener) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	byType := e.doc.listeners[e.n]
	if byType == nil {
		byType = map[string][]Listener{}
		e.doc.listeners[e.n] = byType
	}
	byType[typ] = append(byType[typ], fn)
}

type hop struct {
	n         *html.Node
	listeners []Listener
}

// Dispatch fires an event of type typ at e and bubbles it to the
// container. Listeners run without the document lock held, so they may
// mutate the tree or replace the content.
func (e *Element) Dispatch(typ string) *Event {
	e.doc.mu.Lock()
	var path []hop
	for p := e.n; p != nil; p = p.Parent {
		if ls := e.doc.listeners[p][typ]; len(ls) > 0 {
			path = append(path, hop{n: p, listeners: append([]Listener(nil), ls...)})
		}
		if p == e.doc.root {
			break
		}
	}
	e.doc.mu.Unlock()

	ev := &Event{Type: typ, Target: e}
	for _, h := range path {
		ev.Current = e.doc.wrap(h.n)
		for _, fn := range h.listeners {
			fn(ev)
		}
		if ev.stopped {
			break
		}
	}
	return ev
}

// Click performs a user click: disabled controls ignore it, checkboxes
// flip their checked state before listeners run, and submit buttons then
// submit their form.
func (e *Element) Click() {
	if e.Disabled() {
		return
	}
	if e.isCheckbox() {
		e.SetChecked(!e.Checked())
	}
	e.Dispatch("click")
	if e.isSubmitButton() {
		if form := e.Closest("form"); form != nil {
			form.Submit()
		}
	}
}

// Submit fires a submit event on a form.
func (e *Element) Submit() { e.Dispatch("submit") }

// Input replaces a control's value and fires an input event, as typing
// would.
func (e *Element) Input(value string) {
	e.SetValue(value)
	e.Dispatch("input")
}

func (e *Element) isCheckbox() bool {
	t, _ := e.Attr("type")
	return e.Tag() == "input" && t == "checkbox"
}

func (e *Element) isSubmitButton() bool {
	t, ok := e.Attr("type")
	switch e.Tag() {
	case "button":
		return !ok || t == "submit"
	case "input":
		return t == "submit"
	}
	return false
}

// dropListeners forgets listeners on n and its descendants. Callers hold
// the document lock.
func (d *Document) dropListeners(n *html.Node) {
	delete(d.listeners, n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.dropListeners(c)
	}
}
