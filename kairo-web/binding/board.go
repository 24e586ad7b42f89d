package binding

import (
	"strings"

	"kairo/kairo-web/dom"
	"kairo/kairo-web/route"
)

// CreatePrompt is the question asked by the create button.
const CreatePrompt = "Task title:"

var boardAnchors = []Anchor{
	{Name: "list", IDs: []string{"todoList", "notesList"}, Required: true},
	{Name: "form", IDs: []string{"todoForm"}},
	{Name: "input", IDs: []string{"newTodo"}},
	{Name: "create", IDs: []string{"createBtn"}},
	{Name: "empty", IDs: []string{"emptyState"}},
	{Name: "logout", IDs: []string{"profileBtn"}},
	{Name: "searchForm", IDs: []string{"searchForm"}},
	{Name: "search", IDs: []string{"searchInput"}},
}

type board struct {
	page  *dom.Document
	list  *dom.Element
	empty *dom.Element
}

// add inserts a new item at the top of the list. Blank titles are ignored.
func (b *board) add(title string) {
	title = strings.TrimSpace(title)
	if title == "" {
		return
	}
	li := b.page.CreateElement("li", "class", "todo")
	label := b.page.CreateElement("label")
	label.AppendChild(b.page.CreateElement("input", "type", "checkbox", "class", "check"))
	text := b.page.CreateElement("span", "class", "title")
	text.SetText(title)
	label.AppendChild(text)
	remove := b.page.CreateElement("button", "type", "button", "class", "link remove")
	remove.SetText("Remove")
	li.AppendChild(label)
	li.AppendChild(remove)

	b.list.Prepend(li)
	b.sync()
}

// sync shows the placeholder when the list is empty and the list otherwise.
func (b *board) sync() {
	empty := len(b.list.Children()) == 0
	if b.empty != nil {
		b.empty.SetHidden(!empty)
	}
	b.list.SetHidden(empty)
}

func (b *board) onListClick(ev *dom.Event) {
	item := ev.Target.Closest(".todo")
	if item == nil {
		return
	}
	switch {
	case ev.Target.Matches(".remove"):
		item.Remove()
		b.sync()
	case ev.Target.Matches(".check"):
		item.ToggleClass("completed", ev.Target.Checked())
	}
}

// filter hides items whose text lacks q, case-insensitively. Items stay
// in the list.
func (b *board) filter(q string) {
	q = strings.ToLower(strings.TrimSpace(q))
	for _, li := range b.list.Children() {
		if q == "" || strings.Contains(strings.ToLower(li.Text()), q) {
			li.SetStyle("display", "")
			continue
		}
		li.SetStyle("display", "none")
	}
}

func (d Deps) bindBoard(s *Scope) {
	b := &board{page: s.Page, list: s.Anchors.Get("list"), empty: s.Anchors.Get("empty")}
	b.list.On("click", b.onListClick)

	form, input := s.Anchors.Get("form"), s.Anchors.Get("input")
	switch create := s.Anchors.Get("create"); {
	case form != nil && input != nil:
		form.On("submit", func(_ *dom.Event) {
			b.add(input.Value())
			input.SetValue("")
		})
	case create != nil && d.Prompt != nil:
		create.On("click", func(_ *dom.Event) {
			if title, ok := d.Prompt.Prompt(CreatePrompt); ok {
				b.add(title)
			}
		})
	}

	if logout := s.Anchors.Get("logout"); logout != nil {
		logout.On("click", func(_ *dom.Event) {
			if err := d.Session.ClearToken(s.Ctx); err != nil {
				s.Log.WithError(err).Error("clear session token")
			}
			d.Nav.Navigate(route.Login)
		})
	}
	if sf := s.Anchors.Get("searchForm"); sf != nil {
		sf.On("submit", func(ev *dom.Event) { ev.StopPropagation() })
	}
	if search := s.Anchors.Get("search"); search != nil {
		search.On("input", func(ev *dom.Event) { b.filter(ev.Target.Value()) })
	}
}

func (d Deps) bindForgot(s *Scope) {
	s.Log.Info("view entered")
}
