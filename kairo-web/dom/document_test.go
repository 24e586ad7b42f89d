package dom

import (
	"strings"
	"testing"
)

const sampleMarkup = `
<form id="todoForm">
  <input id="newTodo" value="">
  <button type="submit">Add</button>
</form>
<p id="emptyState">Nothing yet</p>
<ul id="todoList" hidden>
  <li class="todo"><label><input type="checkbox" class="check"><span>one</span></label><button class="remove" type="button">x</button></li>
</ul>`

func mustDocument(t *testing.T, markup string) *Document {
	t.Helper()
	d := New()
	if err := d.SetContent(markup); err != nil {
		t.Fatalf("set content: %v", err)
	}
	return d
}

func TestSetContentReplacesContentAndListeners(t *testing.T) {
	d := mustDocument(t, sampleMarkup)
	calls := 0
	d.ByID("todoForm").On("submit", func(*Event) { calls++ })
	d.ByID("todoForm").Submit()
	if calls != 1 {
		t.Fatalf("expected 1 submit, got %d", calls)
	}

	if err := d.SetContent(sampleMarkup); err != nil {
		t.Fatalf("reinstall: %v", err)
	}
	d.ByID("todoForm").Submit()
	if calls != 1 {
		t.Fatalf("listener survived content replacement: %d calls", calls)
	}
	if n := len(d.QueryAll("form")); n != 1 {
		t.Fatalf("expected a single form after replacement, got %d", n)
	}
}

func TestLookupAndAttributes(t *testing.T) {
	d := mustDocument(t, sampleMarkup)
	if d.ByID("missing") != nil {
		t.Fatal("expected nil for unknown id")
	}
	list := d.ByID("todoList")
	if list == nil || !list.Hidden() || list.Visible() {
		t.Fatal("expected hidden list")
	}
	list.SetHidden(false)
	if list.Hidden() {
		t.Fatal("hidden attribute not removed")
	}
	btn := d.ByID("todoForm").Query(`button[type="submit"]`)
	if btn == nil || btn.Text() != "Add" {
		t.Fatalf("submit button lookup failed: %v", btn)
	}
	btn.SetDisabled(true)
	if !btn.Disabled() {
		t.Fatal("expected disabled button")
	}
	if d.Query("[[bad") != nil {
		t.Fatal("invalid selector should match nothing")
	}
}

func TestClassesAndStyle(t *testing.T) {
	d := mustDocument(t, sampleMarkup)
	li := d.Query(".todo")
	li.ToggleClass("completed", true)
	li.ToggleClass("completed", true)
	if c, _ := li.Attr("class"); c != "todo completed" {
		t.Fatalf("unexpected class attr %q", c)
	}
	li.ToggleClass("completed", false)
	if li.HasClass("completed") || !li.HasClass("todo") {
		t.Fatal("toggle off failed")
	}

	li.SetStyle("display", "none")
	li.SetStyle("color", "red")
	if li.Visible() {
		t.Fatal("display:none element reported visible")
	}
	li.SetStyle("display", "")
	if s, _ := li.Attr("style"); s != "color: red" {
		t.Fatalf("unexpected style %q", s)
	}
	if !li.Visible() {
		t.Fatal("expected visible after clearing display")
	}
}

func TestPrependRemoveAndClosest(t *testing.T) {
	d := mustDocument(t, sampleMarkup)
	list := d.ByID("todoList")
	li := d.CreateElement("li", "class", "todo")
	li.AppendText("two")
	list.Prepend(li)

	children := list.Children()
	if len(children) != 2 || !children[0].Is(li) {
		t.Fatalf("expected new item first, got %d children", len(children))
	}
	remove := children[1].Query(".remove")
	if got := remove.Closest(".todo"); !got.Is(children[1]) {
		t.Fatal("closest did not find the enclosing item")
	}
	if remove.Closest("#nothing") != nil {
		t.Fatal("closest should stop at the container")
	}
	children[1].Remove()
	if len(list.Children()) != 1 || children[1].Connected() {
		t.Fatal("remove did not detach the item")
	}
	if !strings.Contains(d.HTML(), "two") {
		t.Fatalf("rendered html missing new item: %s", d.HTML())
	}
}

func TestDispatchBubblesToAncestors(t *testing.T) {
	d := mustDocument(t, sampleMarkup)
	var seen []string
	d.ByID("todoList").On("click", func(ev *Event) {
		seen = append(seen, "list:"+ev.Target.Tag())
	})
	d.Root().On("click", func(ev *Event) { seen = append(seen, "root") })

	d.Query(".remove").Click()
	if len(seen) != 2 || seen[0] != "list:button" || seen[1] != "root" {
		t.Fatalf("unexpected bubbling order: %v", seen)
	}

	seen = nil
	d.ByID("todoList").On("click", func(ev *Event) { ev.StopPropagation() })
	d.Query(".remove").Click()
	if len(seen) != 1 {
		t.Fatalf("stop propagation did not stop bubbling: %v", seen)
	}
}

func TestClickDefaults(t *testing.T) {
	d := mustDocument(t, sampleMarkup)
	check := d.Query(".check")
	check.Click()
	if !check.Checked() {
		t.Fatal("checkbox click should check")
	}
	check.Click()
	if check.Checked() {
		t.Fatal("second click should uncheck")
	}

	submits := 0
	d.ByID("todoForm").On("submit", func(*Event) { submits++ })
	btn := d.Query(`#todoForm button`)
	btn.Click()
	if submits != 1 {
		t.Fatalf("submit button should submit its form, got %d", submits)
	}
	btn.SetDisabled(true)
	btn.Click()
	if submits != 1 {
		t.Fatal("disabled button submitted the form")
	}
}

func TestInputSetsValueAndFires(t *testing.T) {
	d := mustDocument(t, sampleMarkup)
	in := d.ByID("newTodo")
	var got string
	in.On("input", func(ev *Event) { got = ev.Target.Value() })
	in.Input("milk")
	if got != "milk" || in.Value() != "milk" {
		t.Fatalf("unexpected input value %q / %q", got, in.Value())
	}
}

func TestWalkSkipsSubtrees(t *testing.T) {
	d := mustDocument(t, sampleMarkup)
	var tags []string
	d.Walk(func(e *Element) bool {
		tags = append(tags, e.Tag())
		return e.Tag() != "ul"
	})
	for _, tag := range tags {
		if tag == "li" {
			t.Fatalf("walk descended into a skipped subtree: %v", tags)
		}
	}
	if tags[0] != "form" {
		t.Fatalf("unexpected walk order: %v", tags)
	}
}
