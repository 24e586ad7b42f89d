package binding

import (
	"context"
	"testing"

	"kairo/kairo-web/route"
	"kairo/kairo-web/session"
)

const formBoard = `
<form id="todoForm"><input id="newTodo"><button>Add</button></form>
<button id="createBtn" type="button">New</button>
<p id="emptyState">Nothing yet</p>
<ul id="todoList" hidden></ul>`

func (h *harness) items() []string {
	var out []string
	for _, li := range h.page.QueryAll("li.todo") {
		out = append(out, li.Query(".title").Text())
	}
	return out
}

func (h *harness) addViaForm(title string) {
	h.page.ByID("newTodo").Input(title)
	h.page.ByID("todoForm").Submit()
}

func TestBoardAddIgnoresBlankTitles(t *testing.T) {
	h := newHarness(t)
	h.install(t, route.BoardView, formBoard)
	h.addViaForm("   ")
	if n := len(h.items()); n != 0 {
		t.Fatalf("blank title added %d items", n)
	}
	if h.page.ByID("emptyState").Hidden() || !h.page.ByID("todoList").Hidden() {
		t.Fatal("empty state changed on a no-op add")
	}
}

func TestBoardAddPrependsAndHidesPlaceholder(t *testing.T) {
	h := newHarness(t)
	h.install(t, route.BoardView, formBoard)
	h.addViaForm("milk")
	h.addViaForm(" bread ")

	got := h.items()
	if len(got) != 2 || got[0] != "bread" || got[1] != "milk" {
		t.Fatalf("unexpected order %v", got)
	}
	if !h.page.ByID("emptyState").Hidden() || h.page.ByID("todoList").Hidden() {
		t.Fatal("placeholder still visible after add")
	}
	if h.page.ByID("newTodo").Value() != "" {
		t.Fatal("input not cleared")
	}
	first := h.page.Query("li.todo")
	if first.Query(`input.check[type="checkbox"]`) == nil || first.Query("button.remove") == nil {
		t.Fatalf("item missing controls: %s", h.page.HTML())
	}
}

func TestBoardFormTakesPrecedenceOverPrompt(t *testing.T) {
	h := newHarness(t)
	prompt := &scriptedPrompt{answers: []string{"from prompt"}}
	h.table = NewTable(Deps{Auth: h.auth, Session: h.store, Nav: h.nav, Clock: h.clk, Prompt: prompt})
	h.install(t, route.BoardView, formBoard)
	h.page.ByID("createBtn").Click()
	if prompt.asked != 0 || len(h.items()) != 0 {
		t.Fatal("create button bound although a form exists")
	}
}

func TestBoardCreateButtonPrompts(t *testing.T) {
	h := newHarness(t)
	prompt := &scriptedPrompt{answers: []string{"call mom", ""}}
	h.table = NewTable(Deps{Auth: h.auth, Session: h.store, Nav: h.nav, Clock: h.clk, Prompt: prompt})
	h.installView(t, route.BoardView)

	h.page.ByID("createBtn").Click()
	h.page.ByID("createBtn").Click()
	h.page.ByID("createBtn").Click()
	if got := h.items(); len(got) != 1 || got[0] != "call mom" {
		t.Fatalf("unexpected items %v", got)
	}
	if h.page.ByID("notesList").Hidden() {
		t.Fatal("notes list should be visible")
	}
}

func TestBoardRemoveLastRestoresPlaceholder(t *testing.T) {
	h := newHarness(t)
	h.install(t, route.BoardView, formBoard)
	h.addViaForm("a")
	h.addViaForm("b")

	h.page.Query("li.todo .remove").Click()
	if got := h.items(); len(got) != 1 || got[0] != "a" {
		t.Fatalf("remove took the wrong item: %v", got)
	}
	h.page.Query("li.todo .remove").Click()
	if len(h.items()) != 0 {
		t.Fatal("item not removed")
	}
	if h.page.ByID("emptyState").Hidden() || !h.page.ByID("todoList").Hidden() {
		t.Fatal("empty list should show the placeholder and hide the list")
	}
	h.addViaForm("c")
	if !h.page.ByID("emptyState").Hidden() || h.page.ByID("todoList").Hidden() {
		t.Fatal("adding back did not reverse the empty state")
	}
}

func TestBoardCheckboxTogglesCompleted(t *testing.T) {
	h := newHarness(t)
	h.install(t, route.BoardView, formBoard)
	h.addViaForm("a")
	h.addViaForm("b")

	check := h.page.QueryAll("li.todo .check")[1]
	check.Click()
	items := h.page.QueryAll("li.todo")
	if !items[1].HasClass("completed") || items[0].HasClass("completed") {
		t.Fatal("wrong item marked completed")
	}
	if got := h.items(); got[0] != "b" || got[1] != "a" {
		t.Fatalf("toggle changed order: %v", got)
	}
	check.Click()
	if h.page.QueryAll("li.todo")[1].HasClass("completed") {
		t.Fatal("second click should clear completed")
	}
}

func TestBoardFilterHidesWithoutRemoving(t *testing.T) {
	h := newHarness(t)
	h.install(t, route.BoardView, formBoard+`<form id="searchForm"><input id="searchInput"></form>`)
	for _, title := range []string{"Buy milk", "Walk dog", "milkshake"} {
		h.addViaForm(title)
	}
	visible := func() int {
		n := 0
		for _, li := range h.page.QueryAll("li.todo") {
			if li.Visible() {
				n++
			}
		}
		return n
	}

	search := h.page.ByID("searchInput")
	search.Input("MILK")
	if visible() != 2 {
		t.Fatalf("expected 2 matches, got %d", visible())
	}
	search.Input("zzz")
	if visible() != 0 || len(h.items()) != 3 {
		t.Fatalf("filter removed items or left some visible: %d visible, %d total", visible(), len(h.items()))
	}
	search.Input("")
	if visible() != 3 {
		t.Fatalf("clearing the filter should show every item, got %d", visible())
	}

	h.page.ByID("searchForm").Submit()
	if len(h.nav.routes) != 0 {
		t.Fatal("search submit had side effects")
	}
}

func TestBoardLogoutClearsTokenAndNavigates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if err := h.store.SetToken(ctx, "abc"); err != nil {
		t.Fatal(err)
	}
	h.installView(t, route.BoardView)
	h.page.ByID("profileBtn").Click()

	if ok, _ := session.Present(ctx, h.store); ok {
		t.Fatal("token not cleared")
	}
	if len(h.nav.routes) != 1 || h.nav.routes[0] != route.Login {
		t.Fatalf("expected navigation to login, got %v", h.nav.routes)
	}
}
