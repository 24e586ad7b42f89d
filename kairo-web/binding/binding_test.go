package binding

import (
	"context"
	"errors"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"kairo/kairo-web/authclient"
	"kairo/kairo-web/clock"
	"kairo/kairo-web/dom"
	"kairo/kairo-web/route"
	"kairo/kairo-web/session"
	"kairo/kairo-web/views"
)

type fakeAuth struct {
	register     func(ctx context.Context, username, email, password string) (authclient.UserRecord, error)
	authenticate func(ctx context.Context, email, password string) (authclient.Session, error)
	calls        int
}

func (f *fakeAuth) Register(ctx context.Context, username, email, password string) (authclient.UserRecord, error) {
	f.calls++
	if f.register == nil {
		return authclient.UserRecord{Username: username, Email: email}, nil
	}
	return f.register(ctx, username, email, password)
}

func (f *fakeAuth) Authenticate(ctx context.Context, email, password string) (authclient.Session, error) {
	f.calls++
	if f.authenticate == nil {
		return authclient.Session{Token: "tok"}, nil
	}
	return f.authenticate(ctx, email, password)
}

type recordingNav struct{ routes []route.Route }

func (n *recordingNav) Navigate(r route.Route) { n.routes = append(n.routes, r) }

type scriptedPrompt struct {
	answers []string
	asked   int
}

func (p *scriptedPrompt) Prompt(string) (string, bool) {
	if p.asked >= len(p.answers) {
		return "", false
	}
	p.asked++
	return p.answers[p.asked-1], true
}

type harness struct {
	page  *dom.Document
	auth  *fakeAuth
	nav   *recordingNav
	store session.Store
	clk   *clock.Fake
	table Table
	live  bool
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		page:  dom.New(),
		auth:  &fakeAuth{},
		nav:   &recordingNav{},
		store: session.NewMemory(),
		clk:   clock.NewFake(time.Unix(0, 0)),
		live:  true,
	}
	h.table = NewTable(Deps{
		Auth:    h.auth,
		Session: h.store,
		Nav:     h.nav,
		Clock:   h.clk,
		Prompt:  &scriptedPrompt{},
	})
	return h
}

// install puts markup on the page and runs the binding for v.
func (h *harness) install(t *testing.T, v route.View, markup string) {
	t.Helper()
	if err := h.page.SetContent(markup); err != nil {
		t.Fatalf("set content: %v", err)
	}
	logger, _ := test.NewNullLogger()
	if _, err := h.table.Run(context.Background(), h.page, v, func() bool { return h.live }, logger); err != nil {
		t.Fatalf("run binding: %v", err)
	}
}

func (h *harness) installView(t *testing.T, v route.View) {
	t.Helper()
	b, err := views.FS.ReadFile(string(v) + ".html")
	if err != nil {
		t.Fatalf("read view: %v", err)
	}
	h.install(t, v, string(b))
}

func (h *harness) text(id string) string {
	if el := h.page.ByID(id); el != nil {
		return el.Text()
	}
	return ""
}

func fill(t *testing.T, page *dom.Document, values map[string]string) {
	t.Helper()
	for id, v := range values {
		el := page.ByID(id)
		if el == nil {
			t.Fatalf("no element #%s", id)
		}
		el.Input(v)
	}
}

func TestTableCoversEveryView(t *testing.T) {
	table := NewTable(Deps{})
	for _, v := range []route.View{route.RegisterView, route.LoginView, route.BoardView, route.ForgotView} {
		if _, ok := table[v]; !ok {
			t.Errorf("no binding for %s", v)
		}
	}
	if len(table) != 4 {
		t.Fatalf("unexpected bindings: %d", len(table))
	}
}

func TestRunSkipsWhenRequiredAnchorMissing(t *testing.T) {
	h := newHarness(t)
	if err := h.page.SetContent(`<p>nothing here</p>`); err != nil {
		t.Fatal(err)
	}
	logger, hook := test.NewNullLogger()
	logger.SetLevel(log.DebugLevel)
	ran, err := h.table.Run(context.Background(), h.page, route.BoardView, nil, logger)
	if ran || !errors.Is(err, ErrMissingAnchors) {
		t.Fatalf("expected skipped binding, got ran=%v err=%v", ran, err)
	}
	if e := hook.LastEntry(); e == nil || e.Message != "binding skipped" {
		t.Fatalf("expected debug entry, got %v", e)
	}

	ran, err = h.table.Run(context.Background(), h.page, route.View("settings"), nil, logger)
	if ran || err != nil {
		t.Fatalf("unknown view should be a no-op, got ran=%v err=%v", ran, err)
	}
}

func TestRegisterRejectsEmptyFieldsLocally(t *testing.T) {
	cases := map[string]map[string]string{
		"username": {"rname": "  ", "remail": "a@b.c", "rpassword": "pw"},
		"email":    {"rname": "ana", "remail": "", "rpassword": "pw"},
		"password": {"rname": "ana", "remail": "a@b.c", "rpassword": "\t"},
	}
	for name, values := range cases {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t)
			h.installView(t, route.RegisterView)
			fill(t, h.page, values)
			h.page.ByID("registerForm").Submit()

			if h.auth.calls != 0 {
				t.Fatalf("expected no network call, got %d", h.auth.calls)
			}
			if got := h.text("regMsg"); got != msgRegisterIncomplete {
				t.Fatalf("unexpected message %q", got)
			}
		})
	}
}

func TestRegisterSuccessNavigatesAfterDelay(t *testing.T) {
	h := newHarness(t)
	var sent [3]string
	h.auth.register = func(_ context.Context, u, e, p string) (authclient.UserRecord, error) {
		if btn := h.page.Query(`#registerForm button[type="submit"]`); !btn.Disabled() {
			t.Error("submit button enabled during the call")
		}
		sent = [3]string{u, e, p}
		return authclient.UserRecord{ID: "1", Username: u, Email: e}, nil
	}
	h.installView(t, route.RegisterView)
	fill(t, h.page, map[string]string{"rname": " ana ", "remail": "ana@example.com", "rpassword": "s3cret "})
	h.page.Query(`#registerForm button[type="submit"]`).Click()

	if sent != [3]string{"ana", "ana@example.com", "s3cret"} {
		t.Fatalf("fields not trimmed: %q", sent)
	}
	if got := h.text("regMsg"); got != msgRegisterOK {
		t.Fatalf("unexpected message %q", got)
	}
	if h.page.Query(`#registerForm button[type="submit"]`).Disabled() {
		t.Fatal("submit button not re-enabled")
	}
	if len(h.nav.routes) != 0 {
		t.Fatalf("navigated before the delay: %v", h.nav.routes)
	}
	h.clk.Advance(RegisterRedirectDelay - time.Millisecond)
	if len(h.nav.routes) != 0 {
		t.Fatalf("navigated early: %v", h.nav.routes)
	}
	h.clk.Advance(time.Millisecond)
	if len(h.nav.routes) != 1 || h.nav.routes[0] != route.Board {
		t.Fatalf("expected navigation to board, got %v", h.nav.routes)
	}
}

func TestRegisterFailureShowsMessageAndReenables(t *testing.T) {
	h := newHarness(t)
	h.auth.register = func(context.Context, string, string, string) (authclient.UserRecord, error) {
		return authclient.UserRecord{}, &authclient.RemoteError{Status: 400, Message: "email already registered"}
	}
	h.installView(t, route.RegisterView)
	fill(t, h.page, map[string]string{"rname": "ana", "remail": "ana@example.com", "rpassword": "pw"})
	h.page.ByID("registerForm").Submit()

	if got := h.text("regMsg"); got != msgRegisterFailed+"email already registered" {
		t.Fatalf("unexpected message %q", got)
	}
	if h.page.Query(`#registerForm button`).Disabled() {
		t.Fatal("submit button left disabled")
	}
	h.clk.Advance(time.Second)
	if len(h.nav.routes) != 0 {
		t.Fatalf("failure navigated: %v", h.nav.routes)
	}
}

func TestRegisterSupersededSkipsSideEffects(t *testing.T) {
	h := newHarness(t)
	h.auth.register = func(context.Context, string, string, string) (authclient.UserRecord, error) {
		h.live = false
		return authclient.UserRecord{}, nil
	}
	h.installView(t, route.RegisterView)
	fill(t, h.page, map[string]string{"rname": "ana", "remail": "ana@example.com", "rpassword": "pw"})
	h.page.ByID("registerForm").Submit()

	if got := h.text("regMsg"); got != "" {
		t.Fatalf("superseded view was written to: %q", got)
	}
	if h.clk.Pending() != 0 {
		t.Fatal("superseded registration scheduled a redirect")
	}
}

func TestRegisterDelayedNavigationChecksCurrent(t *testing.T) {
	h := newHarness(t)
	h.installView(t, route.RegisterView)
	fill(t, h.page, map[string]string{"rname": "ana", "remail": "ana@example.com", "rpassword": "pw"})
	h.page.ByID("registerForm").Submit()
	h.live = false
	h.clk.Advance(RegisterRedirectDelay)
	if len(h.nav.routes) != 0 {
		t.Fatalf("stale redirect fired: %v", h.nav.routes)
	}
}

func TestRegisterAcceptsCurrentFieldIDs(t *testing.T) {
	h := newHarness(t)
	var got string
	h.auth.register = func(_ context.Context, u, _, _ string) (authclient.UserRecord, error) {
		got = u
		return authclient.UserRecord{}, nil
	}
	h.install(t, route.RegisterView, `
<form id="registerForm">
  <input id="username"><input id="email"><input id="password">
  <button>Go</button>
  <p id="registerMsg"></p>
</form>`)
	fill(t, h.page, map[string]string{"username": "bo", "email": "bo@example.com", "password": "pw"})
	h.page.ByID("registerForm").Submit()
	if got != "bo" {
		t.Fatalf("alias ids not resolved, got %q", got)
	}
	if h.text("registerMsg") != msgRegisterOK {
		t.Fatalf("message slot alias not used: %q", h.text("registerMsg"))
	}
}

func TestRegisterEntryHookWithoutForm(t *testing.T) {
	h := newHarness(t)
	if err := h.page.SetContent(`<h1>welcome</h1>`); err != nil {
		t.Fatal(err)
	}
	logger, hook := test.NewNullLogger()
	ran, err := h.table.Run(context.Background(), h.page, route.RegisterView, nil, logger)
	if !ran || err != nil {
		t.Fatalf("expected the entry hook to run, got ran=%v err=%v", ran, err)
	}
	if e := hook.LastEntry(); e == nil || e.Message != "view entered" {
		t.Fatalf("expected entry log, got %v", e)
	}
}

func TestLoginSuccessStoresTokenAndNavigates(t *testing.T) {
	h := newHarness(t)
	h.auth.authenticate = func(_ context.Context, e, p string) (authclient.Session, error) {
		if e != "ana@example.com" || p != "pw" {
			t.Errorf("unexpected credentials %q %q", e, p)
		}
		return authclient.Session{Token: "abc"}, nil
	}
	h.installView(t, route.LoginView)
	fill(t, h.page, map[string]string{"lemail": " ana@example.com", "lpassword": "pw "})
	h.page.ByID("loginForm").Submit()

	tok, ok, err := h.store.Token(context.Background())
	if err != nil || !ok || tok != "abc" {
		t.Fatalf("token not stored: %q %v %v", tok, ok, err)
	}
	if len(h.nav.routes) != 1 || h.nav.routes[0] != route.Board {
		t.Fatalf("expected navigation to board, got %v", h.nav.routes)
	}
}

func TestLoginFailureLeavesStateUntouched(t *testing.T) {
	h := newHarness(t)
	h.auth.authenticate = func(context.Context, string, string) (authclient.Session, error) {
		return authclient.Session{}, &authclient.RemoteError{Status: 400, Message: "incorrect password"}
	}
	h.installView(t, route.LoginView)
	fill(t, h.page, map[string]string{"lemail": "ana@example.com", "lpassword": "nope"})
	h.page.ByID("loginForm").Submit()

	if ok, _ := session.Present(context.Background(), h.store); ok {
		t.Fatal("failed login wrote a token")
	}
	if len(h.nav.routes) != 0 {
		t.Fatalf("failed login navigated: %v", h.nav.routes)
	}
	if got := h.text("loginMsg"); got != msgLoginFailed+"incorrect password" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestLoginRejectsEmptyCredentials(t *testing.T) {
	h := newHarness(t)
	h.installView(t, route.LoginView)
	fill(t, h.page, map[string]string{"lemail": "ana@example.com", "lpassword": "   "})
	h.page.ByID("loginForm").Submit()
	if h.auth.calls != 0 || h.text("loginMsg") != msgLoginIncomplete {
		t.Fatalf("expected local rejection, calls=%d msg=%q", h.auth.calls, h.text("loginMsg"))
	}
}
