package shell

import (
	"context"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"

	"kairo/kairo-web/app"
	"kairo/kairo-web/session"
	"kairo/kairo-web/views"
)

func run(t *testing.T, store session.Store, script string) string {
	t.Helper()
	var out strings.Builder
	sh := New(strings.NewReader(script), &out)
	logger, _ := test.NewNullLogger()
	a, err := app.New(app.Config{
		APIBaseURL: "http://127.0.0.1:0",
		Views:      views.FS,
		Session:    store,
		Prompt:     sh,
		Logger:     logger,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := sh.Run(context.Background(), a); err != nil {
		t.Fatalf("run: %v", err)
	}
	return out.String()
}

func TestNavigationCommands(t *testing.T) {
	out := run(t, session.NewMemory(), "open register\nclick a[href=\"#/login\"]\ntoken\nquit\nshow\n")
	if !strings.Contains(out, "## Create your account") {
		t.Fatalf("open did not render the register view:\n%s", out)
	}
	if strings.Count(out, "## Log in") < 2 {
		t.Fatalf("clicking the link should render the login view again:\n%s", out)
	}
	if !strings.Contains(out, "(no session)") {
		t.Fatalf("token should report no session:\n%s", out)
	}
	if strings.Count(out, "## Log in") > 2 {
		t.Fatalf("commands after quit were executed:\n%s", out)
	}
}

func TestBoardPromptReadsNextLine(t *testing.T) {
	store := session.NewMemory()
	_ = store.SetToken(context.Background(), "tok")
	out := run(t, store, "click createBtn\nWater plants\nclick .check\nshow\n")
	if !strings.Contains(out, "Task title: ") {
		t.Fatalf("expected the prompt to be printed:\n%s", out)
	}
	if !strings.Contains(out, "- [x] Water plants") {
		t.Fatalf("expected a completed task:\n%s", out)
	}
}

func TestFillAndErrors(t *testing.T) {
	out := run(t, session.NewMemory(), "fill lemail ana@example.com\nfill\nclick nope\nsubmit\nshow\nfrobnicate\n")
	if !strings.Contains(out, "[#lemail: ana@example.com]") {
		t.Fatalf("fill not reflected:\n%s", out)
	}
	for _, want := range []string{"usage: fill", "no such element: nope", "usage: submit", `unknown command "frobnicate"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}
