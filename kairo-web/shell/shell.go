// Package shell drives an app from line commands, one per line:
//
//	open <route|#/fragment>   navigate
//	fill <ref> <text>         set a control's value
//	type <ref> <text>         same as fill
//	submit <ref>              submit a form, or the form around ref
//	click <ref>               click an element
//	show                      render the page as text
//	html                      print the page markup
//	token                     print the stored session token
//	help                      list the commands
//	quit                      leave
//
// A ref is an element id, with or without '#', or a CSS selector.
// When a view asks for input (the new task button), the next line is
// the answer.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"kairo/kairo-web/app"
	"kairo/kairo-web/route"
)

const help = `commands:
  open <route|#/fragment>   navigate (board, login, register, forgot, home)
  fill <ref> <text>         set a control's value
  type <ref> <text>         same as fill
  submit <ref>              submit a form, or the form around ref
  click <ref>               click an element
  show                      render the page as text
  html                      print the page markup
  token                     print the stored session token
  help                      this text
  quit                      leave`

// errQuit ends Run without an error.
var errQuit = errors.New("quit")

// Shell reads commands from one input. It is also the app's Prompter,
// answering prompts from the same input.
type Shell struct {
	mu  sync.Mutex
	in  *bufio.Scanner
	out io.Writer
}

func New(in io.Reader, out io.Writer) *Shell {
	return &Shell{in: bufio.NewScanner(in), out: out}
}

// Prompt prints msg and returns the next input line. ok is false at the
// end of input or on an empty answer.
func (s *Shell) Prompt(msg string) (string, bool) {
	fmt.Fprintf(s.out, "%s ", msg)
	line, ok := s.next()
	if !ok {
		return "", false
	}
	line = strings.TrimSpace(line)
	return line, line != ""
}

func (s *Shell) next() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.in.Scan() {
		return "", false
	}
	return s.in.Text(), true
}

// Run executes commands against a until quit, end of input or ctx is
// done. The page is shown after every command that changes it.
func (s *Shell) Run(ctx context.Context, a *app.App) error {
	if err := app.Render(s.out, a.Page()); err != nil {
		return err
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(s.out, "> ")
		line, ok := s.next()
		if !ok {
			return s.in.Err()
		}
		err := s.exec(a, line)
		switch {
		case errors.Is(err, errQuit):
			return nil
		case err != nil:
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
	}
}

func (s *Shell) exec(a *app.App, line string) error {
	cmd, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	cmd, rest = strings.ToLower(cmd), strings.TrimSpace(rest)
	switch cmd {
	case "":
		return nil
	case "quit", "exit":
		return errQuit
	case "help":
		fmt.Fprintln(s.out, help)
		return nil
	case "show":
		return app.Render(s.out, a.Page())
	case "html":
		fmt.Fprintln(s.out, a.Page().HTML())
		return nil
	case "token":
		tok, ok, err := a.Session().Token(context.Background())
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(s.out, "(no session)")
			return nil
		}
		fmt.Fprintln(s.out, tok)
		return nil
	case "open":
		if rest == "" {
			return errors.New("usage: open <route>")
		}
		if strings.HasPrefix(rest, "#") {
			a.OpenFragment(rest)
		} else {
			a.Open(route.Route(strings.TrimPrefix(rest, "/")))
		}
	case "fill", "type":
		ref, text, _ := strings.Cut(rest, " ")
		if ref == "" {
			return fmt.Errorf("usage: %s <ref> <text>", cmd)
		}
		return a.Fill(ref, text)
	case "submit", "click":
		if rest == "" {
			return fmt.Errorf("usage: %s <ref>", cmd)
		}
		act := a.Submit
		if cmd == "click" {
			act = a.Click
		}
		if err := act(rest); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown command %q (try help)", cmd)
	}
	return app.Render(s.out, a.Page())
}
