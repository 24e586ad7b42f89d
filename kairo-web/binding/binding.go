// Package binding attaches per-view behavior after the router installs a
// fragment. Bindings are looked up in a static table keyed by view name;
// each declares the elements it needs so lookups happen once per load.
package binding

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"kairo/kairo-web/authclient"
	"kairo/kairo-web/clock"
	"kairo/kairo-web/dom"
	"kairo/kairo-web/route"
	"kairo/kairo-web/session"
)

// Navigator moves the client to another route.
type Navigator interface {
	Navigate(r route.Route)
}

// Authenticator is the part of the auth client the forms use.
type Authenticator interface {
	Register(ctx context.Context, username, email, password string) (authclient.UserRecord, error)
	Authenticate(ctx context.Context, email, password string) (authclient.Session, error)
}

// Prompter asks the user for a line of text. ok is false when the user
// cancelled.
type Prompter interface {
	Prompt(message string) (answer string, ok bool)
}

// Deps are the collaborators shared by every binding.
type Deps struct {
	Auth    Authenticator
	Session session.Store
	Nav     Navigator
	Clock   clock.Clock
	Prompt  Prompter
	// CallTimeout bounds each auth call; zero leaves calls unbounded.
	CallTimeout time.Duration
}

// Scope is what a binding sees of the view it was attached to.
type Scope struct {
	Ctx     context.Context
	Page    *dom.Document
	Anchors Anchors
	Log     log.FieldLogger

	current func() bool
}

// Current reports whether the view is still the latest navigation.
// Asynchronous continuations must check it before touching shared state.
func (s *Scope) Current() bool { return s.current == nil || s.current() }

// Binding is the behavior of one view.
type Binding struct {
	View    route.View
	Anchors []Anchor
	Bind    func(*Scope)
}

// Table maps concrete view names to their binding.
type Table map[route.View]Binding

// NewTable builds the binding table for the client's views.
func NewTable(d Deps) Table {
	if d.Clock == nil {
		d.Clock = clock.Real()
	}
	t := Table{}
	for _, b := range []Binding{
		{View: route.RegisterView, Anchors: registerAnchors, Bind: d.bindRegister},
		{View: route.LoginView, Anchors: loginAnchors, Bind: d.bindLogin},
		{View: route.BoardView, Anchors: boardAnchors, Bind: d.bindBoard},
		{View: route.ForgotView, Bind: d.bindForgot},
	} {
		t[b.View] = b
	}
	return t
}

// ErrMissingAnchors is returned by Run when the installed markup lacks
// an element the binding requires.
var ErrMissingAnchors = errors.New("required anchors missing")

// Run attaches the binding for v, if any, to the installed page.
// It reports whether a binding ran.
func (t Table) Run(ctx context.Context, page *dom.Document, v route.View, current func() bool, logger log.FieldLogger) (bool, error) {
	b, ok := t[v]
	if !ok {
		return false, nil
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	anchors, missing := resolve(page, b.Anchors)
	if len(missing) > 0 {
		logger.WithFields(log.Fields{"view": v, "missing": missing}).Debug("binding skipped")
		return false, ErrMissingAnchors
	}
	b.Bind(&Scope{
		Ctx:     ctx,
		Page:    page,
		Anchors: anchors,
		Log:     logger.WithField("view", v),
		current: current,
	})
	return true, nil
}

func (d Deps) callContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	if d.CallTimeout <= 0 {
		return parent, func() {}
	}
	return context.WithTimeout(parent, d.CallTimeout)
}

func setText(el *dom.Element, s string) {
	if el != nil {
		el.SetText(s)
	}
}

func value(el *dom.Element) string {
	if el == nil {
		return ""
	}
	return el.Value()
}

// describe turns an auth failure into the text shown to the user.
func describe(err error) string {
	var re *authclient.RemoteError
	if errors.As(err, &re) {
		return re.Message
	}
	return err.Error()
}
