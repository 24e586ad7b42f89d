package binding

import (
	"strings"

	"kairo/kairo-web/dom"
	"kairo/kairo-web/route"
)

const (
	msgLoginIncomplete = "Enter your email and password."
	msgLoginFailed     = "Could not log in: "
	msgSessionFailed   = "Could not save the session."
)

var loginAnchors = []Anchor{
	{Name: "form", IDs: []string{"loginForm"}, Required: true},
	{Name: "email", IDs: []string{"loginEmail", "lemail"}},
	{Name: "password", IDs: []string{"loginPassword", "lpassword"}},
	{Name: "message", IDs: []string{"loginMsg"}},
}

func (d Deps) bindLogin(s *Scope) {
	form := s.Anchors.Get("form")
	msg := s.Anchors.Get("message")
	form.On("submit", func(_ *dom.Event) {
		setText(msg, "")
		email := strings.TrimSpace(value(s.Anchors.Get("email")))
		password := strings.TrimSpace(value(s.Anchors.Get("password")))
		if email == "" || password == "" {
			setText(msg, msgLoginIncomplete)
			return
		}

		ctx, cancel := d.callContext(s.Ctx)
		defer cancel()
		sess, err := d.Auth.Authenticate(ctx, email, password)
		if !s.Current() {
			return
		}
		if err != nil {
			s.Log.WithError(err).Warn("login failed")
			setText(msg, msgLoginFailed+describe(err))
			return
		}
		if err := d.Session.SetToken(ctx, sess.Token); err != nil {
			s.Log.WithError(err).Error("store session token")
			setText(msg, msgSessionFailed)
			return
		}
		d.Nav.Navigate(route.Board)
	})
}
