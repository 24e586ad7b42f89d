package binding

import (
	"strings"
	"time"

	"kairo/kairo-web/dom"
	"kairo/kairo-web/route"
)

// RegisterRedirectDelay is how long the success message stays up before
// the client moves on to the board.
const RegisterRedirectDelay = 400 * time.Millisecond

const (
	msgRegisterIncomplete = "Fill in name, email and password."
	msgRegisterOK         = "Account created. Redirecting..."
	msgRegisterFailed     = "Could not create the account: "
)

var registerAnchors = []Anchor{
	{Name: "form", IDs: []string{"registerForm"}},
	{Name: "username", IDs: []string{"username", "rname"}},
	{Name: "email", IDs: []string{"email", "remail"}},
	{Name: "password", IDs: []string{"password", "rpassword"}},
	{Name: "message", IDs: []string{"registerMsg", "regMsg"}},
}

func (d Deps) bindRegister(s *Scope) {
	s.Log.Info("view entered")

	form := s.Anchors.Get("form")
	if form == nil {
		return
	}
	msg := s.Anchors.Get("message")
	form.On("submit", func(_ *dom.Event) {
		setText(msg, "")
		username := strings.TrimSpace(value(s.Anchors.Get("username")))
		email := strings.TrimSpace(value(s.Anchors.Get("email")))
		password := strings.TrimSpace(value(s.Anchors.Get("password")))
		if username == "" || email == "" || password == "" {
			setText(msg, msgRegisterIncomplete)
			return
		}

		btn := form.Query(`button[type="submit"]`)
		if btn != nil {
			btn.SetDisabled(true)
			defer btn.SetDisabled(false)
		}

		ctx, cancel := d.callContext(s.Ctx)
		defer cancel()
		_, err := d.Auth.Register(ctx, username, email, password)
		if !s.Current() {
			return
		}
		if err != nil {
			s.Log.WithError(err).Warn("registration failed")
			setText(msg, msgRegisterFailed+describe(err))
			return
		}
		setText(msg, msgRegisterOK)
		d.Clock.AfterFunc(RegisterRedirectDelay, func() {
			if s.Current() {
				d.Nav.Navigate(route.Board)
			}
		})
	})
}
