// Package route names the navigation targets of the client and the
// session-gating rules that map a requested route to the view rendered.
package route

import "strings"

// Route is a canonical navigation target.
type Route string

const (
	Home     Route = "home"
	Board    Route = "board"
	Login    Route = "login"
	Register Route = "register"
	Forgot   Route = "forgot"
)

// prefix every location fragment must start with.
const prefix = "#/"

var known = map[Route]bool{Home: true, Board: true, Login: true, Register: true, Forgot: true}

// All lists the routes in a stable order.
func All() []Route { return []Route{Home, Board, Login, Register, Forgot} }

// Parse maps a location fragment such as "#/board" to a route. Missing
// prefixes, empty paths and unknown names all yield Login.
func Parse(fragment string) Route {
	if !strings.HasPrefix(fragment, prefix) {
		return Login
	}
	r := Route(fragment[len(prefix):])
	if !known[r] {
		return Login
	}
	return r
}

// Fragment returns the location fragment that navigates to r.
func (r Route) Fragment() string { return prefix + string(r) }

// View is the name of a markup fragment.
type View string

const (
	RegisterView View = "register"
	LoginView    View = "login"
	BoardView    View = "board"
	ForgotView   View = "forgot"
)

// Resolve applies the session gate to a requested route and returns the
// view to render. redirected is true when the gate replaced the request.
func Resolve(r Route, authenticated bool) (v View, redirected bool) {
	switch {
	case r == Board && !authenticated:
		return LoginView, true
	case (r == Login || r == Register) && authenticated:
		return BoardView, true
	case r == Home:
		// home shares the registration markup
		return RegisterView, false
	}
	return View(r), false
}
