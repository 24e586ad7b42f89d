package router

import (
	"sync"

	"kairo/kairo-web/route"
)

// Location is the address fragment the router follows.
type Location struct {
	mu        sync.Mutex
	hash      string
	listeners []func(hash string)
}

// NewLocation starts at hash, which may be empty.
func NewLocation(hash string) *Location { return &Location{hash: hash} }

// Hash returns the current fragment, including the leading '#'.
func (l *Location) Hash() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hash
}

// Assign replaces the fragment and notifies every listener, also when the
// value did not change. Listeners run on the caller's goroutine.
func (l *Location) Assign(hash string) {
	l.mu.Lock()
	l.hash = hash
	listeners := append([]func(string){}, l.listeners...)
	l.mu.Unlock()
	for _, fn := range listeners {
		fn(hash)
	}
}

// OnChange registers fn to run after every Assign.
func (l *Location) OnChange(fn func(hash string)) {
	l.mu.Lock()
	l.listeners = append(l.listeners, fn)
	l.mu.Unlock()
}

// Navigate assigns the fragment for r.
func (l *Location) Navigate(r route.Route) { l.Assign(r.Fragment()) }
