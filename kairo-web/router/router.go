// Package router turns location changes into rendered views: it parses the
// fragment, applies the session gate, installs the resolved fragment and
// binds its behavior.
package router

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	log "github.com/sirupsen/logrus"

	"kairo/kairo-web/binding"
	"kairo/kairo-web/dom"
	"kairo/kairo-web/route"
	"kairo/kairo-web/session"
	"kairo/kairo-web/view"
)

// ErrSuperseded is returned by Handle when a newer navigation started
// before this one finished loading. The page was not touched.
var ErrSuperseded = errors.New("navigation superseded")

// ErrorMarkup replaces the page when a view cannot be loaded.
const ErrorMarkup = `<p class="error">Error loading the view.</p>`

type Config struct {
	Location *Location
	Page     *dom.Document
	Loader   view.Loader
	Session  session.Store
	Bindings binding.Table
	Logger   log.FieldLogger
}

// Navigation describes one router run.
type Navigation struct {
	Seq        uint64
	Fragment   string
	Route      route.Route
	View       route.View
	Redirected bool
}

type Router struct {
	loc      *Location
	page     *dom.Document
	loader   view.Loader
	store    session.Store
	bindings binding.Table
	log      log.FieldLogger

	// mu serializes installs with the bindings that follow them.
	mu  sync.Mutex
	seq atomic.Uint64
}

func New(cfg Config) *Router {
	if cfg.Logger == nil {
		cfg.Logger = log.StandardLogger()
	}
	if cfg.Location == nil {
		cfg.Location = NewLocation("")
	}
	if cfg.Page == nil {
		cfg.Page = dom.New()
	}
	return &Router{
		loc:      cfg.Location,
		page:     cfg.Page,
		loader:   cfg.Loader,
		store:    cfg.Session,
		bindings: cfg.Bindings,
		log:      cfg.Logger,
	}
}

// Location returns the fragment the router follows.
func (r *Router) Location() *Location { return r.loc }

// Page returns the document views are installed into.
func (r *Router) Page() *dom.Document { return r.page }

// Start subscribes to location changes and runs the initial navigation.
// Every later Assign re-enters Handle with ctx.
func (r *Router) Start(ctx context.Context) (Navigation, error) {
	r.loc.OnChange(func(string) {
		// failures are logged and rendered by Handle
		_, _ = r.Handle(ctx)
	})
	return r.Handle(ctx)
}

// Navigate implements binding.Navigator.
func (r *Router) Navigate(to route.Route) { r.loc.Navigate(to) }

// Handle runs the router once for the current fragment. Load failures are
// rendered as ErrorMarkup and returned; the token and location are kept.
func (r *Router) Handle(ctx context.Context) (Navigation, error) {
	seq := r.seq.Add(1)
	nav := Navigation{Seq: seq, Fragment: r.loc.Hash()}
	nav.Route = route.Parse(nav.Fragment)

	authed, err := session.Present(ctx, r.store)
	if err != nil {
		r.log.WithError(err).Warn("read session token")
	}
	nav.View, nav.Redirected = route.Resolve(nav.Route, authed)

	logger := r.log.WithFields(log.Fields{
		"seq":        seq,
		"route":      nav.Route,
		"view":       nav.View,
		"redirected": nav.Redirected,
	})
	logger.Debug("navigation started")

	frag, err := r.loader.Fetch(ctx, string(nav.View))

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.current(seq) {
		logger.Debug("navigation superseded")
		return nav, ErrSuperseded
	}
	if err == nil {
		err = frag.Install(r.page)
	}
	if err != nil {
		logger.WithError(err).Error("load view")
		if ierr := r.page.SetContent(ErrorMarkup); ierr != nil {
			logger.WithError(ierr).Error("render load error")
		}
		return nav, err
	}
	logger.Info("view rendered")

	if _, err := r.bindings.Run(ctx, r.page, nav.View, func() bool { return r.current(seq) }, logger); err != nil {
		logger.WithError(err).Debug("view left unbound")
	}
	return nav, nil
}

func (r *Router) current(seq uint64) bool { return r.seq.Load() == seq }
