// Package app assembles the client engine: session store, auth client,
// view loader, bindings and router around one page.
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"kairo/kairo-web/authclient"
	"kairo/kairo-web/binding"
	"kairo/kairo-web/clock"
	"kairo/kairo-web/dom"
	"kairo/kairo-web/route"
	"kairo/kairo-web/router"
	"kairo/kairo-web/session"
	"kairo/kairo-web/view"
)

// ErrNoElement is returned when a reference matches nothing on the page.
var ErrNoElement = errors.New("no such element")

type Config struct {
	// APIBaseURL is the auth service root, e.g. http://localhost:8080.
	APIBaseURL string
	// Views, when set, replaces fetching fragments from the API.
	Views fs.FS
	// Session defaults to an in-memory store.
	Session    session.Store
	HTTPClient *http.Client
	Clock      clock.Clock
	Prompt     binding.Prompter
	// CallTimeout bounds each auth call; zero leaves calls unbounded.
	CallTimeout time.Duration
	// Hash is the initial location fragment.
	Hash   string
	Logger log.FieldLogger
}

// App is one running client.
type App struct {
	router *router.Router
	store  session.Store
}

func New(cfg Config) (*App, error) {
	if cfg.APIBaseURL == "" {
		return nil, errors.New("missing API base URL")
	}
	if cfg.Session == nil {
		cfg.Session = session.NewMemory()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.StandardLogger()
	}

	var src view.Source = view.NewHTTPSource(cfg.APIBaseURL, cfg.HTTPClient)
	if cfg.Views != nil {
		src = view.FSSource{FS: cfg.Views}
	}

	loc := router.NewLocation(cfg.Hash)
	table := binding.NewTable(binding.Deps{
		Auth:        authclient.New(cfg.APIBaseURL, cfg.HTTPClient),
		Session:     cfg.Session,
		Nav:         loc,
		Clock:       cfg.Clock,
		Prompt:      cfg.Prompt,
		CallTimeout: cfg.CallTimeout,
	})
	r := router.New(router.Config{
		Location: loc,
		Page:     dom.New(),
		Loader:   view.Loader{Source: src},
		Session:  cfg.Session,
		Bindings: table,
		Logger:   cfg.Logger,
	})
	return &App{router: r, store: cfg.Session}, nil
}

// Start renders the initial fragment and follows later location changes.
func (a *App) Start(ctx context.Context) (router.Navigation, error) {
	return a.router.Start(ctx)
}

func (a *App) Page() *dom.Document          { return a.router.Page() }
func (a *App) Location() *router.Location   { return a.router.Location() }
func (a *App) Session() session.Store       { return a.store }
func (a *App) Open(r route.Route)           { a.router.Navigate(r) }
func (a *App) OpenFragment(fragment string) { a.router.Location().Assign(fragment) }

// Find resolves ref to an element. A bare name or "#name" is an id;
// anything else is a CSS selector.
func (a *App) Find(ref string) (*dom.Element, error) {
	page := a.Page()
	ref = strings.TrimSpace(ref)
	id := strings.TrimPrefix(ref, "#")
	if isIdent(id) {
		if el := page.ByID(id); el != nil {
			return el, nil
		}
	}
	if el := page.Query(ref); el != nil {
		return el, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNoElement, ref)
}

// Click clicks ref. In-page links then move the location to their href.
func (a *App) Click(ref string) error {
	el, err := a.Find(ref)
	if err != nil {
		return err
	}
	el.Click()
	if link := el.Closest("a[href]"); link != nil {
		if href, _ := link.Attr("href"); strings.HasPrefix(href, "#") {
			a.OpenFragment(href)
		}
	}
	return nil
}

// Fill types value into the control ref.
func (a *App) Fill(ref, value string) error {
	el, err := a.Find(ref)
	if err != nil {
		return err
	}
	el.Input(value)
	return nil
}

// Submit submits the form ref, or the form that contains it.
func (a *App) Submit(ref string) error {
	el, err := a.Find(ref)
	if err != nil {
		return err
	}
	form := el.Closest("form")
	if form == nil {
		return fmt.Errorf("%w: no form around %s", ErrNoElement, ref)
	}
	form.Submit()
	return nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
