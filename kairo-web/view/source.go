// Package view fetches named markup fragments and installs them into the
// page. Fragments are never cached: every navigation fetches again.
package view

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strings"

	"kairo/kairo-web/dom"
)

// LoadError reports a fragment that could not be fetched. Status is set
// when the server answered with a non-2xx code.
type LoadError struct {
	View   string
	Status int
	Err    error
}

func (e *LoadError) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("failed to load view %s: status %d", e.View, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("failed to load view %s: %v", e.View, e.Err)
	default:
		return "failed to load view " + e.View
	}
}

func (e *LoadError) Unwrap() error { return e.Err }

// Source returns the markup for a view name.
type Source interface {
	Fetch(ctx context.Context, name string) (string, error)
}

// HTTPSource fetches GET {BaseURL}/views/{name}.html.
type HTTPSource struct {
	BaseURL string
	HTTP    *http.Client
}

// NewHTTPSource returns a source rooted at baseURL.
func NewHTTPSource(baseURL string, client *http.Client) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: client}
}

func (s *HTTPSource) Fetch(ctx context.Context, name string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"/views/"+name+".html", nil)
	if err != nil {
		return "", &LoadError{View: name, Err: err}
	}
	resp, err := s.HTTP.Do(req)
	if err != nil {
		return "", &LoadError{View: name, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", &LoadError{View: name, Status: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &LoadError{View: name, Err: err}
	}
	return string(body), nil
}

// FSSource reads {name}.html from a file system, such as the fragments
// embedded in the client binary.
type FSSource struct {
	FS fs.FS
}

func (s FSSource) Fetch(_ context.Context, name string) (string, error) {
	if !fs.ValidPath(name) || strings.Contains(name, "/") {
		return "", &LoadError{View: name, Err: fs.ErrInvalid}
	}
	data, err := fs.ReadFile(s.FS, name+".html")
	if err != nil {
		return "", &LoadError{View: name, Err: err}
	}
	return string(data), nil
}

// Loader fetches fragments from a Source for installation into a page.
type Loader struct {
	Source Source
}

// Fragment is fetched markup waiting to be installed.
type Fragment struct {
	View   string
	Markup string
}

// Fetch retrieves the named fragment. Every failure is a *LoadError.
func (l Loader) Fetch(ctx context.Context, name string) (Fragment, error) {
	markup, err := l.Source.Fetch(ctx, name)
	if err != nil {
		var le *LoadError
		if !errors.As(err, &le) {
			err = &LoadError{View: name, Err: err}
		}
		return Fragment{}, err
	}
	return Fragment{View: name, Markup: markup}, nil
}

// Install makes the fragment the page's only content.
func (f Fragment) Install(page *dom.Document) error {
	if err := page.SetContent(f.Markup); err != nil {
		return &LoadError{View: f.View, Err: err}
	}
	return nil
}

// Load fetches and installs in one step.
func (l Loader) Load(ctx context.Context, page *dom.Document, name string) error {
	f, err := l.Fetch(ctx, name)
	if err != nil {
		return err
	}
	return f.Install(page)
}
