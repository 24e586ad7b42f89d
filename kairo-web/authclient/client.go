// Package authclient talks to the user service: registration and
// authentication. It never stores the token it receives.
package authclient

import (
	"context"
	"net/http"
	"strings"
	"time"
)

const (
	usersPath = "/api/v1/users"
	loginPath = "/api/v1/auth/login"
)

// UserRecord is the user as returned by the registration endpoint.
type UserRecord struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session is the result of a successful authentication.
type Session struct {
	Token string `json:"token"`
}

// Client issues the register and authenticate calls.
type Client struct {
	c jsonClient
}

// New returns a Client for the service at baseURL. A nil httpClient means
// http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{c: jsonClient{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerResponse struct {
	Message string     `json:"message"`
	User    UserRecord `json:"user"`
}

// Register creates a user account.
func (c *Client) Register(ctx context.Context, username, email, password string) (UserRecord, error) {
	if err := required("username", username, "email", email, "password", password); err != nil {
		return UserRecord{}, err
	}
	var resp registerResponse
	if err := c.c.postJSON(ctx, usersPath, registerRequest{Username: username, Email: email, Password: password}, &resp); err != nil {
		return UserRecord{}, err
	}
	return resp.User, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Authenticate exchanges credentials for a session token.
func (c *Client) Authenticate(ctx context.Context, email, password string) (Session, error) {
	if err := required("email", email, "password", password); err != nil {
		return Session{}, err
	}
	var s Session
	if err := c.c.postJSON(ctx, loginPath, loginRequest{Email: email, Password: password}, &s); err != nil {
		return Session{}, err
	}
	if s.Token == "" {
		return Session{}, &RemoteError{Status: http.StatusOK, Message: "response carried no token"}
	}
	return s, nil
}

// required takes name/value pairs and reports the first empty value.
func required(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			return &ValidationError{Field: pairs[i]}
		}
	}
	return nil
}
