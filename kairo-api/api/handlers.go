package api

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"kairo/kairo-api/domain"
	"kairo/kairo-api/events"
	"kairo/kairo-api/storage"
)

const (
	maxBodySize    = 64 << 10
	publishTimeout = 5 * time.Second

	routeRegister    = "/api/v1/users"
	routeLogin       = "/api/v1/auth/login"
	routeLoginAlias  = "/api/v1/users/login"
	routeCurrentUser = "/api/v1/auth/me"
	routeUser        = "/api/v1/users/:id"
	routeViews       = "/views/:name"
)

const (
	msgFieldsRequired = "All fields are required"
	msgEmailTaken     = "Email is already registered"
	msgRegistered     = "User registered successfully"
	msgUserNotFound   = "User not found"
	msgWrongPassword  = "Incorrect password"
	msgLoginError     = "Login error"
	msgInvalidBody    = "invalid body"
	msgInvalidUpdate  = "Fields cannot be empty"
	msgUserDeleted    = "User deleted"
	msgForbidden      = "Cannot modify another user"
)

// Deps are the collaborators of the HTTP handlers.
type Deps struct {
	Users    storage.Users
	Tokens   Tokens
	Reserver Reserver         // optional
	Events   events.Publisher // optional
	Views    fs.FS            // optional; serves /views/{name}.html
	Logger   *log.Logger
	// HashCost is the bcrypt cost; zero means bcrypt.DefaultCost.
	HashCost int
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error"`
}

type registerResponse struct {
	Message string      `json:"message"`
	User    domain.User `json:"user"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, d Deps) {
	if d.Logger == nil {
		d.Logger = log.StandardLogger()
	}
	if d.Events == nil {
		d.Events = events.Discard{}
	}
	if d.HashCost == 0 {
		d.HashCost = bcrypt.DefaultCost
	}
	e.GET("/healthz", healthz())
	e.POST(routeRegister, postUser(d))
	e.POST(routeLogin, login(d, routeLogin))
	e.POST(routeLoginAlias, login(d, routeLoginAlias))
	e.GET(routeCurrentUser, currentUser(d))
	e.GET(routeRegister, listUsers(d))
	e.GET(routeUser, getUser(d))
	e.PUT(routeUser, putUser(d))
	e.DELETE(routeUser, deleteUser(d))
	if d.Views != nil {
		e.GET(routeViews, getView(d.Views))
	}
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

func decodeBody(c echo.Context, v any) error {
	dec := sonic.ConfigStd.NewDecoder(io.LimitReader(c.Request().Body, maxBodySize))
	return dec.Decode(v)
}

func postUser(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		var failure error
		metrics, ctx := newAuthRequestMetrics(c.Request().Context(), d.Logger, routeRegister)
		c.SetRequest(c.Request().WithContext(ctx))
		defer func() { metrics.Log(c.Response().Status, failure) }()

		var reg domain.Registration
		if err := decodeBody(c, &reg); err != nil {
			metrics.SetErrorStage("decode")
			return c.JSON(http.StatusBadRequest, messageResponse{Message: msgInvalidBody})
		}
		reg = reg.Normalize()
		if !reg.Complete() {
			metrics.SetErrorStage("validate")
			return c.JSON(http.StatusBadRequest, messageResponse{Message: msgFieldsRequired})
		}

		if d.Reserver != nil {
			ok, err := d.Reserver.Reserve(ctx, reg.Email)
			if err != nil {
				failure = err
				metrics.SetErrorStage("reserve")
				return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
			}
			if !ok {
				metrics.SetErrorStage("duplicate")
				return c.JSON(http.StatusBadRequest, messageResponse{Message: msgEmailTaken})
			}
			defer func() {
				if err := d.Reserver.Release(context.WithoutCancel(ctx), reg.Email); err != nil {
					d.Logger.WithError(err).Warn("release registration reservation")
				}
			}()
		}

		lookupStart := time.Now()
		_, err := d.Users.FindByEmail(ctx, reg.Email)
		metrics.ObserveLookup(time.Since(lookupStart))
		switch {
		case err == nil:
			metrics.SetUserFound(true)
			metrics.SetErrorStage("duplicate")
			return c.JSON(http.StatusBadRequest, messageResponse{Message: msgEmailTaken})
		case !errors.Is(err, storage.ErrNotFound):
			failure = err
			metrics.SetErrorStage("lookup")
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		}

		hashStart := time.Now()
		hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), d.HashCost)
		metrics.ObserveHash(time.Since(hashStart))
		if err != nil {
			failure = err
			metrics.SetErrorStage("hash")
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		}

		user, err := d.Users.Create(ctx, domain.User{Username: reg.Username, Email: reg.Email, PasswordHash: string(hash)})
		if err != nil {
			if errors.Is(err, storage.ErrDuplicateEmail) {
				metrics.SetErrorStage("duplicate")
				return c.JSON(http.StatusBadRequest, messageResponse{Message: msgEmailTaken})
			}
			failure = err
			metrics.SetErrorStage("storage")
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		}
		d.publish(ctx, domain.UserEvent{Type: domain.EventUserRegistered, UserID: user.ID, Email: user.Email})
		return c.JSON(http.StatusCreated, registerResponse{Message: msgRegistered, User: user})
	}
}

func login(d Deps, route string) echo.HandlerFunc {
	return func(c echo.Context) error {
		var failure error
		metrics, ctx := newAuthRequestMetrics(c.Request().Context(), d.Logger, route)
		c.SetRequest(c.Request().WithContext(ctx))
		defer func() { metrics.Log(c.Response().Status, failure) }()

		var creds domain.Credentials
		if err := decodeBody(c, &creds); err != nil {
			metrics.SetErrorStage("decode")
			return c.JSON(http.StatusBadRequest, messageResponse{Message: msgInvalidBody})
		}

		lookupStart := time.Now()
		user, err := d.Users.FindByEmail(ctx, creds.Email)
		metrics.ObserveLookup(time.Since(lookupStart))
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				metrics.SetErrorStage("unknown_user")
				return c.JSON(http.StatusBadRequest, messageResponse{Message: msgUserNotFound})
			}
			failure = err
			metrics.SetErrorStage("lookup")
			return c.JSON(http.StatusInternalServerError, errorResponse{Message: msgLoginError, Error: err.Error()})
		}
		metrics.SetUserFound(true)

		hashStart := time.Now()
		err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password))
		metrics.ObserveHash(time.Since(hashStart))
		if err != nil {
			if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
				metrics.SetErrorStage("password")
				return c.JSON(http.StatusBadRequest, messageResponse{Message: msgWrongPassword})
			}
			failure = err
			metrics.SetErrorStage("hash")
			return c.JSON(http.StatusInternalServerError, errorResponse{Message: msgLoginError, Error: err.Error()})
		}

		token, err := d.Tokens.Issue(user.ID)
		if err != nil {
			failure = err
			metrics.SetErrorStage("sign")
			return c.JSON(http.StatusInternalServerError, errorResponse{Message: msgLoginError, Error: err.Error()})
		}
		return c.JSON(http.StatusOK, tokenResponse{Token: token})
	}
}

// authorize resolves the caller from the bearer token, writing the 401
// response itself when the header is unusable.
func authorize(c echo.Context, d Deps) (string, bool, error) {
	userID, err := d.Tokens.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
	if err != nil {
		return "", false, c.JSON(http.StatusUnauthorized, messageResponse{Message: err.Error()})
	}
	return userID, true, nil
}

// authorizeSelf admits only the owner of the :id account.
func authorizeSelf(c echo.Context, d Deps) (bool, error) {
	userID, ok, err := authorize(c, d)
	if !ok {
		return false, err
	}
	if userID != c.Param("id") {
		return false, c.JSON(http.StatusForbidden, messageResponse{Message: msgForbidden})
	}
	return true, nil
}

func currentUser(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok, err := authorize(c, d)
		if !ok {
			return err
		}
		user, err := d.Users.Get(c.Request().Context(), userID)
		if err != nil {
			return userError(c, err)
		}
		return c.JSON(http.StatusOK, user)
	}
}

func listUsers(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		users, err := d.Users.List(c.Request().Context())
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		}
		return c.JSON(http.StatusOK, users)
	}
}

func getUser(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := d.Users.Get(c.Request().Context(), c.Param("id"))
		if err != nil {
			return userError(c, err)
		}
		return c.JSON(http.StatusOK, user)
	}
}

func putUser(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		if ok, err := authorizeSelf(c, d); !ok {
			return err
		}
		ctx := c.Request().Context()
		var upd domain.UserUpdate
		if err := decodeBody(c, &upd); err != nil {
			return c.JSON(http.StatusBadRequest, messageResponse{Message: msgInvalidBody})
		}
		user, err := d.Users.Get(ctx, c.Param("id"))
		if err != nil {
			return userError(c, err)
		}
		if upd.Username != nil {
			user.Username = strings.TrimSpace(*upd.Username)
		}
		if upd.Email != nil {
			user.Email = domain.NormalizeEmail(*upd.Email)
		}
		if user.Username == "" || user.Email == "" || (upd.Password != nil && strings.TrimSpace(*upd.Password) == "") {
			return c.JSON(http.StatusBadRequest, messageResponse{Message: msgInvalidUpdate})
		}
		if upd.Password != nil {
			hash, err := bcrypt.GenerateFromPassword([]byte(*upd.Password), d.HashCost)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
			}
			user.PasswordHash = string(hash)
		}
		updated, err := d.Users.Update(ctx, user)
		if err != nil {
			return userError(c, err)
		}
		return c.JSON(http.StatusOK, updated)
	}
}

func deleteUser(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		if ok, err := authorizeSelf(c, d); !ok {
			return err
		}
		ctx := c.Request().Context()
		id := c.Param("id")
		if err := d.Users.Delete(ctx, id); err != nil {
			return userError(c, err)
		}
		d.publish(ctx, domain.UserEvent{Type: domain.EventUserDeleted, UserID: id})
		return c.JSON(http.StatusOK, messageResponse{Message: msgUserDeleted})
	}
}

// userError maps storage failures to responses.
func userError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return c.JSON(http.StatusNotFound, messageResponse{Message: msgUserNotFound})
	case errors.Is(err, storage.ErrDuplicateEmail):
		return c.JSON(http.StatusBadRequest, messageResponse{Message: msgEmailTaken})
	}
	c.Logger().Error(err)
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

func (d Deps) publish(ctx context.Context, ev domain.UserEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := d.Events.Publish(ctx, ev); err != nil {
		d.Logger.WithError(err).WithFields(log.Fields{"type": ev.Type, "user": ev.UserID}).Warn("publish user event")
	}
}

func getView(views fs.FS) echo.HandlerFunc {
	return func(c echo.Context) error {
		name := c.Param("name")
		if path.Ext(name) != ".html" || strings.ContainsAny(name, `/\`) || !fs.ValidPath(name) {
			return c.NoContent(http.StatusNotFound)
		}
		data, err := fs.ReadFile(views, name)
		if err != nil {
			return c.NoContent(http.StatusNotFound)
		}
		return c.Blob(http.StatusOK, "text/html; charset=utf-8", data)
	}
}
