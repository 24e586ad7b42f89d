package api

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// DefaultTokenTTL is how long issued session tokens stay valid.
const DefaultTokenTTL = time.Hour

// TokenAuth issues and validates the HS256 session tokens handed to the
// client after login.
type TokenAuth struct {
	secret []byte
	ttl    time.Duration
	issuer string
	parser *jwt.Parser
	now    func() time.Time
}

// NewTokenAuth signs with secret. A non-positive ttl uses DefaultTokenTTL.
func NewTokenAuth(secret []byte, ttl time.Duration, issuer string) *TokenAuth {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenAuth{
		secret: secret,
		ttl:    ttl,
		issuer: issuer,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{"HS256"})),
		now:    time.Now,
	}
}

// Issue returns a signed token whose subject is userID.
func (a *TokenAuth) Issue(userID string) (string, error) {
	if userID == "" {
		return "", errors.New("missing user id")
	}
	now := a.now()
	claims := jwt.MapClaims{
		"sub": userID,
		"id":  userID,
		"iat": now.Unix(),
		"exp": now.Add(a.ttl).Unix(),
	}
	if a.issuer != "" {
		claims["iss"] = a.issuer
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// UserIDFromAuthHeader extracts the user identifier from the Authorization header.
func (a *TokenAuth) UserIDFromAuthHeader(h string) (string, error) {
	if h == "" {
		return "", errMissingAuthorization
	}
	token, err := bearerTokenFromString(h)
	if err != nil {
		return "", err
	}
	return a.UserIDFromBearer(token)
}

// UserIDFromBearer validates a raw token and returns its subject.
func (a *TokenAuth) UserIDFromBearer(token string) (string, error) {
	if token == "" {
		return "", errBadAuthorization
	}
	parsed, err := a.parser.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return a.secret, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}
	now := a.now().Unix()
	if !claims.VerifyExpiresAt(now, true) {
		return "", errors.New("token expired")
	}
	if a.issuer != "" && !claims.VerifyIssuer(a.issuer, false) {
		return "", errors.New("invalid issuer")
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", errors.New("missing sub")
	}
	return sub, nil
}
