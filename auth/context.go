package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Header names understood by the report download endpoint.
const (
	HeaderAuthorization    = "Authorization"
	HeaderClientEmail      = "clientEmail"
	HeaderClientCustomerID = "clientCustomerId"
)

var ErrMissingToken = errors.New("auth: missing auth token")

// Context holds the credentials of one API session. It is read-only once a
// workflow starts.
type Context struct {
	Token            string
	ClientEmail      string
	ClientCustomerID string
}

// Headers returns the HTTP headers for an authenticated report download.
// When both account identifiers are set only clientEmail is sent.
func (c Context) Headers() map[string]string {
	h := map[string]string{
		HeaderAuthorization: "GoogleLogin auth=" + c.Token,
	}
	if c.ClientEmail != "" {
		h[HeaderClientEmail] = c.ClientEmail
	} else if c.ClientCustomerID != "" {
		h[HeaderClientCustomerID] = c.ClientCustomerID
	}
	return h
}

// Validate checks that a token is present. Tokens that are JWTs carrying an
// exp claim in the past are rejected before any request is sent.
func (c Context) Validate() error {
	if strings.TrimSpace(c.Token) == "" {
		return ErrMissingToken
	}
	if strings.Count(c.Token, ".") != 2 {
		return nil
	}
	token, _, err := jwt.NewParser().ParseUnverified(c.Token, jwt.MapClaims{})
	if err != nil {
		return nil
	}
	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	if exp.Before(time.Now()) {
		return fmt.Errorf("auth: token expired at %s", exp.Format(time.RFC3339))
	}
	return nil
}
