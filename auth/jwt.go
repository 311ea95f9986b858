package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoBearer     = errors.New("no bearer token")
	ErrInvalidToken = errors.New("invalid or expired JWT")
)

// Claims identifies a gateway client.
type Claims struct {
	Subject string
	Admin   bool
}

// GenerateJWT signs a gateway token for subject valid for the given number
// of minutes.
func GenerateJWT(secret string, subject string, isAdmin bool, expirationMinutes int) (string, error) {
	if secret == "" {
		return "", errors.New("empty JWT secret")
	}
	claims := jwt.MapClaims{
		"sub":   subject,
		"admin": isAdmin,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(time.Duration(expirationMinutes) * time.Minute).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ClaimsFromRequest verifies the bearer token of r.
func ClaimsFromRequest(r *http.Request, secret string) (Claims, error) {
	header := r.Header.Get("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return Claims{}, ErrNoBearer
	}
	return ParseJWT(strings.TrimPrefix(header, "Bearer "), secret)
}

// ParseJWT verifies tokenString with secret and returns its claims.
func ParseJWT(tokenString, secret string) (Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}
	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, errors.New("invalid JWT claims")
	}
	var c Claims
	c.Subject, _ = mc["sub"].(string)
	switch v := mc["admin"].(type) {
	case bool:
		c.Admin = v
	case string:
		c.Admin = v == "true" || v == "1"
	case float64:
		c.Admin = v == 1
	}
	if c.Subject == "" {
		return Claims{}, errors.New("JWT without subject")
	}
	return c, nil
}
