package auth

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseJWT(t *testing.T) {
	token, err := GenerateJWT("test_secret", "reporting-job", true, 10)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	claims, err := ClaimsFromRequest(req, "test_secret")
	require.NoError(t, err)
	assert.Equal(t, Claims{Subject: "reporting-job", Admin: true}, claims)

	// Gateway tokens also pass the session token check.
	assert.NoError(t, Context{Token: token}.Validate())
}

func TestClaimsFromRequest_Rejects(t *testing.T) {
	valid, err := GenerateJWT("test_secret", "bob", false, 10)
	require.NoError(t, err)
	expired, err := GenerateJWT("test_secret", "bob", false, -1)
	require.NoError(t, err)

	cases := map[string]struct {
		header string
		want   error
	}{
		"no header":    {"", ErrNoBearer},
		"basic auth":   {"Basic Ym9iOnB3", ErrNoBearer},
		"garbage":      {"Bearer invalidtoken", ErrInvalidToken},
		"wrong secret": {"Bearer " + valid + "x", ErrInvalidToken},
		"expired":      {"Bearer " + expired, ErrInvalidToken},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			_, err := ClaimsFromRequest(req, "test_secret")
			assert.ErrorIs(t, err, tc.want)
		})
	}

	_, err = ParseJWT(valid, "other_secret")
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Error(t, Context{Token: expired}.Validate())
}

func TestGenerateJWT_EmptySecret(t *testing.T) {
	_, err := GenerateJWT("", "bob", false, 10)
	assert.Error(t, err)
}
