package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTAuth_GenerateAndAuthenticate(t *testing.T) {
	a := NewJWTAuth("secret", time.Hour)
	token, err := a.GenerateToken("user-1")
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)

	claims, err := a.Authenticate(r)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
}

func TestJWTAuth_Authenticate_MissingHeader(t *testing.T) {
	a := NewJWTAuth("secret", time.Hour)
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	_, err := a.Authenticate(r)
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestJWTAuth_Authenticate_MalformedHeader(t *testing.T) {
	a := NewJWTAuth("secret", time.Hour)
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "not-a-bearer-token")

	_, err := a.Authenticate(r)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTAuth_Authenticate_WrongSecretIsInvalid(t *testing.T) {
	issuer := NewJWTAuth("secret-a", time.Hour)
	token, err := issuer.GenerateToken("user-1")
	require.NoError(t, err)

	verifier := NewJWTAuth("secret-b", time.Hour)
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)

	_, err = verifier.Authenticate(r)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTAuth_Authenticate_ExpiredToken(t *testing.T) {
	a := NewJWTAuth("secret", -time.Hour)
	token, err := a.GenerateToken("user-1")
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)

	_, err = a.Authenticate(r)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTAuth_Middleware_RejectsUnauthenticated(t *testing.T) {
	a := NewJWTAuth("secret", time.Hour)
	called := false
	handler := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuth_Middleware_StashesUserID(t *testing.T) {
	a := NewJWTAuth("secret", time.Hour)
	token, err := a.GenerateToken("user-42")
	require.NoError(t, err)

	var gotUserID string
	var ok bool
	handler := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, ok = UserID(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	require.True(t, ok)
	assert.Equal(t, "user-42", gotUserID)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.True(t, VerifyPassword(hash, "correct horse battery staple"))
	assert.False(t, VerifyPassword(hash, "wrong password"))
}
