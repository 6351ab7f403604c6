package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifier_Validate(t *testing.T) {
	v := NewVerifier("secret")

	token, err := v.Issue("user-1", time.Minute)
	require.NoError(t, err)

	userID, err := v.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	expired, err := v.Issue("user-1", -time.Minute)
	require.NoError(t, err)
	_, err = v.Validate(expired)
	assert.ErrorIs(t, err, ErrExpiredToken)

	_, err = NewVerifier("other").Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.Validate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifier_UserIDClaimFallback(t *testing.T) {
	claims := &SessionClaims{UserID: "legacy", StandardClaims: jwt.StandardClaims{ExpiresAt: time.Now().Add(time.Minute).Unix()}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	userID, err := NewVerifier("secret").Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "legacy", userID)
}

func TestVerifier_RejectsNoneAlgorithm(t *testing.T) {
	claims := &SessionClaims{StandardClaims: jwt.StandardClaims{Subject: "mallory"}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewVerifier("secret").Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRequire(t *testing.T) {
	v := NewVerifier("secret")
	token, err := v.Issue("user-1", time.Minute)
	require.NoError(t, err)

	var seen string
	h := v.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserID(r.Context())
	}))

	tests := []struct {
		name     string
		setup    func(*http.Request)
		wantCode int
		wantUser string
	}{
		{"no credentials", func(*http.Request) {}, http.StatusUnauthorized, ""},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, http.StatusOK, "user-1"},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookie, Value: token}) }, http.StatusOK, "user-1"},
		{"wrong scheme", func(r *http.Request) { r.Header.Set("Authorization", "Basic abc") }, http.StatusUnauthorized, ""},
		{"garbage", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodGet, "/api/habits", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantUser, seen)
			if tt.wantCode == http.StatusUnauthorized {
				assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())
			}
		})
	}
}

func TestOptional(t *testing.T) {
	v := NewVerifier("secret")
	var seen string
	h := v.Optional(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("Authorization", "Bearer broken")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, seen)
}
