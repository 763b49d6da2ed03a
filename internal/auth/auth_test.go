package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"little-lemon/internal/config"
	"little-lemon/internal/logger"
	"little-lemon/internal/models"
	"little-lemon/internal/roles"
	"little-lemon/internal/storage/memory"
)

func testTokens() *Tokens {
	return NewTokens(config.AuthConfig{
		JWTSecret: "test-secret",
		Issuer:    "little-lemon",
		TokenTTL:  time.Hour,
	})
}

func TestTokensRoundTrip(t *testing.T) {
	tokens := testTokens()
	raw, err := tokens.Issue(models.User{ID: 7, Username: "mario"})
	require.NoError(t, err)

	claims, err := tokens.Parse(raw)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.Equal(t, "mario", claims.Username)
}

func TestTokensRejects(t *testing.T) {
	tokens := testTokens()
	raw, err := tokens.Issue(models.User{ID: 7, Username: "mario"})
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokens(config.AuthConfig{JWTSecret: "other", Issuer: "little-lemon", TokenTTL: time.Hour})
		_, err := other.Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewTokens(config.AuthConfig{JWTSecret: "test-secret", Issuer: "someone-else", TokenTTL: time.Hour})
		_, err := other.Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		later := testTokens()
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := tokens.Parse("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestMiddleware(t *testing.T) {
	st := memory.NewStore()
	manager := st.AddUser("admin", "admin@example.com", models.GroupManager)
	tokens := testTokens()
	authn := NewAuthenticator(tokens, st, roles.NewResolver(st), logger.Discard())

	var got models.Requester
	h := authn.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ok bool
		got, ok = RequesterFrom(r.Context())
		require.True(t, ok)
		w.WriteHeader(http.StatusNoContent)
	}))

	valid, err := tokens.Issue(manager)
	require.NoError(t, err)
	ghost, err := tokens.Issue(models.User{ID: 999, Username: "ghost"})
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid", "Bearer " + valid, http.StatusNoContent},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Token " + valid, http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"unknown user", "Bearer " + ghost, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/cart", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}

	assert.Equal(t, manager.ID, got.User.ID)
	assert.True(t, got.Roles.Has(models.RoleManager))
	assert.True(t, got.Roles.Has(models.RoleCustomer))
}

func TestRequesterWritesUnauthorized(t *testing.T) {
	w := httptest.NewRecorder()
	_, ok := Requester(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestFailureGate(t *testing.T) {
	st := memory.NewStore()
	authn := NewAuthenticator(testTokens(), st, roles.NewResolver(st), logger.Discard())

	var calls int
	authn.GateFailures(func(w http.ResponseWriter, r *http.Request) bool {
		calls++
		if calls > 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return false
		}
		return true
	})
	h := authn.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for rejected credentials")
	}))

	do := func() int {
		r := httptest.NewRequest(http.MethodGet, "/cart", nil)
		r.Header.Set("Authorization", "Bearer junk")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w.Code
	}
	assert.Equal(t, http.StatusUnauthorized, do())
	assert.Equal(t, http.StatusTooManyRequests, do())
	assert.Equal(t, 2, calls)
}
