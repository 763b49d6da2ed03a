package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"little-lemon/internal/auth"
	"little-lemon/internal/config"
	"little-lemon/internal/logger"
	"little-lemon/internal/models"
	"little-lemon/internal/roles"
	"little-lemon/internal/services/cart"
	"little-lemon/internal/services/order"
	"little-lemon/internal/storage/memory"
	"little-lemon/internal/throttle"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type env struct {
	handler http.Handler
	tokens  map[string]string
}

func newEnv(t *testing.T, th *throttle.Throttler) *env {
	t.Helper()
	st := memory.NewStore()
	st.SeedDemo()
	log := logger.Discard()

	tokens := auth.NewTokens(config.AuthConfig{JWTSecret: "secret", Issuer: "little-lemon", TokenTTL: time.Hour})
	issued := map[string]string{}
	for _, name := range []string{"admin", "mario", "adrian"} {
		u, err := st.UserByUsername(context.Background(), name)
		require.NoError(t, err)
		raw, err := tokens.Issue(*u)
		require.NoError(t, err)
		issued[name] = raw
	}

	h := NewRouter(Deps{
		Logger:        log,
		Authenticator: auth.NewAuthenticator(tokens, st, roles.NewResolver(st), log),
		Throttler:     th,
		Cart:          cart.NewHandler(cart.NewService(st, log), log),
		Orders:        order.NewHandler(order.NewService(st, nil, log), log),
		Database:      st,
	})
	return &env{handler: h, tokens: issued}
}

func (e *env) do(t *testing.T, user, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	if user != "" {
		r.Header.Set("Authorization", "Bearer "+e.tokens[user])
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, r)
	return w
}

func TestEndToEndOrderWorkflow(t *testing.T) {
	e := newEnv(t, nil)

	w := e.do(t, "", http.MethodGet, "/cart", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(t, "adrian", http.MethodPost, "/cart", `{"menuitem_id": 1, "quantity": 2}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = e.do(t, "adrian", http.MethodPost, "/cart", `{"menuitem_id": 3, "quantity": 1}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = e.do(t, "adrian", http.MethodPost, "/orders", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var placed struct {
		Data models.OrderDetail `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &placed))
	assert.Equal(t, "32.99", placed.Data.Order.Total.StringFixed(2))
	path := fmt.Sprintf("/orders/%d", placed.Data.Order.ID)

	w = e.do(t, "adrian", http.MethodGet, "/cart", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `"menuitem"`)

	w = e.do(t, "mario", http.MethodPatch, path, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(t, "admin", http.MethodPut, path, `{"username": "mario"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = e.do(t, "mario", http.MethodGet, "/orders", "")
	require.Equal(t, http.StatusOK, w.Code)
	var listed struct {
		Data []models.Order `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed.Data, 1)

	w = e.do(t, "mario", http.MethodPatch, path, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":true`)

	w = e.do(t, "adrian", http.MethodDelete, path, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(t, "admin", http.MethodDelete, path, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, "adrian", http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUserThrottle(t *testing.T) {
	th := throttle.New(throttle.NewMemoryLimiter(),
		throttle.Rule{Limit: 100, Window: time.Minute},
		throttle.Rule{Limit: 2, Window: time.Minute},
		logger.Discard())
	e := newEnv(t, th)

	assert.Equal(t, http.StatusOK, e.do(t, "adrian", http.MethodGet, "/cart", "").Code)
	assert.Equal(t, http.StatusOK, e.do(t, "adrian", http.MethodGet, "/cart", "").Code)
	w := e.do(t, "adrian", http.MethodGet, "/cart", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, e.do(t, "admin", http.MethodGet, "/cart", "").Code)
}

func TestRejectedTokensAreThrottledByAddress(t *testing.T) {
	th := throttle.New(throttle.NewMemoryLimiter(),
		throttle.Rule{Limit: 2, Window: time.Minute},
		throttle.Rule{Limit: 100, Window: time.Minute},
		logger.Discard())
	e := newEnv(t, th)

	codes := make([]int, 0, 5)
	for i := 0; i < 5; i++ {
		r := httptest.NewRequest(http.MethodGet, "/cart", nil)
		r.Header.Set("Authorization", "Bearer guessed-token")
		w := httptest.NewRecorder()
		e.handler.ServeHTTP(w, r)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{
		http.StatusUnauthorized,
		http.StatusUnauthorized,
		http.StatusTooManyRequests,
		http.StatusTooManyRequests,
		http.StatusTooManyRequests,
	}, codes)

	// Valid tokens from the same address are charged to the user budget.
	assert.Equal(t, http.StatusOK, e.do(t, "adrian", http.MethodGet, "/cart", "").Code)
}

func TestMissingTokenChargedOnce(t *testing.T) {
	th := throttle.New(throttle.NewMemoryLimiter(),
		throttle.Rule{Limit: 2, Window: time.Minute},
		throttle.Rule{Limit: 100, Window: time.Minute},
		logger.Discard())
	e := newEnv(t, th)

	assert.Equal(t, http.StatusUnauthorized, e.do(t, "", http.MethodGet, "/cart", "").Code)
	assert.Equal(t, http.StatusUnauthorized, e.do(t, "", http.MethodGet, "/cart", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, e.do(t, "", http.MethodGet, "/cart", "").Code)
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		db         Pinger
		broker     Pinger
		wantStatus int
		wantBroker string
	}{
		{"all up", pinger{}, pinger{}, http.StatusOK, "ok"},
		{"broker disabled", pinger{}, nil, http.StatusOK, "disabled"},
		{"broker down", pinger{}, pinger{err: errors.New("closed")}, http.StatusOK, "unavailable"},
		{"database down", pinger{err: errors.New("refused")}, nil, http.StatusServiceUnavailable, "disabled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			healthHandler(tt.db, tt.broker)(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, tt.wantStatus, w.Code)

			var body healthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantBroker, body.Broker)
		})
	}
}
