package order

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"little-lemon/internal/auth"
	"little-lemon/internal/logger"
	"little-lemon/internal/models"
)

func (f *fixture) serve(t *testing.T, requester models.Requester, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	NewHandler(f.svc, logger.Discard()).Routes(r)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(auth.WithRequester(context.Background(), requester))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandlerPlaceAndView(t *testing.T) {
	f := newFixture(t)

	w := f.serve(t, f.customer, http.MethodPost, "/orders", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "The cart is empty")

	f.addToCart(t, f.customer.User, f.salad, 2)
	w = f.serve(t, f.customer, http.MethodPost, "/orders", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var placed struct {
		Message string             `json:"message"`
		Data    models.OrderDetail `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &placed))
	id := placed.Data.Order.ID
	require.NotZero(t, id)
	assert.Equal(t, "25", placed.Data.Order.Total.String())

	w = f.serve(t, f.customer, http.MethodGet, fmt.Sprintf("/orders/%d", id), "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"date":"2024-03-09"`)

	w = f.serve(t, f.other, http.MethodGet, fmt.Sprintf("/orders/%d", id), "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.serve(t, f.customer, http.MethodGet, "/orders/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.serve(t, f.customer, http.MethodGet, "/orders/999", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.serve(t, f.customer, http.MethodGet, "/orders", "")
	assert.Equal(t, http.StatusOK, w.Code)
	var listed struct {
		Data []models.Order `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	assert.Len(t, listed.Data, 1)
}

func TestHandlerStaffTransitions(t *testing.T) {
	f := newFixture(t)
	order := f.placeFor(t, f.customer)
	path := fmt.Sprintf("/orders/%d", order.ID)

	w := f.serve(t, f.customer, http.MethodPatch, path, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.serve(t, f.manager, http.MethodPut, path, `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.serve(t, f.manager, http.MethodPut, path, `{"username":"ghost"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.serve(t, f.manager, http.MethodPut, path, `{"username":"mario"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.serve(t, f.crew, http.MethodPatch, path, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"status":true`)

	w = f.serve(t, f.crew, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.serve(t, f.manager, http.MethodDelete, path, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), fmt.Sprintf("Order with ID %d was successfully deleted", order.ID))

	w = f.serve(t, f.manager, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandlerManagerOnlyRoutesDenyBeforeDecoding(t *testing.T) {
	f := newFixture(t)
	order := f.placeFor(t, f.customer)
	path := fmt.Sprintf("/orders/%d", order.ID)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"assign with empty body", http.MethodPut, path, ""},
		{"assign with malformed body", http.MethodPut, path, `{"username":`},
		{"assign with bad id", http.MethodPut, "/orders/abc", `{"username":"mario"}`},
		{"delete with bad id", http.MethodDelete, "/orders/abc", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.serve(t, f.customer, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
		})
	}

	w := f.serve(t, f.manager, http.MethodPut, path, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
