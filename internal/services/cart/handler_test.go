package cart

import (
	"context"
	"encoding/json"
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

func serve(t *testing.T, h *Handler, requester *models.Requester, method, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	h.Routes(r)

	req := httptest.NewRequest(method, "/cart", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if requester != nil {
		req = req.WithContext(auth.WithRequester(context.Background(), *requester))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandlerFlow(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc, logger.Discard())

	w := serve(t, h, &f.customer, http.MethodDelete, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "The cart is empty")

	w = serve(t, h, &f.customer, http.MethodPost, `{"menuitem_id": 1, "quantity": 2}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = serve(t, h, &f.customer, http.MethodGet, "")
	require.Equal(t, http.StatusOK, w.Code)
	var listed struct {
		Data []models.CartLine `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed.Data, 1)
	assert.Equal(t, "25", listed.Data[0].Price.String())

	w = serve(t, h, &f.customer, http.MethodPost, `{"menuitem_id": 1, "quantity": 1}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = serve(t, h, &f.customer, http.MethodPost, `{"menuitem_id": 1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(t, h, &f.customer, http.MethodPost, `{"username": "sara", "menuitem_id": 2, "quantity": 1}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = serve(t, h, &f.customer, http.MethodDelete, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "successfully deleted")
}

func TestHandlerRequiresRequester(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc, logger.Discard())
	w := serve(t, h, nil, http.MethodGet, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
