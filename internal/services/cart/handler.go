package cart

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"little-lemon/internal/auth"
	"little-lemon/internal/httpx"
	"little-lemon/internal/logger"
	"little-lemon/internal/models"
)

type Handler struct {
	service *Service
	logger  *logger.Logger
}

func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log,
	}
}

// Routes mounts the cart endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/cart", h.List)
	r.Post("/cart", h.Add)
	r.Delete("/cart", h.Clear)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	requester, ok := auth.Requester(w, r)
	if !ok {
		return
	}

	lines, err := h.service.ListItems(r.Context(), requester)
	if err != nil {
		httpx.WriteError(w, r, h.logger, "cart_list", err)
		return
	}
	httpx.WriteMessage(w, http.StatusOK, "", lines)
}

func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	requester, ok := auth.Requester(w, r)
	if !ok {
		return
	}

	var req models.AddCartItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, h.logger, "cart_add", err)
		return
	}

	line, err := h.service.AddItem(r.Context(), requester, req)
	if err != nil {
		httpx.WriteError(w, r, h.logger, "cart_add", err)
		return
	}
	httpx.WriteMessage(w, http.StatusCreated, "Menu item is added to the cart", line)
}

func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	requester, ok := auth.Requester(w, r)
	if !ok {
		return
	}

	n, err := h.service.Clear(r.Context(), requester)
	if err != nil {
		httpx.WriteError(w, r, h.logger, "cart_clear", err)
		return
	}
	if n == 0 {
		httpx.WriteMessage(w, http.StatusOK, "The cart is empty", nil)
		return
	}
	httpx.WriteMessage(w, http.StatusOK, "Cart items have been successfully deleted", map[string]int64{"removed": n})
}
