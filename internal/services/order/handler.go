package order

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"little-lemon/internal/apperr"
	"little-lemon/internal/auth"
	"little-lemon/internal/httpx"
	"little-lemon/internal/logger"
	"little-lemon/internal/models"
	"little-lemon/internal/policy"
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

// Routes mounts the order endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/orders", h.List)
	r.Post("/orders", h.Place)
	r.Route("/orders/{orderID}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Patch("/", h.ToggleStatus)
		r.Put("/", h.AssignDeliveryCrew)
		r.Delete("/", h.Delete)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	requester, ok := auth.Requester(w, r)
	if !ok {
		return
	}

	orders, err := h.service.ListOrders(r.Context(), requester)
	if err != nil {
		httpx.WriteError(w, r, h.logger, "order_list", err)
		return
	}
	httpx.WriteMessage(w, http.StatusOK, "", orders)
}

func (h *Handler) Place(w http.ResponseWriter, r *http.Request) {
	requester, ok := auth.Requester(w, r)
	if !ok {
		return
	}

	detail, err := h.service.PlaceOrder(r.Context(), requester)
	if err != nil {
		httpx.WriteError(w, r, h.logger, "order_place", err)
		return
	}
	httpx.WriteMessage(w, http.StatusCreated, "The order is successfully received", detail)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	requester, ok := auth.Requester(w, r)
	if !ok {
		return
	}
	orderID, err := orderIDParam(r)
	if err != nil {
		httpx.WriteError(w, r, h.logger, "order_get", err)
		return
	}

	detail, err := h.service.GetOrder(r.Context(), requester, orderID)
	if err != nil {
		httpx.WriteError(w, r, h.logger, "order_get", err)
		return
	}
	httpx.WriteMessage(w, http.StatusOK, "", detail)
}

func (h *Handler) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	requester, ok := auth.Requester(w, r)
	if !ok {
		return
	}
	orderID, err := orderIDParam(r)
	if err != nil {
		httpx.WriteError(w, r, h.logger, "order_toggle", err)
		return
	}

	order, err := h.service.ToggleStatus(r.Context(), requester, orderID)
	if err != nil {
		httpx.WriteError(w, r, h.logger, "order_toggle", err)
		return
	}
	httpx.WriteMessage(w, http.StatusOK, "Order status has been changed", order)
}

func (h *Handler) AssignDeliveryCrew(w http.ResponseWriter, r *http.Request) {
	requester, ok := auth.Requester(w, r)
	if !ok {
		return
	}
	// Non-managers are refused before the path or body is looked at.
	if err := policy.Check(requester, policy.OrderAssignCrew, policy.Ownership{}); err != nil {
		httpx.WriteError(w, r, h.logger, "order_assign", err)
		return
	}
	orderID, err := orderIDParam(r)
	if err != nil {
		httpx.WriteError(w, r, h.logger, "order_assign", err)
		return
	}

	var req models.AssignDeliveryCrewRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, h.logger, "order_assign", err)
		return
	}

	order, err := h.service.AssignDeliveryCrew(r.Context(), requester, orderID, req)
	if err != nil {
		httpx.WriteError(w, r, h.logger, "order_assign", err)
		return
	}
	httpx.WriteMessage(w, http.StatusOK, "Delivery crew has been assigned to the order", order)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	requester, ok := auth.Requester(w, r)
	if !ok {
		return
	}
	if err := policy.Check(requester, policy.OrderDelete, policy.Ownership{}); err != nil {
		httpx.WriteError(w, r, h.logger, "order_delete", err)
		return
	}
	orderID, err := orderIDParam(r)
	if err != nil {
		httpx.WriteError(w, r, h.logger, "order_delete", err)
		return
	}

	if err := h.service.DeleteOrder(r.Context(), requester, orderID); err != nil {
		httpx.WriteError(w, r, h.logger, "order_delete", err)
		return
	}
	httpx.WriteMessage(w, http.StatusOK, fmt.Sprintf("Order with ID %d was successfully deleted", orderID), nil)
}

func orderIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "orderID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.ValidationError{Field: "id", Message: fmt.Sprintf("invalid order id %q", raw)}
	}
	return id, nil
}
