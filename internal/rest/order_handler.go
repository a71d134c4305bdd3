package rest

import (
	"net/http"

	"shophub-be/internal/order"
	"shophub-be/internal/utils"
)

type OrderHandler struct {
	Orders order.Service
}

func NewOrderHandler(orders order.Service) *OrderHandler {
	return &OrderHandler{Orders: orders}
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input order.PlaceOrderInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	o, err := h.Orders.PlaceOrder(r.Context(), principal(r), input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, o)
}

func (h *OrderHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Items []order.CartItem `json:"orderItems"`
	}
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	q, err := h.Orders.Quote(r.Context(), input.Items)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, q)
}

func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Orders.ListForBuyer(r.Context(), principal(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) ListSeller(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Orders.ListForSeller(r.Context(), principal(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	o, err := h.Orders.GetOrder(r.Context(), principal(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, o)
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var input struct {
		OrderStatus order.Status `json:"orderStatus"`
	}
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	o, err := h.Orders.UpdateOrderStatus(r.Context(), principal(r), r.PathValue("id"), input.OrderStatus)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, o)
}
