package rest

import (
	"net/http"

	"shophub-be/internal/product"
	"shophub-be/internal/utils"
)

type ProductHandler struct {
	Products product.Service
}

func NewProductHandler(products product.Service) *ProductHandler {
	return &ProductHandler{Products: products}
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input product.NewProductInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	p, err := h.Products.Create(r.Context(), principal(r), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, p)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.Products.GetByID(r.Context(), r.PathValue("id"), viewer(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, p)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	var input product.UpdateProductInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	p, err := h.Products.Update(r.Context(), principal(r), r.PathValue("id"), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, p)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Products.Delete(r.Context(), principal(r), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Product removed"})
}

func (h *ProductHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	products, err := h.Products.ListMine(r.Context(), principal(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	var input product.ReviewInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	p, err := h.Products.AddReview(r.Context(), principal(r), r.PathValue("id"), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, p)
}
