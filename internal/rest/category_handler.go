package rest

import (
	"net/http"

	"shophub-be/internal/category"
	"shophub-be/internal/utils"
)

type CategoryHandler struct {
	Categories category.Service
}

func NewCategoryHandler(categories category.Service) *CategoryHandler {
	return &CategoryHandler{Categories: categories}
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter *string
	if s := r.URL.Query().Get("search"); s != "" {
		filter = &s
	}

	categories, err := h.Categories.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, categories)
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input category.NewCategoryInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	c, err := h.Categories.Create(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, c)
}
