package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/cart"
	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/domain"
)

type CartHandler struct {
	engine *cart.Engine
}

func NewCartHandler(engine *cart.Engine) *CartHandler {
	return &CartHandler{engine: engine}
}

type AddItemRequestDTO struct {
	Product  domain.Product `json:"product"`
	Quantity int            `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ident := identityFromContext(r.Context())
	if ident.ID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "identity not resolved")
		return
	}

	respondJSON(w, http.StatusOK, h.engine.Cart(ident))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ident := identityFromContext(r.Context())
	if ident.ID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "identity not resolved")
		return
	}

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Product.ID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product id must be positive")
		return
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	h.engine.AddProduct(ident, req.Product, req.Quantity)
	respondJSON(w, http.StatusCreated, h.engine.Cart(ident))
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ident := identityFromContext(r.Context())
	if ident.ID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "identity not resolved")
		return
	}

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	h.engine.UpdateQuantity(ident, productID, req.Quantity)
	respondJSON(w, http.StatusOK, h.engine.Cart(ident))
}

func (h *CartHandler) Increment(w http.ResponseWriter, r *http.Request) {
	ident := identityFromContext(r.Context())
	if ident.ID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "identity not resolved")
		return
	}

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	h.engine.Increment(ident, productID)
	respondJSON(w, http.StatusOK, h.engine.Cart(ident))
}

func (h *CartHandler) Decrement(w http.ResponseWriter, r *http.Request) {
	ident := identityFromContext(r.Context())
	if ident.ID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "identity not resolved")
		return
	}

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	h.engine.Decrement(ident, productID)
	respondJSON(w, http.StatusOK, h.engine.Cart(ident))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ident := identityFromContext(r.Context())
	if ident.ID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "identity not resolved")
		return
	}

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	h.engine.RemoveProduct(ident, productID)
	respondJSON(w, http.StatusOK, h.engine.Cart(ident))
}

func productIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	productIDStr := chi.URLParam(r, "product_id")
	productID, err := strconv.ParseInt(productIDStr, 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return 0, false
	}
	return productID, true
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
