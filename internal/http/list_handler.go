package http

import (
	"encoding/json"
	"net/http"

	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/domain"
	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/ordering"
	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/progress"
)

// ListHandler exposes display ordering and shopping-trip progress.
type ListHandler struct {
	order   *ordering.Engine
	tracker *progress.Tracker
}

func NewListHandler(order *ordering.Engine, tracker *progress.Tracker) *ListHandler {
	return &ListHandler{order: order, tracker: tracker}
}

type ReorderRequestDTO struct {
	ProductIDs []int64 `json:"product_ids"`
}

type MoveRequestDTO struct {
	ProductID int64 `json:"product_id"`
	NewIndex  int   `json:"new_index"`
}

type SortRequestDTO struct {
	Products []domain.Product `json:"products"`
}

type OrderStateDTO struct {
	HasCustomOrder bool `json:"has_custom_order"`
}

func (h *ListHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	ident := identityFromContext(r.Context())
	if ident.ID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "identity not resolved")
		return
	}

	var req ReorderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	h.order.ReorderAll(ident, req.ProductIDs)
	respondJSON(w, http.StatusOK, OrderStateDTO{HasCustomOrder: h.order.HasCustomOrder(ident)})
}

func (h *ListHandler) MoveSingle(w http.ResponseWriter, r *http.Request) {
	ident := identityFromContext(r.Context())
	if ident.ID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "identity not resolved")
		return
	}

	var req MoveRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}

	h.order.MoveSingle(ident, req.ProductID, req.NewIndex)
	respondJSON(w, http.StatusOK, OrderStateDTO{HasCustomOrder: h.order.HasCustomOrder(ident)})
}

// Sort returns the given products in the user's display order. A query
// endpoint because the catalog data lives with the caller, not this core.
func (h *ListHandler) Sort(w http.ResponseWriter, r *http.Request) {
	ident := identityFromContext(r.Context())
	if ident.ID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "identity not resolved")
		return
	}

	var req SortRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	respondJSON(w, http.StatusOK, h.order.Sort(ident, req.Products))
}

func (h *ListHandler) ResetOrder(w http.ResponseWriter, r *http.Request) {
	ident := identityFromContext(r.Context())
	if ident.ID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "identity not resolved")
		return
	}

	h.order.Reset(ident)
	respondJSON(w, http.StatusOK, OrderStateDTO{HasCustomOrder: false})
}

type ProgressInitRequestDTO struct {
	ProductIDs []int64 `json:"product_ids"`
	ListID     string  `json:"list_id,omitempty"`
}

type ProgressToggleRequestDTO struct {
	ProductID int64 `json:"product_id"`
}

func (h *ListHandler) InitProgress(w http.ResponseWriter, r *http.Request) {
	ident := identityFromContext(r.Context())
	if ident.ID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "identity not resolved")
		return
	}

	var req ProgressInitRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	h.tracker.Initialize(ident, req.ProductIDs, req.ListID)
	respondJSON(w, http.StatusOK, h.tracker.Progress(ident))
}

func (h *ListHandler) ToggleProgress(w http.ResponseWriter, r *http.Request) {
	ident := identityFromContext(r.Context())
	if ident.ID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "identity not resolved")
		return
	}

	var req ProgressToggleRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}

	h.tracker.Toggle(ident, req.ProductID)
	respondJSON(w, http.StatusOK, h.tracker.Progress(ident))
}

func (h *ListHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	ident := identityFromContext(r.Context())
	if ident.ID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "identity not resolved")
		return
	}

	respondJSON(w, http.StatusOK, h.tracker.Progress(ident))
}

func (h *ListHandler) FinishProgress(w http.ResponseWriter, r *http.Request) {
	ident := identityFromContext(r.Context())
	if ident.ID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "identity not resolved")
		return
	}

	h.tracker.Finish(ident)
	respondJSON(w, http.StatusOK, h.tracker.Progress(ident))
}

func (h *ListHandler) ResetProgress(w http.ResponseWriter, r *http.Request) {
	ident := identityFromContext(r.Context())
	if ident.ID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "identity not resolved")
		return
	}

	h.tracker.Reset(ident)
	respondJSON(w, http.StatusOK, h.tracker.Progress(ident))
}
