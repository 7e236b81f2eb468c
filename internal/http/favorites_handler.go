package http

import (
	"errors"
	"net/http"

	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/favorites"
	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/profile"
	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/repository"
)

type FavoritesHandler struct {
	sync    *favorites.Sync
	fetcher *profile.Fetcher
	cache   *profile.Cache
}

func NewFavoritesHandler(sync *favorites.Sync, fetcher *profile.Fetcher, cache *profile.Cache) *FavoritesHandler {
	return &FavoritesHandler{sync: sync, fetcher: fetcher, cache: cache}
}

type FavoritesDTO struct {
	ProductIDs []int64 `json:"product_ids"`
	Count      int     `json:"count"`
}

func (h *FavoritesHandler) GetFavorites(w http.ResponseWriter, r *http.Request) {
	ident := identityFromContext(r.Context())
	if ident.ID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "identity not resolved")
		return
	}

	ids := h.sync.AllIDs(r.Context(), ident)
	respondJSON(w, http.StatusOK, FavoritesDTO{ProductIDs: ids, Count: len(ids)})
}

func (h *FavoritesHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ident := identityFromContext(r.Context())
	if ident.ID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "identity not resolved")
		return
	}

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	if err := h.sync.Toggle(r.Context(), ident, productID); err != nil {
		// The optimistic change was rolled back; tell the UI so it can
		// show the failure instead of a silently reverted star.
		respondError(w, http.StatusBadGateway, "remote_failure", "favorite could not be saved")
		return
	}
	ids := h.sync.AllIDs(r.Context(), ident)
	respondJSON(w, http.StatusOK, FavoritesDTO{ProductIDs: ids, Count: len(ids)})
}

func (h *FavoritesHandler) Clear(w http.ResponseWriter, r *http.Request) {
	ident := identityFromContext(r.Context())
	if ident.ID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "identity not resolved")
		return
	}

	if err := h.sync.Clear(r.Context(), ident); err != nil {
		respondError(w, http.StatusBadGateway, "remote_failure", "favorites could not be cleared")
		return
	}
	respondJSON(w, http.StatusOK, FavoritesDTO{ProductIDs: []int64{}, Count: 0})
}

func (h *FavoritesHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ident := identityFromContext(r.Context())
	if !ident.Authenticated {
		respondError(w, http.StatusUnauthorized, "unauthorized", "profile requires authentication")
		return
	}
	if h.fetcher == nil {
		respondError(w, http.StatusServiceUnavailable, "remote_disabled", "no remote store configured")
		return
	}

	p, err := h.fetcher.Get(r.Context(), ident.ID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "profile not found")
			return
		}
		respondError(w, http.StatusBadGateway, "remote_failure", "profile could not be fetched")
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// SignOut clears the profile cache so a later request for a different
// identity can never observe the previous user's profile.
func (h *FavoritesHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.cache.Clear()
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
