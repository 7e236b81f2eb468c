package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/domain"
	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/favorites"
	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/identity"
	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/keyed"
	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/kv"
	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/profile"
	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/repository"
)

type remoteMock struct {
	favorites map[int64]struct{}
	profile   *domain.Profile
	err       error
}

func (m *remoteMock) GetFavorites(context.Context, string) ([]int64, error) {
	if m.err != nil {
		return nil, m.err
	}
	var ids []int64
	for id := range m.favorites {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *remoteMock) AddFavorite(_ context.Context, _ string, productID int64) error {
	if m.err != nil {
		return m.err
	}
	m.favorites[productID] = struct{}{}
	return nil
}

func (m *remoteMock) RemoveFavorite(_ context.Context, _ string, productID int64) error {
	if m.err != nil {
		return m.err
	}
	delete(m.favorites, productID)
	return nil
}

func (m *remoteMock) ClearFavorites(context.Context, string) error {
	if m.err != nil {
		return m.err
	}
	m.favorites = map[int64]struct{}{}
	return nil
}

func (m *remoteMock) GetProfile(context.Context, string) (*domain.Profile, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.profile == nil {
		return nil, repository.ErrProfileNotFound
	}
	return m.profile, nil
}

func newFavoritesRouter(t *testing.T, remote *remoteMock) *chi.Mux {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := keyed.NewStore(kv.NewMemory(), logger)
	sync := favorites.NewSync(store, remote, logger)
	cache := profile.NewCache()
	fetcher := profile.NewFetcher(cache, remote)
	handler := NewFavoritesHandler(sync, fetcher, cache)

	r := chi.NewRouter()
	r.Get("/favorites", handler.GetFavorites)
	r.Post("/favorites/toggle/{product_id}", handler.Toggle)
	r.Delete("/favorites", handler.Clear)
	r.Get("/profile", handler.GetProfile)
	r.Post("/signout", handler.SignOut)
	return r
}

func TestToggleFavorite_Success(t *testing.T) {
	remote := &remoteMock{favorites: map[int64]struct{}{}}
	router := newFavoritesRouter(t, remote)

	recorder := httptest.NewRecorder()
	request := withIdentity(httptest.NewRequest("POST", "/favorites/toggle/7", nil), identity.Authenticated("user123"))
	router.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)

	var response FavoritesDTO
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, []int64{7}, response.ProductIDs)
	assert.Contains(t, remote.favorites, int64(7))
}

func TestToggleFavorite_RemoteFailureReported(t *testing.T) {
	remote := &remoteMock{favorites: map[int64]struct{}{}}
	router := newFavoritesRouter(t, remote)

	// The initial read succeeds, the toggle write fails.
	recorder := httptest.NewRecorder()
	request := withIdentity(httptest.NewRequest("GET", "/favorites", nil), identity.Authenticated("user123"))
	router.ServeHTTP(recorder, request)
	require.Equal(t, http.StatusOK, recorder.Code)

	remote.err = fmt.Errorf("connection refused")
	recorder = httptest.NewRecorder()
	request = withIdentity(httptest.NewRequest("POST", "/favorites/toggle/7", nil), identity.Authenticated("user123"))
	router.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusBadGateway, recorder.Code)

	var response ErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, "remote_failure", response.Code)
}

func TestClearFavorites_RemoteFailureLeavesState(t *testing.T) {
	remote := &remoteMock{favorites: map[int64]struct{}{}}
	router := newFavoritesRouter(t, remote)
	ident := identity.Authenticated("user123")

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, withIdentity(httptest.NewRequest("POST", "/favorites/toggle/7", nil), ident))
	require.Equal(t, http.StatusOK, recorder.Code)

	remote.err = fmt.Errorf("connection refused")
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, withIdentity(httptest.NewRequest("DELETE", "/favorites", nil), ident))
	require.Equal(t, http.StatusBadGateway, recorder.Code)

	remote.err = nil
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, withIdentity(httptest.NewRequest("GET", "/favorites", nil), ident))
	var response FavoritesDTO
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, 1, response.Count)
}

func TestGetProfile_RequiresAuthentication(t *testing.T) {
	router := newFavoritesRouter(t, &remoteMock{favorites: map[int64]struct{}{}})

	recorder := httptest.NewRecorder()
	request := withIdentity(httptest.NewRequest("GET", "/profile", nil), identity.Identity{ID: "anon-1-x"})
	router.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestGetProfile_Success(t *testing.T) {
	remote := &remoteMock{
		favorites: map[int64]struct{}{},
		profile:   &domain.Profile{UserID: "user123", Email: "user@example.com"},
	}
	router := newFavoritesRouter(t, remote)

	recorder := httptest.NewRecorder()
	request := withIdentity(httptest.NewRequest("GET", "/profile", nil), identity.Authenticated("user123"))
	router.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)

	var response domain.Profile
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, "user@example.com", response.Email)
}

func TestGetProfile_NotFound(t *testing.T) {
	router := newFavoritesRouter(t, &remoteMock{favorites: map[int64]struct{}{}})

	recorder := httptest.NewRecorder()
	request := withIdentity(httptest.NewRequest("GET", "/profile", nil), identity.Authenticated("user123"))
	router.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusNotFound, recorder.Code)
}
