package repository

import (
	"context"
	"errors"

	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/domain"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
)

// FavoriteRepository is the remote favorites store for authenticated users.
// Consumers define this interface, not the MongoDB implementation.
type FavoriteRepository interface {
	GetFavorites(ctx context.Context, userID string) ([]int64, error)
	AddFavorite(ctx context.Context, userID string, productID int64) error
	RemoveFavorite(ctx context.Context, userID string, productID int64) error
	ClearFavorites(ctx context.Context, userID string) error
}

// ProfileRepository fetches the remote user profile.
type ProfileRepository interface {
	GetProfile(ctx context.Context, userID string) (*domain.Profile, error)
}
