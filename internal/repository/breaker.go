package repository

import (
	"context"
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerFavoriteRepository wraps a FavoriteRepository in a circuit breaker
// so an unreachable remote fails fast into the engines' local-fallback
// paths instead of stalling every toggle on a network timeout.
type BreakerFavoriteRepository struct {
	inner FavoriteRepository
	cb    *gobreaker.CircuitBreaker[any]
}

func NewBreakerFavoriteRepository(inner FavoriteRepository) *BreakerFavoriteRepository {
	settings := gobreaker.Settings{
		Name:    "favorites-remote",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &BreakerFavoriteRepository{
		inner: inner,
		cb:    gobreaker.NewCircuitBreaker[any](settings),
	}
}

func (b *BreakerFavoriteRepository) GetFavorites(ctx context.Context, userID string) ([]int64, error) {
	result, err := b.cb.Execute(func() (any, error) {
		return b.inner.GetFavorites(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return result.([]int64), nil
}

func (b *BreakerFavoriteRepository) AddFavorite(ctx context.Context, userID string, productID int64) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.inner.AddFavorite(ctx, userID, productID)
	})
	return err
}

func (b *BreakerFavoriteRepository) RemoveFavorite(ctx context.Context, userID string, productID int64) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.inner.RemoveFavorite(ctx, userID, productID)
	})
	return err
}

func (b *BreakerFavoriteRepository) ClearFavorites(ctx context.Context, userID string) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.inner.ClearFavorites(ctx, userID)
	})
	return err
}
