// Package profile caches the authenticated user's remote profile for a
// short TTL so repeated reads don't refetch it. The cache is a single slot:
// a new user id evicts the previous entry, and Clear on sign-out prevents
// cross-identity leakage.
package profile

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/domain"
	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/repository"
)

// TTL is how long a cached profile stays valid.
const TTL = 5 * time.Minute

type entry struct {
	profile   domain.Profile
	userID    string
	timestamp time.Time
}

type Cache struct {
	mu   sync.Mutex
	slot *entry
	now  func() time.Time
}

func NewCache() *Cache {
	return &Cache{now: time.Now}
}

// Get returns the cached profile only when it belongs to the requested user
// and has not expired. Any mismatch or expiry is a miss, and the stale slot
// is discarded.
func (c *Cache) Get(userID string) *domain.Profile {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.slot == nil {
		return nil
	}
	if c.slot.userID != userID || c.now().Sub(c.slot.timestamp) >= TTL {
		c.slot = nil
		return nil
	}
	p := c.slot.profile
	return &p
}

// Put overwrites the single slot.
func (c *Cache) Put(profile domain.Profile, userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slot = &entry{profile: profile, userID: userID, timestamp: c.now()}
}

// Clear empties the slot. Must run on sign-out, before any Get for a
// different identity.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slot = nil
}

// Fetcher combines the cache with the remote repository. Concurrent fetches
// for the same user id are collapsed into one remote call; the late caller
// observes the result the first call put in the cache.
type Fetcher struct {
	cache *Cache
	repo  repository.ProfileRepository
	sfg   singleflight.Group
}

func NewFetcher(cache *Cache, repo repository.ProfileRepository) *Fetcher {
	return &Fetcher{cache: cache, repo: repo}
}

// Get returns the profile from cache when valid, otherwise fetches it from
// the remote store and caches it. Remote failures are returned to the
// caller; the cache is left untouched.
func (f *Fetcher) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	if cached := f.cache.Get(userID); cached != nil {
		return cached, nil
	}

	v, err, _ := f.sfg.Do(userID, func() (interface{}, error) {
		// Re-check: another caller may have populated the slot while this
		// one was waiting on the flight group.
		if cached := f.cache.Get(userID); cached != nil {
			return cached, nil
		}

		profile, err := f.repo.GetProfile(ctx, userID)
		if err != nil {
			return nil, err
		}
		f.cache.Put(*profile, userID)
		return profile, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Profile), nil
}
