// Package favorites maintains favorite-product sets with dual persistence:
// the remote store is authoritative for authenticated users, the local keyed
// record serves anonymous users and acts as a fallback when the remote is
// unreachable. Sets are kept per identity, and toggles are optimistic; a
// failed remote write rolls the set back and surfaces the failure so the UI
// can notify.
package favorites

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/identity"
	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/keyed"
	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/repository"
)

type Sync struct {
	mu     sync.Mutex
	store  *keyed.Store
	remote repository.FavoriteRepository // nil disables the remote path entirely
	logger *slog.Logger

	sessions map[string]map[int64]struct{}
}

func NewSync(store *keyed.Store, remote repository.FavoriteRepository, logger *slog.Logger) *Sync {
	return &Sync{store: store, remote: remote, logger: logger, sessions: make(map[string]map[int64]struct{})}
}

// sessionLocked resolves the identity's favorite set, loading it on first
// access: authenticated users read the remote store, falling back to the
// local record on remote error rather than surfacing one; anonymous users
// read only the local record.
func (s *Sync) sessionLocked(ctx context.Context, id identity.Identity) map[int64]struct{} {
	if id.ID == "" {
		s.logger.Warn("favorites operation before identity resolved, dropped")
		return nil
	}
	if set, ok := s.sessions[id.ID]; ok {
		return set
	}

	set := make(map[int64]struct{})
	s.sessions[id.ID] = set

	if s.remoteFor(id) {
		ids, err := s.remote.GetFavorites(ctx, id.ID)
		if err == nil {
			for _, pid := range ids {
				set[pid] = struct{}{}
			}
			return set
		}
		s.logger.Warn("remote favorites unavailable, using local copy", "user_id", id.ID, "error", err)
	}

	var ids []int64
	if s.store.Load(keyed.KeyFor(keyed.KindFavorites, id), &ids) {
		for _, pid := range ids {
			set[pid] = struct{}{}
		}
	}
	return set
}

// Toggle flips the product's favorite state, optimistically in memory first.
// When the authenticated remote write fails, the in-memory set is rolled
// back to its pre-toggle value, the local copy stays untouched, and the
// failure is returned for the UI to surface.
func (s *Sync) Toggle(ctx context.Context, id identity.Identity, productID int64) error {
	s.mu.Lock()
	set := s.sessionLocked(ctx, id)
	if set == nil {
		s.mu.Unlock()
		return nil
	}
	_, wasFavorite := set[productID]
	nowFavorite := !wasFavorite
	if nowFavorite {
		set[productID] = struct{}{}
	} else {
		delete(set, productID)
	}
	s.mu.Unlock()

	if s.remoteFor(id) {
		var err error
		if nowFavorite {
			err = s.remote.AddFavorite(ctx, id.ID, productID)
		} else {
			err = s.remote.RemoveFavorite(ctx, id.ID, productID)
		}
		if err != nil {
			s.rollback(id, productID, nowFavorite, wasFavorite)
			return fmt.Errorf("failed to update remote favorite: %w", err)
		}
	}

	s.persist(id)
	return nil
}

// rollback restores the pre-toggle membership, but only while the identity's
// current state still matches the optimistic value this toggle wrote. A
// newer toggle that already moved the state again must not be clobbered by a
// stale rollback.
func (s *Sync) rollback(id identity.Identity, productID int64, optimistic, previous bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.sessions[id.ID]
	if !ok {
		return
	}
	_, current := set[productID]
	if current != optimistic {
		return
	}
	if previous {
		set[productID] = struct{}{}
	} else {
		delete(set, productID)
	}
}

// Clear empties the identity's favorite set. The authenticated path clears
// the remote rows first; if that fails nothing changes, so there is no
// partial clear.
func (s *Sync) Clear(ctx context.Context, id identity.Identity) error {
	s.mu.Lock()
	if s.sessionLocked(ctx, id) == nil {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if s.remoteFor(id) {
		if err := s.remote.ClearFavorites(ctx, id.ID); err != nil {
			return fmt.Errorf("failed to clear remote favorites: %w", err)
		}
	}

	s.mu.Lock()
	s.sessions[id.ID] = make(map[int64]struct{})
	s.mu.Unlock()

	s.store.Remove(keyed.KeyFor(keyed.KindFavorites, id))
	return nil
}

// Contains reports whether the product is one of the identity's favorites.
func (s *Sync) Contains(ctx context.Context, id identity.Identity, productID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessionLocked(ctx, id)[productID]
	return ok
}

// AllIDs returns the identity's favorite product ids in ascending order.
func (s *Sync) AllIDs(ctx context.Context, id identity.Identity) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.sessionLocked(ctx, id)
	ids := make([]int64, 0, len(set))
	for pid := range set {
		ids = append(ids, pid)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Count returns the number of favorites for the identity.
func (s *Sync) Count(ctx context.Context, id identity.Identity) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessionLocked(ctx, id))
}

func (s *Sync) remoteFor(id identity.Identity) bool {
	return s.remote != nil && id.Authenticated
}

// persist writes the identity's set to the local record, the backup copy
// for the authenticated path and the only copy for the anonymous one.
func (s *Sync) persist(id identity.Identity) {
	s.mu.Lock()
	set := s.sessions[id.ID]
	ids := make([]int64, 0, len(set))
	for pid := range set {
		ids = append(ids, pid)
	}
	s.mu.Unlock()

	if id.ID == "" {
		return
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	s.store.Save(keyed.KeyFor(keyed.KindFavorites, id), ids)
}
