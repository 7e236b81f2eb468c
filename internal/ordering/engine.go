// Package ordering maintains the user-adjustable display order of the list,
// independent of the underlying cart data. Order maps are kept per identity;
// until a user reorders anything their list falls back to a deterministic
// category sort.
package ordering

import (
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/domain"
	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/identity"
	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/keyed"
)

type Engine struct {
	// mu also serializes collator use; collate.Collator is not safe for
	// concurrent calls.
	mu       sync.Mutex
	store    *keyed.Store
	logger   *slog.Logger
	collator *collate.Collator

	sessions map[string]map[int64]int
}

func NewEngine(store *keyed.Store, lang language.Tag, logger *slog.Logger) *Engine {
	return &Engine{
		store:    store,
		logger:   logger,
		collator: collate.New(lang),
		sessions: make(map[string]map[int64]int),
	}
}

// sessionLocked resolves the identity's order map, reading the persisted
// record on first access.
func (e *Engine) sessionLocked(id identity.Identity) map[int64]int {
	if id.ID == "" {
		e.logger.Warn("order operation before identity resolved, dropped")
		return nil
	}
	if order, ok := e.sessions[id.ID]; ok {
		return order
	}

	order := make(map[int64]int)
	var record map[int64]int
	if e.store.Load(keyed.KeyFor(keyed.KindOrder, id), &record) && record != nil {
		order = record
	}
	e.sessions[id.ID] = order
	return order
}

// ReorderAll replaces the identity's whole map from the sequence's
// positions. Called when a drag-and-drop completes.
func (e *Engine) ReorderAll(id identity.Identity, orderedIDs []int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sessionLocked(id) == nil {
		return
	}

	order := make(map[int64]int, len(orderedIDs))
	for i, pid := range orderedIDs {
		order[pid] = i
	}
	e.sessions[id.ID] = order
	e.store.Save(keyed.KeyFor(keyed.KindOrder, id), order)
}

// MoveSingle sets one product's index without touching the others.
func (e *Engine) MoveSingle(id identity.Identity, productID int64, newIndex int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	order := e.sessionLocked(id)
	if order == nil {
		return
	}

	order[productID] = newIndex
	e.store.Save(keyed.KeyFor(keyed.KindOrder, id), order)
}

// Reset clears the identity's custom order and deletes its persisted record;
// subsequent sorts revert to the category fallback.
func (e *Engine) Reset(id identity.Identity) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sessionLocked(id) == nil {
		return
	}

	e.sessions[id.ID] = make(map[int64]int)
	e.store.Remove(keyed.KeyFor(keyed.KindOrder, id))
}

// HasCustomOrder reports whether the identity has reordered anything.
func (e *Engine) HasCustomOrder(id identity.Identity) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sessionLocked(id)) > 0
}

// Sort returns the products in the identity's display order: by custom index
// when one exists, with unindexed products after all indexed ones; the
// fallback for everything else is a stable locale-aware category sort, so
// products sharing a category keep their input order. The input is not
// mutated.
func (e *Engine) Sort(id identity.Identity, products []domain.Product) []domain.Product {
	e.mu.Lock()
	defer e.mu.Unlock()
	order := e.sessionLocked(id)

	sorted := make([]domain.Product, len(products))
	copy(sorted, products)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		ai, aOK := order[a.ID]
		bi, bOK := order[b.ID]

		switch {
		case aOK && bOK:
			return ai < bi
		case aOK:
			return true
		case bOK:
			return false
		default:
			return e.collator.CompareString(a.Category, b.Category) < 0
		}
	})
	return sorted
}
