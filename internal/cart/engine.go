// Package cart owns the list of selected products and their quantities.
// State is kept per identity, so concurrent requests for different users can
// never interleave into each other's cart. Mutations are applied in memory
// first and persisted best-effort through the keyed store; storage problems
// never reach the caller.
package cart

import (
	"log/slog"
	"sync"

	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/domain"
	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/identity"
	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/keyed"
)

type Engine struct {
	mu     sync.Mutex
	store  *keyed.Store
	logger *slog.Logger

	// sessions holds the in-memory cart per identity id, loaded lazily from
	// the keyed store on first use.
	sessions map[string]*session
}

type session struct {
	items []domain.CartItem
}

// persistedCart is the stored shape. Totals are not persisted: they are a
// pure function of the items and are recomputed on load.
type persistedCart struct {
	Items []domain.CartItem `json:"items"`
}

func NewEngine(store *keyed.Store, logger *slog.Logger) *Engine {
	return &Engine{store: store, logger: logger, sessions: make(map[string]*session)}
}

// sessionLocked resolves the identity's session, reading the persisted cart
// on first access. An unresolved identity gets no session; the caller drops
// the operation.
func (e *Engine) sessionLocked(id identity.Identity) *session {
	if id.ID == "" {
		e.logger.Warn("cart operation before identity resolved, dropped")
		return nil
	}
	if s, ok := e.sessions[id.ID]; ok {
		return s
	}

	s := &session{}
	var record persistedCart
	if e.store.Load(keyed.KeyFor(keyed.KindCart, id), &record) {
		s.items = record.Items
	}
	e.sessions[id.ID] = s
	return s
}

// AddProduct adds quantity of the product, merging with an existing entry
// for the same product id. Quantity defaults to 1 when non-positive.
func (e *Engine) AddProduct(id identity.Identity, product domain.Product, quantity int) {
	if quantity < 1 {
		quantity = 1
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.sessionLocked(id)
	if s == nil {
		return
	}

	for i := range s.items {
		if s.items[i].Product.ID == product.ID {
			s.items[i].Quantity += quantity
			e.persistLocked(id, s)
			return
		}
	}
	s.items = append(s.items, domain.CartItem{Product: product, Quantity: quantity})
	e.persistLocked(id, s)
}

// RemoveProduct drops the entry for the product id, if present.
func (e *Engine) RemoveProduct(id identity.Identity, productID int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.sessionLocked(id)
	if s == nil {
		return
	}
	e.removeLocked(id, s, productID)
}

// UpdateQuantity replaces the entry's quantity. A quantity of zero or less
// removes the entry instead of storing it.
func (e *Engine) UpdateQuantity(id identity.Identity, productID int64, quantity int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.sessionLocked(id)
	if s == nil {
		return
	}

	if quantity <= 0 {
		e.removeLocked(id, s, productID)
		return
	}
	for i := range s.items {
		if s.items[i].Product.ID == productID {
			s.items[i].Quantity = quantity
			e.persistLocked(id, s)
			return
		}
	}
}

// Increment raises the product's quantity by one.
func (e *Engine) Increment(id identity.Identity, productID int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.sessionLocked(id)
	if s == nil {
		return
	}

	for i := range s.items {
		if s.items[i].Product.ID == productID {
			s.items[i].Quantity++
			e.persistLocked(id, s)
			return
		}
	}
}

// Decrement lowers the product's quantity by one; reaching zero removes the
// entry in the same state transition, so no zero-quantity row is ever
// observable or persisted.
func (e *Engine) Decrement(id identity.Identity, productID int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.sessionLocked(id)
	if s == nil {
		return
	}

	for i := range s.items {
		if s.items[i].Product.ID == productID {
			if s.items[i].Quantity <= 1 {
				e.removeLocked(id, s, productID)
			} else {
				s.items[i].Quantity--
				e.persistLocked(id, s)
			}
			return
		}
	}
}

// Clear empties the identity's cart and deletes its persisted record.
func (e *Engine) Clear(id identity.Identity) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.sessionLocked(id)
	if s == nil {
		return
	}

	s.items = nil
	e.persistLocked(id, s)
}

// ClearFor drops the persisted cart and the in-memory session of an
// arbitrary user. Used by the trip-completed consumer.
func (e *Engine) ClearFor(userID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.sessions, userID)
	e.store.Remove(keyed.KeyFor(keyed.KindCart, identity.Identity{ID: userID}))
}

// QuantityOf returns the quantity for the product id, zero if absent.
func (e *Engine) QuantityOf(id identity.Identity, productID int64) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.sessionLocked(id)
	if s == nil {
		return 0
	}

	for _, item := range s.items {
		if item.Product.ID == productID {
			return item.Quantity
		}
	}
	return 0
}

// Contains reports whether the product id is in the identity's cart.
func (e *Engine) Contains(id identity.Identity, productID int64) bool {
	return e.QuantityOf(id, productID) > 0
}

// Cart returns a snapshot with totals recomputed from the items.
func (e *Engine) Cart(id identity.Identity) domain.Cart {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.sessionLocked(id)
	if s == nil {
		return domain.Cart{Items: []domain.CartItem{}}
	}

	items := make([]domain.CartItem, len(s.items))
	copy(items, s.items)
	totalItems, totalPrice := domain.Totals(items)
	return domain.Cart{Items: items, TotalItems: totalItems, TotalPrice: totalPrice}
}

func (e *Engine) removeLocked(id identity.Identity, s *session, productID int64) {
	for i, item := range s.items {
		if item.Product.ID == productID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			e.persistLocked(id, s)
			return
		}
	}
}

// persistLocked writes the session's items, or deletes the record when the
// cart is empty so a stale empty blob cannot mask a future default.
func (e *Engine) persistLocked(id identity.Identity, s *session) {
	key := keyed.KeyFor(keyed.KindCart, id)
	if len(s.items) == 0 {
		e.store.Remove(key)
		return
	}
	e.store.Save(key, persistedCart{Items: s.items})
}
