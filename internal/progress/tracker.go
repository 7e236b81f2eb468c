// Package progress tracks which items have been picked up during a shopping
// trip. The in-memory checklist is kept per identity so concurrent shoppers
// never toggle each other's trip; the persisted record is keyed by list id,
// and a list whose item count changed is treated as a different list.
package progress

import (
	"log/slog"
	"math"
	"sync"

	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/identity"
	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/keyed"
)

type Tracker struct {
	mu     sync.Mutex
	store  *keyed.Store
	logger *slog.Logger

	sessions map[string]*checklist
}

type checklist struct {
	listID  string
	total   int
	checked map[int64]struct{}
}

// Progress is the derived view of a trip's state.
type Progress struct {
	Completed  int  `json:"completed"`
	Total      int  `json:"total"`
	Percentage int  `json:"percentage"`
	Remaining  int  `json:"remaining"`
	IsComplete bool `json:"is_complete"`
}

type persistedChecklist struct {
	Checked    []int64 `json:"checked"`
	TotalItems int     `json:"total_items"`
}

func NewTracker(store *keyed.Store, logger *slog.Logger) *Tracker {
	return &Tracker{store: store, logger: logger, sessions: make(map[string]*checklist)}
}

// sessionLocked resolves the identity's checklist, creating an empty one on
// first access. An unresolved identity gets none; the caller drops the
// operation.
func (t *Tracker) sessionLocked(id identity.Identity) *checklist {
	if id.ID == "" {
		t.logger.Warn("progress operation before identity resolved, dropped")
		return nil
	}
	c, ok := t.sessions[id.ID]
	if !ok {
		c = &checklist{checked: make(map[int64]struct{})}
		t.sessions[id.ID] = c
	}
	return c
}

// Initialize starts tracking the given items for the identity. When a list
// id is supplied and a persisted checklist with a matching item count
// exists, the checked set is restored; a size mismatch discards the old
// progress entirely.
func (t *Tracker) Initialize(id identity.Identity, productIDs []int64, listID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := t.sessionLocked(id)
	if c == nil {
		return
	}

	c.listID = listID
	c.total = len(productIDs)
	c.checked = make(map[int64]struct{})

	if listID == "" {
		return
	}

	var record persistedChecklist
	if !t.store.Load(listKey(listID), &record) {
		return
	}
	if record.TotalItems != c.total {
		// Effectively a different list; drop the stale checklist.
		t.store.Remove(listKey(listID))
		return
	}

	known := make(map[int64]struct{}, len(productIDs))
	for _, pid := range productIDs {
		known[pid] = struct{}{}
	}
	for _, pid := range record.Checked {
		if _, ok := known[pid]; ok {
			c.checked[pid] = struct{}{}
		}
	}
}

// Toggle flips the item's checked state in the identity's checklist.
func (t *Tracker) Toggle(id identity.Identity, productID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := t.sessionLocked(id)
	if c == nil {
		return
	}

	if _, ok := c.checked[productID]; ok {
		delete(c.checked, productID)
	} else {
		c.checked[productID] = struct{}{}
	}
	t.persistLocked(c)
}

// CheckAll marks every given item as picked up.
func (t *Tracker) CheckAll(id identity.Identity, productIDs []int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := t.sessionLocked(id)
	if c == nil {
		return
	}

	for _, pid := range productIDs {
		c.checked[pid] = struct{}{}
	}
	t.persistLocked(c)
}

// UncheckAll clears the identity's checked set.
func (t *Tracker) UncheckAll(id identity.Identity) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := t.sessionLocked(id)
	if c == nil {
		return
	}

	c.checked = make(map[int64]struct{})
	t.persistLocked(c)
}

// Progress returns the derived completion view. An uninitialized or empty
// list reports zero percent and never counts as complete.
func (t *Tracker) Progress(id identity.Identity) Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := t.sessionLocked(id)
	if c == nil {
		return Progress{}
	}

	completed := len(c.checked)
	percentage := 0
	if c.total > 0 {
		percentage = int(math.Round(float64(completed) / float64(c.total) * 100))
	}
	return Progress{
		Completed:  completed,
		Total:      c.total,
		Percentage: percentage,
		Remaining:  c.total - completed,
		IsComplete: c.total > 0 && completed == c.total,
	}
}

// IsComplete reports whether every tracked item has been checked.
func (t *Tracker) IsComplete(id identity.Identity) bool {
	return t.Progress(id).IsComplete
}

// Finish clears the persisted record so the next trip starts fresh, while
// leaving the in-memory set untouched for the completion screen.
func (t *Tracker) Finish(id identity.Identity) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := t.sessionLocked(id)
	if c == nil {
		return
	}

	if c.listID != "" {
		t.store.Remove(listKey(c.listID))
	}
}

// Reset clears both in-memory and persisted state for the identity.
func (t *Tracker) Reset(id identity.Identity) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := t.sessionLocked(id)
	if c == nil {
		return
	}

	c.checked = make(map[int64]struct{})
	c.total = 0
	if c.listID != "" {
		t.store.Remove(listKey(c.listID))
	}
	c.listID = ""
}

// ClearFor drops the persisted checklist of an arbitrary list id, along
// with any in-memory checklist tracking it. Used by the trip-completed
// consumer.
func (t *Tracker) ClearFor(listID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for identityID, c := range t.sessions {
		if c.listID == listID {
			delete(t.sessions, identityID)
		}
	}
	t.store.Remove(listKey(listID))
}

func listKey(listID string) string {
	return keyed.KeyFor(keyed.KindProgress, identity.Identity{ID: listID})
}

func (t *Tracker) persistLocked(c *checklist) {
	if c.listID == "" {
		return
	}
	checked := make([]int64, 0, len(c.checked))
	for pid := range c.checked {
		checked = append(checked, pid)
	}
	t.store.Save(listKey(c.listID), persistedChecklist{Checked: checked, TotalItems: c.total})
}
