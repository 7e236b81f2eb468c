// Package keyed namespaces engine state by identity and does JSON-safe
// load/save against the key-value medium. Storage problems never propagate:
// a missing or corrupt record reads as "no value", a failed write is logged
// and dropped.
package keyed

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/identity"
	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/kv"
)

// Storage kinds, one per engine.
const (
	KindCart      = "carrito"
	KindFavorites = "favoritos"
	KindOrder     = "orden_productos"
	KindProgress  = "progreso_lista"
)

type Store struct {
	medium kv.Medium
	logger *slog.Logger
}

func NewStore(medium kv.Medium, logger *slog.Logger) *Store {
	return &Store{medium: medium, logger: logger}
}

// KeyFor derives the storage key for an entity kind and identity. Two
// different identities never share a key.
func KeyFor(kind string, id identity.Identity) string {
	return fmt.Sprintf("%s_%s", kind, id.ID)
}

// Load reads and unmarshals the record at key into v. It reports whether a
// usable value was found; "key absent" and "value fails to parse" are
// treated identically so callers fall back to their default state.
func (s *Store) Load(key string, v any) bool {
	raw, err := s.medium.Get(key)
	if errors.Is(err, kv.ErrNotFound) {
		return false
	}
	if err != nil {
		s.logger.Warn("failed to read record", "key", key, "error", err)
		return false
	}

	if err := json.Unmarshal([]byte(raw), v); err != nil {
		s.logger.Warn("discarding corrupt record", "key", key, "error", err)
		return false
	}
	return true
}

// Save marshals v and writes it under key. Fire-and-forget: marshal or
// write failures are logged, never returned.
func (s *Store) Save(key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn("failed to marshal record", "key", key, "error", err)
		return
	}
	if err := s.medium.Set(key, string(raw)); err != nil {
		s.logger.Warn("failed to persist record", "key", key, "error", err)
	}
}

// Remove deletes the record at key, logging failures.
func (s *Store) Remove(key string) {
	if err := s.medium.Delete(key); err != nil {
		s.logger.Warn("failed to delete record", "key", key, "error", err)
	}
}
