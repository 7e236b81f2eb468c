// Package identity resolves who the per-device state belongs to: the
// authenticated user when there is one, otherwise a generated anonymous id
// that is minted once and reused for the life of the device.
package identity

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/kv"
)

// anonKey is deliberately identity-independent so the anonymous id survives
// across sessions and login/logout cycles.
const anonKey = "usuario_anonimo_id"

type Identity struct {
	ID            string
	Authenticated bool
}

// Authenticated builds the identity for a signed-in user id.
func Authenticated(userID string) Identity {
	return Identity{ID: userID, Authenticated: true}
}

// Provider hands out the device's anonymous identity, generating and
// persisting it on first use.
type Provider struct {
	// mu serializes minting so two concurrent first requests cannot split
	// one device's state across two anonymous ids.
	mu     sync.Mutex
	medium kv.Medium
	logger *slog.Logger
}

func NewProvider(medium kv.Medium, logger *slog.Logger) *Provider {
	return &Provider{medium: medium, logger: logger}
}

// Anonymous returns the persisted anonymous identity, minting one if the
// device has none yet. A failure to persist the fresh id is logged and the
// id is still returned; the next session will simply mint another.
func (p *Provider) Anonymous() Identity {
	p.mu.Lock()
	defer p.mu.Unlock()

	id, err := p.medium.Get(anonKey)
	if err == nil && id != "" {
		return Identity{ID: id}
	}

	id = fmt.Sprintf("anon-%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
	if err := p.medium.Set(anonKey, id); err != nil {
		p.logger.Warn("failed to persist anonymous id", "error", err)
	}
	return Identity{ID: id}
}
