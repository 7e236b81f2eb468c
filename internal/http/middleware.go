package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/identity"
)

// IdentityMiddleware resolves the request's identity before any handler
// runs: an X-User-ID header means an authenticated user (validation happens
// upstream at the auth proxy), otherwise the device's anonymous identity is
// used. Handlers therefore never operate on an unresolved identity.
func IdentityMiddleware(provider *identity.Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var ident identity.Identity
			if userID := r.Header.Get("X-User-ID"); userID != "" {
				ident = identity.Authenticated(userID)
			} else {
				ident = provider.Anonymous()
			}

			ctx := context.WithValue(r.Context(), "identity", ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = fmt.Sprintf("req-%d", time.Now().UnixNano())
		}

		ctx := context.WithValue(r.Context(), "request_id", requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func identityFromContext(ctx context.Context) identity.Identity {
	if ident, ok := ctx.Value("identity").(identity.Identity); ok {
		return ident
	}
	return identity.Identity{}
}
