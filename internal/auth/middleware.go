package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/HyphaGroup/adgate/internal/logger"
)

// TokenValidator resolves bearer secrets
type TokenValidator interface {
	ValidateToken(secret string) (*Token, error)
}

// Middleware requires a valid gateway bearer token and stores the resulting
// AuthContext in the request context.
func Middleware(store TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")

			if !strings.HasPrefix(header, "Bearer ") {
				jsonError(w, "Authentication required (Bearer token)", http.StatusUnauthorized)
				return
			}

			token, err := store.ValidateToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				logger.WarnContext(r.Context(), "gateway token rejected", "error", err)
				jsonError(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			logger.DebugContext(r.Context(), "gateway token accepted", "token_id", token.ID, "scope", token.Scope)
			ctx := WithContext(r.Context(), &AuthContext{Token: token})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   message,
	})
}
