package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/filekeep/server/internal/auth"
	"github.com/filekeep/server/internal/repo"
)

type contextKey string

const (
	identityKey contextKey = "identity"
	rawTokenKey contextKey = "raw_token"
)

// Identity is the authenticated caller attached to the request context.
type Identity struct {
	UserID   string
	DeviceID string
}

// Authenticate validates the bearer token on inbound requests. The
// blacklist lookup runs before signature verification so a revoked but
// still cryptographically valid token is rejected deterministically.
func Authenticate(jwtService *auth.JWTService, blacklistRepo repo.BlacklistRepo) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				respondWithError(w, http.StatusUnauthorized, "No token provided")
				return
			}

			tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			if tokenString == "" {
				respondWithError(w, http.StatusUnauthorized, "No token provided")
				return
			}

			_, err := blacklistRepo.FindByToken(r.Context(), tokenString)
			if err == nil {
				respondWithError(w, http.StatusUnauthorized, "Token has been revoked")
				return
			}
			if !errors.Is(err, repo.ErrNotFound) {
				log.Printf("Blacklist lookup failed: %v", err)
				respondWithError(w, http.StatusInternalServerError, "Internal server error")
				return
			}

			claims, err := jwtService.VerifyAccessToken(tokenString)
			if err != nil {
				if errors.Is(err, auth.ErrTokenExpired) {
					respondWithError(w, http.StatusUnauthorized, "Token expired")
				} else {
					respondWithError(w, http.StatusUnauthorized, "Invalid token")
				}
				return
			}

			identity := Identity{UserID: claims.UserID, DeviceID: claims.DeviceID}
			ctx := context.WithValue(r.Context(), identityKey, identity)
			ctx = context.WithValue(ctx, rawTokenKey, tokenString)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetIdentity returns the authenticated identity set by Authenticate
func GetIdentity(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// GetRawToken returns the bearer token string that passed the gate
func GetRawToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(rawTokenKey).(string)
	return token, ok
}

// respondWithError sends a JSON error response
func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	response := map[string]string{"error": message}
	_ = json.NewEncoder(w).Encode(response)
}
