// Package api implements the chronogrid REST API using chi.
package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// TokenQueryParam carries the bearer token for clients that cannot set
// headers: EventSource streams and <img> elements loading /files.
const TokenQueryParam = "access_token"

// AuthMiddleware returns middleware that validates a Bearer token.
// If enabled is false, all requests pass through (disabled mode).
// Otherwise requests must carry "Authorization: Bearer <token>"; GET
// requests may pass the token as the access_token query parameter instead.
func AuthMiddleware(enabled bool, token string) func(http.Handler) http.Handler {
	want := []byte(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled {
				next.ServeHTTP(w, r)
				return
			}
			got, ok := requestToken(r)
			if !ok || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestToken(r *http.Request) (string, bool) {
	if auth := r.Header.Get("Authorization"); auth != "" {
		return strings.CutPrefix(auth, "Bearer ")
	}
	if r.Method == http.MethodGet {
		if q := r.URL.Query().Get(TokenQueryParam); q != "" {
			return q, true
		}
	}
	return "", false
}
