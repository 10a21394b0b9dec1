// Package middleware provides HTTP middleware for the webhook server.
package middleware

import "net/http"

// DefaultMaxBodyBytes caps inbound request bodies.
const DefaultMaxBodyBytes int64 = 1 << 20

// BodyLimit returns middleware that caps request bodies at maxBytes.
// Reads past the cap fail with *http.MaxBytesError.
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil && r.Body != http.NoBody {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
