// Package api provides the HTTP surface of the dialogue webhook.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// RegisterRoutes registers the webhook and liveness routes.
func (h *Webhook) RegisterRoutes(r chi.Router) {
	r.Get("/", message("API is working"))
	r.Get("/test", message("Test endpoint working"))
	r.Post("/webhook", h.Handle)
}

func message(text string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		JSON(w, http.StatusOK, map[string]string{"message": text})
	}
}
