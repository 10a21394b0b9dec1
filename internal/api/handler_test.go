package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()

	JSON(w, http.StatusOK, map[string]string{"fulfillmentText": "hi"})

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected JSON content type, got %q", ct)
	}

	var got map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if got["fulfillmentText"] != "hi" {
		t.Errorf("Expected fulfillmentText=hi, got %v", got["fulfillmentText"])
	}
}

func TestLivenessRoutes(t *testing.T) {
	r := chi.NewRouter()
	NewWebhook(Deps{Work: panicWork{}}, nil).RegisterRoutes(r)

	tests := map[string]string{
		"/":     "API is working",
		"/test": "Test endpoint working",
	}
	for path, want := range tests {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

		if w.Code != http.StatusOK {
			t.Errorf("%s: expected status 200, got %d", path, w.Code)
		}
		var got map[string]string
		if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
			t.Fatalf("%s: failed to decode response: %v", path, err)
		}
		if got["message"] != want {
			t.Errorf("%s: expected message %q, got %q", path, want, got["message"])
		}
	}
}
