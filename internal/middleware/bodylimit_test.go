package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestBodyLimit(t *testing.T) {
	var readErr error
	h := BodyLimit(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("0123456789"))
	h.ServeHTTP(httptest.NewRecorder(), req)

	var maxErr *http.MaxBytesError
	if !errors.As(readErr, &maxErr) {
		t.Fatalf("Expected MaxBytesError, got %v", readErr)
	}
	if maxErr.Limit != 8 {
		t.Errorf("Expected limit 8, got %d", maxErr.Limit)
	}
}

func TestBodyLimitAllowsSmallBodies(t *testing.T) {
	var got string
	h := BodyLimit(0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("Unexpected read error: %v", err)
		}
		got = string(b)
	}))

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"session":"s"}`))
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got != `{"session":"s"}` {
		t.Errorf("Expected body to pass through, got %q", got)
	}
}
