// Package dialog models the dialogue platform's webhook envelope and the
// conversation contexts it round-trips between turns.
package dialog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ashureev/profiledesk/internal/apperr"
)

// ParamProfileURL is the parameter carrying the LinkedIn profile URL.
const ParamProfileURL = "linkedin_url"

// Request is the inbound webhook body.
type Request struct {
	Session     string      `json:"session"`
	QueryResult QueryResult `json:"queryResult"`
}

// QueryResult holds the classified intent of one user turn.
type QueryResult struct {
	QueryText      string    `json:"queryText,omitempty"`
	Intent         Intent    `json:"intent"`
	Parameters     Params    `json:"parameters,omitempty"`
	OutputContexts []Context `json:"outputContexts,omitempty"`
}

// Intent identifies the matched intent.
type Intent struct {
	DisplayName string `json:"displayName"`
}

// Context is a named parameter bag with a remaining-turns counter.
type Context struct {
	Name          string `json:"name"`
	LifespanCount int    `json:"lifespanCount,omitempty"`
	Parameters    Params `json:"parameters,omitempty"`
}

// Response is the outbound webhook body.
type Response struct {
	FulfillmentText string    `json:"fulfillmentText"`
	OutputContexts  []Context `json:"outputContexts,omitempty"`
}

// Params is a parameter map as sent by the platform. Values are strings in
// the common case; lists and numbers also occur.
type Params map[string]any

// String returns the non-empty string value of key. A list yields its first
// non-empty string element.
func (p Params) String(key string) (string, bool) {
	v, ok := p[key]
	if !ok {
		return "", false
	}
	switch val := v.(type) {
	case string:
		s := strings.TrimSpace(val)
		return s, s != ""
	case []any:
		for _, item := range val {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s), true
			}
		}
	case float64, bool:
		return fmt.Sprint(val), true
	}
	return "", false
}

// Turn is a validated request. Handlers only ever see a Turn.
type Turn struct {
	Session  string
	Intent   string
	Params   Params
	Contexts []Context
}

// Validate checks the fields every turn needs.
func (r *Request) Validate() error {
	switch {
	case strings.TrimSpace(r.Session) == "":
		return apperr.InvalidInput("session is required")
	case strings.TrimSpace(r.QueryResult.Intent.DisplayName) == "":
		return apperr.InvalidInput("intent display name is required")
	}
	return nil
}

// Turn converts a validated request.
func (r *Request) Turn() Turn {
	params := r.QueryResult.Parameters
	if params == nil {
		params = Params{}
	}
	return Turn{
		Session:  strings.TrimSpace(r.Session),
		Intent:   strings.TrimSpace(r.QueryResult.Intent.DisplayName),
		Params:   params,
		Contexts: r.QueryResult.OutputContexts,
	}
}

// Decode reads and validates a request body.
func Decode(body io.Reader) (Turn, error) {
	var req Request
	dec := json.NewDecoder(body)
	if err := dec.Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return Turn{}, apperr.InvalidInput("request body too large")
		}
		return Turn{}, apperr.InvalidInput("malformed request body: %v", err)
	}
	if err := req.Validate(); err != nil {
		return Turn{}, err
	}
	return req.Turn(), nil
}
