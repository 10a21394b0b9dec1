package dialog

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ashureev/profiledesk/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const session = "projects/demo/agent/sessions/abc"

func TestDecodeValidRequest(t *testing.T) {
	body := `{
		"session": "projects/demo/agent/sessions/abc",
		"queryResult": {
			"intent": {"displayName": "LinkedIn Profile Summarizer"},
			"parameters": {"linkedin_url": " https://www.linkedin.com/in/ada "},
			"outputContexts": [{"name": "projects/demo/agent/sessions/abc/contexts/profile-context", "lifespanCount": 3}]
		}
	}`

	turn, err := Decode(strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, session, turn.Session)
	assert.Equal(t, "LinkedIn Profile Summarizer", turn.Intent)
	assert.Len(t, turn.Contexts, 1)

	url, ok := turn.Params.String(ParamProfileURL)
	assert.True(t, ok)
	assert.Equal(t, "https://www.linkedin.com/in/ada", url)
}

func TestDecodeRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"session":`},
		{"missing session", `{"queryResult":{"intent":{"displayName":"Service Status"}}}`},
		{"missing intent", `{"session":"s","queryResult":{}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.body))
			assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
		})
	}
}

func TestDecodeBodyTooLarge(t *testing.T) {
	body := `{"session":"` + strings.Repeat("x", 64) + `"}`
	r := http.MaxBytesReader(httptest.NewRecorder(), io.NopCloser(strings.NewReader(body)), 16)

	_, err := Decode(r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestParamsString(t *testing.T) {
	p := Params{
		"s":     "value",
		"blank": "   ",
		"list":  []any{"", "first", "second"},
		"num":   float64(42),
		"obj":   map[string]any{"k": "v"},
	}

	v, ok := p.String("s")
	assert.True(t, ok)
	assert.Equal(t, "value", v)

	_, ok = p.String("blank")
	assert.False(t, ok)

	v, ok = p.String("list")
	assert.True(t, ok)
	assert.Equal(t, "first", v)

	v, ok = p.String("num")
	assert.True(t, ok)
	assert.Equal(t, "42", v)

	_, ok = p.String("obj")
	assert.False(t, ok)

	_, ok = Params(nil).String("missing")
	assert.False(t, ok)
}

func TestResolvePrefersRequestParameter(t *testing.T) {
	p := NewPropagator(0)
	active := []Context{{
		Name:       ContextName(session),
		Parameters: Params{ParamProfileURL: "https://www.linkedin.com/in/from-context"},
	}}

	v, ok := p.Resolve(session, Params{ParamProfileURL: "https://www.linkedin.com/in/from-request"}, active, ParamProfileURL)
	assert.True(t, ok)
	assert.Equal(t, "https://www.linkedin.com/in/from-request", v)
}

func TestResolveFallsBackToContext(t *testing.T) {
	p := NewPropagator(0)
	active := []Context{
		{Name: ContextName(session), Parameters: Params{ParamProfileURL: "older"}},
		{Name: "projects/demo/agent/sessions/other/contexts/profile-context", Parameters: Params{ParamProfileURL: "other-session"}},
		{Name: session + "/contexts/followup", Parameters: Params{ParamProfileURL: "newer"}},
	}

	v, ok := p.Resolve(session, Params{ParamProfileURL: ""}, active, ParamProfileURL)
	assert.True(t, ok)
	assert.Equal(t, "newer", v)

	_, ok = p.Resolve(session, nil, active[1:2], ParamProfileURL)
	assert.False(t, ok)

	_, ok = p.Resolve(session, nil, nil, ParamProfileURL)
	assert.False(t, ok)
}

func TestPersistBuildsProfileContext(t *testing.T) {
	c := NewPropagator(0).Persist(session, map[string]string{ParamProfileURL: "https://www.linkedin.com/in/ada"})
	assert.Equal(t, session+"/contexts/profile-context", c.Name)
	assert.Equal(t, DefaultLifespan, c.LifespanCount)

	v, ok := c.Parameters.String(ParamProfileURL)
	assert.True(t, ok)
	assert.Equal(t, "https://www.linkedin.com/in/ada", v)

	assert.Equal(t, 2, NewPropagator(2).Persist(session, nil).LifespanCount)
}
