package dialog

import "strings"

// ProfileContextID is the id of the context that carries the profile URL
// between turns.
const ProfileContextID = "profile-context"

// DefaultLifespan is the number of turns a persisted context stays active.
const DefaultLifespan = 5

// Propagator merges turn parameters with parameters carried in contexts
// from earlier turns.
type Propagator struct {
	lifespan int
}

// NewPropagator creates a Propagator whose persisted contexts live for
// lifespan turns. Non-positive values use DefaultLifespan.
func NewPropagator(lifespan int) *Propagator {
	if lifespan <= 0 {
		lifespan = DefaultLifespan
	}
	return &Propagator{lifespan: lifespan}
}

// ContextName returns the fully qualified name of the profile context for
// session.
func ContextName(session string) string {
	return session + "/contexts/" + ProfileContextID
}

// Resolve returns the request parameter for key when present. Otherwise it
// returns the value from the last active context in the session's
// namespace that carries key.
func (p *Propagator) Resolve(session string, params Params, active []Context, key string) (string, bool) {
	if v, ok := params.String(key); ok {
		return v, true
	}

	prefix := session + "/contexts/"
	for i := len(active) - 1; i >= 0; i-- {
		c := active[i]
		if !strings.HasPrefix(c.Name, prefix) {
			continue
		}
		if v, ok := c.Parameters.String(key); ok {
			return v, true
		}
	}
	return "", false
}

// Persist builds the context the platform should return on following turns.
func (p *Propagator) Persist(session string, values map[string]string) Context {
	params := make(Params, len(values))
	for k, v := range values {
		params[k] = v
	}
	return Context{
		Name:          ContextName(session),
		LifespanCount: p.lifespan,
		Parameters:    params,
	}
}
