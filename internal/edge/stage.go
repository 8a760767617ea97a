package edge

import "net/http"

// Scope selects which traffic a stage wraps.
type Scope int

const (
	// ScopeAll wraps every request reaching the router.
	ScopeAll Scope = iota
	// ScopeAPI wraps only the API handler, including calls the renderer makes
	// in process.
	ScopeAPI
)

func (s Scope) String() string {
	if s == ScopeAPI {
		return "api"
	}
	return "all"
}

// Stage is one step of request processing. Wrap returns a handler that
// either answers the request itself or calls next.
type Stage struct {
	Name  string
	Scope Scope
	Wrap  func(next http.Handler) http.Handler
}

// chain wraps h with the stages of the given scope so that the first stage
// in the list runs first.
func chain(h http.Handler, stages []Stage, scope Scope) http.Handler {
	for i := len(stages) - 1; i >= 0; i-- {
		if stages[i].Scope == scope && stages[i].Wrap != nil {
			h = stages[i].Wrap(h)
		}
	}
	return h
}
