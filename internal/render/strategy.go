package render

import "github.com/catalogapp/catalog-server/internal/config"

// Strategy is how page data is acquired during a server render. It is
// resolved once at startup.
type Strategy int

const (
	// StrategyFetch issues real HTTP requests to the page's own origin.
	StrategyFetch Strategy = iota
	// StrategyDevProxy issues HTTP requests to the development API proxy.
	StrategyDevProxy
	// StrategyInProcess calls the API handler directly through the client the
	// edge router hands to the renderer.
	StrategyInProcess
	// StrategyDeferred loads nothing on the server; the browser fetches the
	// same-origin API after the page loads.
	StrategyDeferred
)

func (s Strategy) String() string {
	switch s {
	case StrategyFetch:
		return "fetch"
	case StrategyDevProxy:
		return "dev-proxy"
	case StrategyInProcess:
		return "in-process"
	case StrategyDeferred:
		return "deferred"
	default:
		return "unknown"
	}
}

// ResolveStrategy picks the strategy for an environment.
//
//	deferred                 -> StrategyDeferred
//	development              -> StrategyDevProxy
//	in-process call possible -> StrategyInProcess
//	otherwise                -> StrategyFetch
func ResolveStrategy(env string, inProcessAvailable, deferred bool) Strategy {
	switch {
	case deferred:
		return StrategyDeferred
	case env == config.EnvDevelopment:
		return StrategyDevProxy
	case inProcessAvailable:
		return StrategyInProcess
	default:
		return StrategyFetch
	}
}
