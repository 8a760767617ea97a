package edge

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/catalogapp/catalog-server/internal/auth"
	"github.com/catalogapp/catalog-server/internal/domain"
	"github.com/catalogapp/catalog-server/internal/http/response"
	"github.com/catalogapp/catalog-server/internal/metrics"
	"github.com/catalogapp/catalog-server/internal/ratelimit"
)

// RequestIDHeader carries the request id in and out.
const RequestIDHeader = "X-Request-Id"

// Authenticator resolves an access token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// StageConfig selects and configures the default stages. Stages whose
// dependency is unset are left out.
type StageConfig struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics

	// CORSOrigin is the one origin allowed to call the API cross-origin.
	CORSOrigin string

	Limiter *ratelimit.KeyedRateLimiter

	Authenticator    Authenticator
	RequireForWrites bool
}

// DefaultStages returns the standard stage list in order.
func DefaultStages(cfg StageConfig) []Stage {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	stages := []Stage{
		{Name: "recover", Scope: ScopeAll, Wrap: Recover(logger)},
		{Name: "request-id", Scope: ScopeAll, Wrap: RequestID},
		{Name: "real-ip", Scope: ScopeAll, Wrap: middleware.RealIP},
		{Name: "access-log", Scope: ScopeAll, Wrap: AccessLog(logger)},
	}
	if cfg.Metrics != nil {
		stages = append(stages, Stage{Name: "metrics", Scope: ScopeAll, Wrap: Metrics(cfg.Metrics)})
	}
	if cfg.CORSOrigin != "" {
		stages = append(stages, Stage{Name: "cors", Scope: ScopeAPI, Wrap: CORS(cfg.CORSOrigin)})
	}
	if cfg.Limiter != nil {
		stages = append(stages, Stage{Name: "rate-limit", Scope: ScopeAPI, Wrap: RateLimit(cfg.Limiter, logger)})
	}
	if cfg.Authenticator != nil {
		stages = append(stages, Stage{Name: "authenticate", Scope: ScopeAPI, Wrap: Authenticate(cfg.Authenticator, logger)})
	}
	if cfg.RequireForWrites {
		stages = append(stages, Stage{Name: "authorize", Scope: ScopeAPI, Wrap: Authorize(logger)})
	}
	return stages
}

// Recover turns a panic into a logged 500 with the usual JSON error body.
// http.ErrAbortHandler is re-raised so net/http can drop the connection.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				p := recover()
				if p == nil {
					return
				}
				if p == http.ErrAbortHandler { //nolint:errorlint // sentinel compared by identity
					panic(p)
				}
				logger.Error("panic serving request",
					"panic", p,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)
				if r.Header.Get("Connection") != "Upgrade" {
					response.InternalError(w, logger)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RequestID reuses an incoming X-Request-Id or assigns a new UUID. The id
// is stored where chi's middleware.GetReqID finds it and echoed back.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AccessLog logs one line per request after it completes.
func AccessLog(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := statusOf(ww)
			level := slog.LevelInfo
			if status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.Log(r.Context(), level, "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"route", routeKind(r.URL.Path),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

// Metrics records count and latency per route kind.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			m.ObserveRequest(routeKind(r.URL.Path), r.Method, statusOf(ww), time.Since(start))
		})
	}
}

// CORS allows origin to call the API with credentials.
func CORS(origin string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   []string{origin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

// RateLimit answers 429 once a client exceeds its bucket. Clients are keyed
// by address; run after real-ip so proxies are accounted for.
func RateLimit(limiter *ratelimit.KeyedRateLimiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)
			if !limiter.Allow(key) {
				logger.Warn("rate limit exceeded", "ip", key, "path", r.URL.Path)
				response.TooManyRequests(w, "Too many requests. Please try again later.", logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Authenticate attaches the user named by a bearer token or the session
// cookie. A bad bearer token is rejected; a stale cookie is ignored so that
// anonymous reads keep working.
func Authenticate(authn Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token, ok := bearerToken(r); ok {
				user, err := authn.Authenticate(r.Context(), token)
				if err != nil {
					// Bad tokens come back as UNAUTHORIZED; a failing store is a 500.
					response.HandleError(w, err, logger)
					return
				}
				next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
				return
			}

			if c, err := r.Cookie(auth.SessionCookie); err == nil && c.Value != "" {
				user, err := authn.Authenticate(r.Context(), c.Value)
				if err == nil {
					r = r.WithContext(auth.WithUser(r.Context(), user))
				} else {
					logger.Debug("ignoring invalid session cookie", "error", err)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Authorize rejects unauthenticated writes outside /api/auth.
func Authorize(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isWrite(r.Method) && !strings.HasPrefix(r.URL.Path, APIPrefix+"/auth/") {
				if _, ok := auth.UserFromContext(r.Context()); !ok {
					response.Unauthorized(w, "Authentication required", logger)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isWrite(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return token, true
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func statusOf(ww middleware.WrapResponseWriter) int {
	if s := ww.Status(); s != 0 {
		return s
	}
	return http.StatusOK
}

func routeKind(path string) string {
	if IsAPIPath(path) {
		return metrics.RouteAPI
	}
	return metrics.RouteRender
}
