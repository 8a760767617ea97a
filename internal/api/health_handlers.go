package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        Prefix + "/health",
		Summary:     "Health check",
		Description: "Reports store reachability and search index state. Answers 503 when the store is down.",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// ComponentHealth describes one dependency.
type ComponentHealth struct {
	Status  string `json:"status" doc:"ok, degraded, disabled or down"`
	Latency string `json:"latency,omitempty" doc:"Time taken by the check"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is the health body.
type HealthResponse struct {
	Status     string                     `json:"status" doc:"ok or down"`
	Components map[string]ComponentHealth `json:"components"`
}

// HealthOutput carries a dynamic status.
type HealthOutput struct {
	Status int
	Body   HealthResponse
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	out := &HealthOutput{
		Status: http.StatusOK,
		Body: HealthResponse{
			Status: "ok",
			Components: map[string]ComponentHealth{
				"store":  s.checkStore(ctx),
				"search": s.checkSearch(),
			},
		},
	}
	if out.Body.Components["store"].Status != "ok" {
		out.Status = http.StatusServiceUnavailable
		out.Body.Status = "down"
	}
	return out, nil
}

func (s *Server) checkStore(ctx context.Context) ComponentHealth {
	if s.store == nil {
		return ComponentHealth{Status: "down", Message: "store not configured"}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := s.store.Ping(ctx)
	latency := time.Since(start).String()
	if err != nil {
		s.logger.Warn("health check: store ping failed", "error", err)
		return ComponentHealth{Status: "down", Latency: latency, Message: "store unreachable"}
	}
	return ComponentHealth{Status: "ok", Latency: latency}
}

func (s *Server) checkSearch() ComponentHealth {
	if s.services == nil || s.services.Search == nil {
		return ComponentHealth{Status: "disabled"}
	}
	count, err := s.services.Search.DocumentCount()
	if err != nil {
		return ComponentHealth{Status: "degraded", Message: "search index unreachable"}
	}
	if count == 0 {
		return ComponentHealth{Status: "ok", Message: "index empty"}
	}
	return ComponentHealth{Status: "ok"}
}
