package router

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/user/blog-analyzer/internal/delivery/http/handler"
	"github.com/user/blog-analyzer/internal/delivery/http/middleware"
)

func New(h *handler.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", h.HandleHealthCheck)
	mux.HandleFunc("POST /api/runs", h.HandleStartRun)
	mux.HandleFunc("GET /api/runs", h.HandleListRuns)
	mux.HandleFunc("POST /api/runs/{id}/resume", h.HandleResumeRun)
	mux.HandleFunc("GET /api/documents/{key}", h.HandleGetDocument)

	// Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	// Apply middlewares
	var chainedHandler http.Handler = mux
	chainedHandler = middleware.Metrics(chainedHandler)
	chainedHandler = middleware.Logging(chainedHandler)

	return chainedHandler
}
