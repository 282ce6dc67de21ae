// Package server wires HTTP handlers into a chi router for the roomchat
// application via routing helpers.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Tyrowin/roomchat/internal/metrics"
)

// Routes configures and returns the application router: health check,
// WebSocket endpoint, room listing, test page and, when a gatherer was
// supplied, Prometheus metrics.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/", HealthHandler)
	r.HandleFunc("/ws", s.WebSocketHandler)
	r.Get("/rooms", s.RoomsHandler)
	r.Get("/test", s.TestPageHandler)
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(s.gatherer))
	}
	return r
}
