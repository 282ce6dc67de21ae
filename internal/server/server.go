// Package server constructs and starts the chat relay's HTTP service with
// helpers that apply sensible production defaults.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Tyrowin/roomchat/internal/channel"
	"github.com/Tyrowin/roomchat/internal/config"
	"github.com/Tyrowin/roomchat/internal/metrics"
)

// Server bundles the room registry, the connection hub and the settings
// every connection handler needs.
type Server struct {
	cfg      *config.Config
	policy   channel.OverflowPolicy
	manager  *channel.Manager
	hub      *Hub
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	origins  *originPolicy
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// New wires a Server. gatherer may be nil, in which case /metrics is not served.
func New(cfg *config.Config, manager *channel.Manager, m *metrics.Metrics, gatherer prometheus.Gatherer, log *zap.Logger) (*Server, error) {
	policy, err := channel.ParseOverflowPolicy(cfg.OverflowPolicy)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	s := &Server{
		cfg:      cfg,
		policy:   policy,
		manager:  manager,
		hub:      NewHub(m, log.Named("hub")),
		metrics:  m,
		gatherer: gatherer,
		origins:  newOriginPolicy(cfg.AllowedOrigins, log),
		log:      log,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.origins.check,
	}
	return s, nil
}

// Hub returns the connection hub for shutdown coordination.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Manager returns the room registry the server dispatches to.
func (s *Server) Manager() *channel.Manager {
	return s.manager
}

// CreateServer creates and configures an HTTP server with the specified address and handler.
// It sets reasonable timeout values for production use.
func CreateServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// StartServer starts the HTTP server and blocks until it stops. A server
// stopped by ShutdownServer returns nil.
func StartServer(server *http.Server, log *zap.Logger) error {
	log.Info("server listening", zap.String("addr", server.Addr))
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ShutdownServer gracefully shuts down the HTTP server without interrupting active connections.
// It waits for active connections to close or until the timeout is reached.
func ShutdownServer(server *http.Server, timeout time.Duration, log *zap.Logger) error {
	log.Info("shutting down HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
		return err
	}

	log.Info("HTTP server shutdown completed")
	return nil
}
