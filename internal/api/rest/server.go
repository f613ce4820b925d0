package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/nhl-predictor/internal/api/websocket"
	"github.com/fortuna/nhl-predictor/internal/render"
	"github.com/fortuna/nhl-predictor/internal/session"
)

// Server represents the web server
type Server struct {
	port    string
	server  *http.Server
	router  *mux.Router
	handler *Handler
}

// NewServer creates the web server for the prediction page
func NewServer(port string, manager *session.Manager, renderer *render.Renderer, ws *websocket.Server, logger logrus.FieldLogger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	handler := NewHandler(manager, renderer, ws, logger)

	router := mux.NewRouter()

	// Apply middleware
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggingMiddleware(logger))

	// Health check
	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// Pages
	router.HandleFunc("/", handler.Index).Methods("GET")
	router.HandleFunc("/sessions/{id}", handler.GetPage).Methods("GET")
	router.HandleFunc("/sessions/{id}/fragment", handler.GetFragment).Methods("GET")

	// Session state
	router.HandleFunc("/sessions/{id}/state", handler.GetState).Methods("GET")
	router.HandleFunc("/sessions/{id}/toggle/{predictionID:[0-9]+}", handler.Toggle).Methods("POST")
	router.HandleFunc("/sessions/{id}", handler.CloseSession).Methods("DELETE")
	router.HandleFunc("/sessions/{id}/close", handler.CloseSession).Methods("POST")

	// Live updates
	router.HandleFunc("/ws/sessions/{id}", ws.HandleSession).Methods("GET")

	return &Server{
		port:    port,
		router:  router,
		handler: handler,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%s", port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the web server
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
