// Package stub is the liveness server the keep-active pinger targets.
package stub

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Greeting is the body of GET /.
const Greeting = "Hello World from the NHL game predictor!"

// Server answers liveness checks.
type Server struct {
	port   string
	token  string
	header string
	logger logrus.FieldLogger
	router *mux.Router
	server *http.Server
}

// NewServer creates the stub server. When token is non-empty, keep-active
// requests must carry it in header.
func NewServer(port, token, header string, logger logrus.FieldLogger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &Server{
		port:   port,
		token:  token,
		header: header,
		logger: logger.WithField("component", "stub"),
		router: mux.NewRouter(),
	}

	s.router.HandleFunc("/", s.handleRoot).Methods("GET")
	s.router.HandleFunc("/api/keep-active", s.handleKeepActive).Methods("GET")
	s.router.HandleFunc("/api/keep-active/", s.handleKeepActive).Methods("GET")

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens until Shutdown.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, Greeting)
}

func (s *Server) handleKeepActive(w http.ResponseWriter, r *http.Request) {
	if s.token != "" {
		got := r.Header.Get(s.header)
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.token)) != 1 {
			s.logger.WithField("remote", r.RemoteAddr).Warn("keep-active request with bad token")
			writeJSON(w, http.StatusForbidden, map[string]string{"detail": "Invalid or missing keep-active token."})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "Server is active"})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
