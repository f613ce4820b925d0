package websocket

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/nhl-predictor/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// SessionSource looks up live sessions.
type SessionSource interface {
	Get(id string) (*session.Session, bool)
}

// Message is what clients receive after every session change.
type Message struct {
	Type     string           `json:"type"`
	Snapshot session.Snapshot `json:"snapshot"`
}

// Server pushes session snapshots to browsers over websockets.
type Server struct {
	hub      *Hub
	sessions SessionSource
	logger   logrus.FieldLogger
}

// NewServer creates a websocket server over sessions. Run must be started
// before connections are accepted.
func NewServer(sessions SessionSource, logger logrus.FieldLogger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Server{
		hub:      NewHub(),
		sessions: sessions,
		logger:   logger.WithField("component", "websocket"),
	}
}

// Run drives the hub until ctx is done.
func (s *Server) Run(ctx context.Context) {
	s.hub.Run(ctx)
}

// HandleSession upgrades the request and streams the session named by the
// {id} route variable.
func (s *Server) HandleSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	sess, ok := s.sessions.Get(id)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Warn("failed to upgrade connection")
		return
	}

	client := newClient(s.hub, conn, id, s.logger)
	if !s.hub.Register(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
	go s.forward(client, sess)
}

// forward sends the current snapshot, then one more after every change,
// until either the client or the session goes away.
func (s *Server) forward(c *Client, sess *session.Session) {
	updates, stop := sess.Subscribe()
	defer stop()

	s.push(c, sess)
	for {
		select {
		case <-c.Done():
			return
		case _, ok := <-updates:
			if !ok {
				s.hub.Unregister(c)
				return
			}
			s.push(c, sess)
		}
	}
}

func (s *Server) push(c *Client, sess *session.Session) {
	data, err := json.Marshal(Message{Type: "snapshot", Snapshot: sess.Snapshot()})
	if err != nil {
		c.logger.WithError(err).Error("encoding snapshot")
		return
	}
	s.hub.Send(c, data)
}

// Broadcast sends data to every connected client.
func (s *Server) Broadcast(data []byte) {
	s.hub.Broadcast(data)
}

// ClientCount returns the number of open connections.
func (s *Server) ClientCount() int {
	return s.hub.ClientCount()
}
