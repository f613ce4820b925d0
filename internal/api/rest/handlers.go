package rest

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/nhl-predictor/internal/api/websocket"
	"github.com/fortuna/nhl-predictor/internal/render"
	"github.com/fortuna/nhl-predictor/internal/session"
)

const (
	serviceName    = "nhl-predictor"
	serviceVersion = "1.0.0"
)

// Handler contains dependencies for HTTP handlers
type Handler struct {
	manager  *session.Manager
	renderer *render.Renderer
	ws       *websocket.Server
	logger   logrus.FieldLogger
}

// NewHandler creates a new handler
func NewHandler(manager *session.Manager, renderer *render.Renderer, ws *websocket.Server, logger logrus.FieldLogger) *Handler {
	return &Handler{
		manager:  manager,
		renderer: renderer,
		ws:       ws,
		logger:   logger,
	}
}

// ToggleResult is the JSON answer to a toggle request.
type ToggleResult struct {
	Toggled  bool             `json:"toggled"`
	Snapshot session.Snapshot `json:"snapshot"`
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "healthy",
		"service":  serviceName,
		"version":  serviceVersion,
		"sessions": h.manager.Len(),
		"clients":  h.ws.ClientCount(),
	})
}

// Index opens a new session, starts its fetches and renders the page in its
// loading state. The page follows the session over the websocket.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	sess := h.manager.Create()
	h.renderPage(w, sess)
}

// GetPage renders the current page for a session. Unknown or expired
// sessions start over at /.
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(r)
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.renderPage(w, sess)
}

// GetFragment renders only the prediction list and model panel.
func (h *Handler) GetFragment(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(r)
	if !ok {
		respondError(w, http.StatusNotFound, "Session not found", nil)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.renderer.List(w, sess.Snapshot()); err != nil {
		h.logger.WithError(err).WithField("session", sess.ID()).Error("rendering fragment")
		respondError(w, http.StatusInternalServerError, "Failed to render predictions", err)
	}
}

// GetState returns the session snapshot as JSON
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(r)
	if !ok {
		respondError(w, http.StatusNotFound, "Session not found", nil)
		return
	}
	respondJSON(w, http.StatusOK, sess.Snapshot())
}

// Toggle expands or collapses one prediction. Browsers are redirected back
// to the page; ?format=json answers with the new snapshot instead.
func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(r)
	if !ok {
		respondError(w, http.StatusNotFound, "Session not found", nil)
		return
	}

	predictionID, err := strconv.ParseInt(mux.Vars(r)["predictionID"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid prediction ID", err)
		return
	}

	toggled := sess.Toggle(predictionID)
	if !toggled {
		h.logger.WithFields(logrus.Fields{
			"session":    sess.ID(),
			"prediction": predictionID,
		}).Debug("toggle ignored")
	}

	if r.URL.Query().Get("format") == "json" {
		respondJSON(w, http.StatusOK, ToggleResult{Toggled: toggled, Snapshot: sess.Snapshot()})
		return
	}
	http.Redirect(w, r, "/sessions/"+sess.ID(), http.StatusSeeOther)
}

// CloseSession tears a session down
func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !h.manager.Close(id) {
		respondError(w, http.StatusNotFound, "Session not found", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) session(r *http.Request) (*session.Session, bool) {
	return h.manager.Get(mux.Vars(r)["id"])
}

func (h *Handler) renderPage(w http.ResponseWriter, sess *session.Session) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.renderer.Page(w, sess.Snapshot()); err != nil {
		h.logger.WithError(err).WithField("session", sess.ID()).Error("rendering page")
		respondError(w, http.StatusInternalServerError, "Failed to render page", err)
	}
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}
