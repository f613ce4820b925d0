package rest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/nhl-predictor/internal/api/websocket"
	"github.com/fortuna/nhl-predictor/internal/predictor"
	"github.com/fortuna/nhl-predictor/internal/render"
	"github.com/fortuna/nhl-predictor/internal/session"
	"github.com/fortuna/nhl-predictor/internal/timeutil"
)

const predictionsBody = `[{
	"id": 11,
	"game": {
		"id": 110,
		"game_date": "2026-10-19",
		"home_team": {"name": "Boston Bruins", "abbreviation": "BOS"},
		"away_team": {"name": "Toronto Maple Leafs", "abbreviation": "TOR"},
		"game_json": {
			"homeTeam": {"darkLogo": "https://assets.nhle.com/logos/nhl/svg/BOS_dark.svg"},
			"awayTeam": {"darkLogo": "https://assets.nhle.com/logos/nhl/svg/TOR_dark.svg"}
		}
	},
	"predicted_home_team_win": false,
	"confidence_score": 0.58,
	"top_features_descriptions": {
		"A": ["desc A", 0.5],
		"B": ["desc B", 0.8],
		"C": ["desc C", 0.2]
	}
}]`

const modelBody = `{
	"name": "Random Forest",
	"version": "2.3",
	"trained_seasons": ["20232024"],
	"feature_importances": {"goal_diff": 0.12, "home_win_pct": 0.31}
}`

type backend struct {
	predictionsStatus int
	predictionsBody   string
}

func (b backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasPrefix(r.URL.Path, "/api/game-predictions/date/"):
		w.WriteHeader(b.predictionsStatus)
		io.WriteString(w, b.predictionsBody)
	case r.URL.Path == "/api/prediction-model/most-recent/":
		io.WriteString(w, modelBody)
	default:
		http.NotFound(w, r)
	}
}

type harness struct {
	manager *session.Manager
	web     *httptest.Server
	client  *http.Client
}

func newHarness(t *testing.T, b backend) *harness {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	api := httptest.NewServer(b)
	fetcher := predictor.New(api.URL+"/api", predictor.WithLogger(logger), predictor.WithTimeout(2*time.Second))
	manager := session.NewManager(fetcher, timeutil.NewResolver(), time.Minute, logger)

	renderer, err := render.New()
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}
	ws := websocket.NewServer(manager, logger)
	srv := NewServer("0", manager, renderer, ws, logger)
	web := httptest.NewServer(srv.Handler())

	t.Cleanup(func() {
		web.Close()
		manager.Shutdown()
		api.Close()
	})

	return &harness{
		manager: manager,
		web:     web,
		client: &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func withOK(b backend) backend {
	if b.predictionsStatus == 0 {
		b.predictionsStatus = http.StatusOK
	}
	return b
}

func (h *harness) do(t *testing.T, method, path string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, h.web.URL+path, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (h *harness) document(t *testing.T, path string) *goquery.Document {
	t.Helper()
	resp := h.do(t, http.MethodGet, path)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s status = %d", path, resp.StatusCode)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		t.Fatalf("parsing %s: %v", path, err)
	}
	return doc
}

// open creates a session through / and waits for its fetches to settle.
func (h *harness) open(t *testing.T) string {
	t.Helper()
	doc := h.document(t, "/")
	id, ok := doc.Find("#page-body").Attr("data-session")
	if !ok || id == "" {
		t.Fatal("page has no session id")
	}
	sess, found := h.manager.Get(id)
	if !found {
		t.Fatalf("session %s not registered", id)
	}
	select {
	case <-sess.Loaded():
	case <-time.After(3 * time.Second):
		t.Fatal("session did not load")
	}
	return id
}

func TestIndexCreatesSession(t *testing.T) {
	h := newHarness(t, withOK(backend{predictionsBody: predictionsBody}))
	id := h.open(t)

	if h.manager.Len() != 1 {
		t.Errorf("sessions = %d, want 1", h.manager.Len())
	}

	doc := h.document(t, "/sessions/"+id)
	if got := strings.Join(strings.Fields(doc.Find("#prediction-11 h3.text").Text()), " "); got != "TOR at BOS" {
		t.Errorf("matchup = %q, want TOR at BOS", got)
	}
	if doc.Find(".spinner").Length() != 0 {
		t.Error("spinner shown after load")
	}
	if doc.Find(".prediction-model-container").Length() != 1 {
		t.Error("model panel missing")
	}
}

func TestToggleRedirectsAndOpensItem(t *testing.T) {
	h := newHarness(t, withOK(backend{predictionsBody: predictionsBody}))
	id := h.open(t)

	resp := h.do(t, http.MethodPost, "/sessions/"+id+"/toggle/11")
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/sessions/"+id {
		t.Errorf("Location = %q", loc)
	}

	doc := h.document(t, "/sessions/"+id)
	var reasons []string
	doc.Find("#prediction-11 .reason").Each(func(_ int, s *goquery.Selection) {
		reasons = append(reasons, strings.Join(strings.Fields(s.Text()), " "))
	})
	if got := strings.Join(reasons, "|"); got != "1: B|2: A|3: C" {
		t.Errorf("reasons = %s", got)
	}
	if got := strings.TrimSpace(doc.Find("#prediction-11 .winner").Text()); got != "Toronto Maple Leafs. Here's why..." {
		t.Errorf("winner = %q", got)
	}
}

func TestToggleJSON(t *testing.T) {
	h := newHarness(t, withOK(backend{predictionsBody: predictionsBody}))
	id := h.open(t)

	resp := h.do(t, http.MethodPost, "/sessions/"+id+"/toggle/11?format=json")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var result struct {
		Toggled  bool `json:"toggled"`
		Snapshot struct {
			Selection []struct {
				ID     int64 `json:"id"`
				IsOpen bool  `json:"isOpen"`
			} `json:"selection"`
			Charts map[string]json.RawMessage `json:"charts"`
		} `json:"snapshot"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if !result.Toggled || len(result.Snapshot.Selection) != 1 || !result.Snapshot.Selection[0].IsOpen {
		t.Errorf("result = %+v", result)
	}
	for _, canvas := range []string{"features-11", "confidence-11", "model-importances"} {
		if _, ok := result.Snapshot.Charts[canvas]; !ok {
			t.Errorf("chart %s missing", canvas)
		}
	}

	// unknown prediction is a no-op
	resp = h.do(t, http.MethodPost, "/sessions/"+id+"/toggle/99?format=json")
	var noop struct {
		Toggled bool `json:"toggled"`
	}
	json.NewDecoder(resp.Body).Decode(&noop)
	if noop.Toggled {
		t.Error("unknown prediction toggled")
	}
}

func TestPredictionsErrorShownVerbatim(t *testing.T) {
	h := newHarness(t, backend{
		predictionsStatus: http.StatusServiceUnavailable,
		predictionsBody:   `{"detail": "maintenance"}`,
	})
	id := h.open(t)

	doc := h.document(t, "/sessions/"+id)
	if got := strings.TrimSpace(doc.Find(".error-panel").Text()); got != "Error: maintenance" {
		t.Errorf("error panel = %q", got)
	}
	if doc.Find(".spinner").Length() != 0 {
		t.Error("spinner shown alongside error")
	}
	// the model slice is independent of the failed list
	if doc.Find(".prediction-model-container").Length() != 1 {
		t.Error("model panel missing after predictions failure")
	}
}

func TestStateAndClose(t *testing.T) {
	h := newHarness(t, withOK(backend{predictionsBody: "[]"}))
	id := h.open(t)

	resp := h.do(t, http.MethodGet, "/sessions/"+id+"/state")
	var state struct {
		ID          string `json:"id"`
		Predictions struct {
			Status string            `json:"status"`
			Value  []json.RawMessage `json:"value"`
		} `json:"predictions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatalf("decoding state: %v", err)
	}
	if state.ID != id || state.Predictions.Status != "ready" || len(state.Predictions.Value) != 0 {
		t.Errorf("state = %+v", state)
	}

	frag := h.do(t, http.MethodGet, "/sessions/"+id+"/fragment")
	body, _ := io.ReadAll(frag.Body)
	if !strings.Contains(string(body), "No games scheduled today.") {
		t.Errorf("fragment = %s", body)
	}

	if resp := h.do(t, http.MethodDelete, "/sessions/"+id); resp.StatusCode != http.StatusNoContent {
		t.Errorf("DELETE status = %d, want 204", resp.StatusCode)
	}
	if resp := h.do(t, http.MethodDelete, "/sessions/"+id); resp.StatusCode != http.StatusNotFound {
		t.Errorf("second DELETE status = %d, want 404", resp.StatusCode)
	}
	if resp := h.do(t, http.MethodGet, "/sessions/"+id); resp.StatusCode != http.StatusSeeOther {
		t.Errorf("page for closed session status = %d, want 303", resp.StatusCode)
	}

	resp = h.do(t, http.MethodGet, "/sessions/"+id+"/state")
	var errBody map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&errBody)
	if resp.StatusCode != http.StatusNotFound || errBody["error"] != "Session not found" {
		t.Errorf("state for closed session = %d %v", resp.StatusCode, errBody)
	}
}

func TestHealthCheck(t *testing.T) {
	h := newHarness(t, withOK(backend{predictionsBody: "[]"}))
	h.open(t)

	resp := h.do(t, http.MethodGet, "/health")
	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if body["status"] != "healthy" || body["sessions"] != float64(1) {
		t.Errorf("health = %v", body)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	router := mux.NewRouter()
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggingMiddleware(logger))
	router.HandleFunc("/boom", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Internal server error") {
		t.Errorf("body = %s", rec.Body.String())
	}
}
