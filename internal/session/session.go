// Package session owns the state of one prediction page: the two fetch
// slices, the list selection and the live charts.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/fortuna/nhl-predictor/internal/chart"
	"github.com/fortuna/nhl-predictor/internal/fetchstate"
	"github.com/fortuna/nhl-predictor/internal/predictor"
	"github.com/fortuna/nhl-predictor/internal/ranking"
	"github.com/fortuna/nhl-predictor/internal/selection"
	"github.com/fortuna/nhl-predictor/internal/timeutil"
)

// Fetcher is the read side of the prediction service.
type Fetcher interface {
	FetchPredictionsForDate(ctx context.Context, date string) ([]predictor.GamePrediction, error)
	FetchLatestModel(ctx context.Context) (*predictor.PredictionModel, error)
}

// Snapshot is a consistent copy of a session's state for rendering.
type Snapshot struct {
	ID          string                                       `json:"id"`
	Date        string                                       `json:"date"`
	Heading     string                                       `json:"heading"`
	Predictions fetchstate.State[[]predictor.GamePrediction] `json:"predictions"`
	Model       fetchstate.State[*predictor.PredictionModel] `json:"model"`
	Selection   []selection.Entry                            `json:"selection"`
	Charts      map[string]chart.Config                      `json:"charts"`
}

// IsOpen reports whether the prediction with id is expanded.
func (s Snapshot) IsOpen(id int64) bool {
	for _, e := range s.Selection {
		if e.ID == id {
			return e.IsOpen
		}
	}
	return false
}

// Session is one visitor's page. Both fetches run concurrently and each only
// ever writes its own slice; results arriving after Close are dropped.
type Session struct {
	id      string
	date    string
	heading string
	fetcher Fetcher
	logger  logrus.FieldLogger

	mu          sync.Mutex
	predictions fetchstate.State[[]predictor.GamePrediction]
	model       fetchstate.State[*predictor.PredictionModel]
	selection   *selection.State
	charts      *chart.Registry
	lastSeen    time.Time
	started     bool
	closed      bool
	cancel      context.CancelFunc

	subscribers map[int]chan struct{}
	nextSub     int

	loaded chan struct{}
}

// New creates a session for the current business date. Call Start to fetch.
func New(id string, fetcher Fetcher, dates *timeutil.Resolver, logger logrus.FieldLogger) *Session {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	logger = logger.WithField("session", id)

	return &Session{
		id:          id,
		date:        dates.Today(),
		heading:     dates.Heading(),
		fetcher:     fetcher,
		logger:      logger,
		selection:   selection.New(nil),
		charts:      chart.NewRegistry(logger),
		lastSeen:    time.Now(),
		subscribers: make(map[int]chan struct{}),
		loaded:      make(chan struct{}),
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Date returns the business date the session queries.
func (s *Session) Date() string { return s.date }

// Start issues both fetches in the background. Later calls are no-ops.
func (s *Session) Start(parent context.Context) {
	s.mu.Lock()
	if s.started || s.closed {
		s.mu.Unlock()
		return
	}
	s.started = true
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	s.mu.Unlock()

	go s.load(ctx)
}

// Loaded is closed once both fetches have settled or the session is closed.
func (s *Session) Loaded() <-chan struct{} {
	return s.loaded
}

func (s *Session) load(ctx context.Context) {
	defer close(s.loaded)

	s.logger.WithField("date", s.date).Info("loading predictions")

	var g errgroup.Group
	g.Go(func() error {
		predictions, err := s.fetcher.FetchPredictionsForDate(ctx, s.date)
		s.settlePredictions(predictions, err)
		return nil // settled into its own slice
	})
	g.Go(func() error {
		model, err := s.fetcher.FetchLatestModel(ctx)
		s.settleModel(model, err)
		return nil
	})
	_ = g.Wait()
}

func (s *Session) settlePredictions(predictions []predictor.GamePrediction, err error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.logger.Debug("dropping predictions that arrived after close")
		return
	}

	if err != nil {
		s.predictions.Fail(predictor.DisplayMessage(err))
		s.logger.WithError(err).WithField("kind", predictor.KindOf(err)).Warn("predictions fetch failed")
	} else {
		s.predictions.Resolve(predictions)
		ids := make([]int64, len(predictions))
		for i, p := range predictions {
			ids[i] = p.ID
		}
		s.selection.Sync(ids)
		s.logger.WithField("count", len(predictions)).Info("predictions loaded")
	}
	s.notifyLocked()
	s.mu.Unlock()
}

func (s *Session) settleModel(model *predictor.PredictionModel, err error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.logger.Debug("dropping model that arrived after close")
		return
	}

	if err != nil {
		s.model.Fail(predictor.DisplayMessage(err))
		s.logger.WithError(err).WithField("kind", predictor.KindOf(err)).Warn("model fetch failed")
	} else {
		s.model.Resolve(model)
		if model != nil {
			if len(model.FeatureImportances) > 0 {
				ranked := ranking.RankImportances(model.FeatureImportances)
				s.charts.Acquire(chart.ModelCanvasID, chart.ModelImportances(model.Name, model.Version, ranked))
			}
			s.logger.WithField("model", model.Name).Info("model loaded")
		}
	}
	s.notifyLocked()
	s.mu.Unlock()
}

// Toggle expands or collapses the prediction with id. It reports whether the
// prediction exists; before the list has loaded nothing can be toggled.
func (s *Session) Toggle(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	predictions, ok := s.predictions.Value()
	if !ok {
		return false
	}

	prevOpen, hadOpen := s.selection.Open()
	if !s.selection.Toggle(id) {
		return false
	}

	if hadOpen {
		s.charts.Release(chart.FeatureCanvasID(prevOpen))
		s.charts.Release(chart.ConfidenceCanvasID(prevOpen))
	}
	if openID, isOpen := s.selection.Open(); isOpen {
		for _, p := range predictions {
			if p.ID != openID {
				continue
			}
			s.charts.Acquire(chart.FeatureCanvasID(p.ID), chart.FeatureBar(ranking.Rank(p.TopFeaturesDescriptions)))
			s.charts.Acquire(chart.ConfidenceCanvasID(p.ID), chart.Confidence(p.ConfidenceScore))
			break
		}
	}

	s.notifyLocked()
	return true
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		ID:          s.id,
		Date:        s.date,
		Heading:     s.heading,
		Predictions: s.predictions,
		Model:       s.model,
		Selection:   s.selection.Entries(),
		Charts:      s.charts.Configs(),
	}
}

// Subscribe returns a channel that receives a signal after every state
// change, and a function to stop receiving. The channel is closed when the
// session closes.
func (s *Session) Subscribe() (<-chan struct{}, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan struct{}, 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subscribers[id]; ok {
			delete(s.subscribers, id)
			close(sub)
		}
	}
}

// notifyLocked signals subscribers without blocking; a pending signal already
// covers the new change.
func (s *Session) notifyLocked() {
	for _, ch := range s.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Watched reports whether anything is subscribed to the session, such as an
// open page's websocket.
func (s *Session) Watched() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers) > 0
}

// Touch records activity at t.
func (s *Session) Touch(t time.Time) {
	s.mu.Lock()
	s.lastSeen = t
	s.mu.Unlock()
}

// LastSeen returns the time of the latest recorded activity.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Closed reports whether the session has been torn down.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close cancels outstanding fetches, destroys the charts and releases
// subscribers. It is safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	started := s.started
	if s.cancel != nil {
		s.cancel()
	}
	for id, ch := range s.subscribers {
		delete(s.subscribers, id)
		close(ch)
	}
	s.mu.Unlock()

	s.charts.Close()
	if !started {
		close(s.loaded)
	}
	s.logger.Debug("session closed")
}
