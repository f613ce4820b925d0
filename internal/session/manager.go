package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/nhl-predictor/internal/timeutil"
)

// DefaultIdleTimeout is how long a session survives without activity.
const DefaultIdleTimeout = 30 * time.Minute

// Manager creates, looks up and reaps page sessions.
type Manager struct {
	fetcher     Fetcher
	dates       *timeutil.Resolver
	idleTimeout time.Duration
	logger      logrus.FieldLogger
	now         func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a Manager. Sessions fetch through fetcher and query the
// business date from dates.
func NewManager(fetcher Fetcher, dates *timeutil.Resolver, idleTimeout time.Duration, logger logrus.FieldLogger) *Manager {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		fetcher:     fetcher,
		dates:       dates,
		idleTimeout: idleTimeout,
		logger:      logger,
		now:         time.Now,
		ctx:         ctx,
		cancel:      cancel,
		sessions:    make(map[string]*Session),
	}
}

// Create starts a new session. Its fetches outlive the request that created
// it and stop when the session or the manager closes.
func (m *Manager) Create() *Session {
	s := New(uuid.NewString(), m.fetcher, m.dates, m.logger)
	s.Touch(m.now())

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()

	s.Start(m.ctx)
	return s
}

// Get returns the session with id and records activity on it.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	if ok {
		s.Touch(m.now())
	}
	return s, ok
}

// Close tears down the session with id. It reports whether it existed.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		s.Close()
	}
	return ok
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Reap closes sessions idle for longer than the idle timeout and returns how
// many it closed. Sessions with a live subscriber are kept and their idle
// clock restarts.
func (m *Manager) Reap() int {
	cutoff := m.now().Add(-m.idleTimeout)

	m.mu.Lock()
	var stale []*Session
	for id, s := range m.sessions {
		if s.Watched() {
			s.Touch(m.now())
			continue
		}
		if s.LastSeen().Before(cutoff) {
			stale = append(stale, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		s.Close()
	}
	if len(stale) > 0 {
		m.logger.WithField("count", len(stale)).Info("reaped idle sessions")
	}
	return len(stale)
}

// Run reaps idle sessions periodically until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	interval := m.idleTimeout / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Reap()
		}
	}
}

// Shutdown closes every session and cancels outstanding fetches.
func (m *Manager) Shutdown() {
	m.cancel()

	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
