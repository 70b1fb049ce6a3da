package explorer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/rescale/drive-explorer/internal/constants"
	"github.com/rescale/drive-explorer/internal/drive"
	"github.com/rescale/drive-explorer/internal/logging"
	"github.com/rescale/drive-explorer/internal/metrics"
)

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("session not found")

// ServiceFactory returns the drive service for a new session. The web server
// authenticates here, so a failure means the session cannot start.
type ServiceFactory func(ctx context.Context) (drive.Service, error)

// Manager creates sessions and drops them after an idle period. Sessions never
// share state: each gets its own cache, navigation and download flow.
type Manager struct {
	store      *gocache.Cache
	newService ServiceFactory
	opts       Options
	idle       time.Duration
	log        *logging.Logger
}

// NewManager creates a manager. idle <= 0 uses the default idle timeout.
func NewManager(factory ServiceFactory, opts Options, idle time.Duration, log *logging.Logger) *Manager {
	if idle <= 0 {
		idle = constants.SessionIdleTimeout
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	cleanup := idle / 2
	if cleanup > constants.CacheCleanupInterval {
		cleanup = constants.CacheCleanupInterval
	}
	m := &Manager{
		store:      gocache.New(idle, cleanup),
		newService: factory,
		opts:       opts,
		idle:       idle,
		log:        log,
	}
	m.store.OnEvicted(func(id string, _ interface{}) {
		m.log.Debug().Str("session_id", id).Msg("Session ended")
		metrics.SetActiveSessions(m.store.ItemCount())
	})
	return m
}

// Create starts a new session with a fresh random id.
func (m *Manager) Create(ctx context.Context) (*Session, error) {
	svc, err := m.newService(ctx)
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	id := uuid.NewString()
	s := NewSession(id, svc, m.opts, m.log.Named("session"))
	m.store.Set(id, s, m.idle)
	metrics.SetActiveSessions(m.store.ItemCount())
	m.log.Debug().Str("session_id", id).Msg("Session started")
	return s, nil
}

// Get returns a live session and extends its idle deadline.
func (m *Manager) Get(id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrSessionNotFound
	}
	v, found := m.store.Get(id)
	if !found {
		return nil, ErrSessionNotFound
	}
	s := v.(*Session)
	m.store.Set(id, s, m.idle)
	return s, nil
}

// Delete ends a session.
func (m *Manager) Delete(id string) {
	m.store.Delete(id)
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	return m.store.ItemCount()
}

// Shutdown ends every session.
func (m *Manager) Shutdown() {
	m.store.Flush()
	metrics.SetActiveSessions(0)
}
