package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bluele/gcache"
	"github.com/google/uuid"

	"mbtamap.transit/internal/catalog"
	"mbtamap.transit/internal/logging"
)

var ErrShutdown = errors.New("session manager is shut down")

type ManagerConfig struct {
	Session     SessionConfig
	IdleTimeout time.Duration
	MaxSessions int
}

// Manager keeps one Session per browser session id. Sessions are created
// lazily and stopped when they fall out of the LRU or sit idle too long.
type Manager struct {
	config   ManagerConfig
	fetcher  Fetcher
	geometry Geometry
	catalog  *catalog.Catalog
	logger   *slog.Logger

	ctx      context.Context
	cancel   context.CancelFunc
	sessions gcache.Cache
	ids      sync.Map
	count    atomic.Int64
	createMu sync.Mutex

	shutdownChan chan struct{}
	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

type sessionEntry struct {
	session *Session
	cancel  context.CancelFunc
	evicted atomic.Bool
}

func NewManager(config ManagerConfig, fetcher Fetcher, geom Geometry, cat *catalog.Catalog, logger *slog.Logger) *Manager {
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = 10 * time.Minute
	}
	if config.MaxSessions <= 0 {
		config.MaxSessions = 256
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		config:       config,
		fetcher:      fetcher,
		geometry:     geom,
		catalog:      cat,
		logger:       logger,
		ctx:          ctx,
		cancel:       cancel,
		shutdownChan: make(chan struct{}),
	}
	// The evicted func runs under the cache lock and must not touch the cache.
	m.sessions = gcache.New(config.MaxSessions).
		LRU().
		Expiration(config.IdleTimeout).
		EvictedFunc(func(key, value interface{}) {
			entry := value.(*sessionEntry)
			if !entry.evicted.CompareAndSwap(false, true) {
				return
			}
			entry.cancel()
			m.ids.Delete(key)
			m.count.Add(-1)
			logging.LogOperation(m.logger, "session_evicted", slog.String("session", key.(string)))
		}).
		Build()

	m.wg.Add(1)
	go m.expireIdle()
	return m
}

// Get returns a live session and extends its idle deadline.
func (m *Manager) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	v, err := m.sessions.Get(id)
	if err != nil {
		return nil, false
	}
	entry := v.(*sessionEntry)
	if !m.touch(id, entry) {
		return nil, false
	}
	return entry.session, true
}

// touch re-sets entry to restart its idle timer. An entry evicted between
// the read and the write is taken back out so its stopped session is not
// served again.
func (m *Manager) touch(id string, entry *sessionEntry) bool {
	if entry.evicted.Load() {
		return false
	}
	_ = m.sessions.Set(id, entry)
	if entry.evicted.Load() {
		m.sessions.Remove(id)
		return false
	}
	return true
}

// GetOrCreate returns the session for id, starting a new one on the
// catalog's default route when id is empty or unknown.
func (m *Manager) GetOrCreate(id string) (*Session, error) {
	if s, ok := m.Get(id); ok {
		return s, nil
	}

	m.createMu.Lock()
	defer m.createMu.Unlock()

	select {
	case <-m.shutdownChan:
		return nil, ErrShutdown
	default:
	}
	if s, ok := m.Get(id); ok {
		return s, nil
	}

	id = uuid.NewString()
	ctx, cancel := context.WithCancel(m.ctx)
	s := NewSession(id, m.catalog.DefaultRoute, m.config.Session, m.fetcher, m.geometry, m.logger)
	if err := m.sessions.Set(id, &sessionEntry{session: s, cancel: cancel}); err != nil {
		cancel()
		return nil, err
	}
	m.ids.Store(id, struct{}{})
	m.count.Add(1)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		s.Run(ctx)
	}()

	logging.LogOperation(m.logger, "session_started", slog.String("session", id))
	return s, nil
}

// Select validates route against the catalog and forwards it to the session.
func (m *Manager) Select(id, route string) (*Session, error) {
	if err := m.catalog.Validate(route); err != nil {
		return nil, err
	}
	s, err := m.GetOrCreate(id)
	if err != nil {
		return nil, err
	}
	s.Select(route)
	return s, nil
}

// Remove stops a session immediately.
func (m *Manager) Remove(id string) bool {
	return m.sessions.Remove(id)
}

// Len is the number of sessions that have not been evicted yet.
func (m *Manager) Len() int {
	return int(m.count.Load())
}

func (m *Manager) Catalog() *catalog.Catalog {
	return m.catalog
}

// expireIdle touches every tracked session so the cache drops expired ones.
func (m *Manager) expireIdle() {
	defer m.wg.Done()

	ticker := time.NewTicker(max(m.config.IdleTimeout/2, time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.ids.Range(func(key, _ any) bool {
				_, _ = m.sessions.Get(key)
				return true
			})
		case <-m.shutdownChan:
			return
		}
	}
}

// Shutdown stops every session and waits for their loops to return.
func (m *Manager) Shutdown() {
	m.shutdownOnce.Do(func() {
		m.createMu.Lock()
		close(m.shutdownChan)
		m.createMu.Unlock()

		m.cancel()
		m.wg.Wait()
		m.sessions.Purge()
		logging.LogOperation(m.logger, "session_manager_stopped")
	})
}
