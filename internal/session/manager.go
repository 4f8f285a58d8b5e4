package session

import (
	"context"
	"sync"
	"time"

	"sheetchat/domain/core"
	"sheetchat/internal"
	"sheetchat/ports"
)

// ManagerConfig configures the session registry
type ManagerConfig struct {
	StepDelay       time.Duration
	TTL             time.Duration
	JanitorInterval time.Duration
	Usage           UsageRecorder
	Logger          *internal.Logger

	// Pacer overrides StepDelay; tests use it to run uploads instantly.
	Pacer Pacer
	// SeedFunc overrides DefaultSeed for new sessions.
	SeedFunc func() Seed
}

// Manager keeps one Controller per browser session
type Manager struct {
	chat   ports.ChatClient
	config ManagerConfig
	logger *internal.Logger

	mu       sync.RWMutex
	sessions map[core.SessionID]*Controller
}

// NewManager creates an empty registry whose sessions talk to chat
func NewManager(chat ports.ChatClient, config ManagerConfig) *Manager {
	if config.Logger == nil {
		config.Logger = internal.DefaultLogger
	}
	if config.Pacer == nil {
		config.Pacer = SleepPacer(config.StepDelay)
	}
	if config.SeedFunc == nil {
		config.SeedFunc = DefaultSeed
	}
	if config.JanitorInterval <= 0 {
		config.JanitorInterval = time.Minute
	}
	return &Manager{
		chat:     chat,
		config:   config,
		logger:   config.Logger,
		sessions: make(map[core.SessionID]*Controller),
	}
}

// Get returns the controller of an existing session
func (m *Manager) Get(id core.SessionID) (*Controller, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.sessions[id]
	return c, ok
}

// Create starts a session under a new identifier
func (m *Manager) Create() *Controller {
	c, _ := m.GetOrCreate(core.NewSessionID())
	return c
}

// GetOrCreate returns the session for id, starting a fresh one when the id
// is unknown (for instance after a restart). created reports which happened.
func (m *Manager) GetOrCreate(id core.SessionID) (c *Controller, created bool) {
	if c, ok := m.Get(id); ok {
		return c, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.sessions[id]; ok {
		return c, false
	}
	c = NewController(id, m.chat, Options{
		Seed:   m.config.SeedFunc(),
		Pacer:  m.config.Pacer,
		Usage:  m.config.Usage,
		Logger: m.logger,
	})
	m.sessions[id] = c
	m.logger.Info("[SessionManager] session %s created (active: %d)", id, len(m.sessions))
	return c, true
}

// Remove tears a session down. It reports whether the session existed.
func (m *Manager) Remove(id core.SessionID) bool {
	m.mu.Lock()
	c, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		c.Close()
		m.logger.Info("[SessionManager] session %s removed", id)
	}
	return ok
}

// Len returns the number of live sessions
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// EvictIdle removes sessions idle for longer than the TTL as of now
func (m *Manager) EvictIdle(now time.Time) int {
	if m.config.TTL <= 0 {
		return 0
	}

	m.mu.RLock()
	var stale []core.SessionID
	for id, c := range m.sessions {
		if now.Sub(c.LastActive()) > m.config.TTL {
			stale = append(stale, id)
		}
	}
	m.mu.RUnlock()

	evicted := 0
	for _, id := range stale {
		if m.Remove(id) {
			evicted++
		}
	}
	if evicted > 0 {
		m.logger.Info("[SessionManager] evicted %d idle sessions", evicted)
	}
	return evicted
}

// Run evicts idle sessions periodically until ctx is done
func (m *Manager) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.config.JanitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			m.EvictIdle(now)
		}
	}
}

// Shutdown closes every session and waits for their continuations
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[core.SessionID]*Controller)
	m.mu.Unlock()

	for _, c := range sessions {
		c.Close()
	}
	for _, c := range sessions {
		c.Wait()
	}
}
