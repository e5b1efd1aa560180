package rate

import (
	"context"
	"sync"
	"time"

	xrate "golang.org/x/time/rate"
)

// Config defines access throttling for one project.
type Config struct {
	RequestsPerSecond float64
	Burst             int
}

// Enabled reports whether the config actually limits anything.
func (c Config) Enabled() bool {
	return c.RequestsPerSecond > 0
}

// Limiter is a token bucket starting full.
type Limiter struct {
	lim *xrate.Limiter
	now func() time.Time
}

// New creates a new limiter with a full bucket. Burst is at least 1.
func New(cfg Config) *Limiter {
	burst := max(cfg.Burst, 1)
	return &Limiter{
		lim: xrate.NewLimiter(xrate.Limit(cfg.RequestsPerSecond), burst),
		now: time.Now,
	}
}

// Allow takes a token if one is available.
func (l *Limiter) Allow() bool {
	return l.lim.AllowN(l.now(), 1)
}

// Wait blocks until a token becomes available or ctx is done. It fails
// immediately when the token would only arrive after ctx's deadline.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.lim.Wait(ctx)
}

// Manager holds one limiter per project.
type Manager struct {
	mu       sync.RWMutex
	limiters map[string]*Limiter
	defaults Config
}

func NewManager(defaults Config) *Manager {
	return &Manager{
		limiters: make(map[string]*Limiter),
		defaults: defaults,
	}
}

func (m *Manager) GetLimiter(projectID string) *Limiter {
	m.mu.RLock()
	if lim, ok := m.limiters[projectID]; ok {
		m.mu.RUnlock()
		return lim
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if lim, ok := m.limiters[projectID]; ok {
		return lim
	}
	lim := New(m.defaults)
	m.limiters[projectID] = lim
	return lim
}

// Wait ensures rate limit compliance for a given project.
func (m *Manager) Wait(ctx context.Context, projectID string) error {
	return m.GetLimiter(projectID).Wait(ctx)
}
