package widget

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"playlist-widget/internal/feed"
	"playlist-widget/internal/logging"
	"playlist-widget/internal/metrics"
	"playlist-widget/internal/player"
	"playlist-widget/internal/playlist"
	"playlist-widget/internal/registry"
	"playlist-widget/internal/workers"
)

// maxBootstrapWorkers caps concurrent feed fetches during Bootstrap.
const maxBootstrapWorkers = 8

// Options configures the layouts a Manager creates.
type Options struct {
	// EmbedBase is the player embed location; empty uses player.DefaultEmbedBase.
	EmbedBase string
	// Origin is the public origin of the page hosting the players.
	Origin string
}

// Manager owns the layouts of one process.
type Manager struct {
	provider feed.Provider
	registry *registry.Registry
	opts     Options

	mu      sync.RWMutex
	layouts map[registry.Handle]*Layout
}

// NewManager creates a manager whose layouts fetch from provider and bind
// their players in reg.
func NewManager(provider feed.Provider, reg *registry.Registry, opts Options) *Manager {
	return &Manager{
		provider: provider,
		registry: reg,
		opts:     opts,
		layouts:  make(map[registry.Handle]*Layout),
	}
}

// Create adds a pending layout under a new handle. The layout shows
// nothing until Init is called.
func (m *Manager) Create(spec Spec) *Layout {
	embed := player.Embed{
		Base:       m.opts.EmbedBase,
		PlaylistID: spec.PlaylistID,
		Origin:     m.opts.Origin,
	}
	layout := newLayout(registry.NewHandle(), spec, m.provider, m.registry, embed)

	m.mu.Lock()
	m.layouts[layout.handle] = layout
	m.mu.Unlock()

	logging.Debug("Created layout %s for playlist %s", layout.handle, spec.PlaylistID)
	return layout
}

// Open creates a layout and initialises it. The layout is returned even
// when Init fails, in its degraded state.
func (m *Manager) Open(ctx context.Context, spec Spec) (*Layout, error) {
	layout := m.Create(spec)
	return layout, layout.Init(ctx)
}

// Get returns the layout for handle.
func (m *Manager) Get(handle registry.Handle) (*Layout, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	layout, ok := m.layouts[handle]
	return layout, ok
}

// Remove tears down and forgets the layout for handle. It reports whether
// the layout existed.
func (m *Manager) Remove(handle registry.Handle) bool {
	m.mu.Lock()
	layout, ok := m.layouts[handle]
	delete(m.layouts, handle)
	m.mu.Unlock()

	if !ok {
		return false
	}
	layout.Teardown()
	logging.Info("Removed layout %s", handle)
	return true
}

// List returns all layouts, oldest first.
func (m *Manager) List() []*Layout {
	m.mu.RLock()
	layouts := make([]*Layout, 0, len(m.layouts))
	for _, layout := range m.layouts {
		layouts = append(layouts, layout)
	}
	m.mu.RUnlock()

	sort.Slice(layouts, func(i, j int) bool {
		if layouts[i].createdAt.Equal(layouts[j].createdAt) {
			return layouts[i].handle < layouts[j].handle
		}
		return layouts[i].createdAt.Before(layouts[j].createdAt)
	})
	return layouts
}

// Highlight applies a highlight produced by a player report to the layout
// that owns the player.
func (m *Manager) Highlight(handle registry.Handle, cmd playlist.HighlightCommand) {
	layout, ok := m.Get(handle)
	if !ok {
		logging.Debug("Highlight for unknown layout %s", handle)
		return
	}
	layout.highlight(cmd)
}

// GetStats counts layouts by state.
func (m *Manager) GetStats() metrics.Stats {
	var stats metrics.Stats
	for _, layout := range m.List() {
		switch layout.State() {
		case StatePending:
			stats.Pending++
		case StateReady:
			stats.Ready++
		case StateDegraded:
			stats.Degraded++
		}
	}
	return stats
}

// Close tears down every layout.
func (m *Manager) Close() {
	for _, layout := range m.List() {
		m.Remove(layout.handle)
	}
}

type bootstrapJob struct {
	pos    int
	layout *Layout
}

// Bootstrap creates one layout per spec and initialises them concurrently.
// Layouts are returned in spec order, degraded ones included; the error
// joins every Init failure.
func (m *Manager) Bootstrap(ctx context.Context, specs []Spec) ([]*Layout, error) {
	if len(specs) == 0 {
		return nil, nil
	}

	numWorkers := workers.ForIO(maxBootstrapWorkers)
	if numWorkers > len(specs) {
		numWorkers = len(specs)
	}

	logging.Info("Bootstrapping %d layouts with %d workers", len(specs), numWorkers)
	startTime := time.Now()

	layouts := make([]*Layout, len(specs))
	errs := make([]error, len(specs))
	jobs := make(chan bootstrapJob, len(specs))

	for i, spec := range specs {
		layouts[i] = m.Create(spec)
		jobs <- bootstrapJob{pos: i, layout: layouts[i]}
	}
	close(jobs)

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				errs[job.pos] = job.layout.Init(ctx)
			}
		}()
	}
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	logging.Info("Bootstrap complete: %d ready, %d failed in %v",
		len(specs)-failed, failed, time.Since(startTime))

	return layouts, errors.Join(errs...)
}
