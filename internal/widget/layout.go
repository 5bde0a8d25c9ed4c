package widget

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"playlist-widget/internal/feed"
	"playlist-widget/internal/logging"
	"playlist-widget/internal/metrics"
	"playlist-widget/internal/player"
	"playlist-widget/internal/playlist"
	"playlist-widget/internal/registry"
	"playlist-widget/internal/ui"
)

var (
	// ErrStale is returned by Init when the layout was reloaded, selected
	// or torn down while its feed was being fetched.
	ErrStale = errors.New("stale feed response discarded")
	// ErrClosed is returned for operations on a torn down layout.
	ErrClosed = errors.New("layout closed")
	// ErrNotReady is returned by Select when the layout has no session.
	ErrNotReady = errors.New("layout has no playlist session")
)

// State is the lifecycle state of a layout.
type State string

// Layout states.
const (
	StatePending  State = "pending"
	StateReady    State = "ready"
	StateDegraded State = "degraded"
	StateClosed   State = "closed"
)

// Spec describes a layout to create.
type Spec struct {
	PlaylistID   string `json:"playlistId"`
	InitialIndex int    `json:"initialIndex"`
}

// Layout is one playlist widget instance.
type Layout struct {
	handle    registry.Handle
	spec      Spec
	provider  feed.Provider
	registry  *registry.Registry
	embed     player.Embed
	view      *ui.ListView
	createdAt time.Time

	mu         sync.Mutex
	state      State
	generation uint64
	session    *playlist.Session
	lastErr    error
}

// Snapshot is a point-in-time copy of a layout.
type Snapshot struct {
	Handle       string    `json:"handle"`
	PlaylistID   string    `json:"playlistId"`
	State        State     `json:"state"`
	CurrentIndex *int      `json:"currentIndex"`
	Error        string    `json:"error,omitempty"`
	View         ui.View   `json:"view"`
	CreatedAt    time.Time `json:"createdAt"`
}

func newLayout(handle registry.Handle, spec Spec, provider feed.Provider, reg *registry.Registry, embed player.Embed) *Layout {
	return &Layout{
		handle:    handle,
		spec:      spec,
		provider:  provider,
		registry:  reg,
		embed:     embed,
		view:      ui.NewListView(),
		createdAt: time.Now(),
		state:     StatePending,
	}
}

// Handle returns the layout's player handle.
func (l *Layout) Handle() registry.Handle {
	return l.handle
}

// PlaylistID returns the playlist shown by the layout.
func (l *Layout) PlaylistID() string {
	return l.spec.PlaylistID
}

// View returns the layout's list view.
func (l *Layout) View() *ui.ListView {
	return l.view
}

// State returns the current lifecycle state.
func (l *Layout) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Session returns the layout's session, or nil before a successful Init.
func (l *Layout) Session() *playlist.Session {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.session
}

// Init fetches the feed and binds a fresh session to the layout's handle.
// On a feed failure the view shows its unavailable status, the layout has
// no session and the handle is not registered. An initial index outside
// the feed leaves the session unselected without failing Init.
func (l *Layout) Init(ctx context.Context) error {
	l.mu.Lock()
	if l.state == StateClosed {
		l.mu.Unlock()
		return ErrClosed
	}
	l.generation++
	gen := l.generation
	l.state = StatePending
	l.mu.Unlock()

	startTime := time.Now()
	entries, err := l.provider.Fetch(ctx, l.spec.PlaylistID)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == StateClosed || l.generation != gen {
		metrics.LayoutInitTotal.WithLabelValues("stale").Inc()
		logging.Debug("Layout %s: discarding feed response for generation %d (now %d)", l.handle, gen, l.generation)
		return ErrStale
	}

	if err != nil {
		l.degradeLocked(err)
		return fmt.Errorf("loading playlist %s: %w", l.spec.PlaylistID, err)
	}

	session, err := playlist.NewSession(l.spec.PlaylistID, entries)
	if err != nil {
		l.degradeLocked(err)
		return fmt.Errorf("loading playlist %s: %w", l.spec.PlaylistID, err)
	}

	l.registry.Unregister(l.handle)
	if err := l.registry.Register(l.handle, session); err != nil {
		l.degradeLocked(err)
		return fmt.Errorf("binding player %s: %w", l.handle, err)
	}

	l.view.Render(entries)
	l.session = session
	l.state = StateReady
	l.lastErr = nil

	cmds, err := session.Seed(l.spec.InitialIndex)
	if err != nil {
		metrics.SelectionTransitionsTotal.WithLabelValues("seed", "rejected").Inc()
		logging.Warn("Layout %s: initial index not applied: %v", l.handle, err)
	} else {
		metrics.SelectionTransitionsTotal.WithLabelValues("seed", "applied").Inc()
		l.applyLocked(cmds)
	}

	metrics.LayoutInitTotal.WithLabelValues("ready").Inc()
	logging.Info("Layout %s: playlist %s ready with %d entries in %v",
		l.handle, l.spec.PlaylistID, session.Len(), time.Since(startTime))
	return nil
}

// degradeLocked drops any session and shows the unavailable status.
func (l *Layout) degradeLocked(err error) {
	l.registry.Unregister(l.handle)
	l.session = nil
	l.state = StateDegraded
	l.lastErr = err
	l.view.Fail()

	metrics.LayoutInitTotal.WithLabelValues("degraded").Inc()
	logging.Warn("Layout %s: playlist %s unavailable: %v", l.handle, l.spec.PlaylistID, err)
}

// Select applies a visitor's choice of entry. An index outside the
// playlist returns a *playlist.RangeError and changes nothing.
func (l *Layout) Select(index int) (playlist.Commands, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == StateClosed {
		return playlist.Commands{}, ErrClosed
	}
	if l.session == nil {
		return playlist.Commands{}, ErrNotReady
	}

	cmds, err := l.session.ApplyUserSelection(index)
	if err != nil {
		metrics.SelectionTransitionsTotal.WithLabelValues("user", "rejected").Inc()
		return playlist.Commands{}, err
	}
	metrics.SelectionTransitionsTotal.WithLabelValues("user", "applied").Inc()

	// A pending reload must not overwrite this choice.
	l.generation++
	l.applyLocked(cmds)
	return cmds, nil
}

// applyLocked forwards commands to the view. The highlight follows the
// session rather than the command so that the view converges on the last
// transition when a player report races a user selection.
func (l *Layout) applyLocked(cmds playlist.Commands) {
	if cmds.Load != nil {
		l.view.Load(l.embed.URL(*cmds.Load))
	}
	if cmds.Highlight != nil {
		l.syncHighlightLocked()
	}
}

func (l *Layout) syncHighlightLocked() {
	if l.session == nil {
		return
	}
	if current, ok := l.session.Current(); ok {
		l.view.Highlight(playlist.HighlightCommand{Index: current})
	}
}

// highlight handles a HighlightCommand produced by a player report.
func (l *Layout) highlight(cmd playlist.HighlightCommand) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateReady {
		logging.Debug("Layout %s: ignoring highlight %d in state %s", l.handle, cmd.Index, l.state)
		return
	}
	l.syncHighlightLocked()
}

// Teardown releases the player handle. It is safe to call more than once.
func (l *Layout) Teardown() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == StateClosed {
		return
	}
	l.generation++
	l.registry.Unregister(l.handle)
	l.session = nil
	l.state = StateClosed
	logging.Debug("Layout %s: torn down", l.handle)
}

// Snapshot copies the layout state.
func (l *Layout) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	snap := Snapshot{
		Handle:     l.handle.String(),
		PlaylistID: l.spec.PlaylistID,
		State:      l.state,
		View:       l.view.Snapshot(),
		CreatedAt:  l.createdAt,
	}
	if l.lastErr != nil {
		snap.Error = l.lastErr.Error()
	}
	if l.session != nil {
		if current, ok := l.session.Current(); ok {
			snap.CurrentIndex = &current
		}
	}
	return snap
}
