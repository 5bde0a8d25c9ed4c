package widget

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"playlist-widget/internal/feed"
	"playlist-widget/internal/playlist"
	"playlist-widget/internal/registry"
	"playlist-widget/internal/router"
	"playlist-widget/internal/ui"
)

// =============================================================================
// Test helpers
// =============================================================================

// providerFunc adapts a function to feed.Provider.
type providerFunc func(ctx context.Context, playlistID string) ([]playlist.Entry, error)

func (f providerFunc) Fetch(ctx context.Context, playlistID string) ([]playlist.Entry, error) {
	return f(ctx, playlistID)
}

func staticProvider(entries []playlist.Entry, err error) feed.Provider {
	return providerFunc(func(context.Context, string) ([]playlist.Entry, error) {
		return entries, err
	})
}

func threeEntries() []playlist.Entry {
	return []playlist.Entry{
		{Index: 0, ID: "vid-a", Title: "Opening keynote"},
		{Index: 1, ID: "vid-b", Title: "Panel"},
		{Index: 2, ID: "vid-c", Title: "Closing remarks"},
	}
}

func newTestManager(provider feed.Provider) (*Manager, *registry.Registry) {
	reg := registry.New()
	return NewManager(provider, reg, Options{Origin: "https://example.org"}), reg
}

func activeIndex(t *testing.T, layout *Layout) int {
	t.Helper()
	return layout.View().Snapshot().Current()
}

// =============================================================================
// Init
// =============================================================================

func TestInitReady(t *testing.T) {
	t.Parallel()

	m, reg := newTestManager(staticProvider(threeEntries(), nil))
	layout, err := m.Open(context.Background(), Spec{PlaylistID: "PL1", InitialIndex: 0})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if got := layout.State(); got != StateReady {
		t.Errorf("State = %q, want %q", got, StateReady)
	}

	session, err := reg.Resolve(layout.Handle())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if session != layout.Session() {
		t.Error("registry holds a different session than the layout")
	}
	if current, ok := session.Current(); !ok || current != 0 {
		t.Errorf("Current = (%d, %v), want (0, true)", current, ok)
	}

	view := layout.View().Snapshot()
	if view.Status != ui.StatusReady {
		t.Errorf("Status = %q, want %q", view.Status, ui.StatusReady)
	}
	if len(view.Items) != 3 {
		t.Fatalf("Items = %d, want 3", len(view.Items))
	}
	if view.Current() != 0 {
		t.Errorf("active item = %d, want 0", view.Current())
	}
	if !strings.Contains(view.PlayerSrc, "vid-a") || !strings.Contains(view.PlayerSrc, "index=0") {
		t.Errorf("PlayerSrc = %q, want load of vid-a at index 0", view.PlayerSrc)
	}
	if !strings.Contains(view.PlayerSrc, "origin=https%3A%2F%2Fexample.org") {
		t.Errorf("PlayerSrc = %q, want host origin", view.PlayerSrc)
	}
}

func TestInitFeedUnavailable(t *testing.T) {
	t.Parallel()

	fetchErr := &feed.FetchError{Status: 503}
	m, reg := newTestManager(staticProvider(nil, fetchErr))

	layout, err := m.Open(context.Background(), Spec{PlaylistID: "PL1"})
	if !errors.Is(err, feed.ErrFetch) {
		t.Fatalf("Open error = %v, want ErrFetch", err)
	}

	if layout.Session() != nil {
		t.Error("degraded layout should have no session")
	}
	if got := layout.State(); got != StateDegraded {
		t.Errorf("State = %q, want %q", got, StateDegraded)
	}
	if _, err := reg.Resolve(layout.Handle()); !errors.Is(err, registry.ErrNotFound) {
		t.Errorf("Resolve error = %v, want ErrNotFound", err)
	}
	if reg.Len() != 0 {
		t.Errorf("registry Len = %d, want 0", reg.Len())
	}

	view := layout.View().Snapshot()
	if view.Status != ui.StatusUnavailable || !view.StatusError {
		t.Errorf("view status = (%q, %v), want unavailable error status", view.Status, view.StatusError)
	}
	if len(view.Items) != 0 {
		t.Errorf("Items = %d, want none", len(view.Items))
	}

	snap := layout.Snapshot()
	if snap.Error == "" {
		t.Error("Snapshot should report the feed error")
	}
	if snap.CurrentIndex != nil {
		t.Errorf("CurrentIndex = %d, want nil", *snap.CurrentIndex)
	}
}

func TestInitInvalidInitialIndex(t *testing.T) {
	t.Parallel()

	m, reg := newTestManager(staticProvider(threeEntries(), nil))
	layout, err := m.Open(context.Background(), Spec{PlaylistID: "PL1", InitialIndex: 7})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if got := layout.State(); got != StateReady {
		t.Errorf("State = %q, want %q", got, StateReady)
	}
	if _, err := reg.Resolve(layout.Handle()); err != nil {
		t.Errorf("Resolve failed: %v", err)
	}
	if _, ok := layout.Session().Current(); ok {
		t.Error("session should stay unselected")
	}
	if got := activeIndex(t, layout); got != -1 {
		t.Errorf("active item = %d, want none", got)
	}
	if src := layout.View().Snapshot().PlayerSrc; src != "" {
		t.Errorf("PlayerSrc = %q, want empty", src)
	}
}

func TestInitInvalidEntries(t *testing.T) {
	t.Parallel()

	broken := []playlist.Entry{{Index: 3, ID: "vid-a"}}
	m, reg := newTestManager(staticProvider(broken, nil))

	layout, err := m.Open(context.Background(), Spec{PlaylistID: "PL1"})
	if !errors.Is(err, playlist.ErrInvalidEntries) {
		t.Fatalf("Open error = %v, want ErrInvalidEntries", err)
	}
	if layout.State() != StateDegraded || reg.Len() != 0 {
		t.Errorf("want degraded layout with no registration, got %q and %d", layout.State(), reg.Len())
	}
}

func TestReloadReplacesSession(t *testing.T) {
	t.Parallel()

	m, reg := newTestManager(staticProvider(threeEntries(), nil))
	layout, err := m.Open(context.Background(), Spec{PlaylistID: "PL1"})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	first := layout.Session()

	if err := layout.Init(context.Background()); err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	second := layout.Session()
	if second == first {
		t.Fatal("reload should create a new session")
	}
	resolved, err := reg.Resolve(layout.Handle())
	if err != nil || resolved != second {
		t.Errorf("Resolve = (%p, %v), want new session", resolved, err)
	}
}

// =============================================================================
// Stale responses
// =============================================================================

// gatedProvider blocks the first fetch until release is closed.
type gatedProvider struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	entries []playlist.Entry
}

func newGatedProvider(entries []playlist.Entry) *gatedProvider {
	return &gatedProvider{
		started: make(chan struct{}),
		release: make(chan struct{}),
		entries: entries,
	}
}

func (p *gatedProvider) Fetch(ctx context.Context, _ string) ([]playlist.Entry, error) {
	if p.calls.Add(1) == 1 {
		close(p.started)
		select {
		case <-p.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return p.entries, nil
}

func TestStaleResponseAfterTeardown(t *testing.T) {
	t.Parallel()

	provider := newGatedProvider(threeEntries())
	m, reg := newTestManager(provider)
	layout := m.Create(Spec{PlaylistID: "PL1"})

	done := make(chan error, 1)
	go func() { done <- layout.Init(context.Background()) }()

	<-provider.started
	layout.Teardown()
	close(provider.release)

	select {
	case err := <-done:
		if !errors.Is(err, ErrStale) {
			t.Fatalf("Init error = %v, want ErrStale", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Init did not return")
	}

	if layout.Session() != nil {
		t.Error("torn down layout should have no session")
	}
	if reg.Len() != 0 {
		t.Errorf("registry Len = %d, want 0", reg.Len())
	}
	if got := layout.State(); got != StateClosed {
		t.Errorf("State = %q, want %q", got, StateClosed)
	}
	if err := layout.Init(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Init after Teardown = %v, want ErrClosed", err)
	}
}

func TestStaleResponseAfterReload(t *testing.T) {
	t.Parallel()

	provider := newGatedProvider(threeEntries())
	m, reg := newTestManager(provider)
	layout := m.Create(Spec{PlaylistID: "PL1", InitialIndex: 1})

	done := make(chan error, 1)
	go func() { done <- layout.Init(context.Background()) }()
	<-provider.started

	if err := layout.Init(context.Background()); err != nil {
		t.Fatalf("second Init failed: %v", err)
	}
	current := layout.Session()

	close(provider.release)
	if err := <-done; !errors.Is(err, ErrStale) {
		t.Fatalf("first Init error = %v, want ErrStale", err)
	}

	if layout.Session() != current {
		t.Error("stale response replaced the current session")
	}
	if resolved, _ := reg.Resolve(layout.Handle()); resolved != current {
		t.Error("stale response changed the registry binding")
	}
}

// =============================================================================
// Selection
// =============================================================================

func TestSelect(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(staticProvider(threeEntries(), nil))
	layout, err := m.Open(context.Background(), Spec{PlaylistID: "PL1"})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	cmds, err := layout.Select(2)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if cmds.Load == nil || cmds.Load.Index != 2 || cmds.Load.VideoID != "vid-c" {
		t.Errorf("Load = %+v, want vid-c at 2", cmds.Load)
	}
	if cmds.Highlight == nil || cmds.Highlight.Index != 2 {
		t.Errorf("Highlight = %+v, want 2", cmds.Highlight)
	}

	view := layout.View().Snapshot()
	if view.Current() != 2 {
		t.Errorf("active item = %d, want 2", view.Current())
	}
	if !strings.Contains(view.PlayerSrc, "vid-c") {
		t.Errorf("PlayerSrc = %q, want vid-c", view.PlayerSrc)
	}

	_, err = layout.Select(3)
	var rangeErr *playlist.RangeError
	if !errors.As(err, &rangeErr) {
		t.Fatalf("Select(3) error = %v, want *RangeError", err)
	}
	if got := activeIndex(t, layout); got != 2 {
		t.Errorf("active item after rejected select = %d, want 2", got)
	}
}

func TestSelectWithoutSession(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(staticProvider(nil, &feed.ParseError{Err: errors.New("bad xml")}))
	layout, _ := m.Open(context.Background(), Spec{PlaylistID: "PL1"})

	if _, err := layout.Select(0); !errors.Is(err, ErrNotReady) {
		t.Errorf("Select error = %v, want ErrNotReady", err)
	}

	layout.Teardown()
	if _, err := layout.Select(0); !errors.Is(err, ErrClosed) {
		t.Errorf("Select after Teardown = %v, want ErrClosed", err)
	}
}

// TestPlayerReportsThroughRouter walks the list and player through a user
// click, a confirming report and a skip made with the player's controls.
func TestPlayerReportsThroughRouter(t *testing.T) {
	t.Parallel()

	m, reg := newTestManager(staticProvider(threeEntries(), nil))
	rt := router.New(reg, m, nil)

	layout, err := m.Open(context.Background(), Spec{PlaylistID: "PL1"})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if _, err := layout.Select(2); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	srcAfterSelect := layout.View().Snapshot().PlayerSrc

	out := rt.Route(router.Message{
		Source: layout.Handle(),
		Data:   []byte(`{"event":"infoDelivery","info":{"playlistIndex":2}}`),
	})
	if out.Highlight != nil {
		t.Errorf("report of current index produced highlight %+v", out.Highlight)
	}

	out = rt.Route(router.Message{
		Source: layout.Handle(),
		Data:   []byte(`{"event":"infoDelivery","info":{"playlistIndex":1}}`),
	})
	if out.Highlight == nil || out.Highlight.Index != 1 {
		t.Fatalf("Highlight = %+v, want 1", out.Highlight)
	}

	view := layout.View().Snapshot()
	if view.Current() != 1 {
		t.Errorf("active item = %d, want 1", view.Current())
	}
	if view.PlayerSrc != srcAfterSelect {
		t.Errorf("player report reloaded the player: %q", view.PlayerSrc)
	}
}

func TestConcurrentSelectAndReports(t *testing.T) {
	t.Parallel()

	m, reg := newTestManager(staticProvider(threeEntries(), nil))
	rt := router.New(reg, m, nil)
	layout, err := m.Open(context.Background(), Spec{PlaylistID: "PL1"})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, _ = layout.Select(i % 3)
		}(i)
		go func(i int) {
			defer wg.Done()
			rt.Route(router.Message{
				Source: layout.Handle(),
				Data:   []byte(`{"event":"infoDelivery","info":{"playlistIndex":` + strconv.Itoa((i+1)%3) + `}}`),
			})
		}(i)
	}
	wg.Wait()

	current, ok := layout.Session().Current()
	if !ok {
		t.Fatal("session should be selected")
	}
	if got := activeIndex(t, layout); got != current {
		t.Errorf("active item = %d, session current = %d", got, current)
	}
}

// =============================================================================
// Manager
// =============================================================================

func TestManagerGetRemove(t *testing.T) {
	t.Parallel()

	m, reg := newTestManager(staticProvider(threeEntries(), nil))
	layout, err := m.Open(context.Background(), Spec{PlaylistID: "PL1"})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if got, ok := m.Get(layout.Handle()); !ok || got != layout {
		t.Fatal("Get did not return the layout")
	}

	if !m.Remove(layout.Handle()) {
		t.Fatal("Remove returned false for existing layout")
	}
	if m.Remove(layout.Handle()) {
		t.Error("second Remove returned true")
	}
	if _, ok := m.Get(layout.Handle()); ok {
		t.Error("layout still present after Remove")
	}
	if reg.Len() != 0 {
		t.Errorf("registry Len = %d, want 0", reg.Len())
	}

	// A highlight for a removed layout is ignored.
	m.Highlight(layout.Handle(), playlist.HighlightCommand{Index: 1})
}

func TestManagerStats(t *testing.T) {
	t.Parallel()

	provider := providerFunc(func(_ context.Context, id string) ([]playlist.Entry, error) {
		if id == "broken" {
			return nil, &feed.FetchError{Status: 500}
		}
		return threeEntries(), nil
	})
	m, _ := newTestManager(provider)

	m.Create(Spec{PlaylistID: "later"})
	_, _ = m.Open(context.Background(), Spec{PlaylistID: "PL1"})
	_, _ = m.Open(context.Background(), Spec{PlaylistID: "PL2"})
	_, _ = m.Open(context.Background(), Spec{PlaylistID: "broken"})

	stats := m.GetStats()
	if stats.Pending != 1 || stats.Ready != 2 || stats.Degraded != 1 {
		t.Errorf("GetStats = %+v, want 1 pending, 2 ready, 1 degraded", stats)
	}

	if got := len(m.List()); got != 4 {
		t.Errorf("List = %d layouts, want 4", got)
	}

	m.Close()
	if got := len(m.List()); got != 0 {
		t.Errorf("List after Close = %d layouts, want 0", got)
	}
}

func TestBootstrap(t *testing.T) {
	t.Parallel()

	var fetches atomic.Int32
	provider := providerFunc(func(_ context.Context, id string) ([]playlist.Entry, error) {
		fetches.Add(1)
		if id == "broken" {
			return nil, &feed.FetchError{Status: 503}
		}
		return threeEntries(), nil
	})
	m, reg := newTestManager(provider)

	specs := []Spec{
		{PlaylistID: "PL1"},
		{PlaylistID: "broken"},
		{PlaylistID: "PL2", InitialIndex: 2},
	}

	layouts, err := m.Bootstrap(context.Background(), specs)
	if !errors.Is(err, feed.ErrFetch) {
		t.Errorf("Bootstrap error = %v, want ErrFetch", err)
	}
	if len(layouts) != len(specs) {
		t.Fatalf("Bootstrap returned %d layouts, want %d", len(layouts), len(specs))
	}
	if got := fetches.Load(); got != 3 {
		t.Errorf("fetches = %d, want 3", got)
	}

	for i, spec := range specs {
		if layouts[i].PlaylistID() != spec.PlaylistID {
			t.Errorf("layouts[%d] = %s, want %s", i, layouts[i].PlaylistID(), spec.PlaylistID)
		}
	}
	if layouts[1].State() != StateDegraded {
		t.Errorf("broken layout state = %q, want degraded", layouts[1].State())
	}
	if got := activeIndex(t, layouts[2]); got != 2 {
		t.Errorf("PL2 active item = %d, want 2", got)
	}
	if reg.Len() != 2 {
		t.Errorf("registry Len = %d, want 2", reg.Len())
	}
}

func TestBootstrapEmpty(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(staticProvider(nil, nil))
	layouts, err := m.Bootstrap(context.Background(), nil)
	if err != nil || layouts != nil {
		t.Errorf("Bootstrap(nil) = (%v, %v), want (nil, nil)", layouts, err)
	}
}
