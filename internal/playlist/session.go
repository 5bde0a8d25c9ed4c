package playlist

import (
	"fmt"
	"sync"

	"playlist-widget/internal/logging"
)

// NoSelection is the current index of an unselected session.
const NoSelection = -1

// Session is the selection state of one playlist instance.
type Session struct {
	playlistID string
	entries    []Entry

	mu         sync.Mutex
	current    int
	generation uint64
}

// NewSession creates an unselected session over entries. Entries must be
// indexed 0..N-1 in order.
func NewSession(playlistID string, entries []Entry) (*Session, error) {
	if err := validateEntries(entries); err != nil {
		return nil, err
	}

	owned := make([]Entry, len(entries))
	copy(owned, entries)

	return &Session{
		playlistID: playlistID,
		entries:    owned,
		current:    NoSelection,
	}, nil
}

// PlaylistID returns the playlist identifier this session was built for.
func (s *Session) PlaylistID() string {
	return s.playlistID
}

// Len returns the number of entries.
func (s *Session) Len() int {
	return len(s.entries)
}

// Entries returns a copy of the entries in feed order.
func (s *Session) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Entry returns the entry at index.
func (s *Session) Entry(index int) (Entry, bool) {
	if !s.inRange(index) {
		return Entry{}, false
	}
	return s.entries[index], true
}

// Current returns the selected index, or NoSelection and false.
func (s *Session) Current() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.current != NoSelection
}

// Generation increases by one on every accepted transition.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

func (s *Session) inRange(index int) bool {
	return index >= 0 && index < len(s.entries)
}

// setLocked moves the selection. Caller holds s.mu.
func (s *Session) setLocked(index int) {
	s.current = index
	s.generation++
}

// Seed makes the initial selection. An out-of-range index leaves the
// session unchanged and returns a *RangeError. Seeding an already selected
// session reseeds it.
func (s *Session) Seed(index int) (Commands, error) {
	if !s.inRange(index) {
		return Commands{}, &RangeError{Index: index, Len: len(s.entries)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.setLocked(index)
	logging.Debug("playlist %s: seeded at %d", s.playlistID, index)
	return selectCommands(s.entries[index]), nil
}

// ApplyUserSelection selects index on behalf of the visitor. Re-selecting
// the current entry is accepted and loads it again.
func (s *Session) ApplyUserSelection(index int) (Commands, error) {
	if !s.inRange(index) {
		return Commands{}, &RangeError{Index: index, Len: len(s.entries)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.setLocked(index)
	logging.Debug("playlist %s: user selected %d", s.playlistID, index)
	return selectCommands(s.entries[index]), nil
}

// ApplyPlayerReport follows the position reported by the player. Reports
// outside the playlist are ignored, as are reports of the current entry.
// The result never contains a LoadCommand.
func (s *Session) ApplyPlayerReport(index int) Commands {
	if !s.inRange(index) {
		logging.Debug("playlist %s: ignoring player report %d (len %d)", s.playlistID, index, len(s.entries))
		return Commands{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == index {
		return Commands{}
	}

	s.setLocked(index)
	logging.Debug("playlist %s: player moved to %d", s.playlistID, index)
	return Commands{Highlight: &HighlightCommand{Index: index}}
}

// Apply dispatches a SelectionEvent to the matching transition.
func (s *Session) Apply(ev SelectionEvent) (Commands, error) {
	switch ev.Kind {
	case UserSelected:
		return s.ApplyUserSelection(ev.Index)
	case PlayerReported:
		return s.ApplyPlayerReport(ev.Index), nil
	default:
		return Commands{}, fmt.Errorf("unknown selection event kind %v", ev.Kind)
	}
}
