// Package registry binds embedded player instances to the playlist
// session that owns them, so player status messages can be routed to the
// right session.
package registry

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"playlist-widget/internal/logging"
	"playlist-widget/internal/metrics"
	"playlist-widget/internal/playlist"
)

var (
	// ErrDuplicateRegistration is returned when a handle is already bound to another session.
	ErrDuplicateRegistration = errors.New("player handle already registered to a different session")
	// ErrNotFound is returned when a handle has no session.
	ErrNotFound = errors.New("player handle not registered")
)

// Handle identifies one embedded player instance.
type Handle string

// NewHandle returns a fresh random handle.
func NewHandle() Handle {
	return Handle(uuid.NewString())
}

// ParseHandle validates a handle received from a client.
func ParseHandle(s string) (Handle, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return Handle(id.String()), nil
}

func (h Handle) String() string {
	return string(h)
}

// Registry maps player handles to sessions one-to-one.
type Registry struct {
	mu       sync.RWMutex
	sessions map[Handle]*playlist.Session
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		sessions: make(map[Handle]*playlist.Session),
	}
}

// Register binds handle to session. Registering the same pair twice is a
// no-op; binding a handle that already belongs to another session fails
// and keeps the existing binding.
func (r *Registry) Register(handle Handle, session *playlist.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.sessions[handle]; ok {
		if existing == session {
			return nil
		}
		return ErrDuplicateRegistration
	}

	r.sessions[handle] = session
	metrics.RegisteredPlayers.Set(float64(len(r.sessions)))
	logging.Debug("registry: bound player %s to playlist %s", handle, session.PlaylistID())
	return nil
}

// Resolve returns the session bound to handle.
func (r *Registry) Resolve(handle Handle) (*playlist.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[handle]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Unregister removes the binding for handle, if any.
func (r *Registry) Unregister(handle Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[handle]; !ok {
		return
	}
	delete(r.sessions, handle)
	metrics.RegisteredPlayers.Set(float64(len(r.sessions)))
	logging.Debug("registry: released player %s", handle)
}

// Len returns the number of bound handles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
