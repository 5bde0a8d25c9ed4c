package handlers

import (
	"sync/atomic"
	"time"

	"playlist-widget/internal/database"
	"playlist-widget/internal/feed"
	"playlist-widget/internal/router"
	"playlist-widget/internal/startup"
	"playlist-widget/internal/widget"
)

type Handlers struct {
	manager      *widget.Manager
	router       *router.Router
	feeds        feed.Provider
	db           *database.Database
	initialIndex int
	startTime    time.Time
	ready        atomic.Bool
}

func New(manager *widget.Manager, rt *router.Router, feeds feed.Provider, db *database.Database, config *startup.Config) *Handlers {
	return &Handlers{
		manager:      manager,
		router:       rt,
		feeds:        feeds,
		db:           db,
		initialIndex: config.InitialIndex,
		startTime:    time.Now(),
	}
}

// MarkReady is called once startup layouts have been bootstrapped.
func (h *Handlers) MarkReady() {
	h.ready.Store(true)
}
