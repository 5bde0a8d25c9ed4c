// Package ui keeps the rendered state of a playlist list: which entries
// are shown, which one is marked current, the status line above the list
// and the source of the player frame.
package ui

import (
	"html/template"
	"io"
	"sync"

	"playlist-widget/internal/playlist"
)

// Status lines shown above the list.
const (
	StatusLoading     = "Loading videos..."
	StatusReady       = "Select a session:"
	StatusUnavailable = "Unable to load videos right now."
)

// Item is one rendered list entry.
type Item struct {
	Index   int    `json:"index"`
	VideoID string `json:"videoId"`
	Title   string `json:"title"`
	Active  bool   `json:"active"`
}

// AriaCurrent returns the aria-current attribute value.
func (i Item) AriaCurrent() string {
	if i.Active {
		return "true"
	}
	return "false"
}

// View is a point-in-time copy of a ListView.
type View struct {
	Status      string `json:"status"`
	StatusError bool   `json:"statusError"`
	Items       []Item `json:"items"`
	PlayerSrc   string `json:"playerSrc,omitempty"`
}

// Current returns the index of the active item, or -1.
func (v View) Current() int {
	for _, it := range v.Items {
		if it.Active {
			return it.Index
		}
	}
	return -1
}

// ListView is the list and player frame of one layout.
type ListView struct {
	mu          sync.RWMutex
	status      string
	statusError bool
	items       []Item
	playerSrc   string
}

// NewListView returns an empty view waiting for its feed.
func NewListView() *ListView {
	return &ListView{status: StatusLoading}
}

// Render replaces the list with entries. No item is active until a
// highlight arrives.
func (v *ListView) Render(entries []playlist.Entry) {
	items := make([]Item, len(entries))
	for i, e := range entries {
		items[i] = Item{Index: e.Index, VideoID: e.ID, Title: e.Title}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.items = items
	v.status = StatusReady
	v.statusError = false
}

// Fail puts the view in its degraded state: no list and an error status.
func (v *ListView) Fail() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.items = nil
	v.status = StatusUnavailable
	v.statusError = true
}

// Highlight marks the item at cmd.Index as the only current item. It
// returns false, leaving the view unchanged, when no such item exists.
func (v *ListView) Highlight(cmd playlist.HighlightCommand) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	target := -1
	for i := range v.items {
		if v.items[i].Index == cmd.Index {
			target = i
			break
		}
	}
	if target < 0 {
		return false
	}

	for i := range v.items {
		v.items[i].Active = i == target
	}
	return true
}

// Load records the player frame source.
func (v *ListView) Load(src string) {
	if src == "" {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.playerSrc = src
}

// Snapshot copies the current state.
func (v *ListView) Snapshot() View {
	v.mu.RLock()
	defer v.mu.RUnlock()

	items := make([]Item, len(v.items))
	copy(items, v.items)
	return View{
		Status:      v.status,
		StatusError: v.statusError,
		Items:       items,
		PlayerSrc:   v.playerSrc,
	}
}

var listTemplate = template.Must(template.New("playlist").Parse(`<div class="playlist-layout">
<p class="playlist-status{{if .StatusError}} playlist-status--error{{end}}">{{.Status}}</p>
{{- if .PlayerSrc}}
<iframe class="playlist-player" src="{{.PlayerSrc}}" allow="autoplay; encrypted-media" allowfullscreen></iframe>
{{- end}}
<ul class="playlist-items">
{{- range .Items}}
<li class="playlist-item"><button type="button" class="playlist-item__button{{if .Active}} is-active{{end}}" data-video-id="{{.VideoID}}" data-video-index="{{.Index}}" aria-current="{{.AriaCurrent}}">{{.Title}}</button></li>
{{- end}}
</ul>
</div>
`))

// WriteHTML renders the view as an HTML fragment.
func (v *ListView) WriteHTML(w io.Writer) error {
	return listTemplate.Execute(w, v.Snapshot())
}
