// Package router filters status messages posted by embedded players and
// forwards the valid ones to the session that owns the player.
//
// Filtering never reports errors to the caller: anything that is not a
// well-formed "infoDelivery" message with a numeric playlist position from
// a known player is dropped and counted.
package router

import (
	"encoding/json"
	"math"
	"net/url"
	"strings"

	"playlist-widget/internal/logging"
	"playlist-widget/internal/metrics"
	"playlist-widget/internal/playlist"
	"playlist-widget/internal/registry"
)

// InfoDelivery is the only player event kind that carries a position.
const InfoDelivery = "infoDelivery"

// Resolver finds the session bound to a player handle.
type Resolver interface {
	Resolve(handle registry.Handle) (*playlist.Session, error)
}

// HighlightSink receives highlight commands for a player's list.
type HighlightSink interface {
	Highlight(handle registry.Handle, cmd playlist.HighlightCommand)
}

// Message is one raw status notification from an embedded player.
type Message struct {
	Source registry.Handle
	Origin string
	Data   []byte
}

// Outcome describes what Route did with a message.
type Outcome struct {
	Routed    bool
	Reason    string // drop reason, empty when routed
	Highlight *playlist.HighlightCommand
}

type envelope struct {
	Event string          `json:"event"`
	Info  json.RawMessage `json:"info"`
}

// Router dispatches player messages.
type Router struct {
	resolver       Resolver
	sink           HighlightSink
	allowedOrigins []string
}

// New creates a router. allowedOrigins are host names; a message origin
// passes when its host equals one of them or is a subdomain of one. An
// empty list accepts any origin.
func New(resolver Resolver, sink HighlightSink, allowedOrigins []string) *Router {
	return &Router{
		resolver:       resolver,
		sink:           sink,
		allowedOrigins: allowedOrigins,
	}
}

// Route filters msg and applies it to the owning session.
func (r *Router) Route(msg Message) Outcome {
	if !r.originAllowed(msg.Origin) {
		return drop(msg, metrics.DropOrigin)
	}

	var env envelope
	if err := json.Unmarshal(msg.Data, &env); err != nil {
		return drop(msg, metrics.DropMalformed)
	}

	if env.Event != InfoDelivery {
		return drop(msg, metrics.DropEventKind)
	}

	index, ok := playlistIndex(env.Info)
	if !ok {
		return drop(msg, metrics.DropNoIndex)
	}

	session, err := r.resolver.Resolve(msg.Source)
	if err != nil {
		return drop(msg, metrics.DropUnresolved)
	}

	metrics.PlayerMessagesTotal.WithLabelValues("routed").Inc()

	cmds := session.ApplyPlayerReport(index)
	if cmds.Highlight == nil {
		metrics.SelectionTransitionsTotal.WithLabelValues("player", "noop").Inc()
		return Outcome{Routed: true}
	}

	metrics.SelectionTransitionsTotal.WithLabelValues("player", "applied").Inc()
	if r.sink != nil {
		r.sink.Highlight(msg.Source, *cmds.Highlight)
	}
	return Outcome{Routed: true, Highlight: cmds.Highlight}
}

func drop(msg Message, reason string) Outcome {
	metrics.PlayerMessagesTotal.WithLabelValues("dropped").Inc()
	metrics.PlayerMessagesDropped.WithLabelValues(reason).Inc()
	logging.Debug("router: dropped message from player %s (%s)", msg.Source, reason)
	return Outcome{Reason: reason}
}

// playlistIndex extracts info.playlistIndex when it is an integral number.
func playlistIndex(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}

	var info map[string]interface{}
	if err := json.Unmarshal(raw, &info); err != nil {
		return 0, false
	}

	v, ok := info["playlistIndex"].(float64)
	if !ok || v != math.Trunc(v) || v < 0 || v > math.MaxInt32 {
		return 0, false
	}
	return int(v), true
}

func (r *Router) originAllowed(origin string) bool {
	if len(r.allowedOrigins) == 0 {
		return true
	}

	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())

	for _, allowed := range r.allowedOrigins {
		allowed = strings.ToLower(strings.TrimSpace(allowed))
		if allowed == "" {
			continue
		}
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return false
}
