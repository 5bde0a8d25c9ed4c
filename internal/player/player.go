// Package player builds load targets for the embedded video player.
package player

import (
	"net/url"
	"strconv"
	"strings"

	"playlist-widget/internal/playlist"
)

// DefaultEmbedBase is the privacy-enhanced YouTube embed location.
const DefaultEmbedBase = "https://www.youtube-nocookie.com/embed/"

// Embed holds what every load target of one player shares.
type Embed struct {
	Base       string
	PlaylistID string
	// Origin is the host page origin. The player addresses its status
	// messages to it, so it must match the page that embeds the player.
	Origin string
}

// URL returns the iframe source for cmd. It returns "" when the command has
// no video id.
func (e Embed) URL(cmd playlist.LoadCommand) string {
	if cmd.VideoID == "" {
		return ""
	}

	base := e.Base
	if base == "" {
		base = DefaultEmbedBase
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}

	params := url.Values{}
	params.Set("list", e.PlaylistID)
	params.Set("index", strconv.Itoa(cmd.Index))
	params.Set("rel", "0")
	params.Set("enablejsapi", "1")
	params.Set("origin", e.Origin)

	return base + url.PathEscape(cmd.VideoID) + "?" + params.Encode()
}
