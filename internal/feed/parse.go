package feed

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"playlist-widget/internal/playlist"
)

type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Title   string      `xml:"title"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	VideoID   string     `xml:"http://www.youtube.com/xml/schemas/2015 videoId"`
	Title     string     `xml:"title"`
	Links     []atomLink `xml:"link"`
	Published string     `xml:"published"`
}

type atomLink struct {
	Rel  string `xml:"rel,attr"`
	Href string `xml:"href,attr"`
}

// Parse decodes a playlist feed document.
func Parse(r io.Reader) ([]playlist.Entry, error) {
	var doc atomFeed
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, &ParseError{Err: err}
	}

	entries := make([]playlist.Entry, 0, len(doc.Entries))
	for pos, e := range doc.Entries {
		id := strings.TrimSpace(e.VideoID)
		if id == "" {
			continue
		}

		title := strings.TrimSpace(e.Title)
		if title == "" {
			title = fmt.Sprintf("Video %d", pos+1)
		}

		var link string
		if len(e.Links) > 0 {
			link = e.Links[0].Href
		}

		// Indices are renumbered over the kept entries, so after a dropped
		// entry they no longer match the player's feed position.
		entries = append(entries, playlist.Entry{
			Index:     len(entries),
			ID:        id,
			Title:     title,
			Link:      link,
			Published: strings.TrimSpace(e.Published),
		})
	}

	return entries, nil
}
