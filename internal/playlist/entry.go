package playlist

import "fmt"

// Entry is one playable item of a playlist feed.
type Entry struct {
	Index     int    `json:"index"`
	ID        string `json:"id"`
	Title     string `json:"title"`
	Link      string `json:"link,omitempty"`
	Published string `json:"published,omitempty"`
}

// validateEntries checks that indices form the contiguous range [0, N)
// in slice order and that every entry carries a video id.
func validateEntries(entries []Entry) error {
	for i, e := range entries {
		if e.Index != i {
			return fmt.Errorf("%w: entry %d has index %d", ErrInvalidEntries, i, e.Index)
		}
		if e.ID == "" {
			return fmt.Errorf("%w: entry %d has no video id", ErrInvalidEntries, i)
		}
	}
	return nil
}
