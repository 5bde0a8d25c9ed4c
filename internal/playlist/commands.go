package playlist

// LoadCommand instructs the embedded player to load an entry.
type LoadCommand struct {
	VideoID string `json:"videoId"`
	Index   int    `json:"index"`
}

// HighlightCommand instructs the list to mark one entry as current.
type HighlightCommand struct {
	Index int `json:"index"`
}

// Commands are the side effects of one transition. Either field may be nil.
type Commands struct {
	Load      *LoadCommand      `json:"load,omitempty"`
	Highlight *HighlightCommand `json:"highlight,omitempty"`
}

// Empty reports whether the transition produced no side effects.
func (c Commands) Empty() bool {
	return c.Load == nil && c.Highlight == nil
}

func selectCommands(e Entry) Commands {
	return Commands{
		Load:      &LoadCommand{VideoID: e.ID, Index: e.Index},
		Highlight: &HighlightCommand{Index: e.Index},
	}
}
