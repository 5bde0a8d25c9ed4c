// Package playlist holds the selection state for one embedded playlist.
//
// A Session owns the ordered entries of a playlist feed and the index of
// the entry currently selected. Two independent sources move the
// selection:
//   - the visitor, by picking an entry from the list (UserSelected)
//   - the embedded player, by reporting the entry it is playing (PlayerReported)
//
// Every accepted transition returns the side effects the caller must carry
// out as Commands: a LoadCommand for the player and a HighlightCommand for
// the list. Player reports never produce a LoadCommand, since the player
// already knows what it is playing.
//
// The session applies inputs strictly in arrival order. A late player
// report overwrites a more recent user selection; there is no timestamp
// ordering between the two sources.
//
// Sessions are safe for concurrent use.
package playlist
