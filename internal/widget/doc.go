/*
Package widget assembles playlist layouts.

A Layout is one playlist widget on a page: a feed, a list view, an embedded
player and the selection session that keeps the list and the player in
step. The player handle doubles as the layout handle, so a status message
addressed to a player reaches the layout that embeds it.

# Lifecycle

	pending --Init ok--> ready --Teardown--> closed
	   |                   ^
	   +--Init failed--> degraded

Init may be called again to reload a layout. Each Init and each Teardown
moves the layout to a new generation; a feed response that arrives for an
older generation is discarded with ErrStale.

A Manager owns the layouts of one process and acts as the highlight sink
for the player message router.
*/
package widget
