// Package feed retrieves the public video listing of a YouTube playlist.
//
// The listing is the Atom document served at
// https://www.youtube.com/feeds/videos.xml?playlist_id=<id>. Each <entry>
// becomes a playlist.Entry; entries without a yt:videoId are skipped and
// the remaining entries are numbered 0..N-1 in document order.
//
// HTTPProvider talks to the upstream. CachingProvider wraps any Provider
// with the sqlite feed cache, serving fresh copies without a request and
// falling back to an expired copy when the upstream is unavailable.
package feed
