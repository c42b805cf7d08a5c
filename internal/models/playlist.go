package models

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// AmbienceName is the reserved playlist name of the ambience singleton.
// It cannot be created or deleted and is fetched through its own command pair.
const AmbienceName = "Ambience"

// Playlist maps a track URL (its identity) to a display title.
type Playlist map[string]string

// PlaylistCollection maps a case-sensitive playlist name to its tracks.
type PlaylistCollection map[string]Playlist

// Clone returns an independent copy of the playlist. A nil playlist clones to an empty one.
func (p Playlist) Clone() Playlist {
	out := make(Playlist, len(p))
	for url, title := range p {
		out[url] = title
	}
	return out
}

// URLs returns the track URLs in sorted order.
func (p Playlist) URLs() []string {
	urls := make([]string, 0, len(p))
	for url := range p {
		urls = append(urls, url)
	}
	slices.Sort(urls)
	return urls
}

// Clone returns a deep copy of the collection.
func (c PlaylistCollection) Clone() PlaylistCollection {
	out := make(PlaylistCollection, len(c))
	for name, pl := range c {
		out[name] = pl.Clone()
	}
	return out
}

// Names returns the playlist names in sorted order.
func (c PlaylistCollection) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsReservedName reports whether name collides with the ambience singleton.
func IsReservedName(name string) bool {
	return strings.TrimSpace(name) == AmbienceName
}

// DecodePlaylist decodes a playlist payload. A JSON null decodes to an empty playlist.
func DecodePlaylist(raw json.RawMessage) (Playlist, error) {
	var p Playlist
	if err := decodeOrNull(raw, &p); err != nil {
		return nil, fmt.Errorf("decode playlist: %w", err)
	}
	if p == nil {
		p = Playlist{}
	}
	return p, nil
}

// DecodeCollection decodes a playlist collection payload. Null collections and null playlists decode to empty ones.
func DecodeCollection(raw json.RawMessage) (PlaylistCollection, error) {
	var c PlaylistCollection
	if err := decodeOrNull(raw, &c); err != nil {
		return nil, fmt.Errorf("decode playlists: %w", err)
	}
	if c == nil {
		c = PlaylistCollection{}
	}
	for name, pl := range c {
		if pl == nil {
			c[name] = Playlist{}
		}
	}
	return c, nil
}

func decodeOrNull(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}
