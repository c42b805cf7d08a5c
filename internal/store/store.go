// Package store holds the client-side edit model for the server-owned playlist collections.
//
// The collection is a cache overwritten wholesale by the backend. The current playlist, the edit selection
// and the unsaved-edit marks are client-owned and only leave the process through an explicit save.
// Every read returns a copy, so callers can never mutate state behind the store's lock.
package store

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/desertthunder/ambiencectl/internal/models"
	"github.com/desertthunder/ambiencectl/internal/shared"
)

// Snapshot is an independent copy of one playlist, ready to be sent in a save command.
type Snapshot struct {
	Mode models.Mode
	Name string
	Data models.Playlist
}

// View is a deep-copied read model for renderers.
type View struct {
	Mode      models.Mode
	Playlists []string
	Current   string
	Tracks    models.Playlist
	Selection string
	Dirty     bool     // the current playlist has edits not yet acknowledged
	Unsaved   []string // every playlist with unacknowledged edits, sorted
	Loaded    bool
}

// HasSelection reports whether a track is selected for editing.
func (v View) HasSelection() bool { return v.Selection != "" }

// Store is the Domain State Store. It is safe for concurrent use.
type Store struct {
	mu          sync.Mutex
	mode        models.Mode
	collection  models.PlaylistCollection
	loaded      bool
	current     string
	selection   string
	dirty       map[string]bool
	subscribers []func(View)
}

// New creates an empty store in the given mode.
func New(mode models.Mode) *Store {
	return &Store{mode: mode, collection: models.PlaylistCollection{}, dirty: map[string]bool{}}
}

// Subscribe registers fn to receive a fresh [View] after every successful mutation.
// Callbacks run after the lock is released and may read the store.
func (s *Store) Subscribe(fn func(View)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Mode returns the active mode.
func (s *Store) Mode() models.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// ReplaceAll overwrites the music collection. The current playlist and selection are cleared.
func (s *Store) ReplaceAll(c models.PlaylistCollection) error {
	return s.mutate(func() error {
		if s.mode != models.ModeMusic {
			return fmt.Errorf("%w: playlists received in %s mode", shared.ErrModeMismatch, s.mode)
		}
		s.collection = c.Clone()
		s.loaded = true
		s.current = ""
		s.selection = ""
		clear(s.dirty)
		return nil
	})
}

// ReplaceAmbience overwrites the ambience singleton and selects it.
func (s *Store) ReplaceAmbience(p models.Playlist) error {
	return s.mutate(func() error {
		if s.mode != models.ModeAmbience {
			return fmt.Errorf("%w: ambience received in %s mode", shared.ErrModeMismatch, s.mode)
		}
		s.collection = models.PlaylistCollection{models.AmbienceName: p.Clone()}
		s.loaded = true
		s.current = models.AmbienceName
		s.selection = ""
		clear(s.dirty)
		return nil
	})
}

// SelectPlaylist makes name the current playlist.
func (s *Store) SelectPlaylist(name string) error {
	return s.mutate(func() error {
		if s.mode == models.ModeAmbience {
			return fmt.Errorf("%w: playlists cannot be selected in ambience mode", shared.ErrModeMismatch)
		}
		if _, ok := s.collection[name]; !ok {
			return fmt.Errorf("%w: %q", shared.ErrPlaylistNotFound, name)
		}
		s.current = name
		s.selection = ""
		return nil
	})
}

// CreatePlaylist inserts an empty playlist and selects it.
func (s *Store) CreatePlaylist(name string) error {
	return s.mutate(func() error {
		if s.mode == models.ModeAmbience {
			return fmt.Errorf("%w: playlists cannot be created in ambience mode", shared.ErrModeMismatch)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return shared.ErrEmptyName
		}
		if models.IsReservedName(name) {
			return fmt.Errorf("%w: %q is reserved", shared.ErrDuplicatePlaylist, name)
		}
		if _, ok := s.collection[name]; ok {
			return fmt.Errorf("%w: %q", shared.ErrDuplicatePlaylist, name)
		}
		s.collection[name] = models.Playlist{}
		s.current = name
		s.selection = ""
		s.dirty[s.current] = true
		return nil
	})
}

// SelectTrack marks url in the current playlist as the track being edited.
func (s *Store) SelectTrack(url string) error {
	return s.mutate(func() error {
		pl, err := s.currentPlaylist()
		if err != nil {
			return err
		}
		if _, ok := pl[url]; !ok {
			return fmt.Errorf("%w: %q", shared.ErrTrackNotFound, url)
		}
		s.selection = url
		return nil
	})
}

// ClearSelection drops the edit selection.
func (s *Store) ClearSelection() {
	_ = s.mutate(func() error {
		s.selection = ""
		return nil
	})
}

// UpsertTrack adds or edits a track in the current playlist.
//
// When a selected track exists and its URL differs from url, the track is renamed: the old key is deleted before
// the new one is written.
func (s *Store) UpsertTrack(url, title string) error {
	return s.mutate(func() error {
		pl, err := s.currentPlaylist()
		if err != nil {
			return err
		}
		url, title = strings.TrimSpace(url), strings.TrimSpace(title)
		if url == "" || title == "" {
			return shared.ErrEmptyTrackField
		}
		if s.selection != "" && s.selection != url {
			if _, ok := pl[s.selection]; ok {
				delete(pl, s.selection)
			}
		}
		pl[url] = title
		s.selection = ""
		s.dirty[s.current] = true
		return nil
	})
}

// RemoveTrack deletes the selected track from the current playlist.
func (s *Store) RemoveTrack() error {
	return s.mutate(func() error {
		pl, err := s.currentPlaylist()
		if err != nil {
			return err
		}
		if s.selection == "" {
			return shared.ErrNoSelection
		}
		delete(pl, s.selection)
		s.selection = ""
		s.dirty[s.current] = true
		return nil
	})
}

// SnapshotForSave copies the playlist a save would send. It does not mutate the store.
func (s *Store) SnapshotForSave() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.mode {
	case models.ModeAmbience:
		if s.current != models.AmbienceName {
			return Snapshot{}, fmt.Errorf("%w: ambience has not been loaded", shared.ErrNoPlaylistSelected)
		}
	default:
		if s.current == "" {
			return Snapshot{}, shared.ErrNoPlaylistSelected
		}
	}

	return Snapshot{Mode: s.mode, Name: s.current, Data: s.collection[s.current].Clone()}, nil
}

// SwitchMode changes the active collection. The cache, current playlist and selection are always dropped,
// even when mode is unchanged, so the caller must fetch the collection again.
func (s *Store) SwitchMode(mode models.Mode) {
	_ = s.mutate(func() error {
		s.mode = mode
		s.collection = models.PlaylistCollection{}
		s.loaded = false
		s.current = ""
		s.selection = ""
		clear(s.dirty)
		return nil
	})
}

// MarkSaved records a save acknowledgment for name, or for the current playlist when name is empty.
// Edits to other playlists stay unsaved.
func (s *Store) MarkSaved(name string) {
	_ = s.mutate(func() error {
		if name == "" {
			name = s.current
		}
		delete(s.dirty, name)
		s.selection = ""
		return nil
	})
}

// Collection returns a copy of the cached collection without touching the selection.
func (s *Store) Collection() models.PlaylistCollection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collection.Clone()
}

// View returns a deep copy of the current state.
func (s *Store) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view()
}

func (s *Store) view() View {
	v := View{
		Mode:      s.mode,
		Playlists: s.collection.Names(),
		Current:   s.current,
		Selection: s.selection,
		Dirty:     s.dirty[s.current],
		Loaded:    s.loaded,
	}
	for name := range s.dirty {
		v.Unsaved = append(v.Unsaved, name)
	}
	sort.Strings(v.Unsaved)
	if s.current != "" {
		v.Tracks = s.collection[s.current].Clone()
	}
	return v
}

func (v View) clone() View {
	v.Playlists = append([]string(nil), v.Playlists...)
	v.Unsaved = append([]string(nil), v.Unsaved...)
	if v.Tracks != nil {
		v.Tracks = v.Tracks.Clone()
	}
	return v
}

func (s *Store) currentPlaylist() (models.Playlist, error) {
	if s.current == "" {
		return nil, shared.ErrNoPlaylistSelected
	}
	pl, ok := s.collection[s.current]
	if !ok {
		return nil, fmt.Errorf("%w: %q", shared.ErrPlaylistNotFound, s.current)
	}
	if pl == nil {
		pl = models.Playlist{}
		s.collection[s.current] = pl
	}
	return pl, nil
}

// mutate runs fn under the lock and notifies subscribers when it succeeds.
func (s *Store) mutate(fn func() error) error {
	s.mu.Lock()
	if err := fn(); err != nil {
		s.mu.Unlock()
		return err
	}
	v := s.view()
	subs := append([]func(View){}, s.subscribers...)
	s.mu.Unlock()

	for _, sub := range subs {
		sub(v.clone())
	}
	return nil
}
