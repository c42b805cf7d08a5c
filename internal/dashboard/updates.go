package dashboard

import (
	"fmt"

	"github.com/desertthunder/ambiencectl/internal/models"
	"github.com/desertthunder/ambiencectl/internal/status"
	"github.com/desertthunder/ambiencectl/internal/store"
)

// Update is a change notification for renderers.
//
// Renderers re-read [Dashboard.View] and [Dashboard.Status] for the latest state. A StatusChanged update also
// carries the snapshot it announces, so consumers can follow every transition in order.
type Update struct {
	Kind    Kind            // What changed
	Message string          // Human-readable message for display
	Err     error           // Set when the update reports a failure
	Status  status.Snapshot // Set on StatusChanged
}

// Update kind enumeration
type Kind int

const (
	Connected Kind = iota
	Disconnected
	StatusChanged
	PlaylistsLoaded
	AmbienceLoaded
	PlaylistSaved
	AmbienceSaved
	SetupSaved
	StoreChanged
)

func (k Kind) String() string {
	switch k {
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	case StatusChanged:
		return "status_changed"
	case PlaylistsLoaded:
		return "playlists_loaded"
	case AmbienceLoaded:
		return "ambience_loaded"
	case PlaylistSaved:
		return "playlist_saved"
	case AmbienceSaved:
		return "ambience_saved"
	case SetupSaved:
		return "setup_saved"
	case StoreChanged:
		return "store_changed"
	default:
		return ""
	}
}

func connectedUpdate() Update {
	return Update{Kind: Connected, Message: "Connected to backend"}
}

func disconnectedUpdate() Update {
	return Update{Kind: Disconnected, Message: "Connection lost, reconnecting..."}
}

func statusUpdate(s status.Snapshot) Update {
	return Update{
		Kind:    StatusChanged,
		Message: fmt.Sprintf("Web: %s, Bot: %s", s.Web.Label(), s.Bot.Label()),
		Status:  s,
	}
}

func playlistsLoadedUpdate(c models.PlaylistCollection) Update {
	return Update{Kind: PlaylistsLoaded, Message: fmt.Sprintf("Loaded %d playlists", len(c))}
}

func ambienceLoadedUpdate(p models.Playlist) Update {
	return Update{Kind: AmbienceLoaded, Message: fmt.Sprintf("Loaded ambience (%d tracks)", len(p))}
}

func playlistSavedUpdate(name string) Update {
	if name == "" {
		return Update{Kind: PlaylistSaved, Message: "Playlist saved"}
	}
	return Update{Kind: PlaylistSaved, Message: fmt.Sprintf("Saved playlist: %s", name)}
}

func ambienceSavedUpdate() Update {
	return Update{Kind: AmbienceSaved, Message: "Ambience saved"}
}

func setupSavedUpdate() Update {
	return Update{Kind: SetupSaved, Message: "Setup saved"}
}

func storeUpdate(v store.View) Update {
	if v.Current == "" {
		return Update{Kind: StoreChanged, Message: fmt.Sprintf("%d playlists", len(v.Playlists))}
	}
	return Update{Kind: StoreChanged, Message: fmt.Sprintf("%s (%d tracks)", v.Current, len(v.Tracks))}
}
