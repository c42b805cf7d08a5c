package shared

import "fmt"

var (

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")

	// Transport errors
	ErrNotConnected       = fmt.Errorf("not connected to backend")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrTimeout            = fmt.Errorf("operation timed out")

	// Protocol errors
	ErrMalformedFrame = fmt.Errorf("malformed frame")

	// Edit model errors
	ErrEmptyName          = fmt.Errorf("playlist name is empty")
	ErrDuplicatePlaylist  = fmt.Errorf("playlist already exists")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")
	ErrTrackNotFound      = fmt.Errorf("track not found")
	ErrEmptyTrackField    = fmt.Errorf("track title and URL are required")
	ErrNoPlaylistSelected = fmt.Errorf("no playlist selected")
	ErrNoSelection        = fmt.Errorf("no track selected")
	ErrModeMismatch       = fmt.Errorf("operation not available in this mode")

	// Bot control errors
	ErrControlUnavailable = fmt.Errorf("control not available for current bot status")
	ErrThrottled          = fmt.Errorf("too many control commands")

	// Persistence errors
	ErrRecordNotFound = fmt.Errorf("record not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
