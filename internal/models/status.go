package models

// BotStatus is the bot's lifecycle state as reported by the backend.
type BotStatus int

const (
	BotOffline BotStatus = iota
	BotBooting
	BotOnline
)

func (s BotStatus) String() string {
	switch s {
	case BotOnline:
		return "online"
	case BotBooting:
		return "booting"
	default:
		return "offline"
	}
}

// Label is the human-readable form shown by renderers.
func (s BotStatus) Label() string {
	switch s {
	case BotOnline:
		return "Online"
	case BotBooting:
		return "Starting..."
	default:
		return "Offline"
	}
}

// ParseBotStatus normalizes a decoded payload value into a [BotStatus].
//
// true and false map to online and offline, the exact strings "online" and "booting" map directly,
// and every other value is offline. It never fails.
func ParseBotStatus(v any) BotStatus {
	switch t := v.(type) {
	case bool:
		if t {
			return BotOnline
		}
		return BotOffline
	case string:
		switch t {
		case "online":
			return BotOnline
		case "booting":
			return BotBooting
		}
	}
	return BotOffline
}

// WebStatus reports whether the backend is reachable.
type WebStatus bool

const (
	WebOffline WebStatus = false
	WebOnline  WebStatus = true
)

func (w WebStatus) String() string {
	if w {
		return "online"
	}
	return "offline"
}

// Label is the human-readable form shown by renderers.
func (w WebStatus) Label() string {
	if w {
		return "Online"
	}
	return "Offline"
}

// Controls are the bot control affordances available for a [BotStatus].
type Controls struct {
	Start  bool
	Stop   bool
	Reboot bool
}

// ControlsFor derives control availability: start only when offline, stop when online or booting, reboot only when online.
func ControlsFor(s BotStatus) Controls {
	return Controls{
		Start:  s == BotOffline,
		Stop:   s == BotOnline || s == BotBooting,
		Reboot: s == BotOnline,
	}
}
