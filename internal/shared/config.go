package shared

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Backend   BackendConfig   `toml:"backend"`
	Reconnect ReconnectConfig `toml:"reconnect"`
	Control   ControlConfig   `toml:"control"`
	Database  DatabaseConfig  `toml:"database"`
	UI        UIConfig        `toml:"ui"`
	Log       LogConfig       `toml:"log"`
	Server    ServerConfig    `toml:"server"`
}

// BackendConfig locates the bot backend and its authentication gate.
type BackendConfig struct {
	WSURL   string `toml:"ws_url"`
	AuthURL string `toml:"auth_url"`
	AuthKey string `toml:"auth_key"`
}

// ReconnectConfig controls the connection manager's backoff and keepalive.
type ReconnectConfig struct {
	InitialBackoffMS int `toml:"initial_backoff_ms"`
	MaxBackoffMS     int `toml:"max_backoff_ms"`
	PingIntervalMS   int `toml:"ping_interval_ms"`
	ReadTimeoutMS    int `toml:"read_timeout_ms"`
}

// ControlConfig limits how often start/stop/reboot may be sent.
type ControlConfig struct {
	MinIntervalMS int `toml:"min_interval_ms"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// UIConfig contains terminal UI settings.
type UIConfig struct {
	Theme   string `toml:"theme"`
	LogFile string `toml:"log_file"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// ServerConfig contains settings for the development backend.
type ServerConfig struct {
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	HeartbeatMS int    `toml:"heartbeat_ms"`
	BootDelayMS int    `toml:"boot_delay_ms"`
	Advertise   bool   `toml:"advertise"` // announce over mDNS
	Instance    string `toml:"instance"`  // mDNS instance name
	SeedFile    string `toml:"seed_file"` // initial playlists
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read config file: %v", ErrMissingConfig, err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks that the backend URL is usable and the timing values are positive.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Backend.WSURL)
	if err != nil || c.Backend.WSURL == "" {
		return fmt.Errorf("%w: backend.ws_url %q is not a valid URL", ErrInvalidConfig, c.Backend.WSURL)
	}
	switch u.Scheme {
	case "ws", "wss", "http", "https":
	default:
		return fmt.Errorf("%w: backend.ws_url scheme must be ws or wss, got %q", ErrInvalidConfig, u.Scheme)
	}

	if c.Reconnect.InitialBackoffMS <= 0 || c.Reconnect.MaxBackoffMS <= 0 {
		return fmt.Errorf("%w: reconnect backoff must be positive", ErrInvalidConfig)
	}
	if c.Reconnect.InitialBackoffMS > c.Reconnect.MaxBackoffMS {
		return fmt.Errorf("%w: reconnect.initial_backoff_ms exceeds max_backoff_ms", ErrInvalidConfig)
	}
	if c.Control.MinIntervalMS < 0 {
		return fmt.Errorf("%w: control.min_interval_ms must not be negative", ErrInvalidConfig)
	}
	return nil
}

// InitialBackoff returns the first reconnect delay.
func (r ReconnectConfig) InitialBackoff() time.Duration {
	return time.Duration(r.InitialBackoffMS) * time.Millisecond
}

// MaxBackoff returns the reconnect delay ceiling.
func (r ReconnectConfig) MaxBackoff() time.Duration {
	return time.Duration(r.MaxBackoffMS) * time.Millisecond
}

// PingInterval returns the keepalive period.
func (r ReconnectConfig) PingInterval() time.Duration {
	return time.Duration(r.PingIntervalMS) * time.Millisecond
}

// ReadTimeout returns how long the connection may stay silent before it is dropped.
func (r ReconnectConfig) ReadTimeout() time.Duration {
	return time.Duration(r.ReadTimeoutMS) * time.Millisecond
}

// MinInterval returns the minimum spacing between control commands.
func (c ControlConfig) MinInterval() time.Duration {
	return time.Duration(c.MinIntervalMS) * time.Millisecond
}

// Addr returns the development backend listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
