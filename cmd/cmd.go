// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

func waitFlag() cli.Flag {
	return &cli.DurationFlag{
		Name:  "timeout",
		Usage: "How long to wait for the backend to reply",
		Value: defaultWait,
	}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Output raw JSON",
	}
}

// renderFlags select styled Markdown output.
func renderFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "render",
			Usage: "Render the track list as styled Markdown",
		},
		&cli.StringFlag{
			Name:  "style",
			Usage: "Markdown style (dark, light, notty); detected from the terminal when empty",
		},
	}
}

// setupCommand handles setup operations for configuration, the database and the bot.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write config.toml from the embedded template",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the latest migration after setup",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "bot",
				Usage: "Send the bot's text and voice channel ids",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "text-channel",
						Usage:    "Text channel id",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "voice-channel",
						Usage:    "Voice channel id",
						Required: true,
					},
					waitFlag(),
				},
				Action: r.SetupBot,
			},
			{
				Name:   "show",
				Usage:  "List preferences saved on this machine",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.SetupShow,
			},
		},
	}
}

// authCommand handles the authentication gate
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Check backend authentication",
		Commands: []*cli.Command{
			{
				Name:  "check",
				Usage: "Check a key against /auth_check (defaults to backend.auth_key)",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "key"},
				},
				Action: r.AuthCheck,
			},
			{
				Name:   "status",
				Usage:  "Check that the backend answers /health",
				Action: r.AuthStatus,
			},
		},
	}
}

// statusCommand prints web and bot status
func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show web and bot status",
		Flags:  []cli.Flag{waitFlag(), jsonFlag()},
		Action: r.Status,
	}
}

// botCommand handles bot lifecycle controls
func botCommand(r *Runner) *cli.Command {
	control := func(name, usage string, action cli.ActionFunc) *cli.Command {
		return &cli.Command{
			Name:  name,
			Usage: usage,
			Flags: []cli.Flag{
				waitFlag(),
				&cli.BoolFlag{
					Name:  "wait",
					Usage: "Wait for the bot to reach the requested state",
				},
			},
			Action: action,
		}
	}

	return &cli.Command{
		Name:  "bot",
		Usage: "Start, stop or reboot the bot",
		Commands: []*cli.Command{
			control("start", "Start the bot (only while offline)", r.BotStart),
			control("stop", "Stop the bot (while online or starting)", r.BotStop),
			control("reboot", "Reboot the bot (only while online)", r.BotReboot),
		},
	}
}

// playlistsCommand handles music playlist operations
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "Music playlist operations",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List playlists",
				Flags:  []cli.Flag{waitFlag(), jsonFlag()},
				Action: r.PlaylistsList,
			},
			{
				Name:      "show",
				Usage:     "Show the tracks of a playlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags:     append([]cli.Flag{waitFlag(), jsonFlag()}, renderFlags()...),
				Action:    r.PlaylistsShow,
			},
			{
				Name:      "export",
				Usage:     "Export a playlist to a file",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags: []cli.Flag{
					waitFlag(),
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format (json, yaml, csv, xlsx, markdown, txt)",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
					},
				},
				Action: r.PlaylistsExport,
			},
			{
				Name:  "export-all",
				Usage: "Export every playlist into a directory",
				Flags: []cli.Flag{
					waitFlag(),
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format (json, yaml, csv, xlsx, markdown, txt)",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "dir",
						Aliases: []string{"d"},
						Usage:   "Output directory (default: ambience_export_{epoch})",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent export workers",
						Value: 4,
					},
				},
				Action: r.PlaylistsExportAll,
			},
			{
				Name:      "create",
				Usage:     "Create an empty playlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags:     []cli.Flag{waitFlag()},
				Action:    r.PlaylistsCreate,
			},
			{
				Name:      "set",
				Usage:     "Add a track or rename its title",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags:     trackFlags(true),
				Action:    r.PlaylistsSetTrack,
			},
			{
				Name:      "remove",
				Usage:     "Remove a track",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags:     trackFlags(false),
				Action:    r.PlaylistsRemoveTrack,
			},
		},
	}
}

// ambienceCommand handles the ambience singleton
func ambienceCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "ambience",
		Usage: "Ambience track operations",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the ambience tracks",
				Flags:  append([]cli.Flag{waitFlag(), jsonFlag()}, renderFlags()...),
				Action: r.AmbienceShow,
			},
			{
				Name:   "set",
				Usage:  "Add an ambience track or rename its title",
				Flags:  trackFlags(true),
				Action: r.AmbienceSetTrack,
			},
			{
				Name:   "remove",
				Usage:  "Remove an ambience track",
				Flags:  trackFlags(false),
				Action: r.AmbienceRemoveTrack,
			},
		},
	}
}

func trackFlags(withTitle bool) []cli.Flag {
	flags := []cli.Flag{
		waitFlag(),
		&cli.StringFlag{
			Name:     "url",
			Usage:    "Track URL",
			Required: true,
		},
	}
	if withTitle {
		flags = append(flags, &cli.StringFlag{
			Name:     "title",
			Usage:    "Track title",
			Required: true,
		})
	}
	return flags
}

// themeCommand handles the persisted theme preset
func themeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "theme",
		Usage: "Manage the dashboard theme",
		Commands: []*cli.Command{
			{
				Name:   "get",
				Usage:  "Show the saved theme",
				Action: r.ThemeGet,
			},
			{
				Name:      "set",
				Usage:     "Save a theme preset",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Action:    r.ThemeSet,
			},
			{
				Name:   "list",
				Usage:  "List available presets",
				Action: r.ThemeList,
			},
			{
				Name:   "reset",
				Usage:  "Forget the saved theme and use the config default",
				Action: r.ThemeReset,
			},
		},
	}
}

// historyCommand handles the local save journal
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Inspect saves sent from this machine",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recent saves and whether the backend acknowledged them",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of records",
						Value: 20,
					},
					jsonFlag(),
				},
				Action: r.HistoryList,
			},
			{
				Name:  "prune",
				Usage: "Delete old records",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "older-than",
						Usage: "Age of records to delete",
						Value: 30 * 24 * time.Hour,
					},
				},
				Action: r.HistoryPrune,
			},
		},
	}
}

// serveCommand runs the development backend
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run an in-memory development backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (defaults to server.host:server.port)",
			},
			&cli.BoolFlag{
				Name:  "advertise",
				Usage: "Announce the backend over mDNS",
			},
			&cli.StringFlag{
				Name:  "seed",
				Usage: "YAML or JSON file with initial playlists (defaults to server.seed_file)",
			},
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "Reload the seed file when it changes",
			},
		},
		Action: r.Serve,
	}
}

func discoverCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "discover",
		Usage: "Find development backends on the local network",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "How long to listen for announcements",
				Value: 3 * time.Second,
			},
			jsonFlag(),
		},
		Action: r.Discover,
	}
}

// tuiCommand returns the top-level TUI command for the interactive dashboard.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive dashboard",
		Action:  r.TUI,
	}
}
