package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/ambiencectl/internal/dashboard"
	"github.com/desertthunder/ambiencectl/internal/formatter"
	"github.com/desertthunder/ambiencectl/internal/models"
	"github.com/desertthunder/ambiencectl/internal/repositories"
	"github.com/desertthunder/ambiencectl/internal/shared"
	"github.com/desertthunder/ambiencectl/internal/store"
	"github.com/desertthunder/ambiencectl/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// PlaylistsList prints every music playlist with its track count.
func (r *Runner) PlaylistsList(ctx context.Context, cmd *cli.Command) error {
	s, err := r.fetch(ctx, cmd, models.ModeMusic)
	if err != nil {
		return err
	}
	defer s.Close()

	c := s.dash.Store().Collection()
	if cmd.Bool("json") {
		return r.writeJSON(c, true)
	}

	names := c.Names()
	r.writePlainHeader(fmt.Sprintf("Playlists (%d)", len(names)))
	for _, name := range names {
		r.writePlain("%-30s %d tracks\n", name, len(c[name]))
	}
	return nil
}

// PlaylistsShow prints the tracks of one playlist.
func (r *Runner) PlaylistsShow(ctx context.Context, cmd *cli.Command) error {
	name, err := requireName(cmd)
	if err != nil {
		return err
	}

	s, err := r.fetch(ctx, cmd, models.ModeMusic)
	if err != nil {
		return err
	}
	defer s.Close()

	st := s.dash.Store()
	if err := st.SelectPlaylist(name); err != nil {
		return err
	}
	return r.printTracks(cmd, name, st.View().Tracks)
}

// PlaylistsExport writes one playlist to a file.
func (r *Runner) PlaylistsExport(ctx context.Context, cmd *cli.Command) error {
	name, err := requireName(cmd)
	if err != nil {
		return err
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	s, err := r.fetch(ctx, cmd, models.ModeMusic)
	if err != nil {
		return err
	}
	defer s.Close()

	st := s.dash.Store()
	if err := st.SelectPlaylist(name); err != nil {
		return err
	}

	path, err := formatter.WriteExport(format, name, st.View().Tracks, cmd.String("output"))
	if err != nil {
		return err
	}
	r.logger.Info("playlist exported", "playlist", name, "format", format, "path", path)
	return r.writePlain("✓ Exported %s to %s\n", name, path)
}

// PlaylistsExportAll writes every playlist to its own file and prints progress as it goes.
func (r *Runner) PlaylistsExportAll(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	s, err := r.fetch(ctx, cmd, models.ModeMusic)
	if err != nil {
		return err
	}
	c := s.dash.Store().Collection()
	s.Close()

	prog := make(chan tasks.ProgressUpdate, len(c)*2+1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for u := range prog {
			if u.Phase != tasks.QueuePlaylists {
				r.writePlain("%s\n", u.Message)
			}
		}
	}()

	result, err := tasks.NewEngine(r.logger).BulkExport(ctx, prog, c, tasks.BulkExportOpts{
		Format:     format,
		OutputDir:  cmd.String("dir"),
		NumWorkers: int(cmd.Int("workers")),
	})
	close(prog)
	<-done
	if err != nil {
		return err
	}

	return r.writePlain("✓ Exported %d/%d playlists to %s\n",
		result.SuccessfulExports, result.TotalPlaylists, result.OutputDirectory)
}

// PlaylistsCreate creates an empty playlist and saves it.
func (r *Runner) PlaylistsCreate(ctx context.Context, cmd *cli.Command) error {
	name, err := requireName(cmd)
	if err != nil {
		return err
	}

	err = r.edit(ctx, cmd, models.ModeMusic, func(st *store.Store) error {
		return st.CreatePlaylist(name)
	})
	if err != nil {
		return err
	}
	return r.writePlain("✓ Created playlist %s\n", name)
}

// PlaylistsSetTrack adds a track to a playlist, or retitles it when the URL is already present.
func (r *Runner) PlaylistsSetTrack(ctx context.Context, cmd *cli.Command) error {
	name, err := requireName(cmd)
	if err != nil {
		return err
	}
	url, title := cmd.String("url"), cmd.String("title")

	err = r.edit(ctx, cmd, models.ModeMusic, func(st *store.Store) error {
		if err := st.SelectPlaylist(name); err != nil {
			return err
		}
		return st.UpsertTrack(url, title)
	})
	if err != nil {
		return err
	}
	return r.writePlain("✓ Saved %s to %s\n", title, name)
}

// PlaylistsRemoveTrack removes a track from a playlist.
func (r *Runner) PlaylistsRemoveTrack(ctx context.Context, cmd *cli.Command) error {
	name, err := requireName(cmd)
	if err != nil {
		return err
	}
	url := cmd.String("url")

	err = r.edit(ctx, cmd, models.ModeMusic, func(st *store.Store) error {
		if err := st.SelectPlaylist(name); err != nil {
			return err
		}
		return removeTrack(st, url)
	})
	if err != nil {
		return err
	}
	return r.writePlain("✓ Removed %s from %s\n", url, name)
}

// AmbienceShow prints the ambience tracks.
func (r *Runner) AmbienceShow(ctx context.Context, cmd *cli.Command) error {
	s, err := r.fetch(ctx, cmd, models.ModeAmbience)
	if err != nil {
		return err
	}
	defer s.Close()

	return r.printTracks(cmd, models.AmbienceName, s.dash.View().Tracks)
}

// AmbienceSetTrack adds an ambience track, or retitles it when the URL is already present.
func (r *Runner) AmbienceSetTrack(ctx context.Context, cmd *cli.Command) error {
	url, title := cmd.String("url"), cmd.String("title")

	err := r.edit(ctx, cmd, models.ModeAmbience, func(st *store.Store) error {
		return st.UpsertTrack(url, title)
	})
	if err != nil {
		return err
	}
	return r.writePlain("✓ Saved %s to ambience\n", title)
}

// AmbienceRemoveTrack removes an ambience track.
func (r *Runner) AmbienceRemoveTrack(ctx context.Context, cmd *cli.Command) error {
	url := cmd.String("url")

	err := r.edit(ctx, cmd, models.ModeAmbience, func(st *store.Store) error {
		return removeTrack(st, url)
	})
	if err != nil {
		return err
	}
	return r.writePlain("✓ Removed %s from ambience\n", url)
}

// fetch connects in mode and waits for the collection.
func (r *Runner) fetch(ctx context.Context, cmd *cli.Command, mode models.Mode) (*liveSession, error) {
	s, err := r.connect(ctx, mode, nil)
	if err != nil {
		return nil, err
	}
	if err := s.load(ctx, cmd.Duration("timeout")); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// edit loads the collection for mode, applies fn to the store, saves and waits for the acknowledgment.
// Saves are journaled when the database is available.
func (r *Runner) edit(ctx context.Context, cmd *cli.Command, mode models.Mode, fn func(*store.Store) error) error {
	timeout := cmd.Duration("timeout")

	var recorder dashboard.SaveRecorder
	if db, err := r.openDatabase(); err != nil {
		r.logger.Warn("save history unavailable", "error", err)
	} else {
		defer db.Close()
		recorder = repositories.NewSaveRecorder(repositories.NewSaveHistoryRepository(db))
	}

	s, err := r.connect(ctx, mode, recorder)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.load(ctx, timeout); err != nil {
		return err
	}
	if err := fn(s.dash.Store()); err != nil {
		return err
	}
	if err := s.dash.Save(ctx); err != nil {
		return err
	}

	ack := dashboard.PlaylistSaved
	if mode == models.ModeAmbience {
		ack = dashboard.AmbienceSaved
	}
	if _, err := s.waitFor(ctx, timeout, ack); err != nil {
		return fmt.Errorf("save not acknowledged: %w", err)
	}
	return nil
}

func (r *Runner) printTracks(cmd *cli.Command, name string, pl models.Playlist) error {
	if cmd.Bool("render") {
		out, err := formatter.RenderMarkdown(name, pl, cmd.String("style"), terminalWidth())
		if err != nil {
			return err
		}
		return r.writePlain("%s", out)
	}

	if cmd.Bool("json") {
		data, err := formatter.ExportToJSON(name, pl)
		if err != nil {
			return err
		}
		return r.writePlain("%s\n", data)
	}

	r.writePlainHeader(fmt.Sprintf("%s (%d tracks)", name, len(pl)))
	for _, url := range pl.URLs() {
		r.writePlain("%s\n    %s\n", pl[url], url)
	}
	return nil
}

func removeTrack(st *store.Store, url string) error {
	if err := st.SelectTrack(url); err != nil {
		return err
	}
	return st.RemoveTrack()
}

func requireName(cmd *cli.Command) (string, error) {
	name := cmd.StringArg("name")
	if name == "" {
		return "", fmt.Errorf("%w: playlist name", shared.ErrMissingArgument)
	}
	return name, nil
}

// terminalWidth returns the stdout width, or 100 when stdout is not a terminal.
func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 100
	}
	return width
}
