package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/ambiencectl/internal/models"
	"github.com/desertthunder/ambiencectl/internal/repositories"
	"github.com/desertthunder/ambiencectl/internal/shared"
	"github.com/urfave/cli/v3"
)

// ThemeGet prints the active theme preset.
func (r *Runner) ThemeGet(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	t := r.loadTheme(repositories.NewPreferenceRepository(db))
	return r.writePlain("%s (primary %s)\n", t.Name, t.Primary)
}

// ThemeSet saves a theme preset.
func (r *Runner) ThemeSet(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: theme name", shared.ErrMissingArgument)
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repositories.NewPreferenceRepository(db).SaveTheme(name); err != nil {
		return err
	}
	r.logger.Info("theme saved", "theme", name)
	return r.writePlain("✓ Theme set to %s\n", name)
}

// ThemeList prints the available presets, marking the active one.
func (r *Runner) ThemeList(ctx context.Context, cmd *cli.Command) error {
	active := models.ThemeOrDefault(r.config.UI.Theme)
	if db, err := r.openDatabase(); err == nil {
		defer db.Close()
		active = r.loadTheme(repositories.NewPreferenceRepository(db))
	}

	for _, name := range models.ThemeNames() {
		marker := " "
		if name == active.Name {
			marker = "*"
		}
		r.writePlain("%s %s\n", marker, name)
	}
	return nil
}

// loadTheme prefers the saved preset and falls back to ui.theme from the config.
func (r *Runner) loadTheme(prefs *repositories.PreferenceRepository) models.Theme {
	if _, err := prefs.Get(models.ThemePreferenceKey); errors.Is(err, shared.ErrRecordNotFound) {
		return models.ThemeOrDefault(r.config.UI.Theme)
	}

	t, err := prefs.LoadTheme()
	if err != nil {
		r.logger.Warn("failed to load theme", "error", err)
		return models.ThemeOrDefault(r.config.UI.Theme)
	}
	return t
}

// ThemeReset forgets the saved preset so ui.theme from the config applies again.
func (r *Runner) ThemeReset(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	err = repositories.NewPreferenceRepository(db).Delete(models.ThemePreferenceKey)
	if err != nil && !errors.Is(err, shared.ErrRecordNotFound) {
		return err
	}

	t := models.ThemeOrDefault(r.config.UI.Theme)
	return r.writePlain("✓ Theme reset to %s\n", t.Name)
}
