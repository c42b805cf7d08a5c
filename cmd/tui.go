package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ambiencectl/internal/dashboard"
	"github.com/desertthunder/ambiencectl/internal/models"
	"github.com/desertthunder/ambiencectl/internal/repositories"
	"github.com/desertthunder/ambiencectl/internal/shared"
	"github.com/desertthunder/ambiencectl/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive dashboard.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.UI.LogFile)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, shared.ParseLogLevel(r.config.Log.Level))
	r.SetLogger(fileLogger)

	theme := models.ThemeOrDefault(r.config.UI.Theme)
	mode := models.ModeMusic
	var themes ui.ThemeSaver
	var recorder dashboard.SaveRecorder
	var prefs *repositories.PreferenceRepository

	if db, err := r.openDatabase(); err != nil {
		r.logger.Warn("preferences unavailable", "error", err)
	} else {
		defer db.Close()
		prefs = repositories.NewPreferenceRepository(db)
		theme = r.loadTheme(prefs)
		mode = prefs.LoadMode()
		themes = prefs
		recorder = repositories.NewSaveRecorder(repositories.NewSaveHistoryRepository(db))
	}

	s, err := r.connect(ctx, mode, recorder)
	if err != nil {
		return err
	}
	defer s.Close()

	model := ui.NewModel(ctx, s.dash, theme, themes)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	if prefs != nil {
		if err := prefs.SaveMode(s.dash.Store().Mode()); err != nil {
			r.logger.Warn("failed to save edit mode", "error", err)
		}
	}
	return nil
}
