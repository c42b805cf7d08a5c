package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/ambiencectl/internal/dashboard"
	"github.com/desertthunder/ambiencectl/internal/models"
	"github.com/desertthunder/ambiencectl/internal/repositories"
	"github.com/desertthunder/ambiencectl/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes a config file from the embedded template.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if err := shared.CreateConfigFile(configPath); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", configPath)

	r.writePlain("✓ Config written to %s\n", configPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set backend.ws_url and backend.auth_key\n")
	r.writePlain("2. Run 'ambiencectl setup database'\n")
	return nil
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	path := r.config.Database.Path
	r.logger.Info("initializing database", "path", path)

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	if cmd.Bool("rollback") {
		if err := shared.RollbackMigration(db); err != nil {
			return err
		}
		r.logger.Warn("rolled back latest migration", "path", path)
	}

	version, err := shared.SchemaVersion(db)
	if err != nil {
		return err
	}

	r.logger.Infof("setup complete for database: %v", path)
	return r.writePlain("✓ Database ready at %s (schema version %d)\n", path, version)
}

// SetupBot sends the bot's channel ids and waits for the backend to confirm.
func (r *Runner) SetupBot(ctx context.Context, cmd *cli.Command) error {
	text, voice := cmd.String("text-channel"), cmd.String("voice-channel")
	timeout := cmd.Duration("timeout")

	s, err := r.connect(ctx, models.ModeMusic, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	if _, err := s.waitFor(ctx, timeout, dashboard.Connected); err != nil {
		return err
	}
	if err := s.dash.SaveSetup(ctx, text, voice); err != nil {
		return err
	}
	if _, err := s.waitFor(ctx, timeout, dashboard.SetupSaved); err != nil {
		return fmt.Errorf("setup not confirmed: %w", err)
	}

	return r.writePlain("✓ Setup saved (text: %s, voice: %s)\n", text, voice)
}

// SetupShow lists saved preferences such as the theme and the last editor mode.
func (r *Runner) SetupShow(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	prefs, err := repositories.NewPreferenceRepository(db).List()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		out := make(map[string]string, len(prefs))
		for _, p := range prefs {
			out[p.Key] = p.Value
		}
		return r.writeJSON(out, true)
	}

	if len(prefs) == 0 {
		return r.writePlain("No preferences saved\n")
	}

	r.writePlainHeader("Preferences")
	for _, p := range prefs {
		r.writePlain("%-12s %-10s %s\n", p.Key, p.Value, p.UpdatedAt.Format(time.DateTime))
	}
	return nil
}
