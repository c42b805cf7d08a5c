package main

import (
	"context"
	"time"

	"github.com/desertthunder/ambiencectl/internal/repositories"
	"github.com/urfave/cli/v3"
)

type historyOutput struct {
	ID             string     `json:"id"`
	Mode           string     `json:"mode"`
	Playlist       string     `json:"playlist"`
	Tracks         int        `json:"tracks"`
	SentAt         time.Time  `json:"sent_at"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
}

// HistoryList prints recent saves sent from this machine.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	records, err := repositories.NewSaveHistoryRepository(db).List(int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		out := make([]historyOutput, 0, len(records))
		for _, rec := range records {
			out = append(out, historyOutput{
				ID:             rec.ID(),
				Mode:           rec.Mode().String(),
				Playlist:       rec.Playlist(),
				Tracks:         rec.TrackCount(),
				SentAt:         rec.SentAt(),
				AcknowledgedAt: rec.AcknowledgedAt(),
			})
		}
		return r.writeJSON(out, true)
	}

	if len(records) == 0 {
		return r.writePlain("No saves recorded\n")
	}

	r.writePlainHeader("Save history")
	for _, rec := range records {
		ack := "pending"
		if rec.Acknowledged() {
			ack = "acknowledged"
		}
		r.writePlain("%s  %-8s %-24s %4d tracks  %s\n",
			rec.SentAt().Local().Format(time.DateTime), rec.Mode(), rec.Playlist(), rec.TrackCount(), ack)
	}
	return nil
}

// HistoryPrune deletes records older than --older-than.
func (r *Runner) HistoryPrune(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	cutoff := time.Now().Add(-cmd.Duration("older-than"))
	n, err := repositories.NewSaveHistoryRepository(db).Prune(cutoff)
	if err != nil {
		return err
	}
	r.logger.Info("save history pruned", "removed", n, "cutoff", cutoff)
	return r.writePlain("✓ Removed %d records\n", n)
}
