package main

import (
	"context"

	"github.com/desertthunder/ambiencectl/internal/dashboard"
	"github.com/desertthunder/ambiencectl/internal/models"
	"github.com/urfave/cli/v3"
)

type statusOutput struct {
	Web      string          `json:"web"`
	Bot      string          `json:"bot"`
	Controls map[string]bool `json:"controls"`
}

// Status prints web and bot status once the backend has answered.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	s, err := r.connect(ctx, models.ModeMusic, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.load(ctx, cmd.Duration("timeout")); err != nil {
		return err
	}

	snap := s.dash.Status()
	if cmd.Bool("json") {
		return r.writeJSON(statusOutput{
			Web: snap.Web.String(),
			Bot: snap.Bot.String(),
			Controls: map[string]bool{
				"start":  snap.Controls.Start,
				"stop":   snap.Controls.Stop,
				"reboot": snap.Controls.Reboot,
			},
		}, true)
	}

	mark := func(ok bool) string {
		if ok {
			return "✓"
		}
		return "✗"
	}

	r.writePlainHeader("Status")
	r.writePlain("Web: %s\n", snap.Web.Label())
	r.writePlain("Bot: %s\n", snap.Bot.Label())
	r.writePlainln("Controls: start %s  stop %s  reboot %s",
		mark(snap.Controls.Start), mark(snap.Controls.Stop), mark(snap.Controls.Reboot))
	return nil
}

// BotStart asks the backend to start the bot.
func (r *Runner) BotStart(ctx context.Context, cmd *cli.Command) error {
	return r.botControl(ctx, cmd, "start", (*dashboard.Dashboard).StartBot, models.BotOnline)
}

// BotStop asks the backend to stop the bot.
func (r *Runner) BotStop(ctx context.Context, cmd *cli.Command) error {
	return r.botControl(ctx, cmd, "stop", (*dashboard.Dashboard).StopBot, models.BotOffline)
}

// BotReboot asks the backend to restart the bot.
func (r *Runner) BotReboot(ctx context.Context, cmd *cli.Command) error {
	return r.botControl(ctx, cmd, "reboot", (*dashboard.Dashboard).RebootBot, models.BotBooting, models.BotOnline)
}

// botControl sends one control command. With --wait it then follows the bot through each state in path.
func (r *Runner) botControl(
	ctx context.Context, cmd *cli.Command, action string,
	send func(*dashboard.Dashboard, context.Context) error, path ...models.BotStatus,
) error {
	timeout := cmd.Duration("timeout")

	s, err := r.connect(ctx, models.ModeMusic, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.load(ctx, timeout); err != nil {
		return err
	}
	if err := send(s.dash, ctx); err != nil {
		return err
	}
	r.logger.Info("bot control sent", "action", action)

	if !cmd.Bool("wait") {
		return r.writePlain("✓ %s requested\n", action)
	}

	if err := s.waitPath(ctx, timeout, path...); err != nil {
		return err
	}
	return r.writePlain("✓ Bot is %s\n", s.dash.Status().Bot.Label())
}
