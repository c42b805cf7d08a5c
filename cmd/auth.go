package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ambiencectl/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthCheck checks a key against the backend's authentication gate.
func (r *Runner) AuthCheck(ctx context.Context, cmd *cli.Command) error {
	if r.auth == nil {
		return fmt.Errorf("%w: backend.auth_url is not set", shared.ErrMissingConfig)
	}

	key := cmd.StringArg("key")
	if key == "" {
		key = r.config.Backend.AuthKey
	}

	r.logger.Info("checking auth key")
	ok, err := r.auth.Check(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: key rejected", shared.ErrNotAuthenticated)
	}
	return r.writePlain("✓ Key accepted\n")
}

// AuthStatus checks that the backend is up and whether the configured key is accepted.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if r.auth == nil {
		return fmt.Errorf("%w: backend.auth_url is not set", shared.ErrMissingConfig)
	}

	r.logger.Info("checking auth status")
	if err := r.auth.Health(ctx); err != nil {
		return err
	}
	r.writePlain("✓ Service is healthy\n")

	if r.config.Backend.AuthKey == "" {
		return r.writePlain("Authentication: ✗ No key configured\n")
	}

	ok, err := r.auth.Check(ctx, r.config.Backend.AuthKey)
	if err != nil {
		return err
	}
	if ok {
		return r.writePlain("Authentication: ✓ Authenticated\n")
	}
	return r.writePlain("Authentication: ✗ Not authenticated\n")
}
