package main

import (
	"context"

	"github.com/desertthunder/ambiencectl/internal/discovery"
	"github.com/urfave/cli/v3"
)

type discoverOutput struct {
	Instance string `json:"instance"`
	Addr     string `json:"addr"`
	WSURL    string `json:"ws_url"`
	AuthURL  string `json:"auth_url,omitempty"`
}

// Discover lists backends announcing themselves over mDNS.
func (r *Runner) Discover(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("browsing for backends", "service", discovery.ServiceType, "timeout", cmd.Duration("timeout"))

	backends, err := discovery.Browse(ctx, cmd.Duration("timeout"), r.logger)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		out := make([]discoverOutput, 0, len(backends))
		for _, b := range backends {
			out = append(out, discoverOutput{Instance: b.Instance, Addr: b.Addr(), WSURL: b.WSURL(), AuthURL: b.AuthURL()})
		}
		return r.writeJSON(out, true)
	}

	if len(backends) == 0 {
		return r.writePlain("No backends found\n")
	}

	r.writePlainHeader("Backends")
	for _, b := range backends {
		r.writePlain("%-24s %s\n", b.Instance, b.WSURL())
		if url := b.AuthURL(); url != "" {
			r.writePlain("%-24s auth_url = %q\n", "", url)
		}
	}
	return nil
}
