package main

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/desertthunder/ambiencectl/internal/discovery"
	"github.com/desertthunder/ambiencectl/internal/server"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

// Serve runs the in-memory development backend until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	sc := r.config.Server
	addr := cmd.String("addr")
	if addr == "" {
		addr = sc.Addr()
	}

	backend := server.NewBackend(server.BackendOptions{
		AuthKey:           r.config.Backend.AuthKey,
		HeartbeatInterval: time.Duration(sc.HeartbeatMS) * time.Millisecond,
		BootDelay:         time.Duration(sc.BootDelayMS) * time.Millisecond,
		Logger:            r.logger,
	})

	seedPath := cmd.String("seed")
	if seedPath == "" {
		seedPath = sc.SeedFile
	}
	if seedPath != "" {
		seed, err := server.LoadSeed(seedPath)
		if err != nil {
			return err
		}
		backend.Reseed(seed)
	}

	g, ctx := errgroup.WithContext(ctx)
	ready := make(chan string, 1)

	if seedPath != "" && cmd.Bool("watch") {
		g.Go(func() error { return server.WatchSeed(ctx, backend, seedPath, r.logger) })
	}

	g.Go(func() error {
		backend.Run(ctx)
		return nil
	})
	g.Go(func() error {
		return server.Serve(ctx, addr, server.NewRouter(backend, r.logger), ready)
	})
	g.Go(func() error {
		select {
		case bound := <-ready:
			r.logger.Info("backend listening", "addr", bound, "websocket", "ws://"+bound+"/ws")
			if cmd.Bool("advertise") || sc.Advertise {
				r.advertise(ctx, bound)
			}
		case <-ctx.Done():
		}
		return nil
	})

	return g.Wait()
}

// advertise announces the bound backend over mDNS until ctx is done.
func (r *Runner) advertise(ctx context.Context, bound string) {
	_, portStr, err := net.SplitHostPort(bound)
	if err != nil {
		r.logger.Warn("cannot advertise backend", "addr", bound, "error", err)
		return
	}
	port, _ := strconv.Atoi(portStr)

	authPath := ""
	if r.config.Backend.AuthKey != "" {
		authPath = "/auth_check"
	}

	a, err := discovery.Advertise(r.config.Server.Instance, port, "/ws", authPath)
	if err != nil {
		r.logger.Warn("cannot advertise backend", "error", err)
		return
	}
	r.logger.Info("backend advertised", "instance", r.config.Server.Instance, "service", discovery.ServiceType)

	<-ctx.Done()
	a.Shutdown()
}
