package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/campus/internal/build"
	"git.home.luguber.info/inful/campus/internal/preview"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Port int `short:"p" help:"Port to listen on (default from configuration)."`
}

func (s *ServeCmd) Run(g *Global) error {
	if err := build.EnsureInitialized(g.Config); err != nil {
		return err
	}
	if s.Port > 0 {
		g.Config.Preview.Port = s.Port
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer cancel()

	svc := newServices(ctx, g)
	defer svc.Close()
	srv := preview.New(g.Config, svc.builder, preview.WithLogger(g.Logger), preview.WithRegistry(svc.registry))
	return srv.Run(ctx)
}
