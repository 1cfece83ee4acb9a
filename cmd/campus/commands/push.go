package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/campus/internal/publish"
)

// PushCmd implements the 'push' command.
type PushCmd struct {
	Message string `short:"m" help:"Commit message."`
	DryRun  bool   `name:"dry-run" help:"Print git operations and uploads instead of executing them."`
}

func (p *PushCmd) Run(g *Global) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svc := newServices(ctx, g)
	defer svc.Close()
	res, err := publish.NewService(svc.builder, g.Out).
		WithLogger(g.Logger).
		Push(ctx, publish.Request{Config: g.Config, Message: p.Message, DryRun: p.DryRun})
	if res != nil && res.Build != nil {
		printReport(g, res.Build)
	}
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(g.Out, "campus push executed.")
	return nil
}
