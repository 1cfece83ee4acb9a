package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/campus/internal/build"
)

// MakeCmd implements the 'make' command.
type MakeCmd struct{}

func (m *MakeCmd) Run(g *Global) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svc := newServices(ctx, g)
	defer svc.Close()
	res, err := svc.builder.Run(ctx, build.BuildRequest{Config: g.Config, Reason: "cli"})
	if err != nil {
		return err
	}
	printReport(g, res)
	_, _ = fmt.Fprintln(g.Out, "campus make executed.")
	return nil
}

// printReport lists the warnings of a finished build.
func printReport(g *Global, res *build.BuildResult) {
	if res == nil || res.Report == nil {
		return
	}
	for _, dir := range res.Report.MissingContent {
		_, _ = fmt.Fprintf(g.Out, "Warning: no content file in %s\n", dir)
	}
	for _, bl := range res.Report.BrokenLinks {
		_, _ = fmt.Fprintf(g.Out, "Warning: broken link %q in %s\n", bl.Href, bl.Dir)
	}
	if n := res.Report.CopyFailures(); n > 0 {
		_, _ = fmt.Fprintf(g.Out, "Warning: %d file(s) could not be copied\n", n)
	}
}
