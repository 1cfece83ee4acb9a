package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/campus/internal/build"
	"git.home.luguber.info/inful/campus/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int `short:"n" default:"10" help:"Number of builds to list."`
}

func (h *HistoryCmd) Run(g *Global) error {
	if err := build.EnsureInitialized(g.Config); err != nil {
		return err
	}
	ctx := context.Background()
	store, err := history.Open(ctx, g.Config.HistoryPath())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	builds, err := store.Recent(ctx, h.Limit)
	if err != nil {
		return err
	}
	if len(builds) == 0 {
		_, _ = fmt.Fprintln(g.Out, "No builds recorded yet.")
		return nil
	}
	tw := tabwriter.NewWriter(g.Out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "BUILD\tSTARTED\tDURATION\tOUTCOME\tPAGES\tCHANGED\tBROKEN")
	for _, b := range builds {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
			shortID(b.ID), b.Start.Local().Format(time.DateTime), b.Duration().Round(time.Millisecond),
			b.Outcome, b.Pages, b.ChangedPages, b.BrokenLinks)
	}
	return tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
