package commands

import (
	"fmt"

	"git.home.luguber.info/inful/campus/internal/git"
	"git.home.luguber.info/inful/campus/internal/scaffold"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Remove the existing configuration and output first."`
}

func (i *InitCmd) Run(g *Global) error {
	res, err := scaffold.Init(g.Config, scaffold.Options{Force: i.Force}, git.NewClient(g.Out), g.Logger)
	if err != nil {
		return err
	}
	if res.AlreadyConfigured {
		_, _ = fmt.Fprintln(g.Out, "Nothing done, since repository seems already configured.\n"+
			"Use `campus init --force` if you want to override existing configuration.")
		return nil
	}
	if res.OutputExisted {
		_, _ = fmt.Fprintf(g.Out, "Warning: %s folder already exist !\n", g.Config.OutputDir())
	}
	_, _ = fmt.Fprintln(g.Out, "campus init executed.")
	return nil
}
