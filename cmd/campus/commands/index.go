package commands

import (
	"fmt"

	"git.home.luguber.info/inful/campus/internal/indexer"
)

// IndexCmd implements the 'index' command. It works on the campus root
// directory (the current directory unless --dir is given).
type IndexCmd struct {
	Glob      string `arg:"" optional:"" name:"glob" help:"File name or wildcard pattern (\"chap*.pdf\")."`
	Recursive bool   `short:"r" help:"Also index matching entries of every subdirectory."`
	Create    bool   `short:"f" help:"Create index.md file if not found."`
}

func (i *IndexCmd) Run(g *Global) error {
	if i.Glob == "" && !i.Create {
		_, _ = fmt.Fprintln(g.Out, "WARNING: campus index argument missing !")
	}
	return runIndex(g, indexer.Options{Glob: i.Glob, Recursive: i.Recursive, Create: i.Create})
}

// IndexAllCmd implements the 'indexall' command.
type IndexAllCmd struct {
	Create bool `short:"f" help:"Create index.md file if not found."`
}

func (i *IndexAllCmd) Run(g *Global) error {
	return runIndex(g, indexer.Options{Glob: "*", Recursive: true, Create: i.Create})
}

func runIndex(g *Global, opts indexer.Options) error {
	ix := indexer.New(g.Config.ContentFile, []string{g.Config.OutputDir(), g.Config.ConfigPath()}, g.Logger)
	res, err := ix.Index(g.Config.Root, opts)
	if err != nil {
		return err
	}
	for _, f := range res.Created {
		_, _ = fmt.Fprintf(g.Out, "'%s' file created.\n", f)
	}
	for _, e := range res.Indexed {
		_, _ = fmt.Fprintf(g.Out, "%s indexed.\n", e.Label)
	}
	if res.Nothing() {
		_, _ = fmt.Fprintln(g.Out, "It seems there's nothing new to index.")
	}
	return nil
}
