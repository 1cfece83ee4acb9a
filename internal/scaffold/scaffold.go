// Package scaffold prepares a directory for campus (`campus init`).
package scaffold

import (
	"bufio"
	"bytes"
	"embed"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/campus/internal/config"
	"git.home.luguber.info/inful/campus/internal/errors"
	"git.home.luguber.info/inful/campus/internal/files"
	"git.home.luguber.info/inful/campus/internal/git"
	"git.home.luguber.info/inful/campus/internal/indexer"
	"git.home.luguber.info/inful/campus/internal/logfields"
	"git.home.luguber.info/inful/campus/internal/templates"
)

//go:embed style
var styleFS embed.FS

// Style returns the default style directory (css/ and pic/).
func Style() fs.FS {
	sub, err := fs.Sub(styleFS, "style")
	if err != nil {
		panic(err)
	}
	return sub
}

// Options controls Init.
type Options struct {
	// Force removes an existing configuration directory and output tree first.
	Force bool
}

// Result describes what Init did.
type Result struct {
	AlreadyConfigured bool
	SourceRepoCreated bool
	OutputRepoCreated bool
	GitignoreUpdated  bool
	IndexCreated      bool
	OutputExisted     bool
}

// Init lays out cfg.Root as a campus source tree: the configuration directory
// with the template and style assets, git repositories for the source and the
// output, the .gitignore entry for the output and a root content file.
// An existing configuration directory stops Init unless opts.Force is set.
func Init(cfg *config.Config, opts Options, g *git.Client, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if g == nil {
		g = git.NewClient(nil)
	}
	if err := cfg.CheckOutputDir(); err != nil {
		return nil, err
	}
	cfgDir := cfg.ConfigPath()
	if cleanEq(cfgDir, cfg.Root) || cleanEq(cfgDir, cfg.SourceDir()) {
		return nil, errors.ValidationError("configuration directory must not be the source root").
			WithContext("config_dir", cfgDir).
			Build()
	}

	res := &Result{}
	if opts.Force {
		for _, dir := range []string{cfgDir, cfg.OutputDir()} {
			if err := os.RemoveAll(dir); err != nil {
				return nil, errors.WrapError(err, errors.CategoryFileSystem, "remove directory").WithContext("dir", dir).Build()
			}
		}
		logger.Info("Removed existing configuration", logfields.Dir(cfgDir))
	}
	if st, err := os.Stat(cfgDir); err == nil && st.IsDir() {
		res.AlreadyConfigured = true
		return res, nil
	}

	if err := writeConfigDir(cfg); err != nil {
		return nil, err
	}
	logger.Info("Configuration directory created", logfields.Dir(cfgDir))

	created, err := g.Init(cfg.SourceDir())
	if err != nil {
		return nil, err
	}
	res.SourceRepoCreated = created

	if res.GitignoreUpdated, err = ensureGitignore(cfg); err != nil {
		return nil, err
	}

	idx, err := indexer.New(cfg.ContentFile, []string{cfg.OutputDir()}, logger).
		Index(cfg.SourceDir(), indexer.Options{Create: true})
	if err != nil {
		return nil, err
	}
	res.IndexCreated = len(idx.Created) > 0

	out := cfg.OutputDir()
	if st, err := os.Stat(out); err == nil && st.IsDir() {
		res.OutputExisted = true
		logger.Warn("Output directory already exists", logfields.Dir(out))
	} else if err := os.MkdirAll(out, 0o750); err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "create output directory").WithContext("dir", out).Build()
	}
	if res.OutputRepoCreated, err = g.Init(out); err != nil {
		return nil, err
	}
	return res, nil
}

func writeConfigDir(cfg *config.Config) error {
	dir := cfg.ConfigPath()
	if err := files.CopyFS(Style(), dir); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "copy style directory").WithContext("dir", dir).Build()
	}
	tpl := cfg.TemplatePath()
	if _, err := os.Stat(tpl); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(tpl), 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "create template directory").WithContext("path", tpl).Build()
	}
	if err := os.WriteFile(tpl, []byte(templates.DefaultHTML), 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "write template").WithContext("path", tpl).Build()
	}
	return nil
}

// ensureGitignore appends "<output>/" to the source .gitignore unless a line
// already ignores it. Output trees outside the source root need no entry.
func ensureGitignore(cfg *config.Config) (bool, error) {
	rel, err := filepath.Rel(cfg.SourceDir(), cfg.OutputDir())
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false, nil
	}
	entry := filepath.ToSlash(rel) + "/"
	path := filepath.Join(cfg.SourceDir(), ".gitignore")

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil && !os.IsNotExist(err) {
		return false, errors.WrapError(err, errors.CategoryFileSystem, "read .gitignore").WithContext("path", path).Build()
	}
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) == entry {
			return false, nil
		}
	}

	f, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return false, errors.WrapError(err, errors.CategoryFileSystem, "open .gitignore").WithContext("path", path).Build()
	}
	defer func() { _ = f.Close() }()
	if _, err := f.WriteString("\n" + entry + "\n"); err != nil {
		return false, errors.WrapError(err, errors.CategoryFileSystem, "write .gitignore").WithContext("path", path).Build()
	}
	return true, nil
}

func cleanEq(a, b string) bool { return filepath.Clean(a) == filepath.Clean(b) }
