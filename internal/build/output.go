package build

import (
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/campus/internal/config"
	"git.home.luguber.info/inful/campus/internal/errors"
)

// parkedGitDir is where the output repository is kept while the output is emptied.
const parkedGitDir = "tmp_output_git"

// EnsureInitialized fails unless cfg.Root has been set up by `campus init`.
func EnsureInitialized(cfg *config.Config) error {
	st, err := os.Stat(cfg.ConfigPath())
	if err == nil && st.IsDir() {
		return nil
	}
	return errors.ConfigError("campus root is not initialized; run `campus init` here or change to the root directory").
		WithContext("path", cfg.ConfigPath()).
		Build()
}

// PrepareOutput empties the output directory while keeping its .git directory.
func PrepareOutput(cfg *config.Config) error {
	if err := cfg.CheckOutputDir(); err != nil {
		return err
	}
	out := cfg.OutputDir()
	gitDir := filepath.Join(out, ".git")
	parked := filepath.Join(cfg.ConfigPath(), parkedGitDir)

	hasGit := false
	if st, err := os.Stat(gitDir); err == nil && st.IsDir() {
		if err := os.RemoveAll(parked); err != nil {
			return fsError(err, "clear parked output repository", parked)
		}
		if err := os.Rename(gitDir, parked); err != nil {
			return fsError(err, "park output repository", gitDir)
		}
		hasGit = true
	}
	if err := os.RemoveAll(out); err != nil {
		return fsError(err, "clean output directory", out)
	}
	if err := os.MkdirAll(out, 0o750); err != nil {
		return fsError(err, "create output directory", out)
	}
	if hasGit {
		if err := os.Rename(parked, gitDir); err != nil {
			return fsError(err, "restore output repository", gitDir)
		}
	}
	return nil
}

func fsError(err error, msg, path string) error {
	return errors.WrapError(err, errors.CategoryFileSystem, msg).WithContext("path", path).Build()
}
