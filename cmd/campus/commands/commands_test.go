package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/campus/internal/config"
	"git.home.luguber.info/inful/campus/internal/errors"
)

// run executes the CLI with args and returns what it printed.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(EnvLogLevel, "error")
	cli := &CLI{}
	var out bytes.Buffer
	global := &Global{Out: &out}
	parser, err := kong.New(cli, kong.Name("campus"), kong.Bind(global), kong.Exit(func(int) {}))
	require.NoError(t, err)
	ctx, err := parser.Parse(args)
	if err != nil {
		return out.String(), err
	}
	err = ctx.Run(global, cli)
	return out.String(), err
}

func newRoot(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "Algebra_101")
	require.NoError(t, os.Mkdir(root, 0o750))
	return root
}

func TestInitMakeIndexHistory(t *testing.T) {
	root := newRoot(t)

	out, err := run(t, "-C", root, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "campus init executed.")

	out, err = run(t, "-C", root, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "already configured")

	require.NoError(t, os.WriteFile(filepath.Join(root, "chapter_1.pdf"), []byte("pdf"), 0o600))
	out, err = run(t, "-C", root, "index", "*.pdf")
	require.NoError(t, err)
	assert.Contains(t, out, "chapter 1 indexed.")

	out, err = run(t, "-C", root, "index", "*.pdf")
	require.NoError(t, err)
	assert.Contains(t, out, "It seems there's nothing new to index.")

	out, err = run(t, "-C", root, "make")
	require.NoError(t, err)
	assert.Contains(t, out, "campus make executed.")
	page, err := os.ReadFile(filepath.Join(root, "html", "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(page), "Algebra 101")
	assert.FileExists(t, filepath.Join(root, "html", "chapter_1.pdf"))
	assert.FileExists(t, filepath.Join(root, "html", "css", "all.css"))

	out, err = run(t, "-C", root, "history", "-n", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "OUTCOME")
	assert.Contains(t, out, "success")
}

func TestMakeRequiresInit(t *testing.T) {
	_, err := run(t, "-C", newRoot(t), "make")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
	assert.Equal(t, 7, errors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestIndexRequiresContentFile(t *testing.T) {
	_, err := run(t, "-C", newRoot(t), "index", "*")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))
}

func TestIndexAllCreates(t *testing.T) {
	root := newRoot(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "week_1"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, "week_1", "notes.txt"), []byte("n"), 0o600))

	out, err := run(t, "-C", root, "indexall", "-f")
	require.NoError(t, err)
	assert.Contains(t, out, "notes indexed.")
	assert.Contains(t, out, "week 1 indexed.")
	assert.FileExists(t, filepath.Join(root, "week_1", "index.md"))
}

func TestPushDryRun(t *testing.T) {
	root := newRoot(t)
	_, err := run(t, "-C", root, "init")
	require.NoError(t, err)

	out, err := run(t, "-C", root, "push", "--dry-run", "-m", "week 2")
	require.NoError(t, err)
	assert.Contains(t, out, "Execute `git commit -a -m \"week 2\"` in "+root)
	assert.Contains(t, out, "campus push executed.")
}

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, config.LoggingConfig{Level: config.LogLevelWarn, Format: config.LogFormatJSON}, false)
	l.Info("hidden")
	l.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	buf.Reset()
	newLogger(&buf, config.LoggingConfig{Level: config.LogLevelWarn}, true).Debug("verbose")
	assert.Contains(t, buf.String(), "verbose")
}
