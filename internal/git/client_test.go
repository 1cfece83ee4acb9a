package git

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	ggitcfg "github.com/go-git/go-git/v5/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/campus/internal/errors"
	"git.home.luguber.info/inful/campus/internal/retry"
)

func newTestClient() *Client {
	return NewClient(nil).WithAuth(nil).WithAuthor("tester", "t@example.com")
}

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
}

func headMessage(t *testing.T, dir string) string {
	t.Helper()
	repo, err := git.PlainOpen(dir)
	require.NoError(t, err)
	ref, err := repo.Head()
	require.NoError(t, err)
	commit, err := repo.CommitObject(ref.Hash())
	require.NoError(t, err)
	return commit.Message
}

func TestInitIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	c := newTestClient()

	created, err := c.Init(dir)
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, IsRepo(dir))

	created, err = c.Init(dir)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestCommitAllTrackedOnly(t *testing.T) {
	dir := t.TempDir()
	c := newTestClient()
	_, err := c.Init(dir)
	require.NoError(t, err)
	writeFile(t, dir, "index.md", "# Course\n")

	// Untracked files are not picked up by commit -a.
	committed, err := c.CommitAll(dir, "first", false)
	require.NoError(t, err)
	assert.False(t, committed)

	committed, err = c.CommitAll(dir, "first", true)
	require.NoError(t, err)
	assert.True(t, committed)
	assert.Equal(t, "first", headMessage(t, dir))

	writeFile(t, dir, "index.md", "# Course v2\n")
	committed, err = c.CommitAll(dir, "second", false)
	require.NoError(t, err)
	assert.True(t, committed)
	assert.Equal(t, "second", headMessage(t, dir))

	committed, err = c.CommitAll(dir, "nothing", true)
	require.NoError(t, err)
	assert.False(t, committed)
}

func TestCommitAllRequiresRepository(t *testing.T) {
	_, err := newTestClient().CommitAll(t.TempDir(), "msg", true)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryGit))
}

func TestPushToBareRemote(t *testing.T) {
	bare := filepath.Join(t.TempDir(), "remote.git")
	_, err := git.PlainInit(bare, true)
	require.NoError(t, err)

	work := t.TempDir()
	c := newTestClient()
	_, err = c.Init(work)
	require.NoError(t, err)
	repo, err := git.PlainOpen(work)
	require.NoError(t, err)
	_, err = repo.CreateRemote(&ggitcfg.RemoteConfig{Name: "origin", URLs: []string{bare}})
	require.NoError(t, err)

	writeFile(t, work, "index.html", "<html></html>")
	_, err = c.CommitAll(work, "publish", true)
	require.NoError(t, err)
	require.NoError(t, c.Push(context.Background(), work, "origin"))

	workHead, err := repo.Head()
	require.NoError(t, err)
	remoteRepo, err := git.PlainOpen(bare)
	require.NoError(t, err)
	remoteRef, err := remoteRepo.Reference(workHead.Name(), true)
	require.NoError(t, err)
	assert.Equal(t, workHead.Hash(), remoteRef.Hash())

	// Pushing again with nothing new is not an error.
	require.NoError(t, c.Push(context.Background(), work, "origin"))
}

func TestPushMissingRemote(t *testing.T) {
	work := t.TempDir()
	c := newTestClient()
	_, err := c.Init(work)
	require.NoError(t, err)
	writeFile(t, work, "a.txt", "a")
	_, err = c.CommitAll(work, "a", true)
	require.NoError(t, err)

	err = c.Push(context.Background(), work, "origin")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryGit))
}

func TestDryRunPrintsCommands(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	c := NewClient(&out).WithDryRun(true)

	created, err := c.Init(dir)
	require.NoError(t, err)
	assert.True(t, created)
	_, err = c.CommitAll(dir, "msg", true)
	require.NoError(t, err)
	require.NoError(t, c.Push(context.Background(), dir, "origin"))

	assert.False(t, IsRepo(dir))
	got := out.String()
	assert.Contains(t, got, "Execute `git init` in "+dir)
	assert.Contains(t, got, "Execute `git add --all` in "+dir)
	assert.Contains(t, got, "Execute `git commit -a -m \"msg\"` in "+dir)
	assert.Contains(t, got, "Execute `git push origin` in "+dir)
}

func TestClassifyPushError(t *testing.T) {
	var authErr *AuthError
	assert.ErrorAs(t, classifyPushError("origin", assertErr("authentication required")), &authErr)
	var rejected *RemoteRejectedError
	assert.ErrorAs(t, classifyPushError("origin", assertErr("non-fast-forward update: refs/heads/master")), &rejected)
	assert.NoError(t, classifyPushError("origin", nil))
}

type assertErr string

func (e assertErr) Error() string { return string(e) }

func TestRetryablePush(t *testing.T) {
	assert.True(t, retryablePush(assertErr("connection reset by peer")))
	assert.False(t, retryablePush(assertErr("authentication required")))
	assert.False(t, retryablePush(assertErr("non-fast-forward update")))
	assert.False(t, retryablePush(git.ErrRemoteNotFound))
	assert.False(t, retryablePush(context.Canceled))
}

func TestPushMissingRemoteIsNotRetried(t *testing.T) {
	work := t.TempDir()
	c := newTestClient().WithRetry(retry.NewPolicy(retry.ModeFixed, time.Hour, time.Hour, 3))
	_, err := c.Init(work)
	require.NoError(t, err)
	writeFile(t, work, "a.txt", "a")
	_, err = c.CommitAll(work, "a", true)
	require.NoError(t, err)

	// An hour-long backoff would stall the test if the missing remote were retried.
	err = c.Push(context.Background(), work, "origin")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryGit))
}
