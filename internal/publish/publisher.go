package publish

import (
	"context"

	"git.home.luguber.info/inful/campus/internal/git"
)

// Publisher sends a generated output tree somewhere.
type Publisher interface {
	Publish(ctx context.Context, dir, message string) (Outcome, error)
}

// Outcome summarizes one publication.
type Outcome struct {
	Committed bool // git: a new commit was recorded
	Uploaded  int  // s3: objects written
	Removed   int  // s3: stale objects deleted
}

// GitPublisher commits every change of the output tree, untracked files
// included, and pushes it.
type GitPublisher struct {
	client *git.Client
	remote string
}

// NewGitPublisher returns a publisher pushing to remote.
func NewGitPublisher(client *git.Client, remote string) *GitPublisher {
	if remote == "" {
		remote = "origin"
	}
	return &GitPublisher{client: client, remote: remote}
}

func (p *GitPublisher) Publish(ctx context.Context, dir, message string) (Outcome, error) {
	committed, err := p.client.CommitAll(dir, message, true)
	if err != nil {
		return Outcome{}, err
	}
	if err := p.client.Push(ctx, dir, p.remote); err != nil {
		return Outcome{Committed: committed}, err
	}
	return Outcome{Committed: committed}, nil
}
