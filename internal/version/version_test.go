package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringWithoutCommit(t *testing.T) {
	assert.Contains(t, String(), "campus ")
	assert.NotContains(t, String(), "commit")
}

func TestStringWithBuildMetadata(t *testing.T) {
	oldV, oldC, oldT := Version, GitCommit, BuildTime
	t.Cleanup(func() { Version, GitCommit, BuildTime = oldV, oldC, oldT })
	Version, GitCommit, BuildTime = "v1.2.0", "abc123", "2026-01-02"

	assert.Equal(t, "campus v1.2.0 (commit abc123, built 2026-01-02)", String())
}
