package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordComputesChangedPages(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	t0 := time.UnixMilli(1_700_000_000_000)

	first, err := s.Record(ctx, Build{ID: "b1", Start: t0, End: t0.Add(time.Second), Outcome: "success", Pages: 2},
		[]Page{{Dir: ".", Title: "Home", Fingerprint: "aa"}, {Dir: "chapter1", Title: "One", Fingerprint: "bb"}})
	require.NoError(t, err)
	assert.Equal(t, 2, first.ChangedPages)

	second, err := s.Record(ctx, Build{ID: "b2", Start: t0.Add(time.Minute), End: t0.Add(time.Minute + time.Second), Outcome: "warning", Pages: 2},
		[]Page{{Dir: ".", Title: "Home", Fingerprint: "aa"}, {Dir: "chapter2", Title: "Two", Fingerprint: "cc"}})
	require.NoError(t, err)
	// chapter1 removed, chapter2 added.
	assert.Equal(t, 2, second.ChangedPages)

	builds, err := s.Recent(ctx, 5)
	require.NoError(t, err)
	require.Len(t, builds, 2)
	assert.Equal(t, "b2", builds[0].ID)
	assert.Equal(t, "warning", builds[0].Outcome)
	assert.Equal(t, time.Second, builds[1].Duration())

	pages, err := s.Pages(ctx, "b2")
	require.NoError(t, err)
	assert.Equal(t, []Page{{Dir: ".", Title: "Home", Fingerprint: "aa"}, {Dir: "chapter2", Title: "Two", Fingerprint: "cc"}}, pages)
}

func TestRecentLimit(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	base := time.UnixMilli(1_700_000_000_000)
	for i, id := range []string{"a", "b", "c"} {
		start := base.Add(time.Duration(i) * time.Minute)
		_, err := s.Record(ctx, Build{ID: id, Start: start, End: start, Outcome: "success"}, nil)
		require.NoError(t, err)
	}

	builds, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, builds, 2)
	assert.Equal(t, "c", builds[0].ID)
	assert.Equal(t, "b", builds[1].ID)
}

func TestOpenFileDatabaseReopens(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "history.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	_, err = s.Record(ctx, Build{ID: "x", Start: time.Now(), End: time.Now(), Outcome: "success"}, []Page{{Dir: ".", Fingerprint: "f"}})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	builds, err := s.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, builds, 1)
	assert.Equal(t, "x", builds[0].ID)
}

func TestChanged(t *testing.T) {
	prev := map[string]string{"a": "1", "b": "2"}
	assert.Equal(t, 0, Changed(prev, []Page{{Dir: "a", Fingerprint: "1"}, {Dir: "b", Fingerprint: "2"}}))
	assert.Equal(t, 1, Changed(prev, []Page{{Dir: "a", Fingerprint: "9"}, {Dir: "b", Fingerprint: "2"}}))
	assert.Equal(t, 3, Changed(nil, []Page{{Dir: "a"}, {Dir: "b"}, {Dir: "c"}}))
}
