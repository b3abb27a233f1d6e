package journal

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournal_RecordSummary(t *testing.T) {
	ctx := context.Background()
	j, err := Open(ctx, filepath.Join(t.TempDir(), "journal.sqlite"))
	require.NoError(t, err)
	defer j.Close()

	empty, err := j.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, Summary{}, empty)

	require.NoError(t, j.Record(ctx, Entry{Path: "/a/x.png", InputSize: 100, OutputSize: 40, Digest: "aa", Count: 1}))
	require.NoError(t, j.Record(ctx, Entry{Path: "/a/y.png", InputSize: 50, OutputSize: 30, Digest: "bb", Count: 2}))
	require.NoError(t, j.Record(ctx, Entry{Path: "/a/x.png", InputSize: 40, OutputSize: 39, Digest: "cc", Count: 3}))

	s, err := j.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Files)
	assert.EqualValues(t, 190, s.InputBytes)
	assert.EqualValues(t, 109, s.OutputBytes)
	assert.EqualValues(t, 81, s.Saved())

	entries, err := j.Entries(ctx, "/a/x.png")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "cc", entries[0].Digest)
	assert.Equal(t, "aa", entries[1].Digest)
	assert.False(t, entries[0].CreatedAt.IsZero())
}

func TestJournal_ConcurrentRecord(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.sqlite")
	j, err := Open(ctx, path)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, j.Record(ctx, Entry{Path: "/p.png", InputSize: 2, OutputSize: 1, Digest: "d"}))
		}()
	}
	wg.Wait()
	require.NoError(t, j.Close())

	reopened, err := Open(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()
	s, err := reopened.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 16, s.Files)
}

func TestEnsurePragmas(t *testing.T) {
	assert.Equal(t, "file:a.db?_pragma=journal_mode(WAL)&_pragma=busy_timeout(10)", ensurePragmas("file:a.db", 10))
	assert.Equal(t, "file:a.db?_pragma=busy_timeout(1)&_pragma=journal_mode(WAL)", ensurePragmas("file:a.db?_pragma=busy_timeout(1)", 10))
}

func TestJournal_PathWithQueryCharacters(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "shots?v=1#draft")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, "journal.sqlite")

	j, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, j.Record(ctx, Entry{Path: "/a.png", InputSize: 2, OutputSize: 1, Digest: "d"}))
	require.NoError(t, j.Close())

	_, err = os.Stat(path)
	require.NoError(t, err)
	reopened, err := Open(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()
	s, err := reopened.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Files)
}

func TestFileDSN(t *testing.T) {
	assert.Equal(t, "file:/tmp/a%3Fb%23c%25/j.db", fileDSN("/tmp/a?b#c%/j.db"))
	assert.Equal(t, "file:journal.sqlite", fileDSN("journal.sqlite"))
}
