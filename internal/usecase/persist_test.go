package usecase

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semindex/internal/adapter/store"
	"semindex/internal/domain"
	"semindex/internal/port"
)

func assertSameResults(t *testing.T, want, got []domain.Result) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ChunkID, got[i].ChunkID)
		assert.Equal(t, want[i].Text, got[i].Text)
		assert.InDelta(t, want[i].Score, got[i].Score, 1e-9)
	}
}

func TestSparseRoundTrip(t *testing.T) {
	for _, format := range []string{"json", "bolt"} {
		t.Run(format, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "index."+format)
			var st port.SnapshotStore
			if format == "json" {
				st = store.NewJSONFileStore(path)
			} else {
				bolt, err := store.NewBoltStore(path)
				require.NoError(t, err)
				defer bolt.Close()
				st = bolt
			}

			idx := sparseIndex(t, IndexOptions{Store: st})
			addAndBuild(t, idx, corpus)
			require.NoError(t, idx.Persist())

			before, err := idx.Query("x", 1)
			require.NoError(t, err)
			beforeReal, err := idx.Query("red planet mars", 3)
			require.NoError(t, err)

			loaded := sparseIndex(t, IndexOptions{Store: st})
			require.NoError(t, loaded.Load())
			assert.True(t, loaded.Ready())
			assert.Equal(t, idx.Len(), loaded.Len())
			assert.Equal(t, idx.Dimension(), loaded.Dimension())
			assert.Equal(t, idx.Documents(), loaded.Documents())

			after, err := loaded.Query("x", 1)
			require.NoError(t, err)
			assertSameResults(t, before, after)

			afterReal, err := loaded.Query("red planet mars", 3)
			require.NoError(t, err)
			assertSameResults(t, beforeReal, afterReal)
		})
	}
}

func TestDenseRoundTrip(t *testing.T) {
	st := store.NewJSONFileStore(filepath.Join(t.TempDir(), "index.json"))
	model := mockModel()

	idx := NewIndex(IndexOptions{Model: model, Store: st})
	require.Equal(t, domain.DenseModel, idx.Method())
	addAndBuild(t, idx, corpus)
	require.NoError(t, idx.Persist())

	before, err := idx.Query("loyal dogs", 3)
	require.NoError(t, err)

	loaded := NewIndex(IndexOptions{Model: model, Store: st})
	require.NoError(t, loaded.Load())
	assert.Equal(t, domain.DenseModel, loaded.Method())

	after, err := loaded.Query("loyal dogs", 3)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	for i, e := range loaded.Entries() {
		assert.Equal(t, idx.Entries()[i].Vector.Values, e.Vector.Values)
	}
}

func TestLoadDenseSnapshotWithoutModel(t *testing.T) {
	st := store.NewJSONFileStore(filepath.Join(t.TempDir(), "index.json"))
	dense := NewIndex(IndexOptions{Model: mockModel(), Store: st})
	addAndBuild(t, dense, corpus)
	require.NoError(t, dense.Persist())

	idx := NewIndex(IndexOptions{Store: st})
	require.NoError(t, idx.Load())
	assert.Equal(t, domain.SparseFrequency, idx.Method())
	assert.Equal(t, dense.Len(), idx.Len())

	results, err := idx.Query("bread and soup", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Text, "Bread")
}

func TestLoadDenseSnapshotWithSparsePreference(t *testing.T) {
	st := store.NewJSONFileStore(filepath.Join(t.TempDir(), "index.json"))
	model := mockModel()
	dense := NewIndex(IndexOptions{Model: model, Store: st})
	addAndBuild(t, dense, corpus)
	require.NoError(t, dense.Persist())

	idx := NewIndex(IndexOptions{Method: domain.SparseFrequency, Model: model, Store: st})
	require.NoError(t, idx.Load())
	assert.Equal(t, domain.DenseModel, idx.Method(), "the persisted method wins")
}

func TestLoadSparseSnapshotIntoDenseIndex(t *testing.T) {
	st := store.NewJSONFileStore(filepath.Join(t.TempDir(), "index.json"))
	sparse := sparseIndex(t, IndexOptions{Store: st})
	addAndBuild(t, sparse, corpus)
	require.NoError(t, sparse.Persist())

	idx := NewIndex(IndexOptions{Model: mockModel(), Store: st})
	require.Equal(t, domain.DenseModel, idx.Method())
	require.NoError(t, idx.Load())
	assert.Equal(t, domain.SparseFrequency, idx.Method())
	assert.Equal(t, sparse.Dimension(), idx.Dimension())
}

func TestLoadMissingSnapshot(t *testing.T) {
	st := store.NewJSONFileStore(filepath.Join(t.TempDir(), "missing.json"))
	idx := sparseIndex(t, IndexOptions{Store: st})

	require.NoError(t, idx.Load())
	assert.Equal(t, 0, idx.Len())
	_, err := idx.Query("anything", 1)
	assert.ErrorIs(t, err, domain.ErrEmptyIndex)
}

func TestLoadMalformedSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"embeddings": [}`), 0644))

	idx := sparseIndex(t, IndexOptions{Store: store.NewJSONFileStore(path)})
	err := idx.Load()
	assert.ErrorIs(t, err, domain.ErrMalformedSnapshot)
}

func TestLoadDiscardsPending(t *testing.T) {
	st := store.NewJSONFileStore(filepath.Join(t.TempDir(), "index.json"))
	idx := sparseIndex(t, IndexOptions{Store: st})
	addAndBuild(t, idx, map[string]string{"space": space})
	require.NoError(t, idx.Persist())

	_, err := idx.AddDocument("animals", animals, 12, 1, false)
	require.NoError(t, err)
	require.NotZero(t, idx.Pending())

	require.NoError(t, idx.Load())
	assert.Equal(t, 0, idx.Pending())
	assert.Equal(t, []string{"space"}, idx.Documents())

	res, err := idx.AddDocument("space", space, 12, 1, false)
	require.NoError(t, err)
	assert.True(t, res.Skipped, "loaded documents are registered")
}

func TestPersistDisabled(t *testing.T) {
	idx := sparseIndex(t, IndexOptions{})
	assert.ErrorIs(t, idx.Persist(), domain.ErrPersistenceDisabled)
	assert.ErrorIs(t, idx.Load(), domain.ErrPersistenceDisabled)
}

func TestAutoPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	idx := sparseIndex(t, IndexOptions{Store: store.NewJSONFileStore(path), AutoPersist: true})
	addAndBuild(t, idx, corpus)

	snap, err := store.NewJSONFileStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, domain.SparseFrequency, snap.Method)
	assert.Len(t, snap.Entries, idx.Len())
}

func TestClearPersistsEmptyState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	st := store.NewJSONFileStore(path)
	idx := sparseIndex(t, IndexOptions{Store: st})
	addAndBuild(t, idx, corpus)
	require.NoError(t, idx.Persist())

	require.NoError(t, idx.Clear())
	assert.Equal(t, 0, idx.Len())
	assert.Equal(t, 0, idx.Dimension())

	snap, err := st.Load()
	require.NoError(t, err)
	assert.Empty(t, snap.Entries)
	assert.Equal(t, domain.SparseFrequency, snap.Method)
}
