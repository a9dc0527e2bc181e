package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rustmap/internal/extractor"
	"rustmap/internal/inventory"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "rustmap.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func buildInventory(t *testing.T, files map[string]string) *inventory.Inventory {
	t.Helper()
	inv := inventory.New()
	ext := extractor.New(extractor.Options{})
	for name, src := range files {
		inv.AddResult(ext.Extract(extractor.SourceFile{Name: name, Text: src}))
	}
	inv.ResolveLinks()
	return inv
}

func TestSQLiteStore_SnapshotRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	inv := buildInventory(t, map[string]string{
		"calc.rs": `
/// A simple struct
pub struct Calculator {
    value: i32,
}

impl Calculator {
    pub async fn fetch(&self) -> Result<String, String> {}
}

pub fn free(a: i32) -> i32 {}
`,
		"bad.rs": "fn cut() {\n",
	})

	require.NoError(t, s.SaveSnapshot(ctx, inv))

	loaded, err := s.LoadInventory(ctx)
	require.NoError(t, err)

	t.Run("Entities survive", func(t *testing.T) {
		assert.Equal(t, inv.Stats(), loaded.Stats())
		for id, want := range inv.Entities {
			got, ok := loaded.Entities[id]
			require.True(t, ok, "entity %s missing after load", id)
			assert.Equal(t, want, got)
		}
	})

	t.Run("Links survive", func(t *testing.T) {
		assert.ElementsMatch(t, inv.Links, loaded.Links)
	})

	t.Run("Diagnostics survive", func(t *testing.T) {
		require.Len(t, loaded.Diagnostics, 1)
		assert.Equal(t, "bad.rs", loaded.Diagnostics[0].File)
		assert.Equal(t, extractor.DiagUnbalancedBraces, loaded.Diagnostics[0].Diagnostic.Kind)
	})

	t.Run("Loaded index works", func(t *testing.T) {
		loaded.ResolveLinks()
		assert.Len(t, loaded.Links, 1, "struct index must be rebuilt on load")
	})
}

func TestSQLiteStore_SnapshotReplacesPrevious(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := buildInventory(t, map[string]string{"a.rs": "fn one() {}\nfn two() {}\n"})
	require.NoError(t, s.SaveSnapshot(ctx, first))

	second := buildInventory(t, map[string]string{"b.rs": "fn three() {}\n"})
	require.NoError(t, s.SaveSnapshot(ctx, second))

	loaded, err := s.LoadInventory(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.rs"}, loaded.Files())
	assert.Equal(t, 1, loaded.Stats().Functions)
}

func TestSQLiteStore_EmptySnapshot(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSnapshot(ctx, inventory.New()))
	loaded, err := s.LoadInventory(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded.Entities)
	assert.Empty(t, loaded.Links)
}

func TestSQLiteStore_ScanRuns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	run, err := s.LastScanRun(ctx)
	require.NoError(t, err)
	assert.Nil(t, run, "fresh store has no scan runs")

	started := time.Now().Add(-time.Second).UTC().Truncate(time.Millisecond)
	finished := time.Now().UTC().Truncate(time.Millisecond)
	id, err := s.RecordScanRun(ctx, "/tmp/project", 42, started, finished)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	run, err = s.LastScanRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, id, run.ID)
	assert.Equal(t, "/tmp/project", run.Root)
	assert.Equal(t, 42, run.Files)
	assert.True(t, run.FinishedAt.Equal(finished))
}
