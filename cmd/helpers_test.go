package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/radar/internal/ingest"
	"github.com/sells-group/radar/internal/store"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "radar.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

// seedKeyword classifies and stores keyword.
func seedKeyword(t *testing.T, st store.KeywordStore, keyword, bucket string, volume int) {
	t.Helper()
	k := ingest.Classify(keyword, bucket, volume)
	inserted, err := st.Insert(context.Background(), &k)
	require.NoError(t, err)
	require.True(t, inserted)
}
