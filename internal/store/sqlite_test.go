package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteBackend(t *testing.T) *SQLiteBackend {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	b, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() }) //nolint:errcheck
	return b
}

func TestSQLite_LoadMissing(t *testing.T) {
	b := newTestSQLiteBackend(t)

	_, err := b.Load(context.Background(), keyEvaluations)
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestSQLite_SaveAndLoad(t *testing.T) {
	b := newTestSQLiteBackend(t)
	ctx := context.Background()

	require.NoError(t, b.Save(ctx, keyConfig, []byte(`{"sample_rate":0.5}`)))

	data, err := b.Load(ctx, keyConfig)
	require.NoError(t, err)
	assert.Equal(t, `{"sample_rate":0.5}`, string(data))
}

func TestSQLite_Overwrite(t *testing.T) {
	b := newTestSQLiteBackend(t)
	ctx := context.Background()

	require.NoError(t, b.Save(ctx, keyEvaluations, []byte(`[1]`)))
	require.NoError(t, b.Save(ctx, keyEvaluations, []byte(`[1,2]`)))

	data, err := b.Load(ctx, keyEvaluations)
	require.NoError(t, err)
	assert.Equal(t, `[1,2]`, string(data))
}

func TestSQLite_KeysAreIndependent(t *testing.T) {
	b := newTestSQLiteBackend(t)
	ctx := context.Background()

	require.NoError(t, b.Save(ctx, keyConfig, []byte(`{}`)))
	require.NoError(t, b.Save(ctx, keyEvaluations, []byte(`[]`)))

	cfg, err := b.Load(ctx, keyConfig)
	require.NoError(t, err)
	evals, err := b.Load(ctx, keyEvaluations)
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(cfg))
	assert.Equal(t, `[]`, string(evals))
}
