package bolt_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/fragments/kv"
	"github.com/sagarc03/fragments/kv/bolt"
	"github.com/sagarc03/fragments/kv/kvtest"
)

func openTestStore(t *testing.T, path string) *bolt.Store {
	t.Helper()
	s, err := bolt.Open(path, "fragments", time.Second)
	require.NoError(t, err)
	return s
}

func TestStore_Conformance(t *testing.T) {
	kvtest.Run(t, func(t *testing.T) kv.Store {
		s := openTestStore(t, filepath.Join(t.TempDir(), "kv.db"))
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestOpen_EmptyBucket(t *testing.T) {
	_, err := bolt.Open(filepath.Join(t.TempDir(), "kv.db"), "", time.Second)
	assert.Error(t, err)
}

func TestStore_OrderSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kv.db")

	s := openTestStore(t, path)
	require.NoError(t, s.Put(ctx, "owner", "b", []byte("first")))
	require.NoError(t, s.Put(ctx, "owner", "a", []byte("second")))
	require.NoError(t, s.Close())

	reopened := openTestStore(t, path)
	t.Cleanup(func() { _ = reopened.Close() })
	require.NoError(t, reopened.Put(ctx, "owner", "c", []byte("third")))

	got, err := reopened.Query(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("first"), []byte("second"), []byte("third")}, got)
}

func TestStore_ContextCanceled(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "kv.db"))
	t.Cleanup(func() { _ = s.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Put(ctx, "a", "b", []byte("1")), context.Canceled)
}
