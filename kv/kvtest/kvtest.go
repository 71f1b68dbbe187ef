// Package kvtest provides a conformance suite for kv.Store implementations.
package kvtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/fragments/kv"
)

// NewStore constructs a fresh, empty store for a single subtest.
// The returned store must be isolated from stores returned by other calls.
type NewStore func(t *testing.T) kv.Store

// Run exercises the kv.Store contract against the stores produced by newStore.
func Run(t *testing.T, newStore NewStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("PutReturnsNoError", func(t *testing.T) {
		s := newStore(t)
		assert.NoError(t, s.Put(ctx, "a", "b", []byte("{}")))
	})

	t.Run("GetReturnsWhatWasPut", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, "a", "b", []byte(`{"value":123}`)))

		got, ok, err := s.Get(ctx, "a", "b")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []byte(`{"value":123}`), got)
	})

	t.Run("BinaryValuesRoundTrip", func(t *testing.T) {
		s := newStore(t)
		want := []byte{0x00, 0x01, 0x02, 0xff, 0xfe}
		require.NoError(t, s.Put(ctx, "a", "b", want))

		got, ok, err := s.Get(ctx, "a", "b")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, want, got)
	})

	t.Run("EmptyValueRoundTrip", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, "a", "b", []byte{}))

		got, ok, err := s.Get(ctx, "a", "b")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Empty(t, got)
	})

	t.Run("GetWrongSecondaryKeyIsAbsent", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, "a", "b", []byte("123")))

		got, ok, err := s.Get(ctx, "a", "c")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, got)
	})

	t.Run("GetUnknownPrimaryKeyIsAbsent", func(t *testing.T) {
		s := newStore(t)

		got, ok, err := s.Get(ctx, "nobody", "b")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, got)
	})

	t.Run("PutOverwrites", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, "a", "b", []byte("first")))
		require.NoError(t, s.Put(ctx, "a", "b", []byte("second")))

		got, ok, err := s.Get(ctx, "a", "b")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []byte("second"), got)
	})

	t.Run("QueryReturnsValuesInInsertionOrder", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, "a", "c", []byte("1")))
		require.NoError(t, s.Put(ctx, "a", "a", []byte("2")))
		require.NoError(t, s.Put(ctx, "a", "b", []byte("3")))
		require.NoError(t, s.Put(ctx, "other", "a", []byte("x")))

		got, err := s.Query(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, [][]byte{[]byte("1"), []byte("2"), []byte("3")}, got)
	})

	t.Run("QueryKeepsPositionOnOverwrite", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, "a", "x", []byte("1")))
		require.NoError(t, s.Put(ctx, "a", "y", []byte("2")))
		require.NoError(t, s.Put(ctx, "a", "x", []byte("1b")))

		got, err := s.Query(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, [][]byte{[]byte("1b"), []byte("2")}, got)
	})

	t.Run("QueryUnusedPrimaryKeyIsEmpty", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, "b", "a", []byte("1")))

		got, err := s.Query(ctx, "a")
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("DelRemovesValue", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, "a", "a", []byte("1")))
		require.NoError(t, s.Del(ctx, "a", "a"))

		_, ok, err := s.Get(ctx, "a", "a")
		require.NoError(t, err)
		assert.False(t, ok)

		got, err := s.Query(ctx, "a")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("DelMissingIsNotFound", func(t *testing.T) {
		s := newStore(t)
		assert.ErrorIs(t, s.Del(ctx, "a", "a"), kv.ErrNotFound)

		require.NoError(t, s.Put(ctx, "a", "a", []byte("1")))
		require.NoError(t, s.Del(ctx, "a", "a"))
		assert.ErrorIs(t, s.Del(ctx, "a", "a"), kv.ErrNotFound)
	})

	t.Run("PutAfterDelAppendsToQuery", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, "a", "x", []byte("1")))
		require.NoError(t, s.Put(ctx, "a", "y", []byte("2")))
		require.NoError(t, s.Del(ctx, "a", "x"))
		require.NoError(t, s.Put(ctx, "a", "x", []byte("3")))

		got, err := s.Query(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, [][]byte{[]byte("2"), []byte("3")}, got)
	})

	t.Run("EmptyKeysAreRejected", func(t *testing.T) {
		s := newStore(t)

		assert.ErrorIs(t, s.Put(ctx, "", "b", []byte("1")), kv.ErrInvalidKey)
		assert.ErrorIs(t, s.Put(ctx, "a", "", []byte("1")), kv.ErrInvalidKey)

		_, _, err := s.Get(ctx, "", "b")
		assert.ErrorIs(t, err, kv.ErrInvalidKey)
		_, _, err = s.Get(ctx, "a", "")
		assert.ErrorIs(t, err, kv.ErrInvalidKey)

		_, err = s.Query(ctx, "")
		assert.ErrorIs(t, err, kv.ErrInvalidKey)

		assert.ErrorIs(t, s.Del(ctx, "", "b"), kv.ErrInvalidKey)
		assert.ErrorIs(t, s.Del(ctx, "a", ""), kv.ErrInvalidKey)
	})

	t.Run("LongKeysRoundTrip", func(t *testing.T) {
		s := newStore(t)
		long := strings.Repeat("k", 1024)
		longer := long + "x"

		require.NoError(t, s.Put(ctx, long, long, []byte("1")))
		require.NoError(t, s.Put(ctx, long, longer, []byte("2")))

		got, ok, err := s.Get(ctx, long, long)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []byte("1"), got)

		values, err := s.Query(ctx, long)
		require.NoError(t, err)
		assert.Equal(t, [][]byte{[]byte("1"), []byte("2")}, values)

		require.NoError(t, s.Del(ctx, long, longer))
		_, ok, err = s.Get(ctx, long, longer)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("KeysWithSeparatorsStayDistinct", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, "a", "b-c", []byte("1")))
		require.NoError(t, s.Put(ctx, "a-b", "c", []byte("2")))

		got, ok, err := s.Get(ctx, "a", "b-c")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []byte("1"), got)

		got, ok, err = s.Get(ctx, "a-b", "c")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []byte("2"), got)
	})

	t.Run("ConcurrentPutsOnDistinctKeys", func(t *testing.T) {
		s := newStore(t)
		const n = 16

		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := range n {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs <- s.Put(ctx, "owner", fmt.Sprintf("item-%02d", i), []byte(fmt.Sprintf("v%d", i)))
			}(i)
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			require.NoError(t, err)
		}

		got, err := s.Query(ctx, "owner")
		require.NoError(t, err)
		assert.Len(t, got, n)
	})

	t.Run("ConcurrentPutsOnSameKeyLastWriterWins", func(t *testing.T) {
		s := newStore(t)
		const n = 8
		values := make(map[string]bool, n)

		var wg sync.WaitGroup
		for i := range n {
			v := fmt.Sprintf("value-%d", i)
			values[v] = true
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, s.Put(ctx, "a", "b", []byte(v)))
			}()
		}
		wg.Wait()

		got, ok, err := s.Get(ctx, "a", "b")
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, values[string(got)], "value %q is not one that was written", got)

		all, err := s.Query(ctx, "a")
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})
}
