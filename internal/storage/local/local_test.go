package local

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "state", "nullupload.json"), newNoopLogger())
	require.NoError(t, err)
	return s
}

func TestStore_GetMissing(t *testing.T) {
	s := newTestStore(t)

	v, ok, err := s.Get(context.Background(), "nullupload_usage")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, v)
}

func TestStore_SetAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Set(ctx, "a", []byte(`{"x":1}`)))
	require.NoError(t, s.Set(ctx, "b", []byte(`"y"`)))

	v, ok, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"x":1}`, string(v))

	reopened, err := New(s.Path(), newNoopLogger())
	require.NoError(t, err)
	v, ok, err = reopened.Get(ctx, "b")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `"y"`, string(v))
}

func TestStore_UpdateSerializedAcrossStores(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nullupload.json")
	s1, err := New(path, newNoopLogger())
	require.NoError(t, err)
	s2, err := New(path, newNoopLogger())
	require.NoError(t, err)

	increment := func(old []byte, _ bool) ([]byte, error) {
		n, _ := strconv.Atoi(string(old))
		return []byte(strconv.Itoa(n + 1)), nil
	}

	const perStore = 25
	var wg sync.WaitGroup
	for _, s := range []*Store{s1, s2} {
		wg.Add(1)
		go func(s *Store) {
			defer wg.Done()
			for iter := 0; iter < perStore; iter++ {
				assert.NoError(t, s.Update(ctx, "counter", increment))
			}
		}(s)
	}
	wg.Wait()

	v, ok, err := s1.Get(ctx, "counter")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, strconv.Itoa(2*perStore), string(v))
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Delete(ctx, "missing"))
	_, err := os.Stat(s.Path())
	assert.True(t, os.IsNotExist(err), "deleting a missing key must not create the file")

	require.NoError(t, s.Set(ctx, "a", []byte("1")))
	require.NoError(t, s.Set(ctx, "b", []byte("2")))
	require.NoError(t, s.Delete(ctx, "a"))

	_, ok, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
	v, ok, err := s.Get(ctx, "b")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2", string(v))
}

func TestStore_CorruptFileStartsEmpty(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte("{not json"), 0o644))

	_, ok, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "a", []byte("1")))
	v, ok, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", string(v))
}

func TestStore_WatchSeesOtherWriter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := newTestStore(t)
	require.NoError(t, s.Set(ctx, "k", []byte("1")))

	ch, err := s.Watch(ctx, "k")
	require.NoError(t, err)

	other, err := New(s.Path(), newNoopLogger())
	require.NoError(t, err)
	require.NoError(t, other.Set(context.Background(), "k", []byte("2")))

	select {
	case <-ch:
	case <-time.After(3 * time.Second):
		t.Fatal("expected change notification")
	}
}
