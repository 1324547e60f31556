package kvstore

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return New(client), mr
}

func TestStoreGetSetExpire(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	_, found, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, store.Set(ctx, "k", []byte("v"), 0))
	value, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "v", string(value))

	require.NoError(t, store.Expire(ctx, "k", time.Minute))
	require.Equal(t, time.Minute, mr.TTL("k"))

	mr.FastForward(2 * time.Minute)
	_, found, err = store.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, found)
}

func TestStoreUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("create sets ttl", func(t *testing.T) {
		store, mr := newTestStore(t)

		err := store.Update(ctx, "w", func(current []byte, found bool) (Mutation, error) {
			require.False(t, found)
			return Mutation{Mode: Create, Value: []byte("1"), TTL: time.Hour}, nil
		})
		require.NoError(t, err)
		require.Equal(t, time.Hour, mr.TTL("w"))
	})

	t.Run("replace keeps ttl", func(t *testing.T) {
		store, mr := newTestStore(t)
		require.NoError(t, store.Set(ctx, "w", []byte("1"), time.Hour))
		mr.FastForward(10 * time.Minute)

		err := store.Update(ctx, "w", func(current []byte, found bool) (Mutation, error) {
			require.True(t, found)
			require.Equal(t, "1", string(current))
			return Mutation{Mode: Replace, Value: []byte("2")}, nil
		})
		require.NoError(t, err)

		got, err := mr.Get("w")
		require.NoError(t, err)
		require.Equal(t, "2", got)
		require.Equal(t, 50*time.Minute, mr.TTL("w"))
	})

	t.Run("skip leaves value untouched", func(t *testing.T) {
		store, mr := newTestStore(t)
		require.NoError(t, store.Set(ctx, "w", []byte("5"), 0))

		err := store.Update(ctx, "w", func([]byte, bool) (Mutation, error) {
			return Mutation{Mode: Skip}, nil
		})
		require.NoError(t, err)

		got, err := mr.Get("w")
		require.NoError(t, err)
		require.Equal(t, "5", got)
	})

	t.Run("callback errors propagate", func(t *testing.T) {
		store, _ := newTestStore(t)
		boom := errors.New("boom")

		err := store.Update(ctx, "w", func([]byte, bool) (Mutation, error) {
			return Mutation{}, boom
		})
		require.ErrorIs(t, err, boom)
	})

	t.Run("concurrent increments are not lost", func(t *testing.T) {
		store, mr := newTestStore(t)
		increment := func(current []byte, found bool) (Mutation, error) {
			if !found {
				return Mutation{Mode: Create, Value: []byte("1"), TTL: time.Hour}, nil
			}
			n, err := strconv.Atoi(string(current))
			if err != nil {
				return Mutation{}, err
			}
			return Mutation{Mode: Replace, Value: []byte(strconv.Itoa(n + 1))}, nil
		}

		const workers = 5
		var wg sync.WaitGroup
		errs := make(chan error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- store.Update(ctx, "counter", increment)
			}()
		}
		wg.Wait()
		close(errs)

		succeeded := 0
		for err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			require.ErrorIs(t, err, ErrConflict)
		}

		got, err := mr.Get("counter")
		require.NoError(t, err)
		require.Equal(t, strconv.Itoa(succeeded), got)
	})
}

func TestStorePingClose(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Ping(context.Background()))
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	store, err := Connect(context.Background(), Options{Addr: mr.Addr(), DialTimeout: time.Second})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	mr.Close()
	_, err = Connect(context.Background(), Options{Addr: mr.Addr(), DialTimeout: 200 * time.Millisecond})
	require.Error(t, err)
}
