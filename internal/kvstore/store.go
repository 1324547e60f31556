// Package kvstore wraps the Redis connection used for rate limiting windows.
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const maxUpdateAttempts = 10

// ErrConflict is returned when an optimistic update keeps losing the race for a key.
var ErrConflict = errors.New("kvstore: too many concurrent updates")

type Options struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
}

type Store struct {
	client redis.UniversalClient
}

func New(client redis.UniversalClient) *Store {
	return &Store{client: client}
}

// Connect dials Redis and fails fast when the server does not answer a ping.
func Connect(ctx context.Context, opts Options) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: opts.DialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	slog.Info("redis connected", "addr", opts.Addr, "db", opts.DB)
	return New(client), nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value with ttl; a zero ttl stores the key without expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := s.client.Expire(ctx, key, ttl).Err(); err != nil {
		return fmt.Errorf("expire %s: %w", key, err)
	}
	return nil
}

// WriteMode tells Update how to persist the value returned by an UpdateFunc.
type WriteMode int

const (
	// Skip leaves the key untouched.
	Skip WriteMode = iota
	// Create writes the value with a fresh TTL.
	Create
	// Replace writes the value and keeps whatever TTL the key already has.
	Replace
)

type Mutation struct {
	Mode  WriteMode
	Value []byte
	TTL   time.Duration
}

// UpdateFunc may run more than once per Update call and must not have side effects.
type UpdateFunc func(current []byte, found bool) (Mutation, error)

// Update performs a read-modify-write on key under WATCH so that concurrent
// writers cannot lose each other's increments.
func (s *Store) Update(ctx context.Context, key string, fn UpdateFunc) error {
	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		found := true
		if errors.Is(err, redis.Nil) {
			found = false
		} else if err != nil {
			return err
		}

		mutation, err := fn(current, found)
		if err != nil {
			return err
		}

		switch mutation.Mode {
		case Skip:
			return nil
		case Create:
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, mutation.Value, mutation.TTL)
				return nil
			})
		case Replace:
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, mutation.Value, redis.KeepTTL)
				return nil
			})
		default:
			return fmt.Errorf("unknown write mode %d", mutation.Mode)
		}
		return err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("update %s: %w", key, err)
		}
		return nil
	}

	return ErrConflict
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}
