package ratelimit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"user-management-api/internal/kvstore"
)

type updater interface {
	Update(ctx context.Context, key string, fn kvstore.UpdateFunc) error
}

// Counter applies the window transitions for every hit. The read-modify-write
// runs inside a single optimistic store transaction.
type Counter struct {
	store updater
	ttl   time.Duration
	now   func() time.Time
}

func NewCounter(store updater, ttl time.Duration) *Counter {
	return &Counter{store: store, ttl: ttl, now: time.Now}
}

// WithClock replaces the time source; tests use it to step across windows.
func (c *Counter) WithClock(now func() time.Time) *Counter {
	c.now = now
	return c
}

// Hit records one request for (ip, action). A first hit creates the window,
// an elapsed window is reset to a count of one, a full window is refused and
// anything else increments the count. last_action only moves on create and
// reset, so the window stays anchored to its first request.
func (c *Counter) Hit(ctx context.Context, ip string, action string, userID *int64, rule Rule) (Decision, error) {
	now := c.now()
	key := Key(ip, action)

	var decision Decision
	err := c.store.Update(ctx, key, func(current []byte, found bool) (kvstore.Mutation, error) {
		var window Window
		if found {
			if err := json.Unmarshal(current, &window); err != nil {
				found = false
			}
		}

		if !found {
			window = Window{
				ID:         key,
				IP:         ip,
				UserID:     userID,
				Action:     action,
				LastAction: now,
				Count:      1,
			}
			decision = Decision{Allowed: true, Window: window}
			return encode(window, kvstore.Create, c.ttl)
		}

		if userID != nil {
			window.UserID = userID
		}

		switch {
		case window.expired(now, rule.TimeFrame):
			window.Count = 1
			window.LastAction = now
		case window.Count >= rule.Limit:
			decision = Decision{
				Allowed:    false,
				Window:     window,
				RetryAfter: rule.TimeFrame - now.Sub(window.LastAction),
			}
			return kvstore.Mutation{Mode: kvstore.Skip}, nil
		default:
			window.Count++
		}

		decision = Decision{Allowed: true, Window: window}
		return encode(window, kvstore.Replace, 0)
	})
	if err != nil {
		return Decision{}, fmt.Errorf("rate window %s: %w", key, err)
	}

	return decision, nil
}

func encode(window Window, mode kvstore.WriteMode, ttl time.Duration) (kvstore.Mutation, error) {
	data, err := json.Marshal(window)
	if err != nil {
		return kvstore.Mutation{}, err
	}
	return kvstore.Mutation{Mode: mode, Value: data, TTL: ttl}, nil
}
