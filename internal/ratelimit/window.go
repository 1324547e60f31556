// Package ratelimit keeps fixed-window request counters in the key-value store.
package ratelimit

import (
	"time"
)

// Window is the persisted state of one (ip, action) counter.
type Window struct {
	ID         string    `json:"id"`
	IP         string    `json:"ip"`
	UserID     *int64    `json:"user_id"`
	Action     string    `json:"action"`
	LastAction time.Time `json:"last_action"`
	Count      int       `json:"count"`
}

type Rule struct {
	Limit     int
	TimeFrame time.Duration
}

type Decision struct {
	Allowed    bool
	Window     Window
	RetryAfter time.Duration
}

func Key(ip string, action string) string {
	return "ip:" + ip + ":action:" + action
}

// expired reports whether the window's time frame has fully elapsed at now.
func (w Window) expired(now time.Time, frame time.Duration) bool {
	return now.Sub(w.LastAction) >= frame
}
