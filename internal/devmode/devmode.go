// Package devmode holds the developer-mode switch. When it is on, every site
// component serves mock data from the local store instead of calling the
// real backend.
package devmode

import (
	"context"
	"fmt"
	"sync"

	"github.com/heartofacheron/site/internal/logging"
	"github.com/heartofacheron/site/internal/store"
)

// Flag is the persisted developer-mode switch. Changes are pushed to
// subscribers as they happen, so nothing has to be restarted to pick them up.
type Flag struct {
	store store.Store
	log   logging.Logger

	// writeMu orders Set calls so the store and the cache end up agreeing.
	writeMu sync.Mutex

	mu      sync.RWMutex
	enabled bool
	subs    map[int]func(bool)
	nextSub int
}

// Load reads the persisted value (default off). Build the flag before any
// component that branches on it.
func Load(ctx context.Context, s store.Store, log logging.Logger) (*Flag, error) {
	v, err := store.GetString(ctx, s, store.KeyDevModeEnabled)
	if err != nil {
		return nil, fmt.Errorf("read dev mode flag: %w", err)
	}
	f := &Flag{store: s, log: log, enabled: v == "true", subs: make(map[int]func(bool))}
	if f.enabled {
		log.Info(ctx, "developer mode enabled; mock data will be used for all features")
	}
	return f, nil
}

// Enabled is the cached value.
func (f *Flag) Enabled() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.enabled
}

// IsEnabled also consults the store, so a value written by another process
// sharing the store is honored.
func (f *Flag) IsEnabled(ctx context.Context) bool {
	if f.Enabled() {
		return true
	}
	v, err := store.GetString(ctx, f.store, store.KeyDevModeEnabled)
	if err != nil {
		f.log.Warn(ctx, "read dev mode flag", "err", err)
		return false
	}
	return v == "true"
}

// Set persists v and notifies subscribers if the value changed.
func (f *Flag) Set(ctx context.Context, v bool) error {
	raw := "false"
	if v {
		raw = "true"
	}

	f.writeMu.Lock()
	if err := f.store.Set(ctx, store.KeyDevModeEnabled, []byte(raw)); err != nil {
		f.writeMu.Unlock()
		return fmt.Errorf("persist dev mode flag: %w", err)
	}
	f.mu.Lock()
	changed := f.enabled != v
	f.enabled = v
	subs := make([]func(bool), 0, len(f.subs))
	for _, fn := range f.subs {
		subs = append(subs, fn)
	}
	f.mu.Unlock()
	f.writeMu.Unlock()

	if !changed {
		return nil
	}
	if v {
		f.log.Info(ctx, "developer mode enabled")
	} else {
		f.log.Info(ctx, "developer mode disabled")
	}
	for _, fn := range subs {
		fn(v)
	}
	return nil
}

// Toggle flips the flag.
func (f *Flag) Toggle(ctx context.Context) error {
	return f.Set(ctx, !f.Enabled())
}

// Subscribe registers fn to run after every change. The returned func
// removes the subscription.
func (f *Flag) Subscribe(fn func(enabled bool)) (cancel func()) {
	f.mu.Lock()
	id := f.nextSub
	f.nextSub++
	f.subs[id] = fn
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	}
}
