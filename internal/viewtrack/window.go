// Package viewtrack suppresses repeated post views from the same client
// inside a short time window.
package viewtrack

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/00xu00/blog/internal/observability"
)

// Key identifies one client looking at one post.
func Key(clientAddr string, postID uint) string {
	return fmt.Sprintf("%s|%d", clientAddr, postID)
}

type entry struct {
	key  string
	seen time.Time
}

// Window remembers when each key last produced a counted view. It holds
// at most maxEntries keys; on overflow the oldest observation is evicted.
type Window struct {
	mu         sync.Mutex
	window     time.Duration
	maxEntries int
	now        func() time.Time

	// order is sorted by seen, oldest at the front, because every counted
	// view moves its key to the back with the current time.
	order *list.List
	byKey map[string]*list.Element
}

// New builds a Window. A nil clock means time.Now.
func New(window time.Duration, maxEntries int, clock func() time.Time) *Window {
	if clock == nil {
		clock = time.Now
	}
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &Window{
		window:     window,
		maxEntries: maxEntries,
		now:        clock,
		order:      list.New(),
		byKey:      make(map[string]*list.Element),
	}
}

// Observe reports whether a view for key should be counted. A counted view
// records the current time; a suppressed one leaves the window untouched.
func (w *Window) Observe(key string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	if el, ok := w.byKey[key]; ok {
		e := el.Value.(*entry)
		if now.Sub(e.seen) < w.window {
			observability.PostViews.WithLabelValues("suppressed").Inc()
			return false
		}
		e.seen = now
		w.order.MoveToBack(el)
		observability.PostViews.WithLabelValues("counted").Inc()
		return true
	}

	for w.order.Len() >= w.maxEntries {
		w.removeFront()
		observability.ViewDedupEvictions.WithLabelValues("capacity").Inc()
	}
	w.byKey[key] = w.order.PushBack(&entry{key: key, seen: now})
	observability.ViewDedupEntries.Set(float64(w.order.Len()))
	observability.PostViews.WithLabelValues("counted").Inc()
	return true
}

// Sweep drops every entry whose window has passed and returns how many
// were removed.
func (w *Window) Sweep() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	removed := 0
	for el := w.order.Front(); el != nil; el = w.order.Front() {
		if now.Sub(el.Value.(*entry).seen) < w.window {
			break
		}
		w.removeFront()
		removed++
	}
	if removed > 0 {
		observability.ViewDedupEvictions.WithLabelValues("expired").Add(float64(removed))
	}
	observability.ViewDedupEntries.Set(float64(w.order.Len()))
	return removed
}

// Forget drops key so the next view of it is counted again. Callers use it
// when a counted view could not be persisted.
func (w *Window) Forget(key string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if el, ok := w.byKey[key]; ok {
		w.order.Remove(el)
		delete(w.byKey, key)
		observability.ViewDedupEntries.Set(float64(w.order.Len()))
	}
}

func (w *Window) removeFront() {
	el := w.order.Front()
	if el == nil {
		return
	}
	w.order.Remove(el)
	delete(w.byKey, el.Value.(*entry).key)
}

// Len returns the number of tracked keys.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.order.Len()
}

// Run sweeps every interval until ctx is cancelled.
func (w *Window) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Sweep()
		}
	}
}
