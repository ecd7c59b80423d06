package viewport

import (
	"slices"
	"sync"
)

// ResizeSource fans out window resize notifications. Subscribe returns a
// function that removes the listener; calling it more than once is safe.
type ResizeSource interface {
	Subscribe(fn func()) (cancel func())
}

// ResizeBus is the in-process ResizeSource shared by every chart on a page.
type ResizeBus struct {
	mu        sync.Mutex
	next      int
	listeners map[int]func()
}

// NewResizeBus creates an empty bus.
func NewResizeBus() *ResizeBus {
	return &ResizeBus{listeners: make(map[int]func())}
}

// Subscribe registers fn for every subsequent Publish.
func (b *ResizeBus) Subscribe(fn func()) func() {
	b.mu.Lock()
	id := b.next
	b.next++
	b.listeners[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.listeners, id)
			b.mu.Unlock()
		})
	}
}

// Publish calls every listener in subscription order. Listeners run on the
// caller's goroutine and may unsubscribe themselves.
func (b *ResizeBus) Publish() {
	b.mu.Lock()
	ids := make([]int, 0, len(b.listeners))
	for id := range b.listeners {
		ids = append(ids, id)
	}
	b.mu.Unlock()

	slices.Sort(ids)
	for _, id := range ids {
		b.mu.Lock()
		fn, ok := b.listeners[id]
		b.mu.Unlock()
		if ok {
			fn()
		}
	}
}

// Listeners returns the number of live subscriptions.
func (b *ResizeBus) Listeners() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}
