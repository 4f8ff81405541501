package event

import (
	"context"
	"slices"
	"sync"
)

// HandlerFunc observes an event. Handlers run synchronously on the caller's goroutine.
type HandlerFunc[T any] func(ctx context.Context, ev *T)

// Handle identifies a registered handler so it can be removed.
type Handle uint64

type registration[T any] struct {
	handle  Handle
	handler HandlerFunc[T]
}

// Dispatcher delivers events of one type to its handlers in registration order.
type Dispatcher[T any] struct {
	mu       sync.RWMutex
	next     Handle
	handlers []registration[T]
}

// On registers handler and returns its handle.
func (d *Dispatcher[T]) On(handler HandlerFunc[T]) Handle {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.next++
	d.handlers = append(d.handlers, registration[T]{handle: d.next, handler: handler})
	return d.next
}

// Off removes the handler registered under h. It reports whether one was found.
func (d *Dispatcher[T]) Off(h Handle) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, r := range d.handlers {
		if r.handle == h {
			d.handlers = slices.Delete(d.handlers, i, i+1)
			return true
		}
	}
	return false
}

// Len returns the number of registered handlers.
func (d *Dispatcher[T]) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.handlers)
}

// Dispatch calls every handler with ev. Handlers registered or removed while
// dispatching take effect on the next event.
func (d *Dispatcher[T]) Dispatch(ctx context.Context, ev *T) {
	d.mu.RLock()
	handlers := slices.Clone(d.handlers)
	d.mu.RUnlock()

	for _, r := range handlers {
		r.handler(ctx, ev)
	}
}
