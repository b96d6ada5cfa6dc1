package webview

import "sync"

// emitter is a small observer registry for one event type. Unlike a single
// replace-on-registration callback slot, any number of consumers (transport,
// logging, tests) can subscribe without clobbering each other.
//
// Emit may be called from the engine's event-dispatch thread; subscribers
// must not assume any particular goroutine.
type emitter[T any] struct {
	mu   sync.RWMutex
	next int
	subs map[int]func(T)
}

// subscribe registers fn and returns a func that removes it again.
// Unsubscribing twice is harmless.
func (e *emitter[T]) subscribe(fn func(T)) func() {
	e.mu.Lock()
	if e.subs == nil {
		e.subs = make(map[int]func(T))
	}
	id := e.next
	e.next++
	e.subs[id] = fn
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		delete(e.subs, id)
		e.mu.Unlock()
	}
}

// emit delivers v to every subscriber, in unspecified order.
func (e *emitter[T]) emit(v T) {
	e.mu.RLock()
	fns := make([]func(T), 0, len(e.subs))
	for _, fn := range e.subs {
		fns = append(fns, fn)
	}
	e.mu.RUnlock()

	for _, fn := range fns {
		fn(v)
	}
}

// SurfaceSize is the payload of surface-size-changed events.
type SurfaceSize struct {
	Width  uint32
	Height uint32
}

// events groups the per-session emitters.
type events struct {
	loadingState emitter[LoadingState]
	url          emitter[string]
	title        emitter[string]
	cursor       emitter[string]
	focus        emitter[bool]
	surfaceSize  emitter[SurfaceSize]
}
