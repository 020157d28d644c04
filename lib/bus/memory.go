package bus

import (
	"log/slog"
	"sync"
)

// MemoryBus dispatches events in-process. It is what the single-binary
// deployment and the tests use; delivery order per publisher is
// preserved, handlers run on the subscriber's own goroutine.
type MemoryBus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan any
	wg     sync.WaitGroup
	closed bool
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: map[int]chan any{}}
}

func (b *MemoryBus) publish(ev any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrBusClosed
	}
	for _, ch := range b.subs {
		// never block a publisher on a stalled subscriber; the sweep
		// re-delivers on its next cycle anyway
		select {
		case ch <- ev:
		default:
			slog.Warn("event bus subscriber is not keeping up, dropping event")
		}
	}
	return nil
}

func (b *MemoryBus) PublishFileUpdated(ev FileUpdated) error { return b.publish(ev) }
func (b *MemoryBus) PublishFetched(ev Fetched) error         { return b.publish(ev) }

func (b *MemoryBus) Subscribe(h Handler) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrBusClosed
	}

	id := b.nextID
	b.nextID++
	ch := make(chan any, 64)
	b.subs[id] = ch

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for ev := range ch {
			switch ev := ev.(type) {
			case FileUpdated:
				h.HandleFileUpdated(ev)
			case Fetched:
				h.HandleFetched(ev)
			}
		}
	}()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[id]; ok {
			close(ch)
			delete(b.subs, id)
		}
	}, nil
}

// Close unsubscribes everyone and waits for in-flight handlers.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
	b.mu.Unlock()

	b.wg.Wait()
	return nil
}
