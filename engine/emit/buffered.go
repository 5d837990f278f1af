package emit

import (
	"context"
	"sync"
)

// BufferedEmitter wraps another Emitter, batching Emit calls and
// forwarding them on Flush or once the buffer reaches size capacity.
// Useful in front of a backend where per-event round trips are costly.
type BufferedEmitter struct {
	mu     sync.Mutex
	next   Emitter
	buf    []Event
	size   int
}

// NewBufferedEmitter returns a BufferedEmitter forwarding to next, flushing
// automatically once size events have accumulated. size <= 0 disables
// automatic flushing; callers must call Flush explicitly.
func NewBufferedEmitter(next Emitter, size int) *BufferedEmitter {
	return &BufferedEmitter{next: next, size: size}
}

func (b *BufferedEmitter) Emit(event Event) {
	b.mu.Lock()
	b.buf = append(b.buf, event)
	full := b.size > 0 && len(b.buf) >= b.size
	var pending []Event
	if full {
		pending = b.buf
		b.buf = nil
	}
	b.mu.Unlock()

	if pending != nil {
		_ = b.next.EmitBatch(context.Background(), pending)
	}
}

func (b *BufferedEmitter) EmitBatch(ctx context.Context, events []Event) error {
	b.mu.Lock()
	b.buf = append(b.buf, events...)
	b.mu.Unlock()
	return nil
}

// Flush forwards any buffered events to the wrapped emitter and then flushes
// it.
func (b *BufferedEmitter) Flush(ctx context.Context) error {
	b.mu.Lock()
	pending := b.buf
	b.buf = nil
	b.mu.Unlock()

	if len(pending) > 0 {
		if err := b.next.EmitBatch(ctx, pending); err != nil {
			return err
		}
	}
	return b.next.Flush(ctx)
}
