package memory

import (
	"context"
	"sync"

	"github.com/dtroode/noteboard/internal/model"
)

// feed decouples a live query from its consumer: batches are queued without
// blocking the store and pumped to the subscriber in order.
type feed[T any] struct {
	out chan model.Batch[T]

	mu     sync.Mutex
	queue  []model.Batch[T]
	wake   chan struct{}
	closed bool
}

func newFeed[T any]() *feed[T] {
	return &feed[T]{
		out:  make(chan model.Batch[T]),
		wake: make(chan struct{}, 1),
	}
}

func (f *feed[T]) push(b model.Batch[T]) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.queue = append(f.queue, b)
	f.mu.Unlock()

	select {
	case f.wake <- struct{}{}:
	default:
	}
}

// run delivers queued batches until ctx is done, then closes out.
func (f *feed[T]) run(ctx context.Context, onDone func()) {
	defer func() {
		f.mu.Lock()
		f.closed = true
		f.queue = nil
		f.mu.Unlock()
		onDone()
		close(f.out)
	}()

	for {
		f.mu.Lock()
		var next model.Batch[T]
		ok := len(f.queue) > 0
		if ok {
			next = f.queue[0]
			f.queue = f.queue[1:]
		}
		f.mu.Unlock()

		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-f.wake:
				continue
			}
		}

		select {
		case <-ctx.Done():
			return
		case f.out <- next:
		}
	}
}
