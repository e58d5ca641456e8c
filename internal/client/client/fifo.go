package client

import "sync"

// fifo is an unbounded queue drained by a single goroutine. push never
// blocks, so it is safe to call while holding other locks.
type fifo[T any] struct {
	mu    sync.Mutex
	items []T
	wake  chan struct{}
}

func newFIFO[T any]() *fifo[T] {
	return &fifo[T]{wake: make(chan struct{}, 1)}
}

func (q *fifo[T]) push(vs ...T) {
	q.mu.Lock()
	q.items = append(q.items, vs...)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// drain hands queued items to fn in push order until done is closed or fn
// returns false.
func (q *fifo[T]) drain(done <-chan struct{}, fn func(T) bool) {
	for {
		q.mu.Lock()
		batch := q.items
		q.items = nil
		q.mu.Unlock()

		for _, v := range batch {
			if !fn(v) {
				return
			}
		}
		if len(batch) > 0 {
			continue
		}

		select {
		case <-q.wake:
		case <-done:
			return
		}
	}
}
