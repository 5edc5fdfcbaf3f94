// Package frontier provides the queue of addresses waiting to be fetched.
//
// The queue is unbounded by default: Push never blocks, so the single
// coordinator goroutine that owns the visited set can never deadlock
// against workers that are themselves blocked sending results back to it.
// The price is that a crawl which discovers addresses faster than it
// fetches them keeps growing in memory. WithLimit caps the queue; pushes
// beyond the cap are refused and the caller decides what to do with them.
package frontier

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/nao1215/snitch/internal/gopher"
)

// Queue is a multi-producer, multi-consumer FIFO of gopher URLs.
// The zero value is not usable; create queues with New.
type Queue struct {
	mu    sync.Mutex
	items []gopher.URL
	head  int

	// ready holds at most one wake-up token. Pop re-arms it while items
	// remain, so every waiter eventually sees every push.
	ready chan struct{}

	limit   int
	dropped atomic.Int64
}

// Option configures a Queue.
type Option func(*Queue)

// WithLimit caps the number of queued addresses. Zero means unbounded.
func WithLimit(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.limit = n
		}
	}
}

// New creates an empty queue.
func New(opts ...Option) *Queue {
	q := &Queue{
		items: make([]gopher.URL, 0, 64),
		ready: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Push appends u. It never blocks. It returns false only when the queue
// has a limit and is full, in which case u is not queued.
func (q *Queue) Push(u gopher.URL) bool {
	q.mu.Lock()
	if q.limit > 0 && len(q.items)-q.head >= q.limit {
		q.mu.Unlock()
		q.dropped.Add(1)
		return false
	}
	q.items = append(q.items, u)
	q.mu.Unlock()

	q.signal()
	return true
}

// Pop removes and returns the oldest address, blocking until one is
// available or ctx is done.
func (q *Queue) Pop(ctx context.Context) (gopher.URL, error) {
	for {
		q.mu.Lock()
		if q.head < len(q.items) {
			u := q.items[q.head]
			q.items[q.head] = gopher.URL{}
			q.head++
			remaining := len(q.items) - q.head
			q.compact()
			q.mu.Unlock()

			if remaining > 0 {
				q.signal()
			}
			return u, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return gopher.URL{}, ctx.Err()
		case <-q.ready:
		}
	}
}

// Len returns the number of queued addresses.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}

// Dropped returns how many pushes were refused because of the limit.
func (q *Queue) Dropped() int64 {
	return q.dropped.Load()
}

func (q *Queue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// compact releases the consumed prefix once it dominates the slice.
// Must be called with mu held.
func (q *Queue) compact() {
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
		return
	}
	if q.head >= 1024 && q.head*2 >= len(q.items) {
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}
}
