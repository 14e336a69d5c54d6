package jobs

import "sync"

// Queue buffers termination reports until the read loop prints them. Push
// never blocks.
type Queue struct {
	mu    sync.Mutex
	items []Termination
	ready chan struct{}
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{ready: make(chan struct{}, 1)}
}

// Push appends a report and wakes any reader.
func (q *Queue) Push(t Termination) {
	q.mu.Lock()
	q.items = append(q.items, t)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Ready receives a value after one or more pushes.
func (q *Queue) Ready() <-chan struct{} {
	return q.ready
}

// Drain removes and returns every queued report in arrival order.
func (q *Queue) Drain() []Termination {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.items
	q.items = nil
	return out
}

// Len is the number of queued reports.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
