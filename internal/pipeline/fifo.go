package pipeline

import (
	"context"
	"sync"
)

// Item is one unit of relay work: a converted artifact plus the patient
// metadata carried through to the dashboard and history store.
type Item struct {
	ArtifactPath string
	PatientName  string
	PatientID    string
	StudyDate    string
	StudyTime    string
	Protocol     string
}

// Queue is an unbounded FIFO work queue. Enqueue never blocks; Dequeue
// suspends until an item is available or the context is cancelled. It is
// safe for concurrent producers. A single consumer is assumed.
type Queue struct {
	mu     sync.Mutex
	items  []Item
	signal chan struct{}
}

func NewQueue() *Queue {
	return &Queue{signal: make(chan struct{}, 1)}
}

// Enqueue appends item and wakes a waiting consumer.
func (q *Queue) Enqueue(item Item) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Dequeue removes and returns the oldest item, blocking while the queue is
// empty. It returns the context's error if ctx is cancelled first.
func (q *Queue) Dequeue(ctx context.Context) (Item, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			item := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return item, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return Item{}, ctx.Err()
		case <-q.signal:
		}
	}
}

// Len reports the number of queued items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
