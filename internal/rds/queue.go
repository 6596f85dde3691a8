package rds

import (
	"sync/atomic"

	"go-rds-decoder/internal/station"
)

// SnapshotQueue carries station views from the decode goroutine to
// consumers. It never blocks the producer: when full, the oldest
// snapshot is discarded in favour of the newer one, which supersedes it
// anyway.
type SnapshotQueue struct {
	ch    chan station.View
	drops atomic.Uint64
}

func NewSnapshotQueue(size int) *SnapshotQueue {
	if size < 1 {
		size = 1
	}
	return &SnapshotQueue{ch: make(chan station.View, size)}
}

// Push enqueues a snapshot, evicting the oldest entry if needed.
func (q *SnapshotQueue) Push(v station.View) {
	for {
		select {
		case q.ch <- v:
			return
		default:
		}
		select {
		case <-q.ch:
			q.drops.Add(1)
		default:
		}
	}
}

// C is the consumer side of the queue.
func (q *SnapshotQueue) C() <-chan station.View {
	return q.ch
}

// Close ends the stream for consumers. Push must not be called after.
func (q *SnapshotQueue) Close() {
	close(q.ch)
}

// Drops reports how many snapshots were evicted unread.
func (q *SnapshotQueue) Drops() uint64 {
	return q.drops.Load()
}
