package pipeline

import (
	"errors"
	"sync"
)

// ErrQueueClosed is returned by Push once the queue has been closed,
// including to a producer that was suspended mid-push when Close ran.
var ErrQueueClosed = errors.New("queue is closed")

// frameQueue is the bounded hand-off between the producer and the writer
// workers. One mutex guards the ring, the closed flag, and the eviction
// counter; notEmpty wakes waiting workers, notFull wakes a blocked
// producer. Throughput is bounded by sink I/O, not by this lock, so the
// single-lock layout is deliberate.
//
// The closed flag doubles as the end-of-stream signal: there is no
// sentinel item. Pop exposes the one combined "wait for work or shutdown"
// operation, so callers never check the flag and the contents separately.
type frameQueue struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond

	buf   []*Frame
	head  int
	count int

	policy  OverflowPolicy
	closed  bool
	metrics *Metrics

	// onEvict runs outside the lock for every frame displaced by
	// DropOldest. May be nil.
	onEvict func(*Frame)
}

func newFrameQueue(capacity int, policy OverflowPolicy, m *Metrics, onEvict func(*Frame)) *frameQueue {
	q := &frameQueue{
		buf:     make([]*Frame, capacity),
		policy:  policy,
		metrics: m,
		onEvict: onEvict,
	}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)
	return q
}

// Push admits f according to the overflow policy. Under BlockProducer it
// suspends while the queue is full; under DropOldest it evicts the oldest
// queued frame and never blocks. Returns ErrQueueClosed once Close has
// run, in which case f was not admitted.
func (q *frameQueue) Push(f *Frame) error {
	q.mu.Lock()
	if q.policy == BlockProducer {
		for q.count == len(q.buf) && !q.closed {
			q.notFull.Wait()
		}
	}
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}

	var evicted *Frame
	if q.count == len(q.buf) {
		// DropOldest: removal and its counter move in one critical
		// section so no frame is ever evicted but uncounted.
		evicted = q.buf[q.head]
		q.buf[q.head] = nil
		q.head = (q.head + 1) % len(q.buf)
		q.count--
		q.metrics.droppedByQueueFull.Add(1)
	}

	q.buf[(q.head+q.count)%len(q.buf)] = f
	q.count++
	q.mu.Unlock()
	q.notEmpty.Signal()

	if evicted != nil {
		debugLog("evicted oldest queued frame: seq=%d", evicted.Seq)
		if q.onEvict != nil {
			q.onEvict(evicted)
		}
	}
	return nil
}

// Pop blocks until a frame is available or the queue is closed and fully
// drained. ok is false only for the latter; callers must treat it as end
// of stream. Every wakeup re-checks both conditions, so a spurious or
// stale wake never causes an early exit or a lost frame.
func (q *frameQueue) Pop() (f *Frame, ok bool) {
	q.mu.Lock()
	for q.count == 0 && !q.closed {
		q.notEmpty.Wait()
	}
	if q.count == 0 {
		q.mu.Unlock()
		return nil, false
	}

	f = q.buf[q.head]
	q.buf[q.head] = nil
	q.head = (q.head + 1) % len(q.buf)
	q.count--
	q.mu.Unlock()
	q.notFull.Signal()
	return f, true
}

// Close marks that no further pushes will occur and wakes every suspended
// producer and worker. Idempotent. Frames already queued remain poppable,
// so workers drain completely before observing end of stream.
func (q *frameQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	pending := q.count
	q.mu.Unlock()

	debugLog("queue closed: pending=%d", pending)
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
}

// Len reports the number of queued frames at this instant.
func (q *frameQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Cap reports the fixed capacity.
func (q *frameQueue) Cap() int { return len(q.buf) }
