package astrolog

import (
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// DispatchQueue decouples record production from destination writes: a FIFO
// buffer drained by one dedicated worker goroutine that hands exactly one
// record per iteration to the delivery callback.
type DispatchQueue struct {
	records      chan *Record
	stop         chan struct{}
	stopped      atomic.Bool
	workerExited atomic.Bool
	deliver      func(*Record)
	waitBudget   time.Duration
	limiter      *rate.Limiter
}

// NewDispatchQueue starts the worker immediately. size is the buffer
// capacity, waitBudget bounds how long Enqueue blocks on a full buffer, and
// maxPerSec (0 = unlimited) adds token-bucket admission on top.
func NewDispatchQueue(size int, waitBudget time.Duration, maxPerSec int, deliver func(*Record)) *DispatchQueue {
	if size <= 0 {
		size = defaultQueueSize
	}
	q := &DispatchQueue{
		records:    make(chan *Record, size),
		stop:       make(chan struct{}),
		deliver:    deliver,
		waitBudget: waitBudget,
	}
	if maxPerSec > 0 {
		q.limiter = rate.NewLimiter(rate.Limit(maxPerSec), maxPerSec)
	}
	go q.work()
	return q
}

// Enqueue offers a record to the queue. It returns false when the queue is
// stopped, the rate limiter rejects the record, or the buffer stays full for
// the whole wait budget. Records enqueued by one goroutine are delivered in
// enqueue order.
func (q *DispatchQueue) Enqueue(rec *Record) bool {
	if q.stopped.Load() {
		return false
	}
	if q.limiter != nil && !q.limiter.Allow() {
		return false
	}

	select {
	case q.records <- rec:
		return true
	default:
	}

	if q.waitBudget <= 0 {
		return false
	}
	select {
	case q.records <- rec:
		return true
	case <-q.stop:
		return false
	case <-time.After(q.waitBudget):
		return false
	}
}

// Stop signals the worker to exit. The signal is cooperative: a record
// already dequeued finishes delivery, but the buffer is not guaranteed to
// drain further. Safe to call more than once.
func (q *DispatchQueue) Stop() {
	if q.stopped.CompareAndSwap(false, true) {
		close(q.stop)
	}
}

// Join blocks until the worker has fully exited or the timeout elapses,
// reporting whether the exit was observed.
func (q *DispatchQueue) Join(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if q.workerExited.Load() {
			return true
		}
		time.Sleep(minWaitTime)
	}
	return q.workerExited.Load()
}

// Pending reports the number of buffered records.
func (q *DispatchQueue) Pending() int {
	return len(q.records)
}

// work is the single consumer loop.
func (q *DispatchQueue) work() {
	defer q.workerExited.Store(true)
	for {
		select {
		case <-q.stop:
			return
		case rec := <-q.records:
			q.deliver(rec)
		}
	}
}
