package internal

import "sync"

// workQueue is the shared pool of directories awaiting enumeration.
//
// pending counts directories that are queued or currently being enumerated
// by a worker. It is updated under the same mutex as the slice, so an
// enqueue and its increment are indivisible with respect to dequeues, and
// the completion check (pending == 0 with an empty queue) can never observe
// a transient zero while a worker that may still enqueue children is
// mid-enumeration.
type workQueue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	dirs    []string
	pending int
	closed  bool

	finished   chan struct{}
	finishOnce sync.Once
}

func newWorkQueue() *workQueue {
	q := &workQueue{finished: make(chan struct{})}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Enqueue adds a pending directory and counts it as outstanding work.
// After Close the queue accepts nothing: late discoveries from workers
// still finishing their directory in hand are dropped.
func (q *workQueue) Enqueue(dir string) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.dirs = append(q.dirs, dir)
	q.pending++
	q.mu.Unlock()
	q.cond.Signal()
}

// Dequeue blocks until a directory is available or the queue is closed.
// ok is false once the queue is closed: the exit sentinel. A close always
// wins over remaining entries — on normal termination the queue is empty
// by then, and on cancellation the remaining work is abandoned.
func (q *workQueue) Dequeue() (dir string, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.dirs) == 0 && !q.closed {
		q.cond.Wait()
	}
	if q.closed {
		return "", false
	}
	dir = q.dirs[0]
	q.dirs = q.dirs[1:]
	return dir, true
}

// MarkComplete records that one dequeued directory has been fully
// enumerated, including every child Enqueue it performed. The call that
// drops pending to zero with nothing queued closes the queue and signals
// Finished, waking every blocked worker.
func (q *workQueue) MarkComplete() {
	q.mu.Lock()
	q.pending--
	done := q.pending == 0 && len(q.dirs) == 0
	if done {
		q.closed = true
	}
	q.mu.Unlock()
	if done {
		q.cond.Broadcast()
		q.finishOnce.Do(func() { close(q.finished) })
	}
}

// Close abandons all remaining queued work and force-releases every
// blocked worker. Used for external cancellation; workers mid-enumeration
// finish the directory in hand and then observe the sentinel.
func (q *workQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

// Finished is closed once every seeded directory and all of its descendants
// have been fully enumerated.
func (q *workQueue) Finished() <-chan struct{} { return q.finished }

// Pending returns the number of directories queued or being enumerated.
func (q *workQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending
}
