package workflow

import (
	"sync"

	"github.com/goadesign/workflow-engine/ident"
)

// readyQueue is a FIFO of distinct, not-yet-dispatched node names with
// blocking pop semantics that detect drain: pop returns ok=false once the
// queue is empty AND no dispatched item is still in flight, since an
// in-flight node's command may itself publish and enqueue further work,
// and the loop should only terminate once the queue truly drains.
type readyQueue struct {
	mu       sync.Mutex
	cond     *sync.Cond
	items    []ident.Node
	queued   map[ident.Node]bool
	inFlight int
}

func newReadyQueue() *readyQueue {
	q := &readyQueue{queued: make(map[ident.Node]bool)}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// enqueue adds name if it is not already waiting in the queue. Already
// in-flight (popped, not yet done) nodes are not deduplicated here: the
// dispatcher's in-flight guard (P5) is responsible for deferring
// re-dispatch of a node that is currently executing.
func (q *readyQueue) enqueue(name ident.Node) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.queued[name] {
		return
	}
	q.queued[name] = true
	q.items = append(q.items, name)
	q.cond.Broadcast()
}

// pop blocks until an item is available or the queue has drained.
func (q *readyQueue) pop() (ident.Node, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 {
		if q.inFlight == 0 {
			return "", false
		}
		q.cond.Wait()
	}
	name := q.items[0]
	q.items = q.items[1:]
	delete(q.queued, name)
	q.inFlight++
	return name, true
}

// done marks a previously popped item's processing as complete.
func (q *readyQueue) done() {
	q.mu.Lock()
	q.inFlight--
	q.cond.Broadcast()
	q.mu.Unlock()
}

// drain discards all queued items without processing them (used by
// Cancel) and wakes blocked poppers. It does not wait for in-flight
// dispatches to finish.
func (q *readyQueue) drain() {
	q.mu.Lock()
	q.items = nil
	q.queued = make(map[ident.Node]bool)
	q.cond.Broadcast()
	q.mu.Unlock()
}
