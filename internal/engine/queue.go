package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roach88/caseintake/internal/intake"
)

// request is one mailbox entry. A nil cmd asks for the current state.
type request struct {
	ctx           context.Context
	cmd           intake.Command
	correlationID string
	enqueued      time.Time
	reply         chan reply
	// status moves from requestQueued to requestStarted when the actor
	// takes the request, or to requestAbandoned when the caller gives up
	// first. Only one of the two transitions succeeds.
	status *atomic.Int32
}

const (
	requestQueued int32 = iota
	requestStarted
	requestAbandoned
)

type reply struct {
	result Result
	err    error
}

// mailbox is a thread-safe unbounded FIFO of requests for one case.
//
// Enqueue never blocks, so a burst of commands for a busy case cannot stall
// dispatchers of other cases.
type mailbox struct {
	mu       sync.Mutex
	requests []request
	closed   bool
	signal   chan struct{} // buffered, size 1
}

func newMailbox() *mailbox {
	return &mailbox{
		requests: make([]request, 0, 8),
		signal:   make(chan struct{}, 1),
	}
}

// Enqueue adds r to the back of the mailbox. Returns false once closed.
func (q *mailbox) Enqueue(r request) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.requests = append(q.requests, r)

	// Non-blocking: the size-1 buffer coalesces signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// Next blocks until a request is available. It returns false when the
// mailbox is closed and drained.
func (q *mailbox) Next() (request, bool) {
	for {
		q.mu.Lock()
		if len(q.requests) > 0 {
			r := q.requests[0]
			// Release the reply channel and context held by the slot.
			q.requests[0] = request{}
			if len(q.requests) == 1 {
				q.requests = q.requests[:0]
			} else {
				q.requests = q.requests[1:]
			}
			q.mu.Unlock()
			return r, true
		}
		if q.closed {
			q.mu.Unlock()
			return request{}, false
		}
		q.mu.Unlock()

		<-q.signal
	}
}

// Len returns the number of queued requests.
func (q *mailbox) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.requests)
}

// Close stops accepting requests and wakes the consumer. Queued requests
// are still delivered by Next.
func (q *mailbox) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}
