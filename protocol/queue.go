package protocol

import "sync"

// QueuedMessage is a deferred outbound message plus its reply
// continuation, if the original send expected one.
type QueuedMessage struct {
	Message Message
	Reply   *ReplyContinuation
}

// PeerQueue is a peer's FIFO outbound queue. The router appends; the
// sync driver drains via Filter. Entries are only ever removed in the
// order they were appended.
type PeerQueue struct {
	mu      sync.Mutex
	entries []QueuedMessage
}

// NewPeerQueue returns an empty queue.
func NewPeerQueue() *PeerQueue {
	return &PeerQueue{}
}

// Append adds m to the tail of the queue.
func (q *PeerQueue) Append(m QueuedMessage) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append(q.entries, m)
}

// Filter removes every entry for which predicate returns true, in
// order, and returns them to the caller. Entries that don't match stay
// in the queue, in their original relative order.
func (q *PeerQueue) Filter(predicate func(QueuedMessage) bool) []QueuedMessage {
	q.mu.Lock()
	defer q.mu.Unlock()

	var taken, kept []QueuedMessage
	for _, e := range q.entries {
		if predicate(e) {
			taken = append(taken, e)
		} else {
			kept = append(kept, e)
		}
	}
	q.entries = kept
	return taken
}

// Len reports the current queue depth, for metrics and tests.
func (q *PeerQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Drain empties the queue unconditionally and returns every entry still
// held. Nothing in this module calls it; it does not touch the reply
// continuations of the entries it returns — this method only hands back
// what was left.
func (q *PeerQueue) Drain() []QueuedMessage {
	q.mu.Lock()
	defer q.mu.Unlock()
	taken := q.entries
	q.entries = nil
	return taken
}
