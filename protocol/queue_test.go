package protocol

import "testing"

func TestPeerQueue_FilterPreservesOrderOfMatches(t *testing.T) {
	q := NewPeerQueue()
	q.Append(QueuedMessage{Message: Message{Discriminant: "a"}})
	q.Append(QueuedMessage{Message: Message{Discriminant: "b"}})
	q.Append(QueuedMessage{Message: Message{Discriminant: "a"}})
	q.Append(QueuedMessage{Message: Message{Discriminant: "c"}})

	taken := q.Filter(func(m QueuedMessage) bool { return m.Message.Discriminant == "a" })
	if len(taken) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(taken))
	}
	if q.Len() != 2 {
		t.Fatalf("expected 2 entries left in queue, got %d", q.Len())
	}

	rest := q.Filter(func(QueuedMessage) bool { return true })
	if len(rest) != 2 || rest[0].Message.Discriminant != "b" || rest[1].Message.Discriminant != "c" {
		t.Fatalf("expected remaining entries in original relative order, got %+v", rest)
	}
}

func TestPeerQueue_DrainEmptiesQueue(t *testing.T) {
	q := NewPeerQueue()
	q.Append(QueuedMessage{Message: Message{Discriminant: "a"}})
	q.Append(QueuedMessage{Message: Message{Discriminant: "b"}})

	drained := q.Drain()
	if len(drained) != 2 {
		t.Fatalf("expected 2 drained entries, got %d", len(drained))
	}
	if q.Len() != 0 {
		t.Fatalf("expected queue empty after drain, got %d", q.Len())
	}
}
