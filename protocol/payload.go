package protocol

import (
	"context"

	"github.com/google/uuid"
)

// Discriminant names the wire shape of an application message. The
// router is keyed on this tag and nothing else — it never inspects
// payload contents.
type Discriminant string

const (
	DiscLoadAsset         Discriminant = "load-asset"
	DiscAssetUpdate       Discriminant = "asset-update"
	DiscActorCreate       Discriminant = "actor-create"
	DiscActorDestroy      Discriminant = "actor-destroy"
	DiscActorUpdate       Discriminant = "actor-update"
	DiscSetBehavior       Discriminant = "set-behavior"
	DiscCreateAnimation   Discriminant = "create-animation"
	DiscInterpolateActor  Discriminant = "interpolate-actor"
	DiscSyncAnimations    Discriminant = "sync-animations"
	DiscSyncRequest       Discriminant = "sync-request"
	DiscSyncComplete      Discriminant = "sync-complete"
	DiscHeartbeat         Discriminant = "heartbeat"
)

// Message is the sum-type envelope every outbound payload travels in.
// Body is left opaque ([]byte, already-serialized by the application):
// the application object model is a collaborator, not something this
// module understands.
type Message struct {
	Discriminant Discriminant
	ID           uuid.UUID
	Body         []byte

	// Destination actor id, populated for actor-create so the sync
	// driver's parent-before-child ordering (invariant 3, §8) can be verified
	// independently of body parsing in tests.
	ActorID string
}

// NewMessage builds a Message with a fresh correlation id, used when the
// server itself originates a message (sync-complete, the sync-animations
// request, heartbeats) rather than forwarding one the application handed it.
func NewMessage(d Discriminant, body []byte) Message {
	return Message{Discriminant: d, ID: uuid.New(), Body: body}
}

// ReplyContinuation is resumed exactly once: with a reply Message, with
// no value and no error (resolve-as-empty), or with an error (disconnect,
// refusal).
type ReplyContinuation struct {
	ch     chan replyResult
	closed bool
}

type replyResult struct {
	reply *Message
	err   error
}

// NewReplyContinuation creates a continuation with room for exactly one
// result.
func NewReplyContinuation() *ReplyContinuation {
	return &ReplyContinuation{ch: make(chan replyResult, 1)}
}

// Resolve resumes the continuation with a reply. Safe to call at most
// once; subsequent calls are no-ops.
func (r *ReplyContinuation) Resolve(reply Message) {
	r.complete(replyResult{reply: &reply})
}

// ResolveEmpty resumes the continuation with no reply, for the `ignore`
// handling path (§9 Open Question — resolve-as-empty).
func (r *ReplyContinuation) ResolveEmpty() {
	r.complete(replyResult{})
}

// Reject resumes the continuation with an error (transport failure,
// disconnect, rule violation escalated to error).
func (r *ReplyContinuation) Reject(err error) {
	r.complete(replyResult{err: err})
}

func (r *ReplyContinuation) complete(res replyResult) {
	if r.closed {
		return
	}
	r.closed = true
	r.ch <- res
	close(r.ch)
}

// Await blocks for the continuation's result or ctx cancellation,
// whichever comes first.
func (r *ReplyContinuation) Await(ctx context.Context) (*Message, error) {
	select {
	case res, ok := <-r.ch:
		if !ok {
			return nil, nil
		}
		return res.reply, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
