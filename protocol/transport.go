package protocol

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Transport is the collaborator contract consumed by this module.
// Framing, heartbeats, and RTT sampling live on the other side of this
// interface — this package only needs ordered delivery, a
// send-with-reply primitive, a raw send that bypasses the router, and a
// latency reading.
type Transport interface {
	// Send delivers message and blocks until a reply arrives or ctx is
	// done. Used for every send-and-await in the stage drivers.
	Send(ctx context.Context, message Message) (*Message, error)

	// RawSend delivers message without expecting a reply. Used for
	// fire-and-forget sends (asset updates, set-behavior) and for the
	// animation reconciler's final forward, which explicitly bypasses
	// the router.
	RawSend(ctx context.Context, message Message) error

	// Latency reports the connection's last-measured round-trip
	// estimate.
	Latency() time.Duration

	// Heartbeat performs a single round trip used by the startup
	// protocol's RTT calibration burst.
	Heartbeat(ctx context.Context) error
}

// FakeTransport is a deterministic, in-memory Transport double used by
// tests, rather than any real wire transport.
type FakeTransport struct {
	mu sync.Mutex

	latency time.Duration

	// Sent records every message observed on this transport, in the
	// order Send/RawSend were called — ordering and fan-out assertions
	// are made against this trace.
	Sent []Message

	// replies maps a discriminant to a canned reply body. If absent,
	// Send synthesizes an empty reply of the same discriminant.
	replies map[Discriminant]Message

	// fail, if set, is returned by every Send/RawSend/Heartbeat call
	// instead of succeeding — used to simulate transport failure and
	// disconnect.
	fail error

	heartbeats int
}

// NewFakeTransport returns a FakeTransport with zero latency and no
// failures configured.
func NewFakeTransport() *FakeTransport {
	return &FakeTransport{replies: make(map[Discriminant]Message)}
}

// WithLatency sets the latency this transport reports.
func (f *FakeTransport) WithLatency(d time.Duration) *FakeTransport {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latency = d
	return f
}

// WithReply registers the reply synthesized for every Send of d.
func (f *FakeTransport) WithReply(d Discriminant, reply Message) *FakeTransport {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[d] = reply
	return f
}

// Fail makes every subsequent call fail with err, simulating a dropped
// connection.
func (f *FakeTransport) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = err
}

func (f *FakeTransport) record(m Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.Sent = append(f.Sent, m)
	return nil
}

// Send implements Transport.
func (f *FakeTransport) Send(ctx context.Context, message Message) (*Message, error) {
	if err := f.record(message); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPeerTransportFailure, err)
	}
	f.mu.Lock()
	reply, ok := f.replies[message.Discriminant]
	f.mu.Unlock()
	if !ok {
		reply = NewMessage(message.Discriminant, nil)
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	return &reply, nil
}

// RawSend implements Transport.
func (f *FakeTransport) RawSend(ctx context.Context, message Message) error {
	if err := f.record(message); err != nil {
		return fmt.Errorf("%w: %v", ErrPeerTransportFailure, err)
	}
	return nil
}

// Latency implements Transport.
func (f *FakeTransport) Latency() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latency
}

// Heartbeat implements Transport.
func (f *FakeTransport) Heartbeat(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.heartbeats++
	return nil
}

// Heartbeats reports how many Heartbeat calls this transport observed,
// for asserting the RTT calibration burst size.
func (f *FakeTransport) Heartbeats() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.heartbeats
}
