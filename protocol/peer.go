package protocol

import (
	"context"
	"sync"
	"time"
)

// PeerID identifies a peer across a session.
type PeerID string

// Peer holds everything the protocol core needs for one remote
// participant: its transport, its reported latency, its stage state,
// and its outbound queue.
type Peer struct {
	ID    PeerID
	Order int // monotonically assigned join index

	mu            sync.RWMutex
	latency       time.Duration
	authoritative bool

	syncRequested     chan struct{}
	syncRequestedOnce sync.Once

	Transport Transport
	Stage     *StageMachine
	Queue     *PeerQueue
}

// NewPeer builds a Peer around transport, with fresh stage state and an
// empty outbound queue.
func NewPeer(id PeerID, order int, transport Transport) *Peer {
	return &Peer{
		ID:            id,
		Order:         order,
		Transport:     transport,
		Stage:         NewStageMachine(),
		Queue:         NewPeerQueue(),
		syncRequested: make(chan struct{}),
	}
}

// NotifySyncRequest marks that this peer's inbound sync-request has been
// observed, unblocking StartupProtocol.Run's calibration burst. Idempotent:
// only the first call has any effect.
func (p *Peer) NotifySyncRequest() {
	p.syncRequestedOnce.Do(func() { close(p.syncRequested) })
}

// AwaitSyncRequest blocks until NotifySyncRequest has been called for this
// peer or ctx is done, whichever comes first.
func (p *Peer) AwaitSyncRequest(ctx context.Context) error {
	select {
	case <-p.syncRequested:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LatencyMS returns the peer's last-measured latency in milliseconds,
// the unit the animation reconciler's formula operates on.
func (p *Peer) LatencyMS() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return uint64(p.latency.Milliseconds())
}

// SetLatency records a fresh latency measurement, e.g. after RTT
// calibration.
func (p *Peer) SetLatency(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.latency = d
}

// Authoritative reports whether this peer is flagged as the session's
// authoritative peer.
func (p *Peer) Authoritative() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.authoritative
}

func (p *Peer) setAuthoritative(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.authoritative = v
}

// PeerSet tracks every peer in a session and derives the authoritative
// peer: the one with the lowest join Order.
type PeerSet struct {
	mu    sync.Mutex
	peers map[PeerID]*Peer
}

// NewPeerSet returns an empty set.
func NewPeerSet() *PeerSet {
	return &PeerSet{peers: make(map[PeerID]*Peer)}
}

// Join adds p to the set and recomputes which peer is authoritative.
func (s *PeerSet) Join(p *Peer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peers[p.ID] = p
	s.recomputeAuthoritative()
}

// Leave removes id from the set and recomputes which peer is
// authoritative.
func (s *PeerSet) Leave(id PeerID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.peers, id)
	s.recomputeAuthoritative()
}

// recomputeAuthoritative must be called with s.mu held.
func (s *PeerSet) recomputeAuthoritative() {
	var lowest *Peer
	for _, p := range s.peers {
		if lowest == nil || p.Order < lowest.Order {
			lowest = p
		}
	}
	for _, p := range s.peers {
		p.setAuthoritative(p == lowest)
	}
}

// Authoritative returns the current authoritative peer, or nil if the
// set is empty.
func (s *PeerSet) Authoritative() *Peer {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.peers {
		if p.Authoritative() {
			return p
		}
	}
	return nil
}

// Len reports how many peers are currently joined.
func (s *PeerSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.peers)
}
