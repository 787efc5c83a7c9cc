package protocol

import (
	"context"
	"fmt"

	"github.com/jabolina/sync-runtime/internal/logging"
	"github.com/jabolina/sync-runtime/internal/metrics"
)

// Router consults the rule table and a peer's stage machine to classify
// and dispatch every outbound message. One Router per peer, touched
// only from that peer's own task.
type Router struct {
	rules   *RuleTable
	stage   *StageMachine
	peer    *Peer
	session *Session
	log     logging.Logger
	metrics *metrics.Collectors
	warner  onceWarner
}

// NewRouter builds a Router for peer, governed by rules against stage
// and, when forwarding replies, able to apply session's reply-
// correlation side effect.
func NewRouter(rules *RuleTable, stage *StageMachine, peer *Peer, session *Session, log logging.Logger, m *metrics.Collectors) *Router {
	if m == nil {
		m = metrics.Noop()
	}
	return &Router{rules: rules, stage: stage, peer: peer, session: session, log: log, metrics: m}
}

// Route classifies message:
//  1. look up its rule (or the default)
//  2. if the rule's stage is complete, use After
//  3. else if in_progress, use During
//  4. else use Before
func (r *Router) Route(message Message) Handling {
	rule, known := r.rules.RuleFor(message.Discriminant)
	if !known {
		r.warner.WarnOnce(message.Discriminant, func() {
			r.log.Warnf("unknown discriminant %q, falling back to default rule", message.Discriminant)
		})
	}

	var handling Handling
	switch {
	case r.stage.IsComplete(rule.Stage):
		handling = rule.After
	case r.stage.IsInProgress(rule.Stage):
		handling = rule.During
	default:
		handling = rule.Before
	}

	r.metrics.RouteDecisions.WithLabelValues(string(rule.Stage), string(message.Discriminant), string(handling)).Inc()
	return handling
}

// Send classifies message and dispatches it: allow forwards, queue
// defers, ignore drops (resolving reply as empty), error logs loudly
// and drops.
func (r *Router) Send(ctx context.Context, message Message, reply *ReplyContinuation) error {
	switch r.Route(message) {
	case HandlingAllow:
		return r.forward(ctx, message, reply)
	case HandlingQueue:
		r.peer.Queue.Append(QueuedMessage{Message: message, Reply: reply})
		r.metrics.QueueDepth.WithLabelValues(string(r.peer.ID)).Set(float64(r.peer.Queue.Len()))
		return nil
	case HandlingIgnore:
		// Resolves as empty with a logged warning, rather than
		// escalating to error, so callers awaiting the reply don't
		// stall.
		if reply != nil {
			r.log.Warnf("dropping %q (ignored) for peer %s, resolving reply as empty", message.Discriminant, r.peer.ID)
			reply.ResolveEmpty()
		}
		return nil
	case HandlingError:
		var inProgress, complete []Stage
		for _, s := range append([]Stage{StageAlways}, Sequence...) {
			if r.stage.IsInProgress(s) {
				inProgress = append(inProgress, s)
			}
			if r.stage.IsComplete(s) {
				complete = append(complete, s)
			}
		}
		r.log.Errorf("rule violation: discriminant=%q peer=%s in_progress=%v complete=%v", message.Discriminant, r.peer.ID, inProgress, complete)
		if reply != nil {
			reply.Reject(ErrRuleViolation)
		}
		return ErrRuleViolation
	default:
		return fmt.Errorf("protocol: unreachable handling for %q", message.Discriminant)
	}
}

// forward performs the actual allow-path dispatch, including the
// reply-correlation side effect.
func (r *Router) forward(ctx context.Context, message Message, reply *ReplyContinuation) error {
	if reply == nil {
		if err := r.peer.Transport.RawSend(ctx, message); err != nil {
			return fmt.Errorf("%w: %v", ErrPeerTransportFailure, err)
		}
		return nil
	}

	result, err := r.peer.Transport.Send(ctx, message)
	if err != nil {
		reply.Reject(fmt.Errorf("%w: %v", ErrPeerTransportFailure, err))
		return fmt.Errorf("%w: %v", ErrPeerTransportFailure, err)
	}
	reply.Resolve(*result)

	if r.replyShouldEcho() {
		if err := r.session.Conn.RawSend(ctx, *result); err != nil {
			r.log.Warnf("failed echoing reply for %q onto application connection: %v", message.Discriminant, err)
		}
	}
	return nil
}

// replyShouldEcho reports whether a forwarded reply should also be
// echoed onto the application-facing connection: while this peer is
// flagged authoritative and is mid-sync as the session's only joined
// peer, every forwarded reply is additionally echoed, because the
// application is synchronously awaiting it.
func (r *Router) replyShouldEcho() bool {
	if r.session == nil || r.session.Conn == nil {
		return false
	}
	return r.session.PeerAuthoritative &&
		r.session.AuthoritativeClient != nil &&
		r.session.AuthoritativeClient.ID == r.peer.ID
}
