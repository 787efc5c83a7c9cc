package protocol

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jabolina/sync-runtime/internal/logging"
	"github.com/jabolina/sync-runtime/internal/metrics"
)

// AnimationReconciler requests current animation state from the
// authoritative peer and rewrites timestamps to compensate for both
// links' latency before forwarding to the joining peer.
type AnimationReconciler struct {
	log     logging.Logger
	metrics *metrics.Collectors
}

// NewAnimationReconciler builds a reconciler that logs through log.
func NewAnimationReconciler(log logging.Logger, m *metrics.Collectors) *AnimationReconciler {
	if m == nil {
		m = metrics.Noop()
	}
	return &AnimationReconciler{log: log, metrics: m}
}

// animationStatesPayload is the wire shape of the sync-animations
// reply's body: a list of animation state samples, serialized as JSON
// for transport (this module treats every other payload as opaque, but
// the reconciler is the one place that must actually read and rewrite
// the content it forwards).
type animationStatesPayload struct {
	States []AnimationStateSample `json:"states"`
}

// Reconcile requests current animation state from authoritative,
// rewrites each sample's timestamp, and forwards it to joining. If
// joining is itself the authoritative peer, the caller should not
// invoke this method at all — that case skips reconciliation entirely.
func (r *AnimationReconciler) Reconcile(ctx context.Context, joining, authoritative *Peer) error {
	request := NewMessage(DiscSyncAnimations, nil)
	reply, err := authoritative.Transport.Send(ctx, request)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuthoritativePeerUnavailable, err)
	}
	if reply == nil {
		return fmt.Errorf("%w: no reply body", ErrAuthoritativePeerUnavailable)
	}

	var payload animationStatesPayload
	if len(reply.Body) > 0 {
		if err := json.Unmarshal(reply.Body, &payload); err != nil {
			return fmt.Errorf("%w: malformed animation states: %v", ErrAuthoritativePeerUnavailable, err)
		}
	}

	authoritativeLatencyMS := authoritative.LatencyMS()
	joiningLatencyMS := joining.LatencyMS()

	for i := range payload.States {
		skew := float64(authoritativeLatencyMS)/2000 + float64(joiningLatencyMS)/2000
		payload.States[i].State.Time += skew
		r.metrics.ClockSkewSec.Observe(skew)
	}

	adjusted, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed re-encoding reconciled animation states: %w", err)
	}

	forward := Message{Discriminant: DiscSyncAnimations, ID: reply.ID, Body: adjusted}
	// sync-animations is explicitly allowed during its own stage:
	// forward bypasses the router entirely via the transport's raw
	// send, since the router's classification has already served its
	// purpose by the time reconciliation starts.
	if err := joining.Transport.RawSend(ctx, forward); err != nil {
		return fmt.Errorf("%w: %v", ErrPeerTransportFailure, err)
	}

	r.log.Debugf("peer %s: reconciled %d animation samples (authoritative=%dms joining=%dms)",
		joining.ID, len(payload.States), authoritativeLatencyMS, joiningLatencyMS)
	return nil
}
