package protocol

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jabolina/sync-runtime/internal/logging"
	"github.com/stretchr/testify/require"
)

// S4: two peers, authoritative latency 100ms, joining peer latency
// 60ms, one animation with state.time = 10.000. Expected: 10.080.
func TestAnimationReconciler_CompensatesBothLinks(t *testing.T) {
	payload := animationStatesPayload{States: []AnimationStateSample{
		{AnimationID: "anim-1", State: AnimationState{Time: 10.000}},
	}}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	authTransport := NewFakeTransport().WithLatency(100 * time.Millisecond)
	authTransport.WithReply(DiscSyncAnimations, Message{Discriminant: DiscSyncAnimations, Body: body})
	authoritative := NewPeer("authoritative", 0, authTransport)
	authoritative.SetLatency(100 * time.Millisecond)

	joiningTransport := NewFakeTransport()
	joining := NewPeer("joining", 1, joiningTransport)
	joining.SetLatency(60 * time.Millisecond)

	reconciler := NewAnimationReconciler(logging.Noop{}, nil)
	require.NoError(t, reconciler.Reconcile(context.Background(), joining, authoritative))

	require.Len(t, joiningTransport.Sent, 1)
	var forwarded animationStatesPayload
	require.NoError(t, json.Unmarshal(joiningTransport.Sent[0].Body, &forwarded))
	require.Len(t, forwarded.States, 1)
	require.InDelta(t, 10.080, forwarded.States[0].State.Time, 1e-9)
}

func TestAnimationReconciler_FailsWhenAuthoritativeUnreachable(t *testing.T) {
	authTransport := NewFakeTransport()
	authTransport.Fail(errors.New("disconnected"))
	authoritative := NewPeer("authoritative", 0, authTransport)
	joining := NewPeer("joining", 1, NewFakeTransport())

	reconciler := NewAnimationReconciler(logging.Noop{}, nil)
	err := reconciler.Reconcile(context.Background(), joining, authoritative)

	require.ErrorIs(t, err, ErrAuthoritativePeerUnavailable)
}
