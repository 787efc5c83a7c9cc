package protocol

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jabolina/sync-runtime/internal/logging"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*Router, *Peer, *FakeTransport) {
	t.Helper()
	transport := NewFakeTransport()
	peer := NewPeer("peer-1", 0, transport)
	session := &Session{PeerAuthoritative: true, AuthoritativeClient: peer, Conn: transport}
	router := NewRouter(DefaultRuleTable(), peer.Stage, peer, session, logging.Noop{}, nil)
	return router, peer, transport
}

func TestRouter_RouteBeforeDuringAfter(t *testing.T) {
	router, peer, _ := newTestRouter(t)
	m := Message{Discriminant: DiscActorCreate}

	require.Equal(t, HandlingQueue, router.Route(m), "before create-actors starts, actor-create should queue")

	peer.Stage.Begin(StageCreateActors)
	require.Equal(t, HandlingAllow, router.Route(m), "during create-actors, actor-create should be allowed")

	peer.Stage.Complete(StageCreateActors)
	require.Equal(t, HandlingAllow, router.Route(m), "after create-actors, actor-create should still be allowed")
}

func TestRouter_UnknownDiscriminantFallsBackToDefaultRule(t *testing.T) {
	router, _, _ := newTestRouter(t)
	m := Message{Discriminant: "totally-unknown"}

	require.Equal(t, HandlingQueue, router.Route(m))
}

func TestRouter_SendQueueDefersUntilAllowed(t *testing.T) {
	router, peer, transport := newTestRouter(t)
	m := Message{Discriminant: DiscActorCreate, ID: uuid.New()}

	require.NoError(t, router.Send(context.Background(), m, nil))
	require.Empty(t, transport.Sent, "queued message must not reach the transport yet")
	require.Equal(t, 1, peer.Queue.Len())
}

func TestRouter_SendIgnoreResolvesReplyAsEmpty(t *testing.T) {
	router, _, _ := newTestRouter(t)
	// sync-animations reply is "ignore" before its own stage begins.
	m := Message{Discriminant: DiscSyncAnimations}
	reply := NewReplyContinuation()

	require.NoError(t, router.Send(context.Background(), m, reply))

	got, err := reply.Await(context.Background())
	require.NoError(t, err)
	require.Nil(t, got, "ignored message should resolve with no reply value")
}

func TestRouter_SyncCompleteBeforeAlwaysBegunIsARuleViolation(t *testing.T) {
	router, peer, transport := newTestRouter(t)
	// always hasn't been Begin'd yet — a sync-complete here would mean
	// the driver tried to conclude a sync that never started.
	require.False(t, peer.Stage.IsInProgress(StageAlways))
	require.False(t, peer.Stage.IsComplete(StageAlways))

	m := Message{Discriminant: DiscSyncComplete}
	require.Equal(t, HandlingError, router.Route(m))

	reply := NewReplyContinuation()
	err := router.Send(context.Background(), m, reply)
	require.ErrorIs(t, err, ErrRuleViolation)
	require.Empty(t, transport.Sent, "a rule-violating message must never reach the transport")

	_, replyErr := reply.Await(context.Background())
	require.ErrorIs(t, replyErr, ErrRuleViolation)
}

func TestRouter_ReplyEchoedOnAppConnectionWhenSoleAuthoritativePeer(t *testing.T) {
	router, peer, transport := newTestRouter(t)
	peer.Stage.Begin(StageAlways) // heartbeat is allowed in every phase of always

	m := Message{Discriminant: DiscHeartbeat}
	reply := NewReplyContinuation()
	require.NoError(t, router.Send(context.Background(), m, reply))

	_, err := reply.Await(context.Background())
	require.NoError(t, err)
	// The fake transport plays both the peer link and the app-facing
	// connection in this test, so the echo shows up as a second entry:
	// one for the peer send, one for the echoed reply.
	require.Len(t, transport.Sent, 2)
}
