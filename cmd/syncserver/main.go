// Command syncserver wires the protocol core together the way a host
// application would: one Session, one SessionCache, a StartupProtocol
// run per new connection, and a SyncDriver spawned per joining peer.
// It is not a demo of asset loading, glTF, or packaging — those stay
// out of scope — it exists to give the module's dependencies (logging,
// metrics) a reachable entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jabolina/sync-runtime/internal/concurrency"
	"github.com/jabolina/sync-runtime/internal/logging"
	"github.com/jabolina/sync-runtime/internal/metrics"
	"github.com/jabolina/sync-runtime/protocol"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	metricsAddr := flag.String("metrics-addr", "", "if set, host:port to serve /metrics on")
	listenAddr := flag.String("listen-addr", "127.0.0.1:7070", "host:port to accept peer connections on")
	flag.Parse()

	log := logging.NewDefault()

	var collectors *metrics.Collectors
	if *metricsAddr != "" {
		registry := prometheus.NewRegistry()
		collectors = metrics.New(registry)
		host, port, err := splitHostPort(*metricsAddr)
		if err != nil {
			log.Errorf("invalid -metrics-addr %q: %v", *metricsAddr, err)
			os.Exit(1)
		}
		go func() {
			if err := metrics.ListenAndServe(registry, host, port); err != nil {
				log.Errorf("metrics server stopped: %v", err)
			}
		}()
	} else {
		collectors = metrics.Noop()
	}

	cache := protocol.NewInMemorySessionCache()
	session := &protocol.Session{
		PeerAuthoritative: true,
		Cache:             cache,
	}

	invoker := concurrency.Instance()
	peers := protocol.NewPeerSet()

	// JoinPeer is what a connection handler calls once a new transport
	// has been accepted. It runs the startup handshake inline (it's
	// brief by design) and spawns the sync driver as its own task, one
	// task per peer.
	joinPeer := func(ctx context.Context, id protocol.PeerID, order int, transport protocol.Transport) {
		peer := protocol.NewPeer(id, order, transport)
		peers.Join(peer)
		session.AuthoritativeClient = peers.Authoritative()

		// The connection's first frame is expected to be sync-request;
		// watch for it on its own task, since StartupProtocol.Run below
		// blocks (and with it the accept loop) until NotifySyncRequest is
		// called. Only netTransport can observe
		// inbound frames at all (FakeTransport is outbound-only, used
		// by tests that drive StartupProtocol directly).
		if nt, ok := transport.(*netTransport); ok {
			invoker.Spawn(func() {
				msg, err := nt.ReceiveOne(ctx)
				if err != nil {
					log.Errorf("peer %s: failed reading inbound sync-request: %v", id, err)
					return
				}
				if msg.Discriminant != protocol.DiscSyncRequest {
					log.Warnf("peer %s: expected sync-request as first frame, got %q", id, msg.Discriminant)
				}
				peer.NotifySyncRequest()
			})
		}

		startup := protocol.NewStartupProtocol(log)
		if err := startup.Run(ctx, peer); err != nil {
			log.Errorf("peer %s: startup failed: %v", id, err)
			peers.Leave(id)
			return
		}

		router := protocol.NewRouter(protocol.DefaultRuleTable(), peer.Stage, peer, session, log, collectors)
		reconciler := protocol.NewAnimationReconciler(log, collectors)
		driver := protocol.NewSyncDriver(peer, session, router, reconciler, log)

		invoker.Spawn(func() {
			if err := driver.Run(ctx); err != nil {
				log.Errorf("peer %s: sync failed: %v", id, err)
				peers.Leave(id)
			}
		})
	}

	listener, err := net.Listen("tcp", *listenAddr)
	if err != nil {
		log.Errorf("failed to listen on %q: %v", *listenAddr, err)
		os.Exit(1)
	}
	defer listener.Close()
	log.Infof("accepting peer connections on %s", *listenAddr)

	order := 0
	for {
		conn, err := listener.Accept()
		if err != nil {
			log.Errorf("accept failed: %v", err)
			return
		}
		id := protocol.PeerID(uuid.New().String())
		joinPeer(context.Background(), id, order, newNetTransport(conn))
		order++
	}
}

func splitHostPort(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, err
	}
	return host, port, nil
}

// wireMessage is the line-delimited JSON framing netTransport speaks.
// The actual wire format is left to the external collaborator; this is
// just enough framing to make the example binary reachable end to end.
type wireMessage struct {
	Discriminant protocol.Discriminant `json:"discriminant"`
	ID           uuid.UUID             `json:"id"`
	Body         []byte                `json:"body"`
	ActorID      string                `json:"actor_id"`
}

// netTransport is a minimal protocol.Transport over a net.Conn: encode a
// frame, then block for exactly one frame back. It is not a multiplexed
// wire protocol — concurrent in-flight Send calls on one connection will
// race over the same reply stream — good enough to give this example
// binary one real, non-test Transport instead of only FakeTransport, not
// meant as the production framing.
type netTransport struct {
	mu      sync.Mutex
	enc     *json.Encoder
	dec     *json.Decoder
	latency time.Duration
}

func newNetTransport(conn net.Conn) *netTransport {
	return &netTransport{enc: json.NewEncoder(conn), dec: json.NewDecoder(conn)}
}

func (t *netTransport) Send(ctx context.Context, m protocol.Message) (*protocol.Message, error) {
	start := time.Now()
	if err := t.RawSend(ctx, m); err != nil {
		return nil, err
	}

	t.mu.Lock()
	var reply wireMessage
	err := t.dec.Decode(&reply)
	t.mu.Unlock()
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.latency = time.Since(start)
	t.mu.Unlock()

	out := protocol.Message{Discriminant: reply.Discriminant, ID: reply.ID, Body: reply.Body, ActorID: reply.ActorID}
	return &out, nil
}

// ReceiveOne decodes exactly one inbound frame, blocking until it arrives.
// Only safe to call before any concurrent Send/Heartbeat has started
// decoding on this connection — used once, for the initial sync-request,
// before the startup handshake's calibration burst begins.
func (t *netTransport) ReceiveOne(ctx context.Context) (*protocol.Message, error) {
	t.mu.Lock()
	var in wireMessage
	err := t.dec.Decode(&in)
	t.mu.Unlock()
	if err != nil {
		return nil, err
	}
	out := protocol.Message{Discriminant: in.Discriminant, ID: in.ID, Body: in.Body, ActorID: in.ActorID}
	return &out, nil
}

func (t *netTransport) RawSend(ctx context.Context, m protocol.Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enc.Encode(wireMessage{Discriminant: m.Discriminant, ID: m.ID, Body: m.Body, ActorID: m.ActorID})
}

func (t *netTransport) Latency() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.latency
}

func (t *netTransport) Heartbeat(ctx context.Context) error {
	_, err := t.Send(ctx, protocol.NewMessage(protocol.DiscHeartbeat, nil))
	return err
}
