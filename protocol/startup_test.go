package protocol

import (
	"context"
	"errors"
	"testing"

	"github.com/jabolina/sync-runtime/internal/logging"
)

func TestStartupProtocol_RunsFixedCalibrationBurst(t *testing.T) {
	transport := NewFakeTransport()
	peer := NewPeer("p1", 0, transport)
	peer.NotifySyncRequest()

	startup := NewStartupProtocol(logging.Noop{})
	if err := startup.Run(context.Background(), peer); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := transport.Heartbeats(); got != rttCalibrationSamples {
		t.Fatalf("expected %d heartbeats, got %d", rttCalibrationSamples, got)
	}
}

func TestStartupProtocol_PropagatesTransportFailure(t *testing.T) {
	transport := NewFakeTransport()
	transport.Fail(errors.New("link down"))
	peer := NewPeer("p1", 0, transport)
	peer.NotifySyncRequest()

	startup := NewStartupProtocol(logging.Noop{})
	if err := startup.Run(context.Background(), peer); err == nil {
		t.Fatalf("expected calibration failure to propagate")
	}
}

func TestStartupProtocol_RunFailsIfSyncRequestNeverArrives(t *testing.T) {
	transport := NewFakeTransport()
	peer := NewPeer("p1", 0, transport)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	startup := NewStartupProtocol(logging.Noop{})
	if err := startup.Run(ctx, peer); err == nil {
		t.Fatalf("expected Run to fail when sync-request never arrives and ctx is done")
	}
	if got := transport.Heartbeats(); got != 0 {
		t.Fatalf("expected no heartbeats before sync-request arrives, got %d", got)
	}
}
