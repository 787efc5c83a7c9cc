package protocol

import (
	"context"
	"fmt"
	"time"

	"github.com/jabolina/sync-runtime/internal/logging"
)

// rttCalibrationSamples is the fixed burst of heartbeat round trips the
// startup protocol runs before handing control to the sync driver.
const rttCalibrationSamples = 10

// StartupProtocol runs the brief handshake a new connection goes through
// before sync begins: wait for the peer's first sync-request, then run a
// fixed heartbeat burst to calibrate RTT.
type StartupProtocol struct {
	log logging.Logger
}

// NewStartupProtocol builds a StartupProtocol that logs through log.
func NewStartupProtocol(log logging.Logger) *StartupProtocol {
	return &StartupProtocol{log: log}
}

// Run blocks until peer.NotifySyncRequest has been called, then performs
// the calibration burst against peer's transport and records the
// resulting latency on peer. Never receiving a sync-request, or a
// transport failure during calibration, both propagate to the caller,
// which is expected to drop the peer.
func (s *StartupProtocol) Run(ctx context.Context, peer *Peer) error {
	s.log.Debugf("peer %s: waiting for sync-request", peer.ID)
	if err := peer.AwaitSyncRequest(ctx); err != nil {
		return fmt.Errorf("peer %s: never received sync-request: %w", peer.ID, err)
	}

	s.log.Debugf("peer %s: starting RTT calibration (%d samples)", peer.ID, rttCalibrationSamples)

	start := time.Now()
	for i := 0; i < rttCalibrationSamples; i++ {
		if err := peer.Transport.Heartbeat(ctx); err != nil {
			return fmt.Errorf("peer %s: RTT calibration failed on sample %d: %w", peer.ID, i, ErrPeerTransportFailure)
		}
	}
	elapsed := time.Since(start)

	// Average the burst's round trip rather than trusting a single
	// sample, the same way a real connection would smooth a jittery
	// link before reporting quality.latency_ms.
	peer.SetLatency(elapsed / rttCalibrationSamples)
	s.log.Infof("peer %s: calibrated latency %dms", peer.ID, peer.LatencyMS())
	return nil
}
