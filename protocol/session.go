package protocol

// Session groups the peers sharing one application instance and one
// cache. It exposes the three collaborator fields the sync driver and
// router consume: whether staged replay applies at all, which peer is
// authoritative, and the app-facing echo connection used by the
// reply-correlation side effect.
type Session struct {
	// PeerAuthoritative is false in single-authority mode, where the
	// staged replay is skipped entirely for every joining peer — e.g.
	// the application itself is the canonical source of truth and no
	// peer need be asked to replay state.
	PeerAuthoritative bool

	// AuthoritativeClient is the peer the sync-animations stage asks
	// for canonical animation state. Only meaningful when
	// PeerAuthoritative is true.
	AuthoritativeClient *Peer

	// Conn is the application-facing connection. When a reply-expecting
	// message is forwarded while the joining peer is itself flagged
	// authoritative and is the only joined peer, the reply is echoed
	// here too, because the application is synchronously awaiting it.
	Conn Transport

	Cache SessionCache
}
