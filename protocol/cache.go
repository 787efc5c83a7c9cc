package protocol

// CachedActor mirrors the cached actor shape exposed by the session
// cache. Read-only from this package's point of view.
type CachedActor struct {
	ActorID              string
	CreatedMessage       Message
	CreatedAnimations    []CreatedAnimation
	ActiveInterpolations []Message
	Behavior             *string
}

// CreatedAnimation pairs an animation's creation message with the
// descriptor metadata the application attaches to it.
type CreatedAnimation struct {
	AnimationID string
	Message     Message
}

// AnimationState is the mutable-in-place per-sample state the
// reconciler rewrites.
type AnimationState struct {
	Time float64 // seconds
}

// AnimationStateSample pairs an animation id with its current state.
type AnimationStateSample struct {
	AnimationID string
	State       AnimationState
}

// SessionCache is the external, read-only (from this package) store of
// past create/update messages a joining peer replays against. It is
// appended to by the application's own task, never by sync drivers —
// implementations must tolerate concurrent appends and hand back a
// consistent prefix to a reader that started enumerating before a new
// append landed.
type SessionCache interface {
	// Assets returns the cached load-asset messages, in cache order.
	Assets() []Message

	// AssetUpdates returns the cached asset-update payloads, in cache
	// order.
	AssetUpdates() []Message

	// RootActors returns the cached actor tree's roots.
	RootActors() []CachedActor

	// Actors returns every cached actor, regardless of tree position.
	Actors() []CachedActor

	// ChildrenOf returns the direct children of actorID, in cache
	// order. Implementations must not block on actorID existing.
	ChildrenOf(actorID string) []CachedActor
}

// InMemorySessionCache is a minimal, append-only SessionCache
// implementation suitable for tests and for cmd/syncserver's wiring
// example. It is not meant to be the production cache — the session
// cache is treated as an external collaborator — but something has to
// satisfy the interface for this module to be exercised end to end.
type InMemorySessionCache struct {
	assets       []Message
	assetUpdates []Message
	actors       map[string]CachedActor
	children     map[string][]string
	roots        []string
}

// NewInMemorySessionCache returns an empty cache.
func NewInMemorySessionCache() *InMemorySessionCache {
	return &InMemorySessionCache{
		actors:   make(map[string]CachedActor),
		children: make(map[string][]string),
	}
}

// AppendAsset records a cached load-asset message.
func (c *InMemorySessionCache) AppendAsset(m Message) { c.assets = append(c.assets, m) }

// AppendAssetUpdate records a cached asset-update payload.
func (c *InMemorySessionCache) AppendAssetUpdate(m Message) { c.assetUpdates = append(c.assetUpdates, m) }

// AppendActor records a cached actor. If parentID is non-empty, actor is
// recorded as a child of parentID; otherwise it becomes a root.
func (c *InMemorySessionCache) AppendActor(parentID string, actor CachedActor) {
	c.actors[actor.ActorID] = actor
	if parentID == "" {
		c.roots = append(c.roots, actor.ActorID)
		return
	}
	c.children[parentID] = append(c.children[parentID], actor.ActorID)
}

func (c *InMemorySessionCache) Assets() []Message       { return append([]Message(nil), c.assets...) }
func (c *InMemorySessionCache) AssetUpdates() []Message { return append([]Message(nil), c.assetUpdates...) }

func (c *InMemorySessionCache) RootActors() []CachedActor {
	out := make([]CachedActor, 0, len(c.roots))
	for _, id := range c.roots {
		out = append(out, c.actors[id])
	}
	return out
}

func (c *InMemorySessionCache) Actors() []CachedActor {
	out := make([]CachedActor, 0, len(c.actors))
	for _, a := range c.actors {
		out = append(out, a)
	}
	return out
}

func (c *InMemorySessionCache) ChildrenOf(actorID string) []CachedActor {
	ids := c.children[actorID]
	out := make([]CachedActor, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.actors[id])
	}
	return out
}
