package protocol

import "sync"

// Rule is the per-discriminant decision record: which stage governs this
// message, and how to classify it depending on whether that stage is
// before, during, or after its in_progress window.
type Rule struct {
	Stage  Stage
	Before Handling
	During Handling
	After  Handling
}

// defaultRule is the fail-safe applied to any discriminant without an
// explicit entry: defer until sync completes in full. Gated on always
// rather than one of the replay stages, since always is the only stage
// whose in_progress window spans the entire sync (begun first, completed
// last) — exactly the "don't forward until the whole thing is done"
// semantics an unrecognized discriminant should get.
var defaultRule = Rule{
	Stage:  StageAlways,
	Before: HandlingQueue,
	During: HandlingQueue,
	After:  HandlingAllow,
}

// RuleTable is the static discriminant -> Rule association. It is the
// router's only source of classification; nothing else in this module
// decides handling.
type RuleTable struct {
	rules map[Discriminant]Rule
}

// DefaultRuleTable builds the production rule table covering every
// discriminant family the protocol names, plus actor-destroy — the
// original discriminant table was explicitly illustrative, not
// exhaustive, so this one fills in the gap.
func DefaultRuleTable() *RuleTable {
	return &RuleTable{
		rules: map[Discriminant]Rule{
			DiscLoadAsset:        {Stage: StageLoadAssets, Before: HandlingQueue, During: HandlingAllow, After: HandlingAllow},
			DiscAssetUpdate:      {Stage: StageLoadAssets, Before: HandlingQueue, During: HandlingAllow, After: HandlingAllow},
			DiscActorCreate:      {Stage: StageCreateActors, Before: HandlingQueue, During: HandlingAllow, After: HandlingAllow},
			DiscActorDestroy:     {Stage: StageCreateActors, Before: HandlingQueue, During: HandlingAllow, After: HandlingAllow},
			DiscSetBehavior:      {Stage: StageSetBehaviors, Before: HandlingQueue, During: HandlingAllow, After: HandlingAllow},
			DiscCreateAnimation:  {Stage: StageCreateAnimations, Before: HandlingQueue, During: HandlingAllow, After: HandlingAllow},
			DiscInterpolateActor: {Stage: StageCreateAnimations, Before: HandlingQueue, During: HandlingAllow, After: HandlingAllow},
			DiscSyncAnimations:   {Stage: StageSyncAnimations, Before: HandlingIgnore, During: HandlingAllow, After: HandlingAllow},
			DiscActorUpdate:      {Stage: StageAlways, Before: HandlingQueue, During: HandlingQueue, After: HandlingAllow},
			DiscHeartbeat:        {Stage: StageAlways, Before: HandlingAllow, During: HandlingAllow, After: HandlingAllow},
			DiscSyncRequest:      {Stage: StageAlways, Before: HandlingAllow, During: HandlingAllow, After: HandlingAllow},
			// sync-complete is only ever constructed by SyncDriver.Run,
			// and only after it has already completed always — seeing
			// one routed before always has even begun is structurally
			// impossible, not something to quietly queue or allow.
			DiscSyncComplete: {Stage: StageAlways, Before: HandlingError, During: HandlingAllow, After: HandlingAllow},
		},
	}
}

// RuleFor returns the rule registered for d, or the default rule on
// miss. Misses are logged once per discriminant by the caller (Router),
// not here, since this method has no Logger to write to — it stays a
// pure lookup.
func (t *RuleTable) RuleFor(d Discriminant) (Rule, bool) {
	r, ok := t.rules[d]
	if !ok {
		return defaultRule, false
	}
	return r, true
}

// onceWarner de-duplicates "unknown discriminant" log lines so a flood
// of the same unmapped message type doesn't spam the log.
type onceWarner struct {
	mu   sync.Mutex
	seen map[Discriminant]struct{}
}

// WarnOnce runs emit exactly once per distinct discriminant across this
// warner's lifetime.
func (w *onceWarner) WarnOnce(d Discriminant, emit func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.seen == nil {
		w.seen = make(map[Discriminant]struct{})
	}
	if _, ok := w.seen[d]; ok {
		return
	}
	w.seen[d] = struct{}{}
	emit()
}
