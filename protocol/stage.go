package protocol

// Stage is a named phase in a peer's catch-up lifecycle. The package
// defines exactly the values below and uses no others; Stage is a plain
// string type, so it does not prevent other values being converted to it.
type Stage string

const (
	StageAlways           Stage = "always"
	StageLoadAssets       Stage = "load-assets"
	StageCreateActors     Stage = "create-actors"
	StageSetBehaviors     Stage = "set-behaviors"
	StageCreateAnimations Stage = "create-animations"
	StageSyncAnimations   Stage = "sync-animations"
)

// Sequence is the fixed order staged replay walks. always wraps the
// whole sync and is not itself part of it.
var Sequence = []Stage{
	StageLoadAssets,
	StageCreateActors,
	StageSetBehaviors,
	StageCreateAnimations,
	StageSyncAnimations,
}

// Handling is the router's classification of an outbound message.
type Handling string

const (
	HandlingAllow   Handling = "allow"
	HandlingQueue   Handling = "queue"
	HandlingIgnore  Handling = "ignore"
	HandlingError   Handling = "error"
)
