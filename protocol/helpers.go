package protocol

import "encoding/json"

// setBehaviorBody is the set-behavior wire shape: { actor_id,
// behavior_type }.
type setBehaviorBody struct {
	ActorID      string `json:"actor_id"`
	BehaviorType string `json:"behavior_type"`
}

func encodeSetBehavior(actorID, behaviorType string) ([]byte, error) {
	return json.Marshal(setBehaviorBody{ActorID: actorID, BehaviorType: behaviorType})
}

// withEnabledForced returns a copy of interpolation with its body's
// "enabled" field rewritten to forced, leaving every other field
// untouched. The interpolation payload is otherwise opaque to this
// module, but this one field must be overridden before the first
// forward, so it's the one place this package looks inside a body at
// all.
func withEnabledForced(interpolation Message, forced bool) Message {
	var fields map[string]json.RawMessage
	if len(interpolation.Body) > 0 {
		if err := json.Unmarshal(interpolation.Body, &fields); err != nil || fields == nil {
			// Body wasn't a JSON object; leave it untouched rather than
			// fail the whole stage over a field we can't locate.
			return interpolation
		}
	} else {
		fields = make(map[string]json.RawMessage)
	}

	forcedValue, _ := json.Marshal(forced)
	fields["enabled"] = forcedValue

	body, err := json.Marshal(fields)
	if err != nil {
		return interpolation
	}

	out := interpolation
	out.Body = body
	return out
}
