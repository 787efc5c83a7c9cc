package protocol

import "testing"

func TestDefaultRuleTable_MissingDiscriminantFallsBackToDefault(t *testing.T) {
	table := DefaultRuleTable()
	rule, known := table.RuleFor("does-not-exist")

	if known {
		t.Fatalf("expected unknown discriminant to report known=false")
	}
	if rule != defaultRule {
		t.Fatalf("expected default rule, got %+v", rule)
	}
}

func TestDefaultRuleTable_CoversEveryMessageFamily(t *testing.T) {
	table := DefaultRuleTable()
	families := []Discriminant{
		DiscLoadAsset, DiscAssetUpdate, DiscActorCreate, DiscActorDestroy,
		DiscSetBehavior, DiscCreateAnimation, DiscInterpolateActor,
		DiscSyncAnimations, DiscActorUpdate, DiscHeartbeat,
	}
	for _, d := range families {
		if _, known := table.RuleFor(d); !known {
			t.Errorf("expected an explicit rule for %q", d)
		}
	}
}

func TestOnceWarner_FiresExactlyOncePerDiscriminant(t *testing.T) {
	var w onceWarner
	count := 0
	for i := 0; i < 5; i++ {
		w.WarnOnce("x", func() { count++ })
	}
	w.WarnOnce("y", func() { count++ })

	if count != 2 {
		t.Fatalf("expected exactly 2 emits (one per distinct discriminant), got %d", count)
	}
}
