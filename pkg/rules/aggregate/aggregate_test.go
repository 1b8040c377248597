package aggregate

import (
	"testing"

	"ruleforge/pkg/rules"
)

func alwaysTrue(interface{}) bool { return true }

func TestCount_ReducesAndRetracts(t *testing.T) {
	spec := Count(alwaysTrue)
	state := spec.Initial()
	f := &rules.Fact{}

	state = spec.Reduce(state, f)
	state = spec.Reduce(state, f)
	if state.(int) != 2 {
		t.Fatalf("expected count 2, got %v", state)
	}

	state = spec.Retract(state, f)
	if state.(int) != 1 {
		t.Fatalf("expected count 1 after retract, got %v", state)
	}
}

func TestSum_TreatsMissingFieldAsZero(t *testing.T) {
	spec := Sum("price", alwaysTrue)
	wm := rules.NewWorkingMemory()
	withPrice, _ := wm.Insert("Product", rules.Payload{"price": 10.0})
	withoutPrice, _ := wm.Insert("Product", rules.Payload{})

	state := spec.Initial()
	state = spec.Reduce(state, withPrice)
	state = spec.Reduce(state, withoutPrice)

	if state.(float64) != 10.0 {
		t.Fatalf("expected sum 10, got %v", state)
	}
}

func TestMax_ConvertReportsNilForEmptySet(t *testing.T) {
	spec := Max("price", alwaysTrue)
	state := spec.Initial()
	if got := spec.Convert(state); got != nil {
		t.Fatalf("expected nil for an empty reduction, got %v", got)
	}
}

func TestMax_TracksRunningMaximum(t *testing.T) {
	spec := Max("price", alwaysTrue)
	wm := rules.NewWorkingMemory()
	low, _ := wm.Insert("Product", rules.Payload{"price": 5.0})
	high, _ := wm.Insert("Product", rules.Payload{"price": 50.0})

	state := spec.Initial()
	state = spec.Reduce(state, low)
	state = spec.Reduce(state, high)

	if got := spec.Convert(state); got.(float64) != 50.0 {
		t.Fatalf("expected max 50, got %v", got)
	}
}

func TestCollectAll_AggregatesTheFactSlice(t *testing.T) {
	spec := CollectAll(alwaysTrue)
	wm := rules.NewWorkingMemory()
	a, _ := wm.Insert("Product", rules.Payload{"price": 1.0})
	b, _ := wm.Insert("Product", rules.Payload{"price": 2.0})

	got := spec.Aggregate([]*rules.Fact{a, b})
	facts, ok := got.([]*rules.Fact)
	if !ok {
		t.Fatalf("expected []*rules.Fact, got %T", got)
	}
	if len(facts) != 2 {
		t.Fatalf("expected 2 facts, got %d", len(facts))
	}
}
