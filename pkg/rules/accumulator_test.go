package rules

import "testing"

func newAlphaOverType(wm *WorkingMemory, typ string) *alphaNode {
	n := &alphaNode{typ: typ}
	n.inject(wm)
	return n
}

func TestAccumulatorNode_SimpleFormReaggregatesEveryEvaluation(t *testing.T) {
	wm := NewWorkingMemory()
	wm.Insert("Product", Payload{"price": 10.0})
	wm.Insert("Product", Payload{"price": 20.0})

	n := &accumulatorNode{
		child: newAlphaOverType(wm, "Product"),
		spec: &AccumulateSpec{
			Aggregate: func(facts []*Fact) interface{} {
				var total float64
				for _, f := range facts {
					v, _ := f.Get("price")
					total += v.(float64)
				}
				return total
			},
			Test: func(interface{}) bool { return true },
		},
		varName: "total",
	}

	matches := n.evaluate()
	if len(matches) != 1 {
		t.Fatalf("expected exactly one accumulator match, got %d", len(matches))
	}
	if got := matches[0].Bindings["total"].(float64); got != 30.0 {
		t.Fatalf("expected total 30, got %v", got)
	}
}

func TestAccumulatorNode_IncrementalReduceAcrossEvaluations(t *testing.T) {
	wm := NewWorkingMemory()
	a, _ := wm.Insert("Product", Payload{"price": 10.0})

	n := &accumulatorNode{
		child: newAlphaOverType(wm, "Product"),
		spec: &AccumulateSpec{
			Initial: func() interface{} { return 0.0 },
			Reduce: func(state interface{}, f *Fact) interface{} {
				v, _ := f.Get("price")
				return state.(float64) + v.(float64)
			},
			Retract: func(state interface{}, f *Fact) interface{} {
				v, _ := f.Get("price")
				return state.(float64) - v.(float64)
			},
			Test: func(interface{}) bool { return true },
		},
		varName: "total",
	}

	first := n.evaluate()
	if got := first[0].Bindings["total"].(float64); got != 10.0 {
		t.Fatalf("expected total 10 after first evaluation, got %v", got)
	}

	wm.Insert("Product", Payload{"price": 20.0})
	second := n.evaluate()
	if got := second[0].Bindings["total"].(float64); got != 30.0 {
		t.Fatalf("expected total 30 after adding a second product, got %v", got)
	}

	wm.Remove(a.ID())
	third := n.evaluate()
	if got := third[0].Bindings["total"].(float64); got != 20.0 {
		t.Fatalf("expected total 20 after retracting the first product, got %v", got)
	}
}

func TestAccumulatorNode_FallsBackToResetWhenRetractMissing(t *testing.T) {
	wm := NewWorkingMemory()
	a, _ := wm.Insert("Product", Payload{"price": 10.0})
	wm.Insert("Product", Payload{"price": 20.0})

	resets := 0
	n := &accumulatorNode{
		child: newAlphaOverType(wm, "Product"),
		spec: &AccumulateSpec{
			Initial: func() interface{} { resets++; return 0.0 },
			Reduce: func(state interface{}, f *Fact) interface{} {
				v, _ := f.Get("price")
				return state.(float64) + v.(float64)
			},
			Test: func(interface{}) bool { return true },
		},
		varName: "total",
	}

	n.evaluate()
	if resets != 1 {
		t.Fatalf("expected exactly one reset after the first evaluation, got %d", resets)
	}

	wm.Remove(a.ID())
	got := n.evaluate()
	if total := got[0].Bindings["total"].(float64); total != 20.0 {
		t.Fatalf("expected total 20 after the no-retract reset path, got %v", total)
	}
	if resets != 2 {
		t.Fatalf("expected the missing Retract to force a second reset, got %d resets", resets)
	}
}

func TestAccumulatorNode_TestFunctionFiltersTheResult(t *testing.T) {
	wm := NewWorkingMemory()
	wm.Insert("Product", Payload{"price": 10.0})

	n := &accumulatorNode{
		child: newAlphaOverType(wm, "Product"),
		spec: &AccumulateSpec{
			Aggregate: func(facts []*Fact) interface{} { return len(facts) },
			Test:      func(v interface{}) bool { return v.(int) > 5 },
		},
	}

	if got := n.evaluate(); len(got) != 0 {
		t.Fatalf("expected the accumulator match to be filtered out, got %d matches", len(got))
	}
}
