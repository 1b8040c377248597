// Package aggregate provides the common aggregator shapes named in §4.8:
// count, sum-of-attribute, max-of-attribute, and collect-all. Each returns an
// *rules.AccumulateSpec ready to attach to an atomic condition via
// Condition.WithAccumulate.
package aggregate

import "ruleforge/pkg/rules"

// Count accumulates the number of matching facts.
func Count(test rules.ValueTest) *rules.AccumulateSpec {
	return &rules.AccumulateSpec{
		Initial: func() interface{} { return 0 },
		Reduce: func(state interface{}, _ *rules.Fact) interface{} {
			return state.(int) + 1
		},
		Retract: func(state interface{}, _ *rules.Fact) interface{} {
			return state.(int) - 1
		},
		Test: test,
	}
}

// Sum accumulates the sum of a numeric payload field across matching facts.
// Facts missing the field, or carrying a non-numeric value for it, contribute
// zero.
func Sum(field string, test rules.ValueTest) *rules.AccumulateSpec {
	return &rules.AccumulateSpec{
		Initial: func() interface{} { return 0.0 },
		Reduce: func(state interface{}, fact *rules.Fact) interface{} {
			return state.(float64) + numericField(fact, field)
		},
		Retract: func(state interface{}, fact *rules.Fact) interface{} {
			return state.(float64) - numericField(fact, field)
		},
		Test: test,
	}
}

// maxState tracks the running maximum and whether any fact has been reduced
// yet, so the empty-set contract (§4.5) can distinguish "no facts" from "max
// is zero".
type maxState struct {
	value float64
	has   bool
}

// Max accumulates the maximum of a numeric payload field across matching
// facts. It deliberately has no Retract: removing the current maximum can
// only be resolved by rescanning, so it relies on the engine's documented
// fallback (reset to Initial and reduce over the full current fact set)
// whenever the remove-set is non-empty.
func Max(field string, test rules.ValueTest) *rules.AccumulateSpec {
	return &rules.AccumulateSpec{
		Initial: func() interface{} { return maxState{} },
		Reduce: func(state interface{}, fact *rules.Fact) interface{} {
			s := state.(maxState)
			v := numericField(fact, field)
			if !s.has || v > s.value {
				return maxState{value: v, has: true}
			}
			return s
		},
		Convert: func(state interface{}) interface{} {
			s := state.(maxState)
			if !s.has {
				return nil
			}
			return s.value
		},
		Test: test,
	}
}

// CollectAll binds the underlying fact sequence itself as the accumulated
// value — the simple form, since there is no reduction to do incrementally.
func CollectAll(test rules.ValueTest) *rules.AccumulateSpec {
	return &rules.AccumulateSpec{
		Aggregate: func(facts []*rules.Fact) interface{} { return facts },
		Test:      test,
	}
}

// numericField extracts field from fact's payload as a float64, treating a
// missing or non-numeric field as zero.
func numericField(fact *rules.Fact, field string) float64 {
	v, ok := fact.Get(field)
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case int32:
		return float64(n)
	default:
		return 0
	}
}
