package rules

// accumulatorNode wraps a child node (by compiler convention, an Alpha node
// with no variable binding of its own) and reduces its matching facts to a
// scalar value, either freshly every evaluation (simple form) or
// incrementally across evaluations (incremental form), per §4.5.
type accumulatorNode struct {
	child   node
	spec    *AccumulateSpec
	varName string

	// Incremental-form state, keyed by the empty binding context — see the
	// "Accumulator state lifetime" design note: this single slot is correct
	// only for accumulators at the top level or under purely-constant parent
	// bindings.
	state        interface{}
	stateReady   bool
	reducedFacts map[int64]*Fact
}

func (n *accumulatorNode) inject(wm *WorkingMemory) { n.child.inject(wm) }

func (n *accumulatorNode) evaluate() []PartialMatch {
	childMatches := n.child.evaluate()
	allFacts := make([]*Fact, 0, len(childMatches))
	for _, m := range childMatches {
		allFacts = append(allFacts, m.Facts...)
	}

	var value interface{}
	if n.spec.Aggregate != nil {
		value = n.spec.Aggregate(allFacts)
	} else {
		value = n.evaluateIncremental(allFacts)
	}

	if !n.spec.Test(value) {
		return nil
	}

	bindings := Bindings{}
	if n.varName != "" {
		bindings[n.varName] = value
	}

	return []PartialMatch{{
		Facts:             allFacts,
		Bindings:          bindings,
		AccumulatorResult: value,
	}}
}

// evaluateIncremental applies the add-set/remove-set reduce/retract protocol
// of §4.5 and returns the converted value.
func (n *accumulatorNode) evaluateIncremental(currentFacts []*Fact) interface{} {
	if !n.stateReady {
		n.state = n.spec.Initial()
		n.reducedFacts = make(map[int64]*Fact)
		n.stateReady = true
	}

	current := make(map[int64]*Fact, len(currentFacts))
	for _, f := range currentFacts {
		current[f.ID()] = f
	}

	var removed []int64
	for id := range n.reducedFacts {
		if _, ok := current[id]; !ok {
			removed = append(removed, id)
		}
	}

	skipAddReduce := false
	if len(removed) > 0 {
		if n.spec.Retract != nil {
			for _, id := range removed {
				n.state = n.spec.Retract(n.state, n.reducedFacts[id])
				delete(n.reducedFacts, id)
			}
		} else {
			n.state = n.spec.Initial()
			n.reducedFacts = make(map[int64]*Fact, len(current))
			for _, f := range currentFacts {
				n.state = n.spec.Reduce(n.state, f)
				n.reducedFacts[f.ID()] = f
			}
			skipAddReduce = true
		}
	}

	if !skipAddReduce {
		for id, f := range current {
			if _, already := n.reducedFacts[id]; already {
				continue
			}
			n.state = n.spec.Reduce(n.state, f)
			n.reducedFacts[id] = f
		}
	}

	if n.spec.Convert != nil {
		return n.spec.Convert(n.state)
	}
	return n.state
}
