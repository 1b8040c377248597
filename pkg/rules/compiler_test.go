package rules

import "testing"

func TestCompile_RejectsTypeWithComposite(t *testing.T) {
	c := &Condition{Type: "Person", All: []*Condition{TypeCondition("Animal")}}
	_, err := compile(c)
	if !IsInvalidDSL(err) {
		t.Fatalf("expected an InvalidDSL error, got %v", err)
	}
}

func TestCompile_RejectsTypeWithBareTest(t *testing.T) {
	c := &Condition{Type: "Person", Test: func([]*Fact, Bindings) bool { return true }}
	_, err := compile(c)
	if !IsInvalidDSL(err) {
		t.Fatalf("expected an InvalidDSL error, got %v", err)
	}
}

func TestCompile_RejectsMultipleCompositeKeys(t *testing.T) {
	c := &Condition{All: []*Condition{TypeCondition("A")}, Any: []*Condition{TypeCondition("B")}}
	_, err := compile(c)
	if !IsInvalidDSL(err) {
		t.Fatalf("expected an InvalidDSL error, got %v", err)
	}
}

func TestCompile_RejectsEmptyCondition(t *testing.T) {
	_, err := compile(&Condition{})
	if !IsInvalidDSL(err) {
		t.Fatalf("expected an InvalidDSL error, got %v", err)
	}
}

func TestCompile_RejectsAccumulateWithoutType(t *testing.T) {
	c := &Condition{Accumulate: &AccumulateSpec{
		Aggregate: func([]*Fact) interface{} { return 0 },
		Test:      func(interface{}) bool { return true },
	}}
	_, err := compile(c)
	if !IsInvalidDSL(err) {
		t.Fatalf("expected an InvalidDSL error, got %v", err)
	}
}

func TestCompile_RejectsAccumulateWithBothForms(t *testing.T) {
	c := TypeCondition("Product").WithAccumulate(&AccumulateSpec{
		Aggregate: func([]*Fact) interface{} { return 0 },
		Initial:   func() interface{} { return 0 },
		Reduce:    func(s interface{}, _ *Fact) interface{} { return s },
		Test:      func(interface{}) bool { return true },
	})
	_, err := compile(c)
	if !IsInvalidDSL(err) {
		t.Fatalf("expected an InvalidDSL error, got %v", err)
	}
}

func TestCompile_AtomicConditionReferencesItsType(t *testing.T) {
	res, err := compile(TypeCondition("Person"))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if _, ok := res.referencedTypes["Person"]; !ok {
		t.Fatalf("expected referencedTypes to include Person, got %v", res.referencedTypes)
	}
	if res.hasNegation {
		t.Fatal("a plain atomic condition should not set hasNegation")
	}
}

func TestCompile_NotSetsHasNegation(t *testing.T) {
	res, err := compile(Not(TypeCondition("Person")))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !res.hasNegation {
		t.Fatal("expected hasNegation to be set for a not: condition")
	}
}

func TestCompile_JoinWithEmbeddedBetaTest(t *testing.T) {
	wm := NewWorkingMemory()
	wm.Insert("Person", Payload{"name": "Alice"})

	cond := All(
		TypeCondition("Person").WithVar("p"),
		BetaTest(func(_ []*Fact, b Bindings) bool {
			f := b["p"].(*Fact)
			name, _ := f.Get("name")
			return name == "Alice"
		}),
	)

	res, err := compile(cond)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	res.root.inject(wm)

	matches := res.root.evaluate()
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
}

func TestUnify_ConflictingFactBindingFails(t *testing.T) {
	wm := NewWorkingMemory()
	a, _ := wm.Insert("Person", Payload{"name": "Alice"})
	b, _ := wm.Insert("Person", Payload{"name": "Bob"})

	m1 := PartialMatch{Bindings: Bindings{"p": a}}
	m2 := PartialMatch{Bindings: Bindings{"p": b}}

	if _, ok := unify(m1, m2); ok {
		t.Fatal("expected unify to fail when a variable is bound to two distinct facts")
	}
}

func TestUnify_NonComparableAccumulatorValueDoesNotPanic(t *testing.T) {
	m1 := PartialMatch{Bindings: Bindings{"items": []*Fact{{id: 1}, {id: 2}}}}
	m2 := PartialMatch{Bindings: Bindings{"items": []*Fact{{id: 1}, {id: 2}}}}

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("unify panicked on a slice-valued binding: %v", r)
		}
	}()
	if _, ok := unify(m1, m2); !ok {
		t.Fatal("expected deep-equal slice bindings to unify successfully")
	}
}
