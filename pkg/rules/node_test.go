package rules

import "testing"

func TestLogicalAnyNode_DoesNotDeduplicateOverlappingMatches(t *testing.T) {
	wm := NewWorkingMemory()
	wm.Insert("Animal", Payload{"species": "cat", "age": 3})

	branchA := &alphaNode{typ: "Animal", test: func(p Payload) bool {
		s, _ := p["species"].(string)
		return s == "cat"
	}}
	branchB := &alphaNode{typ: "Animal", test: func(p Payload) bool {
		age, _ := p["age"].(int)
		return age == 3
	}}

	n := &logicalAnyNode{children: []node{branchA, branchB}}
	n.inject(wm)

	matches := n.evaluate()
	if len(matches) != 2 {
		t.Fatalf("expected the same fact to appear once per matching branch (2 total), got %d", len(matches))
	}
}

func TestLogicalNotNode_DiscardsChildBindings(t *testing.T) {
	wm := NewWorkingMemory()
	// No Expired entities: the not: branch should hold with an empty,
	// binding-free match.
	alpha := &alphaNode{typ: "Entity", varName: "e", test: func(p Payload) bool {
		s, _ := p["status"].(string)
		return s == "Expired"
	}}
	n := &logicalNotNode{child: alpha}
	n.inject(wm)

	matches := n.evaluate()
	if len(matches) != 1 {
		t.Fatalf("expected not: to hold with exactly one empty match, got %d", len(matches))
	}
	if len(matches[0].Bindings) != 0 {
		t.Fatalf("expected not: to discard bindings, got %v", matches[0].Bindings)
	}

	wm.Insert("Entity", Payload{"status": "Expired"})
	if got := n.evaluate(); len(got) != 0 {
		t.Fatalf("expected not: to fail once a matching fact exists, got %d matches", len(got))
	}
}

func TestLogicalExistsNode_HoldsOnlyWithAtLeastOneMatch(t *testing.T) {
	wm := NewWorkingMemory()
	alpha := &alphaNode{typ: "Entity"}
	n := &logicalExistsNode{child: alpha}
	n.inject(wm)

	if got := n.evaluate(); len(got) != 0 {
		t.Fatalf("expected exists: to fail with no facts, got %d matches", len(got))
	}

	wm.Insert("Entity", Payload{"status": "Active"})
	matches := n.evaluate()
	if len(matches) != 1 {
		t.Fatalf("expected exists: to hold once a fact exists, got %d", len(matches))
	}
	if len(matches[0].Bindings) != 0 {
		t.Fatalf("expected exists: to discard child bindings, got %v", matches[0].Bindings)
	}
}

func TestLogicalAllNode_EmptyChildForcesEmptyResult(t *testing.T) {
	wm := NewWorkingMemory()
	wm.Insert("Person", Payload{"name": "Alice"})

	hasAnimals := &alphaNode{typ: "Animal"}
	hasPeople := &alphaNode{typ: "Person"}

	n := &logicalAllNode{children: []node{hasPeople, hasAnimals}}
	n.inject(wm)

	if got := n.evaluate(); len(got) != 0 {
		t.Fatalf("expected all: to fail when one child has zero matches, got %d", len(got))
	}
}

func TestAlphaNode_CachesUntilTypeIsDirty(t *testing.T) {
	wm := NewWorkingMemory()
	wm.Insert("Person", Payload{"name": "Alice"})

	n := &alphaNode{typ: "Person"}
	n.inject(wm)

	first := n.evaluate()
	wm.PromoteNextDirty()
	wm.ClearCurrentDirty()

	second := n.evaluate()
	if len(second) != len(first) {
		t.Fatalf("expected a cached, stable result once the type is no longer dirty")
	}

	wm.Insert("Person", Payload{"name": "Bob"})
	third := n.evaluate()
	if len(third) != 2 {
		t.Fatalf("expected a fresh scan once Person became dirty again, got %d", len(third))
	}
}

func TestAlphaNode_PanicsWithoutInjectedWorkingMemory(t *testing.T) {
	n := &alphaNode{typ: "Person"}

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected evaluate() to panic when working memory was never injected")
		}
	}()
	n.evaluate()
}
