package rules

import (
	"reflect"

	"ruleforge/internal/logging"
)

// PartialMatch is a candidate (facts, bindings) pair flowing through the
// node network. facts is ordered by the network's left-to-right traversal;
// equality/signature computation uses the set of fact ids, not the order.
type PartialMatch struct {
	Facts    []*Fact
	Bindings Bindings

	// AccumulatorResult carries the converted accumulator value for matches
	// produced by an Accumulator node, so the engine can surface it alongside
	// the bound variable without a second lookup.
	AccumulatorResult interface{}
}

// unify merges two partial matches' bindings. It succeeds iff no variable is
// bound to two distinct facts across a and b; on success it returns the
// concatenation of a.Facts and b.Facts and the merged bindings.
func unify(a, b PartialMatch) (PartialMatch, bool) {
	merged := a.Bindings.clone()
	for k, v := range b.Bindings {
		if existing, ok := merged[k]; ok {
			if !bindingValuesEqual(existing, v) {
				return PartialMatch{}, false
			}
			continue
		}
		merged[k] = v
	}

	facts := make([]*Fact, 0, len(a.Facts)+len(b.Facts))
	facts = append(facts, a.Facts...)
	facts = append(facts, b.Facts...)

	return PartialMatch{Facts: facts, Bindings: merged}, true
}

// bindingValuesEqual implements the "same fact identity" equality the join
// contract (§4.4) demands for *Fact-valued bindings, falling back to
// structural equality for accumulator-bound scalar/collection values.
func bindingValuesEqual(a, b interface{}) bool {
	if af, ok := a.(*Fact); ok {
		bf, ok2 := b.(*Fact)
		return ok2 && af == bf
	}
	return reflect.DeepEqual(a, b)
}

// node is the tagged-variant evaluable form of a compiled condition. Every
// variant implements evaluate(); inject wires working memory into the whole
// subtree via a pre-order traversal, performed once after compilation.
type node interface {
	evaluate() []PartialMatch
	inject(wm *WorkingMemory)
}

// unitNode always yields exactly one empty partial match. It is the base
// case for composite conditions with no alpha/composite children and the
// wrapped child of a bare top-level beta-test.
type unitNode struct{}

func (n *unitNode) evaluate() []PartialMatch {
	return []PartialMatch{{Facts: nil, Bindings: Bindings{}}}
}

func (n *unitNode) inject(*WorkingMemory) {}

// alphaNode filters facts of a single type by a payload predicate, optionally
// binding matches under a variable name. Its last result is cached and reused
// while its type is not dirty.
type alphaNode struct {
	typ     string
	test    PayloadTest
	varName string

	wm          *WorkingMemory
	cached      []PartialMatch
	cacheFilled bool
}

func (n *alphaNode) inject(wm *WorkingMemory) { n.wm = wm }

func (n *alphaNode) evaluate() []PartialMatch {
	if n.wm == nil {
		panic(ErrNetworkUninitialized)
	}
	if n.cacheFilled && !n.wm.IsTypeDirty(n.typ) {
		return n.cached
	}

	facts := n.wm.ByType(n.typ)
	out := make([]PartialMatch, 0, len(facts))
	for _, f := range facts {
		if n.test != nil && !n.test(f.Payload()) {
			continue
		}
		bindings := Bindings{}
		if n.varName != "" {
			bindings[n.varName] = f
		}
		out = append(out, PartialMatch{Facts: []*Fact{f}, Bindings: bindings})
	}

	n.cached = out
	n.cacheFilled = true
	return out
}

// betaTestNode filters an already-joined child's matches by a predicate over
// the full fact list and bindings seen so far.
type betaTestNode struct {
	child     node
	predicate BetaPredicate
}

func (n *betaTestNode) inject(wm *WorkingMemory) { n.child.inject(wm) }

func (n *betaTestNode) evaluate() []PartialMatch {
	children := n.child.evaluate()
	out := make([]PartialMatch, 0, len(children))
	for _, m := range children {
		if n.predicate(m.Facts, m.Bindings) {
			out = append(out, m)
		}
	}
	return out
}

// logicalAllNode computes the Cartesian join of its children's result
// sequences, dropping pairs whose bindings conflict. An empty result from any
// child forces an empty overall result.
type logicalAllNode struct {
	children []node
}

func (n *logicalAllNode) inject(wm *WorkingMemory) {
	for _, c := range n.children {
		c.inject(wm)
	}
}

func (n *logicalAllNode) evaluate() []PartialMatch {
	if len(n.children) == 0 {
		return []PartialMatch{{Facts: nil, Bindings: Bindings{}}}
	}

	acc := n.children[0].evaluate()
	for _, child := range n.children[1:] {
		if len(acc) == 0 {
			return nil
		}
		childMatches := child.evaluate()
		if len(childMatches) == 0 {
			return nil
		}
		next := make([]PartialMatch, 0, len(acc)*len(childMatches))
		for _, a := range acc {
			for _, b := range childMatches {
				if joined, ok := unify(a, b); ok {
					next = append(next, joined)
				}
			}
		}
		acc = next
	}
	return acc
}

// logicalAnyNode concatenates its children's result sequences with no
// deduplication; the same underlying fact set may appear more than once if
// multiple branches match it (§9 open question, preserved as specified).
type logicalAnyNode struct {
	children []node
}

func (n *logicalAnyNode) inject(wm *WorkingMemory) {
	for _, c := range n.children {
		c.inject(wm)
	}
}

func (n *logicalAnyNode) evaluate() []PartialMatch {
	var out []PartialMatch
	for _, c := range n.children {
		out = append(out, c.evaluate()...)
	}
	return out
}

// logicalNotNode holds iff its child has zero matches, emitting a single
// empty partial match and discarding any bindings the child might have
// produced on a would-be match.
type logicalNotNode struct {
	child node
}

func (n *logicalNotNode) inject(wm *WorkingMemory) { n.child.inject(wm) }

func (n *logicalNotNode) evaluate() []PartialMatch {
	if len(n.child.evaluate()) == 0 {
		return []PartialMatch{{Facts: nil, Bindings: Bindings{}}}
	}
	return nil
}

// logicalExistsNode holds iff its child has at least one match, emitting a
// single empty partial match and discarding child bindings.
type logicalExistsNode struct {
	child node
}

func (n *logicalExistsNode) inject(wm *WorkingMemory) { n.child.inject(wm) }

func (n *logicalExistsNode) evaluate() []PartialMatch {
	if len(n.child.evaluate()) > 0 {
		return []PartialMatch{{Facts: nil, Bindings: Bindings{}}}
	}
	return nil
}

// debugLog is a small helper so node variants can log without every one of
// them importing logging directly with a local alias.
func debugLog(format string, args ...interface{}) {
	logging.Get(logging.CategoryCompiler).Debug(format, args...)
}
