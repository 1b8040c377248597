package rules

// Bindings maps a variable name to the value it is bound to within a partial
// match. Atomic conditions bind a variable to the *Fact that matched;
// accumulators bind a variable to the reduced scalar value instead (§4.5), so
// a binding's dynamic type is either *Fact or whatever an accumulator's
// convert function returns.
type Bindings map[string]interface{}

// clone returns a shallow copy of b.
func (b Bindings) clone() Bindings {
	out := make(Bindings, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// BetaPredicate is a test applied to an already-joined partial match: it sees
// every fact bound so far and the accumulated bindings.
type BetaPredicate func(facts []*Fact, bindings Bindings) bool

// PayloadTest is a predicate applied to a single fact's payload, used by
// atomic conditions.
type PayloadTest func(Payload) bool

// Aggregator reduces a set of facts to a scalar value (the "simple" form of
// §4.5).
type Aggregator func(facts []*Fact) interface{}

// ValueTest checks an aggregator or accumulator's converted value.
type ValueTest func(value interface{}) bool

// AccumulatorInitial produces the zero state for an incremental accumulator.
type AccumulatorInitial func() interface{}

// AccumulatorReduce folds one added fact into the running state.
type AccumulatorReduce func(state interface{}, fact *Fact) interface{}

// AccumulatorRetract folds the removal of one fact out of the running state.
type AccumulatorRetract func(state interface{}, fact *Fact) interface{}

// AccumulatorConvert maps accumulator state to the bound value.
type AccumulatorConvert func(state interface{}) interface{}

// Condition is a node in the condition tree accepted by the compiler. Exactly
// one of the following shapes is valid, per §4.3:
//
//   - atomic type condition: Type set, All/Any/Not/Exists/Test unset
//     (optionally paired with PayloadOK, Var, or Accumulate)
//   - composite: exactly one of All, Any, Not, Exists set, Type and Test unset
//   - bare beta-test: Test set, everything else unset
//
// Condition is typically built with the TypeCondition/All/Any/Not/Exists/BetaTest
// constructor functions below rather than populated as a literal.
type Condition struct {
	// Atomic type condition fields.
	Type       string
	PayloadOK  PayloadTest
	Var        string
	Accumulate *AccumulateSpec

	// Composite fields; exactly one populated for a composite condition.
	All    []*Condition
	Any    []*Condition
	Not    *Condition
	Exists *Condition

	// Beta-test field, valid only alone; the compiler rejects it alongside
	// Type or a composite key.
	Test BetaPredicate
}

// AccumulateSpec configures an accumulator condition (§4.5). Exactly one of
// the simple form (Aggregate) or the incremental form (Initial/Reduce) must
// be set.
type AccumulateSpec struct {
	// Simple form.
	Aggregate Aggregator

	// Incremental form.
	Initial AccumulatorInitial
	Reduce  AccumulatorReduce
	Retract AccumulatorRetract // optional
	Convert AccumulatorConvert // optional, identity when nil

	Test ValueTest
}

// TypeCondition builds an atomic condition matching facts of typ.
func TypeCondition(typ string) *Condition {
	return &Condition{Type: typ}
}

// WithTest attaches a payload predicate to an atomic condition.
func (c *Condition) WithTest(test PayloadTest) *Condition {
	c.PayloadOK = test
	return c
}

// WithVar binds matches of this atomic condition to a variable name.
func (c *Condition) WithVar(name string) *Condition {
	c.Var = name
	return c
}

// WithAccumulate turns an atomic condition into an accumulator over its
// matches.
func (c *Condition) WithAccumulate(spec *AccumulateSpec) *Condition {
	c.Accumulate = spec
	return c
}

// All builds a composite condition requiring every child to hold, joined
// with consistent variable bindings.
func All(children ...*Condition) *Condition {
	return &Condition{All: children}
}

// Any builds a composite condition requiring at least one child to hold.
func Any(children ...*Condition) *Condition {
	return &Condition{Any: children}
}

// Not builds a negation condition: holds iff child has zero matches.
func Not(child *Condition) *Condition {
	return &Condition{Not: child}
}

// Exists builds an existence condition: holds iff child has at least one
// match.
func Exists(child *Condition) *Condition {
	return &Condition{Exists: child}
}

// BetaTest builds a bare beta-test condition with no type and no composite.
func BetaTest(test BetaPredicate) *Condition {
	return &Condition{Test: test}
}

// hasComposite reports whether c carries any composite key.
func (c *Condition) hasComposite() bool {
	return c.All != nil || c.Any != nil || c.Not != nil || c.Exists != nil
}

// RuleDef is the user-facing definition passed to Engine.AddRule.
type RuleDef struct {
	Name      string
	Salience  int
	Condition *Condition
	Action    Action
}

// Action is the imperative callback fired for each agenda entry a rule
// produces. It receives the facts that contributed to the match (not raw
// payloads), the bindings keyed by variable name, and an EngineHandle for
// further mutation/query.
type Action func(facts []*Fact, engine *EngineHandle, bindings Bindings)
