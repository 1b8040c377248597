package rules

import "ruleforge/internal/logging"

// compileResult bundles a compiled node network with the scheduling hints
// collected while walking the condition tree (§4.3).
type compileResult struct {
	root            node
	referencedTypes map[string]struct{}
	hasNegation     bool
}

// compile turns a Condition tree into an evaluable node network, validating
// every node's shape per §4.3 and collecting referencedTypes/hasNegation
// along the way.
func compile(root *Condition) (*compileResult, error) {
	timer := logging.StartTimer(logging.CategoryCompiler, "compile")
	defer timer.Stop()

	ctx := &compileCtx{referencedTypes: make(map[string]struct{})}
	n, err := ctx.compileCondition(root)
	if err != nil {
		return nil, err
	}
	return &compileResult{
		root:            n,
		referencedTypes: ctx.referencedTypes,
		hasNegation:     ctx.hasNegation,
	}, nil
}

type compileCtx struct {
	referencedTypes map[string]struct{}
	hasNegation     bool
}

// validateShape rejects the ill-formed combinations named in §4.3.
func validateShape(c *Condition) error {
	composite := c.hasComposite()
	compositeCount := 0
	for _, set := range []bool{c.All != nil, c.Any != nil, c.Not != nil, c.Exists != nil} {
		if set {
			compositeCount++
		}
	}

	switch {
	case compositeCount > 1:
		return newDSLError("condition may set at most one of all/any/not/exists")
	case composite && c.Type != "":
		return newDSLError("condition cannot combine type with a composite (all/any/not/exists) key")
	case composite && c.Test != nil:
		return newDSLError("condition cannot combine a beta-test with a composite (all/any/not/exists) key")
	case c.Test != nil && c.Type != "":
		return newDSLError("condition cannot combine type with a bare beta-test; use an atomic condition's own payload test instead")
	case c.Accumulate != nil && c.Type == "":
		return newDSLError("accumulate requires an atomic type condition to accumulate over")
	case c.Type == "" && !composite && c.Test == nil:
		return newDSLError("condition must set type, a composite key, or test")
	}

	if c.Accumulate != nil {
		spec := c.Accumulate
		simple := spec.Aggregate != nil
		incremental := spec.Initial != nil || spec.Reduce != nil
		switch {
		case simple == incremental:
			return newDSLError("accumulate must set either the simple (aggregate) or incremental (initial+reduce) form, not both or neither")
		case incremental && (spec.Initial == nil || spec.Reduce == nil):
			return newDSLError("incremental accumulate requires both initial and reduce")
		case spec.Test == nil:
			return newDSLError("accumulate requires a test")
		}
	}

	return nil
}

func (ctx *compileCtx) compileCondition(c *Condition) (node, error) {
	if err := validateShape(c); err != nil {
		return nil, err
	}

	switch {
	case c.Type != "" && c.Accumulate == nil:
		ctx.referencedTypes[c.Type] = struct{}{}
		return &alphaNode{typ: c.Type, test: c.PayloadOK, varName: c.Var}, nil

	case c.Type != "" && c.Accumulate != nil:
		ctx.referencedTypes[c.Type] = struct{}{}
		alpha := &alphaNode{typ: c.Type, test: c.PayloadOK}
		return &accumulatorNode{child: alpha, spec: c.Accumulate, varName: c.Var}, nil

	case c.All != nil:
		return ctx.compileJoin(c.All, true)

	case c.Any != nil:
		return ctx.compileJoin(c.Any, false)

	case c.Not != nil:
		ctx.hasNegation = true
		child, err := ctx.compileCondition(c.Not)
		if err != nil {
			return nil, err
		}
		return &logicalNotNode{child: child}, nil

	case c.Exists != nil:
		child, err := ctx.compileCondition(c.Exists)
		if err != nil {
			return nil, err
		}
		return &logicalExistsNode{child: child}, nil

	case c.Test != nil:
		return &betaTestNode{child: &unitNode{}, predicate: c.Test}, nil

	default:
		return nil, newDSLError("empty condition")
	}
}

// isBareBetaTest reports whether c is exactly the bare beta-test shape: a
// standalone predicate with no type and no composite key of its own.
func isBareBetaTest(c *Condition) bool {
	return c.Type == "" && !c.hasComposite() && c.Test != nil
}

// compileJoin implements the all:/any: compilation rule: alpha/composite
// children form a LogicalAll/LogicalAny base (or pass through when there is
// exactly one), embedded bare beta-tests stack as BetaTest wrappers around
// that base in order, and an empty base defaults to Unit.
func (ctx *compileCtx) compileJoin(children []*Condition, isAll bool) (node, error) {
	var bases []node
	var betaPredicates []BetaPredicate

	for _, child := range children {
		if err := validateShape(child); err != nil {
			return nil, err
		}
		if isBareBetaTest(child) {
			betaPredicates = append(betaPredicates, child.Test)
			continue
		}
		n, err := ctx.compileCondition(child)
		if err != nil {
			return nil, err
		}
		bases = append(bases, n)
	}

	var base node
	switch len(bases) {
	case 0:
		base = &unitNode{}
	case 1:
		base = bases[0]
	default:
		if isAll {
			base = &logicalAllNode{children: bases}
		} else {
			base = &logicalAnyNode{children: bases}
		}
	}

	for _, pred := range betaPredicates {
		base = &betaTestNode{child: base, predicate: pred}
	}
	return base, nil
}
