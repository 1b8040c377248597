// Package dynamic lets a host compile a condition's payload test from a
// string of Go source at run time, via traefik/yaegi, for callers that store
// rule definitions outside the binary (config files, an admin UI) rather
// than as compiled Go closures. This mirrors the teacher's use of yaegi to
// interpret generated Go snippets (internal/autopoiesis) — re-pointed here at
// DSL predicates instead of generated tools.
package dynamic

import (
	"fmt"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"ruleforge/pkg/rules"
)

// CompilePredicate evaluates src, which must be a Go function literal of
// type func(map[string]interface{}) bool, and returns it adapted to
// rules.PayloadTest.
//
// Example src:
//
//	func(payload map[string]interface{}) bool {
//	    age, _ := payload["age"].(int)
//	    return age >= 18
//	}
func CompilePredicate(src string) (rules.PayloadTest, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("dynamic: loading stdlib symbols: %w", err)
	}

	v, err := i.Eval(src)
	if err != nil {
		return nil, fmt.Errorf("dynamic: compiling predicate: %w", err)
	}

	fn, ok := v.Interface().(func(map[string]interface{}) bool)
	if !ok {
		return nil, fmt.Errorf("dynamic: expected func(map[string]interface{}) bool, got %T", v.Interface())
	}

	return func(p rules.Payload) bool {
		return fn(map[string]interface{}(p))
	}, nil
}
