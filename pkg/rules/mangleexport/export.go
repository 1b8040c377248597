// Package mangleexport exports ruleforge working memory as Google Mangle
// Datalog facts, for interop with tooling in the pack that consumes textual
// Datalog (kevinawalsh-datalog, google/mangle itself) and for debugging: a
// rule network's current fact base printed as clauses is often easier to eyeball
// than a struct dump. The core DSL stays host-native (§4.3 conditions are Go
// closures, not parsed text), so this package only ever runs at the edges —
// it never sits on the evaluation hot path.
package mangleexport

import (
	"fmt"
	"strings"

	"github.com/google/mangle/ast"

	"ruleforge/pkg/rules"
)

// ToAtom converts a fact's payload to a Mangle AST atom, predicate name
// f.Type(), one argument per payload value in key order. Values are mapped
// the same way the teacher's Fact.ToAtom does: strings starting with "/"
// become name constants, everything else becomes the closest Mangle
// primitive.
func ToAtom(f *rules.Fact, keys []string) (ast.Atom, error) {
	payload := f.Payload()
	terms := make([]ast.BaseTerm, 0, len(keys))
	for _, k := range keys {
		v, ok := payload[k]
		if !ok {
			continue
		}
		term, err := toTerm(v)
		if err != nil {
			return ast.Atom{}, fmt.Errorf("mangleexport: field %q: %w", k, err)
		}
		terms = append(terms, term)
	}
	return ast.NewAtom(f.Type(), terms...), nil
}

func toTerm(v interface{}) (ast.BaseTerm, error) {
	switch val := v.(type) {
	case string:
		if strings.HasPrefix(val, "/") {
			c, err := ast.Name(val)
			if err != nil {
				return nil, err
			}
			return c, nil
		}
		return ast.String(val), nil
	case int:
		return ast.Number(int64(val)), nil
	case int64:
		return ast.Number(val), nil
	case float64:
		return ast.Float64(val), nil
	case bool:
		if val {
			return ast.TrueConstant, nil
		}
		return ast.FalseConstant, nil
	default:
		return ast.String(fmt.Sprintf("%v", val)), nil
	}
}

// FormatFact renders a fact as a Datalog clause: predicate(arg, arg, ...).
// keys fixes the argument order, since Payload is an unordered map.
func FormatFact(f *rules.Fact, keys []string) string {
	payload := f.Payload()
	args := make([]string, 0, len(keys))
	for _, k := range keys {
		v, ok := payload[k]
		if !ok {
			continue
		}
		args = append(args, formatValue(v))
	}
	if len(args) == 0 {
		return fmt.Sprintf("%s.", f.Type())
	}
	return fmt.Sprintf("%s(%s).", f.Type(), strings.Join(args, ", "))
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		if strings.HasPrefix(val, "/") {
			return val
		}
		return fmt.Sprintf("%q", val)
	case bool:
		if val {
			return "/true"
		}
		return "/false"
	default:
		return fmt.Sprintf("%v", val)
	}
}

// Dump renders every fact of typ in wm as Datalog clauses, one per line, with
// arguments in the order given by keys. Lines follow wm.ByType's iteration
// order, which is not sorted.
func Dump(wm *rules.WorkingMemory, typ string, keys []string) string {
	facts := wm.ByType(typ)
	lines := make([]string, len(facts))
	for i, f := range facts {
		lines[i] = FormatFact(f, keys)
	}
	return strings.Join(lines, "\n")
}
