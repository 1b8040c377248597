package dynamic

import (
	"testing"

	"ruleforge/pkg/rules"
)

func TestCompilePredicate_EvaluatesInterpretedSource(t *testing.T) {
	src := `func(payload map[string]interface{}) bool {
		age, _ := payload["age"].(int)
		return age >= 18
	}`

	pred, err := CompilePredicate(src)
	if err != nil {
		t.Fatalf("CompilePredicate: %v", err)
	}

	if !pred(rules.Payload{"age": 30}) {
		t.Fatal("expected predicate to accept age 30")
	}
	if pred(rules.Payload{"age": 10}) {
		t.Fatal("expected predicate to reject age 10")
	}
}

func TestCompilePredicate_RejectsWrongSignature(t *testing.T) {
	_, err := CompilePredicate(`func() bool { return true }`)
	if err == nil {
		t.Fatal("expected an error for a mismatched predicate signature")
	}
}
