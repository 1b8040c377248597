package mangleexport

import (
	"strings"
	"testing"

	"ruleforge/pkg/rules"
)

func TestToAtom_NamesAndPrimitives(t *testing.T) {
	wm := rules.NewWorkingMemory()
	f, err := wm.Insert("Person", rules.Payload{
		"name":   "Alice",
		"age":    30,
		"status": "/active",
		"vip":    true,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	atom, err := ToAtom(f, []string{"name", "age", "status", "vip"})
	if err != nil {
		t.Fatalf("ToAtom: %v", err)
	}
	if atom.Predicate.Symbol != "Person" {
		t.Fatalf("expected predicate Person, got %s", atom.Predicate.Symbol)
	}
	if len(atom.Args) != 4 {
		t.Fatalf("expected 4 args, got %d", len(atom.Args))
	}
}

func TestFormatFact_RendersNameConstantsBare(t *testing.T) {
	wm := rules.NewWorkingMemory()
	f, _ := wm.Insert("Entity", rules.Payload{"status": "/active"})

	got := FormatFact(f, []string{"status"})
	if !strings.Contains(got, "/active") {
		t.Fatalf("expected formatted fact to contain /active, got %q", got)
	}
	if strings.Contains(got, `"/active"`) {
		t.Fatalf("name constants should render bare, not quoted: got %q", got)
	}
}

func TestFormatFact_QuotesPlainStrings(t *testing.T) {
	wm := rules.NewWorkingMemory()
	f, _ := wm.Insert("Person", rules.Payload{"name": "Alice"})

	got := FormatFact(f, []string{"name"})
	if !strings.Contains(got, `"Alice"`) {
		t.Fatalf("expected a quoted string literal, got %q", got)
	}
}

func TestDump_OneLinePerFact(t *testing.T) {
	wm := rules.NewWorkingMemory()
	wm.Insert("Entity", rules.Payload{"status": "/active"})
	wm.Insert("Entity", rules.Payload{"status": "/expired"})

	got := Dump(wm, "Entity", []string{"status"})
	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), got)
	}
}
