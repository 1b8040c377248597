// Package demo builds the §8 sample rulesets the ruleforge CLI loads by
// name, so `ruleforge run` has something concrete to execute end to end.
package demo

import (
	"fmt"

	"ruleforge/internal/config"
	"ruleforge/pkg/rules"
	"ruleforge/pkg/rules/aggregate"
)

// Scenario is one named, self-contained demo: it seeds working memory,
// registers rules, and reports what it expects Run to produce.
type Scenario struct {
	Name        string
	Description string
	Build       func(e *rules.Engine) error
}

// Names lists every registered scenario, in catalog order.
func Names() []string {
	out := make([]string, len(scenarios))
	for i, s := range scenarios {
		out[i] = s.Name
	}
	return out
}

// Lookup finds a scenario by name.
func Lookup(name string) (Scenario, bool) {
	for _, s := range scenarios {
		if s.Name == name {
			return s, true
		}
	}
	return Scenario{}, false
}

// NewEngine builds the engine a scenario should run against, forcing trace
// recording on regardless of cfg so the CLI always has something to print.
func NewEngine(cfg config.EngineConfig) *rules.Engine {
	cfg.Trace = true
	return rules.NewEngine(cfg)
}

var scenarios = []Scenario{
	{
		Name:        "adult-birthday",
		Description: "S1: a person's own birthday event fires once",
		Build:       buildAdultBirthday,
	},
	{
		Name:        "any-partial",
		Description: "S2: an any: condition fires once per matching fact",
		Build:       buildAnyPartial,
	},
	{
		Name:        "not-exists",
		Description: "S3: an existing expired fact fails the not: branch; only the active branch fires",
		Build:       buildNotExists,
	},
	{
		Name:        "incremental-sum",
		Description: "S4: a doubling rule feeds an incremental sum accumulator",
		Build:       buildIncrementalSum,
	},
	{
		Name:        "max-cycles",
		Description: "S5: an unconditionally re-triggering rule hits the cycle limit",
		Build:       buildMaxCycles,
	},
	{
		Name:        "recency-tiebreak",
		Description: "S6: two equal-salience rules ordered by recency, then signature",
		Build:       buildRecencyTiebreak,
	},
}

func buildAdultBirthday(e *rules.Engine) error {
	if _, err := e.AddFact("Person", rules.Payload{"name": "Alice", "age": 30}); err != nil {
		return err
	}
	if _, err := e.AddFact("Event", rules.Payload{"category": "Birthday", "personName": "Alice"}); err != nil {
		return err
	}

	cond := rules.All(
		rules.TypeCondition("Person").WithVar("p").WithTest(func(p rules.Payload) bool {
			age, _ := p["age"].(int)
			return age >= 18
		}),
		rules.TypeCondition("Event").WithVar("e").WithTest(func(p rules.Payload) bool {
			cat, _ := p["category"].(string)
			return cat == "Birthday"
		}),
		rules.BetaTest(func(_ []*rules.Fact, b rules.Bindings) bool {
			person := b["p"].(*rules.Fact)
			event := b["e"].(*rules.Fact)
			name, _ := person.Get("name")
			evName, _ := event.Get("personName")
			return name == evName
		}),
	)

	_, err := e.AddRule(rules.RuleDef{
		Name:      "adult-birthday",
		Condition: cond,
		Action: func(_ []*rules.Fact, _ *rules.EngineHandle, b rules.Bindings) {
			fmt.Printf("happy birthday to an adult: bindings=%v\n", b)
		},
	})
	return err
}

func buildAnyPartial(e *rules.Engine) error {
	if _, err := e.AddFact("Animal", rules.Payload{"species": "cat"}); err != nil {
		return err
	}
	if _, err := e.AddFact("Animal", rules.Payload{"species": "dog"}); err != nil {
		return err
	}

	speciesIs := func(want string) *rules.Condition {
		return rules.TypeCondition("Animal").WithVar("a").WithTest(func(p rules.Payload) bool {
			s, _ := p["species"].(string)
			return s == want
		})
	}

	cond := rules.Any(speciesIs("cat"), speciesIs("horse"), speciesIs("dog"))

	_, err := e.AddRule(rules.RuleDef{
		Name:      "notable-species",
		Condition: cond,
		Action: func(_ []*rules.Fact, _ *rules.EngineHandle, b rules.Bindings) {
			fmt.Printf("notable species matched: bindings=%v\n", b)
		},
	})
	return err
}

func buildNotExists(e *rules.Engine) error {
	if _, err := e.AddFact("Entity", rules.Payload{"status": "Expired"}); err != nil {
		return err
	}
	if _, err := e.AddFact("Entity", rules.Payload{"status": "Active"}); err != nil {
		return err
	}

	statusIs := func(want string) *rules.Condition {
		return rules.TypeCondition("Entity").WithVar("e").WithTest(func(p rules.Payload) bool {
			s, _ := p["status"].(string)
			return s == want
		})
	}

	cond := rules.Any(
		rules.Not(statusIs("Expired")),
		statusIs("Active"),
	)

	_, err := e.AddRule(rules.RuleDef{
		Name:      "no-expired-or-active",
		Condition: cond,
		Action: func(_ []*rules.Fact, _ *rules.EngineHandle, b rules.Bindings) {
			fmt.Printf("entity branch matched: bindings=%v\n", b)
		},
	})
	return err
}

func buildIncrementalSum(e *rules.Engine) error {
	if _, err := e.AddFact("Product", rules.Payload{"price": 10.0}); err != nil {
		return err
	}
	if _, err := e.AddFact("Product", rules.Payload{"price": 20.0}); err != nil {
		return err
	}

	_, err := e.AddRule(rules.RuleDef{
		Name:     "double-unprocessed",
		Salience: 10,
		Condition: rules.TypeCondition("Product").WithVar("p").WithTest(func(p rules.Payload) bool {
			_, processed := p["processed"]
			return !processed
		}),
		Action: func(facts []*rules.Fact, h *rules.EngineHandle, _ rules.Bindings) {
			price, _ := facts[0].Get("price")
			f := price.(float64)
			_, _ = h.AddFact("Product", rules.Payload{"price": f * 2, "processed": true})
		},
	})
	if err != nil {
		return err
	}

	_, err = e.AddRule(rules.RuleDef{
		Name: "sum-prices",
		Condition: rules.TypeCondition("Product").WithVar("total").WithAccumulate(
			aggregate.Sum("price", func(interface{}) bool { return true }),
		),
		Action: func(_ []*rules.Fact, _ *rules.EngineHandle, b rules.Bindings) {
			fmt.Printf("running total=%v\n", b["total"])
		},
	})
	return err
}

func buildMaxCycles(e *rules.Engine) error {
	if _, err := e.AddFact("Person", rules.Payload{"age": 20}); err != nil {
		return err
	}

	counter := 0
	_, err := e.AddRule(rules.RuleDef{
		Name: "grow-up",
		Condition: rules.TypeCondition("Person").WithVar("p").WithTest(func(p rules.Payload) bool {
			age, _ := p["age"].(int)
			return age > 18
		}),
		Action: func(_ []*rules.Fact, h *rules.EngineHandle, _ rules.Bindings) {
			counter++
			_, _ = h.AddFact("Person", rules.Payload{"age": 19, "uuid": counter})
		},
	})
	return err
}

func buildRecencyTiebreak(e *rules.Engine) error {
	isAdult := func(varName string) *rules.Condition {
		return rules.TypeCondition("Person").WithVar(varName).WithTest(func(p rules.Payload) bool {
			age, _ := p["age"].(int)
			return age > 18
		})
	}

	if _, err := e.AddRule(rules.RuleDef{
		Name:      "greet",
		Condition: isAdult("p"),
		Action: func(_ []*rules.Fact, _ *rules.EngineHandle, b rules.Bindings) {
			fmt.Printf("greet: bindings=%v\n", b)
		},
	}); err != nil {
		return err
	}
	if _, err := e.AddRule(rules.RuleDef{
		Name:      "greet2",
		Condition: isAdult("p"),
		Action: func(_ []*rules.Fact, _ *rules.EngineHandle, b rules.Bindings) {
			fmt.Printf("greet2: bindings=%v\n", b)
		},
	}); err != nil {
		return err
	}

	if _, err := e.AddFact("Person", rules.Payload{"name": "Alice", "age": 20}); err != nil {
		return err
	}
	bob, err := e.AddFact("Person", rules.Payload{"name": "Bob", "age": 22})
	if err != nil {
		return err
	}
	return e.UpdateFact(bob.ID(), rules.Payload{"age": 23})
}
