package rules

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"ruleforge/internal/config"
	"ruleforge/internal/logging"
)

// Rule is a compiled production rule: a name, a salience for conflict
// resolution, the compiled node network, and the scheduling hints collected
// at compile time (§3, §4.3).
type Rule struct {
	Name            string
	Salience        int
	root            node
	referencedTypes map[string]struct{}
	hasNegation     bool
	action          Action
}

// AgendaEntry is a single (rule, match) candidate in a cycle's agenda (§3).
type AgendaEntry struct {
	Rule         *Rule
	Match        PartialMatch
	Signature    string
	Salience     int
	MatchRecency int64
}

// ConflictResolver orders (and may filter) a cycle's raw agenda. The engine
// adds every fired signature to the refraction set regardless of which
// resolver is installed (§4.6, §6).
type ConflictResolver func(agenda []AgendaEntry) []AgendaEntry

// Engine owns working memory and the rule set, and runs the match-resolve-act
// cycle (§4.6).
type Engine struct {
	ID string

	wm           *WorkingMemory
	rules        []*Rule
	cfg          config.EngineConfig
	firedHistory map[string]struct{}
	resolver     ConflictResolver

	cycleCount     int
	executionTrace []TraceEntry

	limitWarnedFacts  bool
	limitWarnedAgenda bool
}

// NewEngine constructs an Engine with the given configuration. A zero-value
// cfg.MaxCycles is replaced by the spec default of 100.
func NewEngine(cfg config.EngineConfig) *Engine {
	if cfg.MaxCycles <= 0 {
		cfg.MaxCycles = 100
	}
	if cfg.Limits.MaxFactsInMemory <= 0 {
		cfg.Limits = config.DefaultCoreLimits()
	}

	e := &Engine{
		ID:           uuid.NewString(),
		wm:           NewWorkingMemory(),
		cfg:          cfg,
		firedHistory: make(map[string]struct{}),
	}
	e.resolver = e.defaultConflictResolver
	logging.Get(logging.CategoryBoot).Info("engine %s constructed: maxCycles=%d trace=%v", e.ID, cfg.MaxCycles, cfg.Trace)
	return e
}

// SetConflictResolver replaces the default conflict resolver. The replacement
// receives the raw, unfiltered agenda and returns the order (and subset) of
// entries to fire; the engine still records every fired signature in the
// refraction set regardless of what the resolver does.
func (e *Engine) SetConflictResolver(r ConflictResolver) {
	if r == nil {
		e.resolver = e.defaultConflictResolver
		return
	}
	e.resolver = r
}

// AddFact inserts a new fact and returns it. typ must be non-empty.
func (e *Engine) AddFact(typ string, payload Payload) (*Fact, error) {
	f, err := e.wm.Insert(typ, payload)
	if err != nil {
		return nil, err
	}
	e.checkFactLimit()
	return f, nil
}

// UpdateFact merges partial into the fact with the given id.
func (e *Engine) UpdateFact(id int64, partial Payload) error {
	return e.wm.Update(id, partial)
}

// RemoveFact deletes the fact with the given id.
func (e *Engine) RemoveFact(id int64) error {
	return e.wm.Remove(id)
}

// Query starts a fluent query over working memory. An empty typ queries
// every fact regardless of type.
func (e *Engine) Query(typ string) *QueryBuilder {
	return newQueryBuilder(e.wm, typ)
}

// AddRule compiles def's condition tree and registers the resulting rule.
func (e *Engine) AddRule(def RuleDef) (*Rule, error) {
	res, err := compile(def.Condition)
	if err != nil {
		return nil, err
	}
	res.root.inject(e.wm)

	rule := &Rule{
		Name:            def.Name,
		Salience:        def.Salience,
		root:            res.root,
		referencedTypes: res.referencedTypes,
		hasNegation:     res.hasNegation,
		action:          def.Action,
	}
	e.rules = append(e.rules, rule)
	logging.Get(logging.CategoryBoot).Info("rule %q registered: salience=%d referencedTypes=%v hasNegation=%v",
		rule.Name, rule.Salience, sortedKeys(rule.referencedTypes), rule.hasNegation)
	return rule, nil
}

// Run drives the match-resolve-act cycle to a fixed point, or fails with
// ErrMaxCyclesExceeded if it never reaches one within cfg.MaxCycles cycles.
func (e *Engine) Run() error {
	timer := logging.StartTimer(logging.CategoryEngine, "Run")
	defer timer.Stop()

	e.cycleCount = 0
	e.executionTrace = nil

	brokeEarly := false
	for e.cycleCount < e.cfg.MaxCycles {
		e.wm.PromoteNextDirty()

		agenda := e.buildAgenda()
		if len(agenda) == 0 {
			brokeEarly = true
			break
		}
		e.cycleCount++
		e.checkAgendaLimit(len(agenda))

		resolved := e.resolver(agenda)

		somethingFired := false
		for _, entry := range resolved {
			e.fire(entry)
			somethingFired = true
		}

		logging.Get(logging.CategoryEngine).Debug("cycle %d: agenda=%d fired=%d", e.cycleCount, len(agenda), len(resolved))

		if !somethingFired {
			brokeEarly = true
			break
		}
		e.wm.ClearCurrentDirty()
	}

	if !brokeEarly && e.cycleCount == e.cfg.MaxCycles {
		return ErrMaxCyclesExceeded
	}
	return nil
}

// buildAgenda evaluates every rule eligible this cycle and flattens their
// matches into agenda entries (§4.6).
func (e *Engine) buildAgenda() []AgendaEntry {
	dirty := e.wm.DirtyCurrentTypes()

	var agenda []AgendaEntry
	for _, r := range e.rules {
		if !e.ruleEligible(r, dirty) {
			continue
		}
		matches := r.root.evaluate()
		for _, m := range matches {
			agenda = append(agenda, AgendaEntry{
				Rule:         r,
				Match:        m,
				Signature:    matchSignature(r.Name, m.Facts),
				Salience:     r.Salience,
				MatchRecency: matchRecency(m.Facts),
			})
		}
	}
	return agenda
}

// ruleEligible implements the agenda-construction eligibility rule of §4.6:
// rules with no referenced types, or with a negation, always evaluate;
// otherwise a rule only evaluates when one of its referenced types is dirty.
func (e *Engine) ruleEligible(r *Rule, dirty map[string]struct{}) bool {
	if len(r.referencedTypes) == 0 || r.hasNegation {
		return true
	}
	for t := range r.referencedTypes {
		if _, ok := dirty[t]; ok {
			return true
		}
	}
	return false
}

// fire invokes a single agenda entry's action, recording any facts it adds
// for the execution trace, and adds its signature to the refraction set.
func (e *Engine) fire(entry AgendaEntry) {
	var added []Payload
	handle := &EngineHandle{engine: e, recorder: &added}

	entry.Rule.action(entry.Match.Facts, handle, entry.Match.Bindings)

	e.firedHistory[entry.Signature] = struct{}{}

	if e.cfg.Trace {
		e.executionTrace = append(e.executionTrace, TraceEntry{
			RuleName:   entry.Rule.Name,
			Timestamp:  nowFunc(),
			Facts:      snapshotPayloads(entry.Match.Facts),
			FactsAdded: added,
		})
	}
}

func (e *Engine) checkFactLimit() {
	if e.limitWarnedFacts {
		return
	}
	if e.wm.Count() > e.cfg.Limits.MaxFactsInMemory {
		e.limitWarnedFacts = true
		logging.Get(logging.CategoryMemory).Warn("working memory exceeds configured soft limit of %d facts", e.cfg.Limits.MaxFactsInMemory)
	}
}

func (e *Engine) checkAgendaLimit(size int) {
	if e.limitWarnedAgenda {
		return
	}
	if size > e.cfg.Limits.MaxAgendaSize {
		e.limitWarnedAgenda = true
		logging.Get(logging.CategoryAgenda).Warn("agenda exceeds configured soft limit of %d entries (size=%d)", e.cfg.Limits.MaxAgendaSize, size)
	}
}

// matchSignature computes "ruleName::sortedFactIDs", the refraction key (§3).
func matchSignature(ruleName string, facts []*Fact) string {
	ids := make([]int64, len(facts))
	for i, f := range facts {
		ids[i] = f.ID()
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return fmt.Sprintf("%s::%s", ruleName, strings.Join(parts, ","))
}

// matchRecency is the max recency across a match's facts, or 0 when empty.
func matchRecency(facts []*Fact) int64 {
	var max int64
	for _, f := range facts {
		if r := f.Recency(); r > max {
			max = r
		}
	}
	return max
}

func snapshotPayloads(facts []*Fact) []Payload {
	out := make([]Payload, len(facts))
	for i, f := range facts {
		out[i] = f.Payload()
	}
	return out
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// EngineHandle is the view of an Engine passed to a firing rule's action. It
// is identical to the Engine's own mutator/query surface except that facts it
// adds are captured for that firing's trace entry.
type EngineHandle struct {
	engine   *Engine
	recorder *[]Payload
}

// AddFact inserts a new fact, recording it for the firing action's trace
// entry.
func (h *EngineHandle) AddFact(typ string, payload Payload) (*Fact, error) {
	f, err := h.engine.wm.Insert(typ, payload)
	if err != nil {
		return nil, err
	}
	h.engine.checkFactLimit()
	if h.recorder != nil {
		*h.recorder = append(*h.recorder, f.Payload())
	}
	return f, nil
}

// UpdateFact merges partial into the fact with the given id.
func (h *EngineHandle) UpdateFact(id int64, partial Payload) error {
	return h.engine.wm.Update(id, partial)
}

// RemoveFact deletes the fact with the given id.
func (h *EngineHandle) RemoveFact(id int64) error {
	return h.engine.wm.Remove(id)
}

// Query starts a fluent query over working memory.
func (h *EngineHandle) Query(typ string) *QueryBuilder {
	return newQueryBuilder(h.engine.wm, typ)
}
