package rules

import "time"

// nowFunc is test-seamed so trace timestamps can be pinned if ever needed;
// production code always uses time.Now.
var nowFunc = time.Now

// TraceEntry records one rule firing (§4.6). Facts holds copies of the
// payloads of every fact that contributed to the match, taken at firing time;
// FactsAdded holds copies of the payloads of every fact the action itself
// inserted via its EngineHandle, captured by recording addFact during the
// firing. Later changes to those facts do not alter the entry.
type TraceEntry struct {
	RuleName   string
	Timestamp  time.Time
	Facts      []Payload
	FactsAdded []Payload
}

// GetExecutionTrace returns the trace accumulated since the most recent
// Run() call.
func (e *Engine) GetExecutionTrace() []TraceEntry {
	out := make([]TraceEntry, len(e.executionTrace))
	copy(out, e.executionTrace)
	return out
}

// ClearExecutionTrace empties the accumulated trace without running the
// engine.
func (e *Engine) ClearExecutionTrace() {
	e.executionTrace = nil
}
