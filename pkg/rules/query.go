package rules

import "ruleforge/internal/logging"

// QueryBuilder is a fluent filter/limit builder over working memory (§4.7).
type QueryBuilder struct {
	wm     *WorkingMemory
	typ    string
	pred   func(Payload) bool
	limit  int
	hasCap bool
}

// newQueryBuilder starts a query. An empty typ queries every fact.
func newQueryBuilder(wm *WorkingMemory, typ string) *QueryBuilder {
	return &QueryBuilder{wm: wm, typ: typ}
}

// Where narrows the query to facts whose payload satisfies pred.
func (q *QueryBuilder) Where(pred func(Payload) bool) *QueryBuilder {
	q.pred = pred
	return q
}

// Limit caps the result at the first n facts, in working-memory iteration
// order.
func (q *QueryBuilder) Limit(n int) *QueryBuilder {
	q.limit = n
	q.hasCap = true
	return q
}

// Execute runs the query and returns the matching facts.
func (q *QueryBuilder) Execute() []*Fact {
	var base []*Fact
	if q.typ == "" {
		base = q.wm.All()
	} else {
		base = q.wm.ByType(q.typ)
	}

	var out []*Fact
	if q.pred == nil {
		out = base
	} else {
		out = make([]*Fact, 0, len(base))
		for _, f := range base {
			if q.pred(f.Payload()) {
				out = append(out, f)
			}
		}
	}

	if q.hasCap && len(out) > q.limit {
		out = out[:q.limit]
	}

	logging.Get(logging.CategoryQuery).Debug("query type=%q filtered=%d limit=%d result=%d", q.typ, len(base), q.limit, len(out))
	return out
}
