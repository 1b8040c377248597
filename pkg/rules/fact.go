package rules

import (
	"sync"

	"ruleforge/internal/logging"
)

// Payload is the dynamically-typed key/value bag carried by a Fact.
// Values may be numbers, strings, booleans, timestamps, or nested maps.
type Payload map[string]interface{}

// clone returns a shallow copy of p.
func (p Payload) clone() Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Fact is an identity-tagged, typed payload in working memory.
//
// Facts are reference types: the engine compares them by pointer identity,
// never by value, and a *Fact remains a valid reference until it is removed
// from working memory. Type and id never change after insertion; payload and
// recency change in place under WorkingMemory's lock.
type Fact struct {
	mu      sync.RWMutex
	id      int64
	typ     string
	payload Payload
	recency int64
}

// ID returns the fact's identifier, unique within its working memory and
// allocated monotonically.
func (f *Fact) ID() int64 { return f.id }

// Type returns the fact's immutable type string.
func (f *Fact) Type() string { return f.typ }

// Recency returns the monotonic stamp of the fact's last insert/update.
func (f *Fact) Recency() int64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.recency
}

// Payload returns a snapshot copy of the fact's current payload. Mutating the
// returned map has no effect on the fact; use WorkingMemory.Update instead.
func (f *Fact) Payload() Payload {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.payload.clone()
}

// Get returns a single payload field and whether it was present.
func (f *Fact) Get(key string) (interface{}, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.payload[key]
	return v, ok
}

// WorkingMemory owns all facts, indexes them by type, and tracks which types
// have changed across the current and next match-resolve-act cycle.
type WorkingMemory struct {
	mu             sync.RWMutex
	buckets        map[string]map[int64]*Fact
	nextID         int64
	versionCounter int64
	dirtyCurrent   map[string]struct{}
	dirtyNext      map[string]struct{}
}

// NewWorkingMemory constructs an empty working memory.
func NewWorkingMemory() *WorkingMemory {
	return &WorkingMemory{
		buckets:      make(map[string]map[int64]*Fact),
		dirtyCurrent: make(map[string]struct{}),
		dirtyNext:    make(map[string]struct{}),
	}
}

// Insert assigns an id and recency to a new fact of the given type, adds it
// to working memory, and marks typ dirty for the next cycle.
func (wm *WorkingMemory) Insert(typ string, payload Payload) (*Fact, error) {
	if typ == "" {
		return nil, ErrMissingType
	}

	wm.mu.Lock()
	defer wm.mu.Unlock()

	wm.nextID++
	wm.versionCounter++

	f := &Fact{
		id:      wm.nextID,
		typ:     typ,
		payload: payload.clone(),
		recency: wm.versionCounter,
	}

	bucket, ok := wm.buckets[typ]
	if !ok {
		bucket = make(map[int64]*Fact)
		wm.buckets[typ] = bucket
	}
	bucket[f.id] = f
	wm.dirtyNext[typ] = struct{}{}

	logging.Get(logging.CategoryMemory).Debug("insert fact %d type=%s recency=%d", f.id, typ, f.recency)
	return f, nil
}

// Update merges partialPayload into the fact with the given id (shallow
// overwrite of named keys), bumps recency, and marks its type dirty. It is an
// error for partialPayload to carry a "type" field that differs from the
// fact's current type.
func (wm *WorkingMemory) Update(id int64, partial Payload) error {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	f := wm.lookupLocked(id)
	if f == nil {
		return ErrNotFound
	}

	if newType, ok := partial["type"]; ok {
		if s, _ := newType.(string); s != f.typ {
			return ErrTypeImmutable
		}
	}

	wm.versionCounter++

	f.mu.Lock()
	for k, v := range partial {
		if k == "type" {
			continue
		}
		f.payload[k] = v
	}
	f.recency = wm.versionCounter
	f.mu.Unlock()

	wm.dirtyNext[f.typ] = struct{}{}
	logging.Get(logging.CategoryMemory).Debug("update fact %d type=%s recency=%d", f.id, f.typ, f.recency)
	return nil
}

// Remove deletes the fact with the given id from working memory and marks
// its type dirty.
func (wm *WorkingMemory) Remove(id int64) error {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	f := wm.lookupLocked(id)
	if f == nil {
		return ErrNotFound
	}

	delete(wm.buckets[f.typ], id)
	if len(wm.buckets[f.typ]) == 0 {
		delete(wm.buckets, f.typ)
	}
	wm.dirtyNext[f.typ] = struct{}{}

	logging.Get(logging.CategoryMemory).Debug("remove fact %d type=%s", f.id, f.typ)
	return nil
}

// lookupLocked finds a fact by id. Callers must hold wm.mu.
func (wm *WorkingMemory) lookupLocked(id int64) *Fact {
	for _, bucket := range wm.buckets {
		if f, ok := bucket[id]; ok {
			return f
		}
	}
	return nil
}

// ByType returns a snapshot slice of every fact currently stored under typ.
func (wm *WorkingMemory) ByType(typ string) []*Fact {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	bucket := wm.buckets[typ]
	out := make([]*Fact, 0, len(bucket))
	for _, f := range bucket {
		out = append(out, f)
	}
	return out
}

// All returns a snapshot slice of every fact in working memory.
func (wm *WorkingMemory) All() []*Fact {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	total := 0
	for _, bucket := range wm.buckets {
		total += len(bucket)
	}
	out := make([]*Fact, 0, total)
	for _, bucket := range wm.buckets {
		for _, f := range bucket {
			out = append(out, f)
		}
	}
	return out
}

// Count returns the total number of facts currently stored, across all types.
func (wm *WorkingMemory) Count() int {
	wm.mu.RLock()
	defer wm.mu.RUnlock()
	total := 0
	for _, bucket := range wm.buckets {
		total += len(bucket)
	}
	return total
}

// PromoteNextDirty merges dirtyNext into dirtyCurrent and clears dirtyNext.
// Called once at the start of each engine cycle.
func (wm *WorkingMemory) PromoteNextDirty() {
	wm.mu.Lock()
	defer wm.mu.Unlock()
	for t := range wm.dirtyNext {
		wm.dirtyCurrent[t] = struct{}{}
	}
	wm.dirtyNext = make(map[string]struct{})
}

// ClearCurrentDirty empties dirtyCurrent. Called at the end of a cycle in
// which something fired.
func (wm *WorkingMemory) ClearCurrentDirty() {
	wm.mu.Lock()
	defer wm.mu.Unlock()
	wm.dirtyCurrent = make(map[string]struct{})
}

// IsTypeDirty reports whether typ appears in dirtyCurrent or dirtyNext, i.e.
// whether it is dirty for the cycle in progress or has changed since the last
// promotion.
func (wm *WorkingMemory) IsTypeDirty(typ string) bool {
	wm.mu.RLock()
	defer wm.mu.RUnlock()
	if _, ok := wm.dirtyCurrent[typ]; ok {
		return true
	}
	_, ok := wm.dirtyNext[typ]
	return ok
}

// DirtyCurrentTypes returns the set of types dirty for the cycle in progress.
func (wm *WorkingMemory) DirtyCurrentTypes() map[string]struct{} {
	wm.mu.RLock()
	defer wm.mu.RUnlock()
	out := make(map[string]struct{}, len(wm.dirtyCurrent))
	for t := range wm.dirtyCurrent {
		out[t] = struct{}{}
	}
	return out
}
