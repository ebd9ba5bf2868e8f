package eql

import "context"

// Conclusion is a single candidate output of a rule body: the
// bindings produced once the rule's condition holds, together with
// the truth value the selector should branch on. Mirrors the
// (bindings, truth) pair conclusion_selector.py threads through
// ExceptIf/Alternative/Next.
type Conclusion struct {
	Bindings Binding
	Truth    bool
}

// ConclusionSelector decides, for a rule with one or more candidate
// conclusions, which ones actually fire and how duplicates across
// rule re-evaluations are suppressed. Mirrors the three concrete
// selectors in conclusion_selector.py: each keeps its own
// concluded_before map, keyed by truth branch, of SeenSets over the
// rule's projection so the same concrete conclusion is never asserted
// twice for the same truth value.
type ConclusionSelector interface {
	Select(ctx context.Context, rule *Rule, sources Binding) *Emitter
}

// Rule pairs a condition (the body to evaluate) with one or more
// conclusion clauses (bodies producing the fact(s) to assert when the
// condition and corresponding clause hold). Grounded on the original
// engine's rule objects: condition is evaluated once, then each
// clause is evaluated against the condition's bindings in turn,
// subject to the selector's refinement/alternative/next-rule
// discipline.
type Rule struct {
	gen       *IDGenerator
	Condition Node
	Clauses   []Node
	Selector  ConclusionSelector
}

// NewRule builds a rule. If selector is nil, refinement (ExceptIf)
// semantics are used, matching the original engine's default.
func NewRule(gen *IDGenerator, condition Node, clauses []Node, selector ConclusionSelector) *Rule {
	if selector == nil {
		selector = NewRefinementSelector(gen)
	}
	return &Rule{gen: gen, Condition: condition, Clauses: clauses, Selector: selector}
}

// Infer evaluates the rule and returns every asserted conclusion's
// binding.
func (r *Rule) Infer(ctx context.Context, sources Binding) []Binding {
	em := r.Selector.Select(ctx, r, sources)
	return Collect(ctx, em, 0)
}

// concludedBefore is the per-truth-branch dedup ledger shared by all
// three selectors, one SeenSet per truth value, lazily created and
// keyed by the rule's own projection (the union of its clauses'
// variables), exactly mirroring conclusion_selector.py's
// concluded_before: Dict[bool, SeenSet].
type concludedBefore struct {
	keys []int64
	sets map[bool]*SeenSet
}

func newConcludedBefore(keys []int64) *concludedBefore {
	return &concludedBefore{keys: keys, sets: make(map[bool]*SeenSet)}
}

func (c *concludedBefore) seen(truth bool, b Binding) bool {
	set, ok := c.sets[truth]
	if !ok {
		set = NewSeenSet(c.keys)
		c.sets[truth] = set
	}
	restricted := make(Binding, len(c.keys))
	for _, id := range c.keys {
		if v, ok := b[id]; ok {
			restricted[id] = v
		}
	}
	if set.Check(restricted) {
		return true
	}
	set.Add(restricted)
	return false
}

func ruleProjectionKeys(r *Rule) []int64 {
	out := NewHashedSet()
	for _, c := range r.Clauses {
		out.Update(c.UniqueVariables())
	}
	return out.SortedIDs()
}

// RefinementSelector is ExceptIf: the rule has exactly one clause, and
// firing it a second time for the same concrete binding is suppressed
// (a rule only refines/asserts a given fact once). Mirrors
// conclusion_selector.py's ExceptIf.
type RefinementSelector struct {
	gen    *IDGenerator
	ledger *concludedBefore
}

func NewRefinementSelector(gen *IDGenerator) *RefinementSelector {
	return &RefinementSelector{gen: gen}
}

func (s *RefinementSelector) Select(ctx context.Context, rule *Rule, sources Binding) *Emitter {
	if s.ledger == nil {
		s.ledger = newConcludedBefore(ruleProjectionKeys(rule))
	}
	return Emit(ctx, func(ctx context.Context, yield func(Binding) bool) {
		cem := rule.Condition.Evaluate(ctx, sources, false, nil)
		defer cem.Close()
		for {
			cb, ok := cem.Next(ctx)
			if !ok {
				return
			}
			if len(rule.Clauses) == 0 {
				continue
			}
			clause := rule.Clauses[0]
			em := clause.Evaluate(ctx, cb, false, nil)
			for {
				b, ok := em.Next(ctx)
				if !ok {
					break
				}
				if s.ledger.seen(true, b) {
					continue
				}
				if !yield(b) {
					em.Close()
					return
				}
			}
			em.Close()
		}
	})
}

// AlternativeSelector is Alternative: the rule has two or more
// clauses, of which exactly the first one whose evaluation holds
// (per concrete condition binding) is asserted; one dedup ledger per
// selector, keyed by the rule's projection, lets different condition
// bindings each pick a different alternative. Mirrors conclusion_selector.py's
// Alternative.
type AlternativeSelector struct {
	gen    *IDGenerator
	ledger *concludedBefore
}

func NewAlternativeSelector(gen *IDGenerator) *AlternativeSelector {
	return &AlternativeSelector{gen: gen}
}

func (s *AlternativeSelector) Select(ctx context.Context, rule *Rule, sources Binding) *Emitter {
	if s.ledger == nil {
		s.ledger = newConcludedBefore(ruleProjectionKeys(rule))
	}
	return Emit(ctx, func(ctx context.Context, yield func(Binding) bool) {
		cem := rule.Condition.Evaluate(ctx, sources, false, nil)
		defer cem.Close()
		for {
			cb, ok := cem.Next(ctx)
			if !ok {
				return
			}
			for _, clause := range rule.Clauses {
				em := clause.Evaluate(ctx, cb, false, nil)
				b, ok := em.Next(ctx)
				em.Close()
				if !ok {
					continue
				}
				if s.ledger.seen(true, b) {
					break
				}
				if !yield(b) {
					return
				}
				break
			}
		}
	})
}

// NextSelector is Next (next_rule): like Alternative, but a clause
// that has already fired for a given condition binding is skipped in
// favor of trying the next one, rather than stopping at the first
// candidate — letting later calls progress through the alternatives
// in order as earlier ones get exhausted. Mirrors
// conclusion_selector.py's Next.
type NextSelector struct {
	gen    *IDGenerator
	ledger *concludedBefore
}

func NewNextSelector(gen *IDGenerator) *NextSelector {
	return &NextSelector{gen: gen}
}

func (s *NextSelector) Select(ctx context.Context, rule *Rule, sources Binding) *Emitter {
	if s.ledger == nil {
		s.ledger = newConcludedBefore(ruleProjectionKeys(rule))
	}
	return Emit(ctx, func(ctx context.Context, yield func(Binding) bool) {
		cem := rule.Condition.Evaluate(ctx, sources, false, nil)
		defer cem.Close()
		for {
			cb, ok := cem.Next(ctx)
			if !ok {
				return
			}
			for _, clause := range rule.Clauses {
				em := clause.Evaluate(ctx, cb, false, nil)
				b, ok := em.Next(ctx)
				em.Close()
				if !ok {
					continue
				}
				if s.ledger.seen(true, b) {
					continue
				}
				if !yield(b) {
					return
				}
				break
			}
		}
	})
}
