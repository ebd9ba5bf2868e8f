package eql

import "context"

// And is the conjunctive join: operands are evaluated left to right,
// each one's sources being the previous operand's output binding, so
// later operands see earlier ones' bindings the way a chain of nested
// loops would. Mirrors AND._evaluate__ in the original engine,
// including is_false propagation: if an operand comes up false, AND
// itself is false for that branch and, when yieldWhenFalse is set,
// yields a binding carrying that witness rather than silently
// dropping it. An IndexedCache keyed on every operand's free variables
// lets a re-entered AND (e.g. the body of a rule tried against many
// outer bindings) skip straight to a previously computed result set.
type And struct {
	base
	gen       *IDGenerator
	operands  []Node
	cacheKeys []int64
	cache     map[bool]*IndexedCache
}

func NewAnd(gen *IDGenerator, operands ...Node) *And {
	keys := NewHashedSet()
	for _, o := range operands {
		keys.Update(o.UniqueVariables())
	}
	sorted := keys.SortedIDs()
	return &And{
		base: newBase(gen), gen: gen, operands: operands,
		cacheKeys: sorted,
		cache:     map[bool]*IndexedCache{true: NewIndexedCache(sorted), false: NewIndexedCache(sorted)},
	}
}

func (a *And) String() string {
	s := "("
	for i, o := range a.operands {
		if i > 0 {
			s += " and "
		}
		s += o.String()
	}
	return s + ")"
}

func (a *And) UniqueVariables() *HashedSet {
	out := NewHashedSet()
	for _, o := range a.operands {
		out.Update(o.UniqueVariables())
	}
	return out
}

func (a *And) Projection(whenTrue bool) *HashedSet {
	out := a.baseProjection(a, whenTrue)
	out.Update(a.UniqueVariables())
	return out
}

// restrictToKeys projects sources down to this AND's combined free
// variable set, the cache's addressing scheme.
func (a *And) restrictToKeys(sources Binding) Binding {
	out := make(Binding, len(a.cacheKeys))
	for _, id := range a.cacheKeys {
		if v, ok := sources[id]; ok {
			out[id] = v
		}
	}
	return out
}

// tryCache mirrors Comparator.tryCache: only replay when every branch
// this call needs has been fully computed before.
func (a *And) tryCache(key Binding, yieldWhenFalse bool, yield func(Binding) bool) bool {
	if !a.cache[true].Check(key) {
		return false
	}
	if yieldWhenFalse && !a.cache[false].Check(key) {
		return false
	}
	for _, out := range a.cache[true].Retrieve(key) {
		if a.isDuplicateOutput(a, out, true) {
			continue
		}
		if !yield(out) {
			return true
		}
	}
	if yieldWhenFalse {
		for _, out := range a.cache[false].Retrieve(key) {
			if a.isDuplicateOutput(a, out, false) {
				continue
			}
			if !yield(out) {
				return true
			}
		}
	}
	return true
}

func (a *And) Evaluate(ctx context.Context, sources Binding, yieldWhenFalse bool, parent Node) *Emitter {
	a.SetEvalParent(parent)
	return Emit(ctx, func(ctx context.Context, yield func(Binding) bool) {
		key := a.restrictToKeys(sources)
		if a.tryCache(key, yieldWhenFalse, yield) {
			return
		}
		a.evalFrom(ctx, sources, 0, yieldWhenFalse, key, yield)
	})
}

func (a *And) evalFrom(ctx context.Context, sources Binding, idx int, yieldWhenFalse bool, cacheKey Binding, yield func(Binding) bool) bool {
	if idx >= len(a.operands) {
		out := sources.Clone()
		out[a.id] = NewHashedValue(true, a.gen)
		a.cache[true].Insert(cacheKey, out, true)
		if a.isDuplicateOutput(a, out, true) {
			return true
		}
		return yield(out)
	}
	operand := a.operands[idx]
	em := operand.Evaluate(ctx, sources, true, a)
	defer em.Close()
	for {
		b, ok := em.Next(ctx)
		if !ok {
			return true
		}
		if nodeTruth(operand, b) {
			if !a.evalFrom(ctx, b, idx+1, yieldWhenFalse, cacheKey, yield) {
				return false
			}
			continue
		}
		if !yieldWhenFalse {
			continue
		}
		out := b.Clone()
		out[a.id] = NewHashedValue(false, a.gen)
		a.cache[false].Insert(cacheKey, out, true)
		if a.isDuplicateOutput(a, out, false) {
			continue
		}
		if !yield(out) {
			return false
		}
	}
}

// Union (OR) evaluates every operand independently against the same
// sources and yields every binding either produces, deduplicated by
// the combined projection. Mirrors OR/Union in the original engine.
// Like And, it keeps an IndexedCache keyed on the operands' combined
// free variables so a re-entered Union skips straight to its known
// results; Union never emits a false witness, so a single cache
// (rather than And/Comparator's per-branch pair) is enough.
type Union struct {
	base
	operands  []Node
	cacheKeys []int64
	cache     *IndexedCache
}

func NewUnion(gen *IDGenerator, operands ...Node) *Union {
	keys := NewHashedSet()
	for _, o := range operands {
		keys.Update(o.UniqueVariables())
	}
	sorted := keys.SortedIDs()
	return &Union{base: newBase(gen), operands: operands, cacheKeys: sorted, cache: NewIndexedCache(sorted)}
}

func (u *Union) restrictToKeys(sources Binding) Binding {
	out := make(Binding, len(u.cacheKeys))
	for _, id := range u.cacheKeys {
		if v, ok := sources[id]; ok {
			out[id] = v
		}
	}
	return out
}

func (u *Union) String() string {
	s := "("
	for i, o := range u.operands {
		if i > 0 {
			s += " or "
		}
		s += o.String()
	}
	return s + ")"
}

func (u *Union) UniqueVariables() *HashedSet {
	out := NewHashedSet()
	for _, o := range u.operands {
		out.Update(o.UniqueVariables())
	}
	return out
}

func (u *Union) Projection(whenTrue bool) *HashedSet {
	out := u.baseProjection(u, whenTrue)
	out.Update(u.UniqueVariables())
	return out
}

func (u *Union) Evaluate(ctx context.Context, sources Binding, yieldWhenFalse bool, parent Node) *Emitter {
	u.SetEvalParent(parent)
	return Emit(ctx, func(ctx context.Context, yield func(Binding) bool) {
		key := u.restrictToKeys(sources)
		if u.cache.Check(key) {
			for _, out := range u.cache.Retrieve(key) {
				if u.isDuplicateOutput(u, out, true) {
					continue
				}
				if !yield(out) {
					return
				}
			}
			return
		}
		for _, operand := range u.operands {
			em := operand.Evaluate(ctx, sources, false, u)
			stop := false
			for {
				b, ok := em.Next(ctx)
				if !ok {
					break
				}
				u.cache.Insert(key, b, true)
				if u.isDuplicateOutput(u, b, true) {
					continue
				}
				if !yield(b) {
					stop = true
					break
				}
			}
			em.Close()
			if stop {
				return
			}
		}
	})
}

// ElseIf tries primary first; only if primary produces no bindings at
// all does it fall through to fallback, evaluated against the
// original sources. This is the short-circuit cousin of Union: the
// original engine's ElseIf, used where the second branch should only
// run when the first is entirely inapplicable rather than merely
// false for some assignment.
type ElseIf struct {
	base
	primary, fallback Node
}

func NewElseIf(gen *IDGenerator, primary, fallback Node) *ElseIf {
	return &ElseIf{base: newBase(gen), primary: primary, fallback: fallback}
}

func (e *ElseIf) String() string {
	return "(" + e.primary.String() + " else " + e.fallback.String() + ")"
}

func (e *ElseIf) UniqueVariables() *HashedSet {
	out := e.primary.UniqueVariables()
	out.Update(e.fallback.UniqueVariables())
	return out
}

func (e *ElseIf) Projection(whenTrue bool) *HashedSet {
	out := e.baseProjection(e, whenTrue)
	out.Update(e.UniqueVariables())
	return out
}

func (e *ElseIf) Evaluate(ctx context.Context, sources Binding, yieldWhenFalse bool, parent Node) *Emitter {
	e.SetEvalParent(parent)
	return Emit(ctx, func(ctx context.Context, yield func(Binding) bool) {
		em := e.primary.Evaluate(ctx, sources, false, e)
		any := false
		for {
			b, ok := em.Next(ctx)
			if !ok {
				break
			}
			any = true
			if e.isDuplicateOutput(e, b, true) {
				continue
			}
			if !yield(b) {
				em.Close()
				return
			}
		}
		em.Close()
		if any {
			return
		}
		fb := e.fallback.Evaluate(ctx, sources, false, e)
		defer fb.Close()
		for {
			b, ok := fb.Next(ctx)
			if !ok {
				return
			}
			if e.isDuplicateOutput(e, b, true) {
				continue
			}
			if !yield(b) {
				return
			}
		}
	})
}

// Next chains more than two alternatives through ElseIf: the first
// alternative to produce any binding wins, in order.
func NewNext(gen *IDGenerator, alternatives ...Node) Node {
	if len(alternatives) == 0 {
		return nil
	}
	chain := alternatives[len(alternatives)-1]
	for i := len(alternatives) - 2; i >= 0; i-- {
		chain = NewElseIf(gen, alternatives[i], chain)
	}
	return chain
}

// ExceptIf filters out bindings of body for which condition holds,
// i.e. "body unless condition". condition is evaluated with body's
// binding as its sources so it can refer to body's variables.
type ExceptIf struct {
	base
	body, condition Node
}

func NewExceptIf(gen *IDGenerator, body, condition Node) *ExceptIf {
	return &ExceptIf{base: newBase(gen), body: body, condition: condition}
}

func (x *ExceptIf) String() string {
	return "(" + x.body.String() + " except_if " + x.condition.String() + ")"
}

func (x *ExceptIf) UniqueVariables() *HashedSet {
	out := x.body.UniqueVariables()
	out.Update(x.condition.UniqueVariables())
	return out
}

func (x *ExceptIf) Projection(whenTrue bool) *HashedSet {
	out := x.baseProjection(x, whenTrue)
	out.Update(x.body.UniqueVariables())
	return out
}

func (x *ExceptIf) Evaluate(ctx context.Context, sources Binding, yieldWhenFalse bool, parent Node) *Emitter {
	x.SetEvalParent(parent)
	return Emit(ctx, func(ctx context.Context, yield func(Binding) bool) {
		em := x.body.Evaluate(ctx, sources, false, x)
		defer em.Close()
		for {
			b, ok := em.Next(ctx)
			if !ok {
				return
			}
			cem := x.condition.Evaluate(ctx, b, false, x)
			_, excluded := cem.Next(ctx)
			cem.Close()
			if excluded {
				continue
			}
			if x.isDuplicateOutput(x, b, true) {
				continue
			}
			if !yield(b) {
				return
			}
		}
	})
}

// Not structurally negates child: it runs child asking for both truth
// branches and, when none of child's bindings is true, emits the
// sources that were already bound on entry once (child's own
// variables are existentially quantified away, matching the original
// engine's treatment of Not as "no witness exists"); when any binding
// is true it emits nothing.
type Not struct {
	base
	child Node
}

func NewNot(gen *IDGenerator, child Node) *Not {
	return &Not{base: newBase(gen), child: child}
}

func (n *Not) String() string { return "not " + n.child.String() }

func (n *Not) UniqueVariables() *HashedSet { return n.child.UniqueVariables() }

func (n *Not) Projection(whenTrue bool) *HashedSet {
	return n.baseProjection(n, whenTrue)
}

func (n *Not) Evaluate(ctx context.Context, sources Binding, yieldWhenFalse bool, parent Node) *Emitter {
	n.SetEvalParent(parent)
	return Emit(ctx, func(ctx context.Context, yield func(Binding) bool) {
		em := n.child.Evaluate(ctx, sources, true, n)
		defer em.Close()
		anyTrue := false
		for {
			b, ok := em.Next(ctx)
			if !ok {
				break
			}
			if nodeTruth(n.child, b) {
				anyTrue = true
				break
			}
		}
		if anyTrue {
			return
		}
		out := sources.Clone()
		if n.isDuplicateOutput(n, out, true) {
			return
		}
		yield(out)
	})
}

// ForAll reports whether condition holds for every value the variable
// var_ can take on (enumerated by domain); it yields a single true
// binding of sources if so, and nothing otherwise. Grounded on the
// original engine's universal quantifier, implemented here as the
// negation of "exists a value for which condition fails".
type ForAll struct {
	base
	variable  Node
	condition Node
}

func NewForAll(gen *IDGenerator, variable, condition Node) *ForAll {
	return &ForAll{base: newBase(gen), variable: variable, condition: condition}
}

func (f *ForAll) String() string {
	return "for_all(" + f.variable.String() + ", " + f.condition.String() + ")"
}

func (f *ForAll) UniqueVariables() *HashedSet {
	return f.condition.UniqueVariables().Difference(f.variable.UniqueVariables())
}

func (f *ForAll) Projection(whenTrue bool) *HashedSet {
	return f.baseProjection(f, whenTrue)
}

func (f *ForAll) Evaluate(ctx context.Context, sources Binding, yieldWhenFalse bool, parent Node) *Emitter {
	f.SetEvalParent(parent)
	return Emit(ctx, func(ctx context.Context, yield func(Binding) bool) {
		vem := f.variable.Evaluate(ctx, sources, false, f)
		defer vem.Close()
		for {
			vb, ok := vem.Next(ctx)
			if !ok {
				break
			}
			cem := f.condition.Evaluate(ctx, vb, false, f)
			_, holds := cem.Next(ctx)
			cem.Close()
			if !holds {
				return
			}
		}
		out := sources.Clone()
		if f.isDuplicateOutput(f, out, true) {
			return
		}
		yield(out)
	})
}

// Exists reports whether condition holds for at least one value of
// variable, the dual of ForAll.
type Exists struct {
	base
	variable  Node
	condition Node
}

func NewExists(gen *IDGenerator, variable, condition Node) *Exists {
	return &Exists{base: newBase(gen), variable: variable, condition: condition}
}

func (e *Exists) String() string {
	return "exists(" + e.variable.String() + ", " + e.condition.String() + ")"
}

func (e *Exists) UniqueVariables() *HashedSet {
	return e.condition.UniqueVariables().Difference(e.variable.UniqueVariables())
}

func (e *Exists) Projection(whenTrue bool) *HashedSet {
	return e.baseProjection(e, whenTrue)
}

func (e *Exists) Evaluate(ctx context.Context, sources Binding, yieldWhenFalse bool, parent Node) *Emitter {
	e.SetEvalParent(parent)
	return Emit(ctx, func(ctx context.Context, yield func(Binding) bool) {
		vem := e.variable.Evaluate(ctx, sources, false, e)
		defer vem.Close()
		for {
			vb, ok := vem.Next(ctx)
			if !ok {
				break
			}
			cem := e.condition.Evaluate(ctx, vb, false, e)
			_, holds := cem.Next(ctx)
			cem.Close()
			if holds {
				out := sources.Clone()
				if e.isDuplicateOutput(e, out, true) {
					return
				}
				yield(out)
				return
			}
		}
	})
}
