package eql

import "context"

// CompareOp names the comparison a Comparator node performs. Mirrors
// the operator set Comparator._evaluate__ dispatches on in the
// original engine, including the negation-rewrite table (NotEqual is
// Equal negated, NotContains is Contains negated, etc.) rather than
// separate evaluation logic per negated form.
type CompareOp int

const (
	Eq CompareOp = iota
	Neq
	Lt
	Lte
	Gt
	Gte
	In
	NotIn
	IsType
)

func (op CompareOp) negated() CompareOp {
	switch op {
	case Eq:
		return Neq
	case Neq:
		return Eq
	case Lt:
		return Gte
	case Lte:
		return Gt
	case Gt:
		return Lte
	case Gte:
		return Lt
	case In:
		return NotIn
	case NotIn:
		return In
	default:
		return op
	}
}

func (op CompareOp) String() string {
	switch op {
	case Eq:
		return "=="
	case Neq:
		return "!="
	case Lt:
		return "<"
	case Lte:
		return "<="
	case Gt:
		return ">"
	case Gte:
		return ">="
	case In:
		return "in"
	case NotIn:
		return "not in"
	case IsType:
		return "has_type"
	default:
		return "?cmp"
	}
}

// CompareFunc evaluates a single comparison between two already
// resolved domain values. Returning (false, nil) means the comparison
// is simply false for these operands; returning a non-nil error means
// the comparison could not be performed at all (e.g. incomparable
// types) and is treated the same as false; the error is not logged.
type CompareFunc func(left, right interface{}) (bool, error)

// Comparator is a binary boolean node: left <op> right. Grounded on
// Comparator in the original engine: get_first_second_operands orders
// evaluation by which side already has more bound free variables, to
// avoid needless enumeration of the unconstrained side; the result of
// each evaluated pair is bound to the comparator's own id (so a parent
// node, e.g. Not, can read the comparator's truth directly rather than
// inferring it), and an IndexedCache (keyed on the operands' combined
// free variables) lets a repeatedly re-evaluated comparator — the
// common case inside an AND chain re-entered once per outer binding —
// skip straight to its previously computed outputs.
type Comparator struct {
	base
	gen         *IDGenerator
	op          CompareOp
	left, right Node
	cmp         CompareFunc
	cacheKeys   []int64
	cache       map[bool]*IndexedCache
}

// NewComparator builds a Comparator for op using cmp as the underlying
// value-level comparison. Callers needing a negated operator (Neq,
// NotIn, ...) should still pass the positive cmp; evaluation rewrites
// the result rather than requiring a separately written negated cmp.
func NewComparator(gen *IDGenerator, op CompareOp, left, right Node, cmp CompareFunc) *Comparator {
	keys := left.UniqueVariables().Union(right.UniqueVariables()).SortedIDs()
	return &Comparator{
		base: newBase(gen), gen: gen, op: op, left: left, right: right, cmp: cmp,
		cacheKeys: keys,
		cache:     map[bool]*IndexedCache{true: NewIndexedCache(keys), false: NewIndexedCache(keys)},
	}
}

func (c *Comparator) String() string {
	return c.left.String() + " " + c.op.String() + " " + c.right.String()
}

func (c *Comparator) UniqueVariables() *HashedSet {
	out := c.left.UniqueVariables()
	out.Update(c.right.UniqueVariables())
	return out
}

// Projection for a Comparator is the union of both operands' variables
// plus whatever the parent projection requires. The comparator's own
// id is not part of the projection, although Evaluate binds it to the
// comparison's truth value in every output.
func (c *Comparator) Projection(whenTrue bool) *HashedSet {
	out := c.baseProjection(c, whenTrue)
	out.Update(c.left.UniqueVariables())
	out.Update(c.right.UniqueVariables())
	return out
}

// positiveOp strips the negation so evaluation always calls cmp with
// the positive sense of the comparison, then flips the boolean result
// if op is actually one of the negated forms.
func (c *Comparator) positiveOp() (CompareOp, bool) {
	switch c.op {
	case Neq:
		return Eq, true
	case NotIn:
		return In, true
	default:
		return c.op, false
	}
}

func (c *Comparator) Evaluate(ctx context.Context, sources Binding, yieldWhenFalse bool, parent Node) *Emitter {
	c.SetEvalParent(parent)
	return Emit(ctx, func(ctx context.Context, yield func(Binding) bool) {
		key := c.restrictToKeys(sources)
		if c.tryCache(key, yieldWhenFalse, yield) {
			return
		}

		first, second := c.left, c.right
		if boundCount(c.right, sources) > boundCount(c.left, sources) {
			first, second = c.right, c.left
		}

		firstEm := first.Evaluate(ctx, sources, false, c)
		defer firstEm.Close()
		for {
			fb, ok := firstEm.Next(ctx)
			if !ok {
				return
			}
			secondEm := second.Evaluate(ctx, fb, false, c)
			for {
				combined, ok := secondEm.Next(ctx)
				if !ok {
					break
				}
				truth := c.evalPair(combined)
				if !truth && !yieldWhenFalse {
					continue
				}
				out := combined.Clone()
				out[c.id] = NewHashedValue(truth, c.gen)
				c.cache[truth].Insert(key, out, true)
				if c.isDuplicateOutput(c, out, truth) {
					continue
				}
				if !yield(out) {
					secondEm.Close()
					return
				}
			}
		}
	})
}

// restrictToKeys projects sources down to this comparator's combined
// free-variable key set, the cache's addressing scheme.
func (c *Comparator) restrictToKeys(sources Binding) Binding {
	out := make(Binding, len(c.cacheKeys))
	for _, id := range c.cacheKeys {
		if v, ok := sources[id]; ok {
			out[id] = v
		}
	}
	return out
}

// tryCache replays previously computed outputs for key when every
// branch this call needs is fully covered, so a partially-populated
// cache (e.g. only the true branch was ever asked for) never causes a
// recomputation to be skipped.
func (c *Comparator) tryCache(key Binding, yieldWhenFalse bool, yield func(Binding) bool) bool {
	if !c.cache[true].Check(key) {
		return false
	}
	if yieldWhenFalse && !c.cache[false].Check(key) {
		return false
	}
	for _, out := range c.cache[true].Retrieve(key) {
		if c.isDuplicateOutput(c, out, true) {
			continue
		}
		if !yield(out) {
			return true
		}
	}
	if yieldWhenFalse {
		for _, out := range c.cache[false].Retrieve(key) {
			if c.isDuplicateOutput(c, out, false) {
				continue
			}
			if !yield(out) {
				return true
			}
		}
	}
	return true
}

// boundCount counts how many of n's free variables already have a
// value in sources, the heuristic used to decide which operand to
// ground first: the side with more already-bound variables is cheaper
// to enumerate (often just one value) and so runs outer.
func boundCount(n Node, sources Binding) int {
	count := 0
	for _, id := range n.UniqueVariables().IDs() {
		if _, ok := sources[id]; ok {
			count++
		}
	}
	return count
}

func (c *Comparator) evalPair(combined Binding) bool {
	lv, lok := combined[c.left.ID()]
	rv, rok := combined[c.right.ID()]
	if !lok || !rok {
		return false
	}
	op, flip := c.positiveOp()
	var ok bool
	var err error
	switch op {
	case IsType:
		ok, err = hasType(lv.Value, rv.Value)
	default:
		ok, err = c.cmp(lv.Value, rv.Value)
	}
	if err != nil {
		ok = false
	}
	if flip {
		ok = !ok
	}
	return ok
}
