package eql

import "context"

// Node is the shared contract of every expression-tree element: atoms,
// variables, domain mappings, comparators, logical operators, and
// quantifiers. It mirrors SymbolicExpression in the Python engine.
//
// Evaluate returns a lazily-produced Emitter of bindings. sources is
// the partial assignment inherited from the enclosing context;
// yieldWhenFalse tells boolean-valued nodes (comparators, logical
// operators) to also emit bindings where the node evaluated false,
// needed when a parent (e.g. ExceptIf) must observe the false branch;
// parent is the dynamic caller, recorded as this node's eval parent
// for the duration of the call.
type Node interface {
	ID() int64
	Parent() Node
	SetParent(Node)
	EvalParent() Node
	SetEvalParent(Node)
	// Projection returns the set of node ids that must appear in any
	// output binding this node yields, for the given truth branch.
	Projection(whenTrue bool) *HashedSet
	// UniqueVariables returns the set of Variable node ids reachable
	// from this node, used to build projections and cache keys.
	UniqueVariables() *HashedSet
	Evaluate(ctx context.Context, sources Binding, yieldWhenFalse bool, parent Node) *Emitter
	String() string
}

// base is embedded by every concrete Node implementation. It resolves
// the eval-parent-vs-tree-parent precedence (Open Question #1: the
// eval parent recorded by the most recent Evaluate call always wins
// over the static tree parent for projection and dedup purposes,
// matching SymbolicExpression._parent_ in the original engine) and
// provides the per-truth-branch seen-set dedup machinery shared by
// every node (SymbolicExpression._is_duplicate_output_).
type base struct {
	id         int64
	treeParent Node
	evalParent Node
	// seen is partitioned first by eval parent id (noParentKey when
	// there is none) and then by truth branch: a shared sub-expression
	// evaluated under two different eval parents in the same
	// evaluate() pass must be free to re-emit under the second parent
	// even though the first parent already saw the same projected
	// assignment.
	seen map[int64]map[bool]*SeenSet
}

// noParentKey is the seen-map key used when a node has no effective
// eval parent (it was evaluated as the root of a query).
const noParentKey int64 = -1

func newBase(gen *IDGenerator) base {
	return base{id: gen.Next(), seen: make(map[int64]map[bool]*SeenSet)}
}

func (b *base) ID() int64 { return b.id }

func (b *base) Parent() Node { return b.treeParent }

func (b *base) SetParent(p Node) { b.treeParent = p }

func (b *base) EvalParent() Node { return b.evalParent }

func (b *base) SetEvalParent(p Node) { b.evalParent = p }

// effectiveParent resolves the dedup/projection parent: eval parent
// first, tree parent otherwise.
func (b *base) effectiveParent() Node {
	if b.evalParent != nil {
		return b.evalParent
	}
	return b.treeParent
}

// isDuplicateOutput restricts output to self's projection for the
// given branch, then checks-and-records it against that branch's seen
// set. Mirrors _is_duplicate_output_: a node only ever emits each
// distinct projected assignment once per truth branch.
func (b *base) isDuplicateOutput(self Node, output Binding, whenTrue bool) bool {
	projection := self.Projection(whenTrue)
	restricted := make(Binding, projection.Len())
	for _, id := range projection.IDs() {
		if v, ok := output[id]; ok {
			restricted[id] = v
		}
	}
	parentKey := noParentKey
	if p := b.effectiveParent(); p != nil {
		parentKey = p.ID()
	}
	byParent, ok := b.seen[parentKey]
	if !ok {
		byParent = make(map[bool]*SeenSet)
		b.seen[parentKey] = byParent
	}
	set, ok := byParent[whenTrue]
	if !ok {
		set = NewSeenSet(projection.SortedIDs())
		byParent[whenTrue] = set
	}
	if set.Check(restricted) {
		return true
	}
	set.Add(restricted)
	return false
}

// nodeTruth reports the truth a just-yielded binding represents for
// node: when the binding holds a boolean HashedValue under node's own
// id (every Comparator, And when propagating its false branch, and a
// Variable or Mapping whose current value is a bool), that value is
// read directly; otherwise the node is true by virtue of having
// yielded at all.
func nodeTruth(n Node, b Binding) bool {
	if hv, ok := b[n.ID()]; ok {
		if truth, ok := hv.Value.(bool); ok {
			return truth
		}
	}
	return true
}

// baseProjection computes the parent-inherited portion of a
// projection: the effective parent's own projection for the same
// branch, or an empty set at the root.
func (b *base) baseProjection(self Node, whenTrue bool) *HashedSet {
	out := NewHashedSet()
	if p := b.effectiveParent(); p != nil {
		out.Update(p.Projection(whenTrue))
	}
	return out
}
