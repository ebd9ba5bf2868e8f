package eql

import "context"

// mappingKind distinguishes the id-propagation behavior of each
// domain mapping: Attribute/Index/Call all propagate the source's
// identity (so two reads of the same attribute off the same source
// compare equal); Flatten wraps each emitted element with
// NewHashedValue, so equal scalar elements share one interned id and
// any other element gets a fresh id.
type mappingKind int

const (
	kindAttribute mappingKind = iota
	kindIndex
	kindCall
	kindFlatten
)

// Mapping is a unary domain transform: Attribute(x.name), Index(x[k]),
// Call(x(...)), and Flatten(iter(x)). Grounded on the DomainMapping
// hierarchy in the original engine: Attribute/Index/Call apply a
// single lookup and keep the source's id (so sibling reads off the
// same object dedupe against each other); Flatten iterates and wraps
// each element with NewHashedValue.
type Mapping struct {
	base
	gen      *IDGenerator
	kind     mappingKind
	source   Node
	accessor ValueAccessor
	attrName string
	indexKey interface{}
	callArgs []Node
	err      error
}

// Err returns the last evaluation error, if any. Attribute/Index/Call
// failures (a missing attribute, an accessor returning an error) are
// surfaced here rather than silently skipped, mirroring Variable.Err:
// callers that need to distinguish "the source had no matches" from
// "applying this mapping failed" should check Err after draining the
// emitter.
func (m *Mapping) Err() error { return m.err }

// NewAttributeMapping returns x.<name>.
func NewAttributeMapping(gen *IDGenerator, source Node, name string, accessor ValueAccessor) *Mapping {
	return &Mapping{base: newBase(gen), gen: gen, kind: kindAttribute, source: source, attrName: name, accessor: accessor}
}

// NewIndexMapping returns x[key].
func NewIndexMapping(gen *IDGenerator, source Node, key interface{}, accessor ValueAccessor) *Mapping {
	return &Mapping{base: newBase(gen), gen: gen, kind: kindIndex, source: source, indexKey: key, accessor: accessor}
}

// NewCallMapping returns x(args...); args are evaluated as child nodes
// so they may themselves be variables.
func NewCallMapping(gen *IDGenerator, source Node, args []Node, accessor ValueAccessor) *Mapping {
	return &Mapping{base: newBase(gen), gen: gen, kind: kindCall, source: source, callArgs: args, accessor: accessor}
}

// NewFlattenMapping returns each element of iter(x) as a separate
// output binding.
func NewFlattenMapping(gen *IDGenerator, source Node, accessor ValueAccessor) *Mapping {
	return &Mapping{base: newBase(gen), gen: gen, kind: kindFlatten, source: source, accessor: accessor}
}

func (m *Mapping) String() string {
	switch m.kind {
	case kindAttribute:
		return "." + m.attrName
	case kindIndex:
		return "[index]"
	case kindCall:
		return "(call)"
	default:
		return "flatten(...)"
	}
}

func (m *Mapping) UniqueVariables() *HashedSet {
	out := m.source.UniqueVariables()
	for _, a := range m.callArgs {
		out.Update(a.UniqueVariables())
	}
	return out
}

func (m *Mapping) Projection(whenTrue bool) *HashedSet {
	out := m.baseProjection(m, whenTrue)
	out.Add(HashedValue{Value: m, ID: m.id})
	return out
}

func (m *Mapping) Evaluate(ctx context.Context, sources Binding, yieldWhenFalse bool, parent Node) *Emitter {
	m.SetEvalParent(parent)
	m.err = nil
	return Emit(ctx, func(ctx context.Context, yield func(Binding) bool) {
		srcEm := m.source.Evaluate(ctx, sources, false, m)
		defer srcEm.Close()
		for {
			srcBinding, ok := srcEm.Next(ctx)
			if !ok {
				return
			}
			srcVal, ok := srcBinding[m.source.ID()]
			if !ok {
				continue
			}
			if !m.apply(ctx, srcBinding, srcVal, yield) {
				return
			}
		}
	})
}

// apply resolves one element of the mapping. Accessor failures and
// missing call arguments are surfaced unchanged via m.err and stop
// evaluation (return false) rather than being skipped: a type error or
// missing attribute from user code is a real failure, not "this
// element doesn't match".
func (m *Mapping) apply(ctx context.Context, base Binding, srcVal HashedValue, yield func(Binding) bool) bool {
	switch m.kind {
	case kindAttribute:
		v, err := m.accessor.GetAttr(srcVal.Value, m.attrName)
		if err != nil {
			m.err = wrapf(err, m.String(), "attribute %q lookup failed", m.attrName)
			return false
		}
		out := base.Clone()
		out[m.id] = WithID(v, srcVal.ID)
		return yield(out)

	case kindIndex:
		v, err := m.accessor.Index(srcVal.Value, m.indexKey)
		if err != nil {
			m.err = wrapf(err, m.String(), "index %v lookup failed", m.indexKey)
			return false
		}
		out := base.Clone()
		out[m.id] = WithID(v, srcVal.ID)
		return yield(out)

	case kindCall:
		args, ok := m.evalCallArgs(ctx, base)
		if !ok {
			if m.err == nil {
				m.err = wrapf(ErrUnboundVariable, m.String(), "call argument did not resolve to a value")
			}
			return false
		}
		v, err := m.accessor.Call(srcVal.Value, args...)
		if err != nil {
			m.err = wrapf(err, m.String(), "call failed")
			return false
		}
		out := base.Clone()
		out[m.id] = WithID(v, srcVal.ID)
		return yield(out)

	default: // kindFlatten
		if !m.accessor.IsIterable(srcVal.Value) {
			m.err = wrapf(ErrNotIterable, m.String(), "value is not iterable")
			return false
		}
		cont := true
		_ = m.accessor.Iter(srcVal.Value, func(elem interface{}) bool {
			out := base.Clone()
			out[m.id] = NewHashedValue(elem, m.gen)
			if !yield(out) {
				cont = false
				return false
			}
			return true
		})
		return cont
	}
}

// evalCallArgs resolves each argument node against base, taking the
// first binding each yields (call arguments are expected to already
// be grounded by the time Call is evaluated).
func (m *Mapping) evalCallArgs(ctx context.Context, base Binding) ([]interface{}, bool) {
	args := make([]interface{}, 0, len(m.callArgs))
	for _, a := range m.callArgs {
		em := a.Evaluate(ctx, base, false, m)
		b, ok := em.Next(ctx)
		em.Close()
		if !ok {
			return nil, false
		}
		v, ok := b[a.ID()]
		if !ok {
			return nil, false
		}
		args = append(args, v.Value)
	}
	return args, true
}
