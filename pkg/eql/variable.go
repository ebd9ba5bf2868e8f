package eql

import (
	"context"
)

// DomainFunc enumerates the possible values of a Variable given the
// bindings accumulated so far. A nil DomainFunc means the variable has
// no declared domain and must instead be constructed from its
// children (see Variable.children).
type DomainFunc func(ctx context.Context, sources Binding) ([]interface{}, error)

// ConstructFunc builds a value for a Variable once all of its
// children have been bound, the Go analogue of instantiating a
// predicate-typed class from its constructor arguments in rule mode.
type ConstructFunc func(childValues Binding) (interface{}, error)

// Variable is a named slot in the expression tree that either
// enumerates a domain or is constructed from child variables. Mirrors
// Variable._evaluate__ in the original engine: domain enumeration
// takes priority, construction from children is the fallback, and a
// Variable with neither is an error rather than a silent empty result.
type Variable struct {
	base
	gen       *IDGenerator
	name      string
	domain    DomainFunc
	construct ConstructFunc
	children  []Node
	err       error
}

// NewVariable creates a domain-enumerated variable.
func NewVariable(gen *IDGenerator, name string, domain DomainFunc) *Variable {
	return &Variable{base: newBase(gen), gen: gen, name: name, domain: domain}
}

// NewConstructedVariable creates a variable built from the bindings of
// its children once they are all resolved.
func NewConstructedVariable(gen *IDGenerator, name string, children []Node, construct ConstructFunc) *Variable {
	return &Variable{base: newBase(gen), gen: gen, name: name, children: children, construct: construct}
}

// Err returns the last evaluation error, if any. Because Evaluate
// streams results through an Emitter rather than returning an error
// value directly, callers that need to distinguish "no results" from
// "evaluation failed" should check Err after draining the emitter.
func (v *Variable) Err() error { return v.err }

func (v *Variable) String() string {
	if v.name != "" {
		return v.name
	}
	return "?var"
}

// UniqueVariables returns {v} union its children's variables.
func (v *Variable) UniqueVariables() *HashedSet {
	out := NewHashedSet()
	out.Add(HashedValue{Value: v, ID: v.id})
	for _, c := range v.children {
		out.Update(c.UniqueVariables())
	}
	return out
}

// Projection for a bare Variable is just itself plus whatever its
// effective parent's projection requires.
func (v *Variable) Projection(whenTrue bool) *HashedSet {
	out := v.baseProjection(v, whenTrue)
	out.Add(HashedValue{Value: v, ID: v.id})
	return out
}

func (v *Variable) Evaluate(ctx context.Context, sources Binding, yieldWhenFalse bool, parent Node) *Emitter {
	v.SetEvalParent(parent)
	v.err = nil
	return Emit(ctx, func(ctx context.Context, yield func(Binding) bool) {
		if existing, ok := sources[v.id]; ok {
			out := sources.Clone()
			out[v.id] = existing
			yield(out)
			return
		}

		if v.domain != nil {
			values, err := v.domain(ctx, sources)
			if err != nil {
				v.err = wrapf(err, v.String(), "domain enumeration failed")
				return
			}
			for _, val := range values {
				hv := NewHashedValue(val, v.gen)
				out := sources.Clone()
				out[v.id] = hv
				if !yield(out) {
					return
				}
			}
			return
		}

		if len(v.children) > 0 {
			v.constructFromChildren(ctx, sources, 0, sources.Clone(), yield)
			return
		}

		v.err = wrapf(ErrNoDomain, v.String(), "no domain and no constructible children")
	})
}

// constructFromChildren recursively binds each child variable (in
// declaration order) and, once all are bound, invokes construct to
// produce this variable's value. This is a direct but simplified
// port of generate_combinations: children are always bound in
// declaration order; the original's already-bound/indexed/constrained
// reordering is not done.
func (v *Variable) constructFromChildren(ctx context.Context, sources Binding, idx int, acc Binding, yield func(Binding) bool) {
	if idx >= len(v.children) {
		childValues := make(Binding, len(v.children))
		for _, c := range v.children {
			if hv, ok := acc[c.ID()]; ok {
				childValues[c.ID()] = hv
			}
		}
		val, err := v.construct(childValues)
		if err != nil {
			v.err = wrapf(err, v.String(), "construction failed")
			return
		}
		hv := NewHashedValue(val, v.gen)
		out := acc.Clone()
		out[v.id] = hv
		yield(out)
		return
	}

	child := v.children[idx]
	em := child.Evaluate(ctx, acc, false, v)
	defer em.Close()
	for {
		b, ok := em.Next(ctx)
		if !ok {
			return
		}
		v.constructFromChildren(ctx, sources, idx+1, b, yield)
	}
}

