package eql

// This file provides a thin, additive top-level API over the Node/
// Session primitives, the same role highlevel_api.go plays in the
// teacher engine: reduce boilerplate for the common cases while
// delegating all evaluation logic to Session/Node/Rule.

import "context"

// HasType builds a Comparator asserting that subject's dynamic type
// name matches typeName, the Supplemented Features built-in backed by
// the IsType CompareOp.
func (s *Session) HasType(subject Node, typeName string) *Comparator {
	literal := NewVariable(s.gen, "", func(ctx context.Context, sources Binding) ([]interface{}, error) {
		return []interface{}{typeName}, nil
	})
	return s.Comparator(IsType, subject, literal, hasType)
}

// Eq, Neq, Lt, Lte, Gt, Gte, In, NotIn are session-scoped convenience
// constructors over the builtin CompareFuncs for the common case
// where no custom predicate is needed.
func (s *Session) Eq(left, right Node) *Comparator {
	return s.Comparator(Eq, left, right, EqualValues)
}

func (s *Session) Neq(left, right Node) *Comparator {
	return s.Comparator(Neq, left, right, EqualValues)
}

func (s *Session) Lt(left, right Node) *Comparator {
	return s.Comparator(Lt, left, right, LessValues)
}

func (s *Session) Lte(left, right Node) *Comparator {
	return s.Comparator(Lte, left, right, LessOrEqualValues)
}

func (s *Session) Gt(left, right Node) *Comparator {
	return s.Comparator(Gt, left, right, GreaterValues)
}

func (s *Session) Gte(left, right Node) *Comparator {
	return s.Comparator(Gte, left, right, GreaterOrEqualValues)
}

func (s *Session) In(left, right Node) *Comparator {
	return s.Comparator(In, left, right, ContainsValue)
}

func (s *Session) NotIn(left, right Node) *Comparator {
	return s.Comparator(NotIn, left, right, ContainsValue)
}

// From builds a Variable enumerating every instance of typeName known
// to the session's SymbolGraph, the common case of "let x = an
// instance of type T". includeSubtypes widens the enumeration to
// registered subtypes of typeName. Returns an error-signaling
// Variable (Err()) if no SymbolGraph is configured.
func (s *Session) From(name string, typeName string, includeSubtypes bool) *Variable {
	graph := s.opts.graph
	return s.Let(name, func(ctx context.Context, sources Binding) ([]interface{}, error) {
		if graph == nil {
			return nil, wrapf(ErrSymbolGraphRequired, name, "From(%q) requires a SymbolGraph", typeName)
		}
		return graph.InstancesOf(ctx, typeName, includeSubtypes)
	})
}

// Literal wraps a single fixed Go value as a zero-arity Variable,
// useful as a Comparator operand or Call argument.
func (s *Session) Literal(value interface{}) *Variable {
	return NewVariable(s.gen, "", func(ctx context.Context, sources Binding) ([]interface{}, error) {
		return []interface{}{value}, nil
	})
}
