package eql

import (
	"context"

	"github.com/hashicorp/go-hclog"
)

// Entity is the base query descriptor: it evaluates body and projects
// each resulting binding down to selectVars, deduplicating on that
// projection. Mirrors the original engine's query-descriptor wrapper
// that turns a symbolic expression tree into a stream of answer
// tuples over a chosen head.
//
// Before evaluating, Entity counts the selectVars that are Variables
// with neither a tree parent nor an eval parent and logs a warning when
// that count is at least 2 and at least warnThreshold (domain sizes
// are not consulted), mirroring _warn_on_unbound_variables_ in the
// original engine, which exists to catch accidentally-unconstrained
// queries before they silently enumerate millions of combinations.
type Entity struct {
	base
	body          Node
	selectVars    []Node
	gen           *IDGenerator
	log           hclog.Logger
	warnThreshold int
}

// EntityOption configures an Entity/SetOf/An/The descriptor.
type EntityOption func(*Entity)

// WithCartesianWarnThreshold overrides defaultCartesianWarnThreshold
// for a single descriptor.
func WithCartesianWarnThreshold(n int) EntityOption {
	return func(e *Entity) { e.warnThreshold = n }
}

// WithLogger overrides the descriptor's logger (default: baseLogger
// named "eql.entity").
func WithLogger(l hclog.Logger) EntityOption {
	return func(e *Entity) { e.log = l }
}

// NewEntity builds a query descriptor over body selecting selectVars
// as the answer head.
func NewEntity(gen *IDGenerator, body Node, selectVars []Node, opts ...EntityOption) *Entity {
	e := &Entity{
		base:          newBase(gen),
		body:          body,
		selectVars:    selectVars,
		gen:           gen,
		log:           baseLogger.Named("eql.entity"),
		warnThreshold: defaultCartesianWarnThreshold,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Entity) String() string { return "entity(" + e.body.String() + ")" }

func (e *Entity) UniqueVariables() *HashedSet {
	out := NewHashedSet()
	for _, v := range e.selectVars {
		out.Update(v.UniqueVariables())
	}
	return out
}

func (e *Entity) Projection(whenTrue bool) *HashedSet {
	return e.UniqueVariables()
}

// warnIfCartesian logs a warning when many select variables look
// independently unbound (no shared parent chain linking them). The
// join still happens correctly either way (see completeCartesian);
// this only flags that it may be large, the case the original engine
// warns about before it silently enumerates millions of combinations.
func (e *Entity) warnIfCartesian() {
	unbound := 0
	for _, v := range e.selectVars {
		if variable, ok := v.(*Variable); ok && variable.Parent() == nil && variable.EvalParent() == nil {
			unbound++
		}
	}
	if unbound >= 2 && e.warnThreshold > 0 && unbound >= e.warnThreshold {
		e.log.Warn("query selects many independent unbound variables, evaluation may enumerate a large Cartesian product",
			"unbound_variable_count", unbound, "threshold", e.warnThreshold)
	}
}

// project restricts a full evaluation binding down to selectVars.
func (e *Entity) project(full Binding) Binding {
	out := make(Binding, len(e.selectVars))
	for _, v := range e.selectVars {
		if hv, ok := full[v.ID()]; ok {
			out[v.ID()] = hv
		}
	}
	return out
}

// Evaluate yields each distinct projected answer tuple exactly once.
// A select variable the body never binds (selected but not part of
// the constrained join) is enumerated against its own domain and
// combined with every body binding, rather than silently vanishing
// from the output tuple.
func (e *Entity) Evaluate(ctx context.Context, sources Binding, yieldWhenFalse bool, parent Node) *Emitter {
	e.SetEvalParent(parent)
	e.warnIfCartesian()
	return Emit(ctx, func(ctx context.Context, yield func(Binding) bool) {
		em := e.body.Evaluate(ctx, sources, false, e)
		defer em.Close()
		for {
			b, ok := em.Next(ctx)
			if !ok {
				return
			}
			if !e.completeCartesian(ctx, b, 0, yield) {
				return
			}
		}
	})
}

// completeCartesian enumerates any select variable absent from b
// against its own domain (evaluated with b as sources, so a
// dependent-but-unbound variable still sees what body did bind) and
// combines every value with b, recursing until every select variable
// is present, then projects, dedupes, and yields.
func (e *Entity) completeCartesian(ctx context.Context, b Binding, idx int, yield func(Binding) bool) bool {
	if idx >= len(e.selectVars) {
		proj := e.project(b)
		if e.isDuplicateOutput(e, proj, true) {
			return true
		}
		return yield(proj)
	}
	v := e.selectVars[idx]
	if _, ok := b[v.ID()]; ok {
		return e.completeCartesian(ctx, b, idx+1, yield)
	}
	em := v.Evaluate(ctx, b, false, e)
	defer em.Close()
	for {
		vb, ok := em.Next(ctx)
		if !ok {
			return true
		}
		if !e.completeCartesian(ctx, vb, idx+1, yield) {
			return false
		}
	}
}

// Results drains every distinct answer tuple from e.
func (e *Entity) Results(ctx context.Context, sources Binding) []Binding {
	em := e.Evaluate(ctx, sources, false, nil)
	return Collect(ctx, em, 0)
}

// SetOf streams every distinct answer tuple of body exactly as Entity
// does; its Collect method gathers them into a deduplicated slice of
// Bindings. It is the Go analogue of the original engine's set-builder
// query form.
type SetOf struct {
	*Entity
}

// NewSetOf builds a set-aggregating descriptor over the same shape as
// Entity.
func NewSetOf(gen *IDGenerator, body Node, selectVars []Node, opts ...EntityOption) *SetOf {
	return &SetOf{Entity: NewEntity(gen, body, selectVars, opts...)}
}

func (s *SetOf) String() string { return "set_of(" + s.body.String() + ")" }

// Collect drains the descriptor and returns every distinct tuple as a
// slice of Bindings (there's no single HashedValue that represents a
// tuple of arbitrary arity, so the "set" is realized as a deduplicated
// slice rather than a HashedSet of scalars).
func (s *SetOf) Collect(ctx context.Context, sources Binding) []Binding {
	return s.Entity.Results(ctx, sources)
}

// An is the universal quantifier: it yields every answer tuple body
// produces, identically to Entity/SetOf. It exists as a distinct type
// only so call sites can name the quantifier the way spec vocabulary
// does (`an(entity(...))`); all of its behavior is inherited from the
// embedded Entity. Mirrors the original engine's "a/an" quantifier,
// which is "all matching witnesses", not a single pick — that's The's
// job.
type An struct {
	*Entity
}

func NewAn(gen *IDGenerator, body Node, selectVars []Node, opts ...EntityOption) *An {
	return &An{Entity: NewEntity(gen, body, selectVars, opts...)}
}

func (a *An) String() string { return "an(" + a.body.String() + ")" }

// The is the uniqueness quantifier: it requires body to have exactly
// one answer tuple, erroring on zero or on more than one. Mirrors the
// original engine's "the" quantifier, which asserts a functional
// relationship rather than merely picking any witness.
type The struct {
	*Entity
}

func NewThe(gen *IDGenerator, body Node, selectVars []Node, opts ...EntityOption) *The {
	return &The{Entity: NewEntity(gen, body, selectVars, opts...)}
}

func (t *The) String() string { return "the(" + t.body.String() + ")" }

// One returns the unique answer tuple, or an error if there isn't
// exactly one.
func (t *The) One(ctx context.Context, sources Binding) (Binding, error) {
	em := t.Evaluate(ctx, sources, false, nil)
	defer em.Close()
	first, ok := em.Next(ctx)
	if !ok {
		return nil, wrapf(ErrNoResult, t.String(), "no matching entity")
	}
	if _, more := em.Next(ctx); more {
		return nil, wrapf(ErrAmbiguousResult, t.String(), "more than one matching entity")
	}
	return first, nil
}
