package eql

import (
	"context"

	"github.com/hashicorp/go-hclog"
)

// EngineOptions configures a Session via the functional-options
// pattern, the ambient-stack convention this codebase follows for all
// constructor configuration (mirrors the teacher engine's With*
// option style on its solver/store constructors).
type EngineOptions struct {
	accessor               ValueAccessor
	logger                 hclog.Logger
	graph                  SymbolGraph
	cartesianWarnThreshold int
}

// Option configures a Session.
type Option func(*EngineOptions)

// WithAccessor overrides the ValueAccessor used to resolve Attribute/
// Index/Call/Flatten domain mappings.
func WithAccessor(a ValueAccessor) Option {
	return func(o *EngineOptions) { o.accessor = a }
}

// WithEngineLogger overrides the Session's root logger.
func WithEngineLogger(l hclog.Logger) Option {
	return func(o *EngineOptions) { o.logger = l }
}

// WithSymbolGraph attaches the SymbolGraph queries may be evaluated
// against; required by any DomainFunc that enumerates graph instances.
func WithSymbolGraph(g SymbolGraph) Option {
	return func(o *EngineOptions) { o.graph = g }
}

// WithEngineCartesianWarnThreshold sets the session-wide default
// passed to every Entity/SetOf/An/The descriptor constructed through
// the session's convenience methods.
func WithEngineCartesianWarnThreshold(n int) Option {
	return func(o *EngineOptions) { o.cartesianWarnThreshold = n }
}

// Session is the symbolic-mode context and variable registry: the Go
// replacement for the original engine's metaclass/descriptor
// interception of Python attribute access (see SPEC_FULL.md's C11).
// Rather than intercepting `obj.attr` automatically, callers
// explicitly call Session.Construct to build and register a Variable
// representing a new object under construction. Construct pushes a
// construction scope for that Variable and pops it again before it
// returns, so the scope stack is non-empty only while Construct runs.
type Session struct {
	gen    *IDGenerator
	opts   EngineOptions
	log    hclog.Logger
	vars   map[string]*Variable
	scopes []*constructionScope
}

// constructionScope represents one open Construct(...) call: the
// variable under construction and the field variables registered
// against it so far.
type constructionScope struct {
	target *Variable
	fields map[string]Node
}

// NewSession creates a Session ready to build and evaluate queries.
func NewSession(opts ...Option) *Session {
	o := EngineOptions{
		accessor:               DefaultAccessor,
		logger:                 baseLogger.Named("eql.session"),
		cartesianWarnThreshold: defaultCartesianWarnThreshold,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Session{
		gen:  NewIDGenerator(),
		opts: o,
		log:  o.logger,
		vars: make(map[string]*Variable),
	}
}

// Gen returns the session's id generator, needed by callers building
// Node trees directly with the New* constructors.
func (s *Session) Gen() *IDGenerator { return s.gen }

// Accessor returns the session's configured ValueAccessor.
func (s *Session) Accessor() ValueAccessor { return s.opts.accessor }

// Graph returns the session's configured SymbolGraph, or nil if none
// was supplied.
func (s *Session) Graph() SymbolGraph { return s.opts.graph }

// Let declares (or re-fetches, by name) a free domain-enumerated
// variable, the Go equivalent of the original engine's `let(name)`
// symbolic-mode primitive.
func (s *Session) Let(name string, domain DomainFunc) *Variable {
	if v, ok := s.vars[name]; ok {
		return v
	}
	v := NewVariable(s.gen, name, domain)
	s.vars[name] = v
	return v
}

// Construct opens a construction scope for a new object of the given
// registered type, binding fieldValues as its children, and returns
// the resulting constructed Variable. reg names the Go type being
// built purely for diagnostics (construct itself does the real work);
// this stands in for the original engine's implicit "entering a class
// body" behavior under symbolic-mode attribute interception.
func (s *Session) Construct(reg string, fieldValues map[string]Node, construct ConstructFunc) *Variable {
	children := make([]Node, 0, len(fieldValues))
	fields := make(map[string]Node, len(fieldValues))
	for name, node := range fieldValues {
		children = append(children, node)
		fields[name] = node
	}
	v := NewConstructedVariable(s.gen, reg, children, construct)
	s.scopes = append(s.scopes, &constructionScope{target: v, fields: fields})
	defer func() { s.scopes = s.scopes[:len(s.scopes)-1] }()
	return v
}

// CurrentScope returns the innermost open construction scope's target
// variable, or nil if Construct is not currently executing. The
// construct callback passed to Construct runs later, while the
// returned Variable is evaluated, after Construct has popped its
// scope; CurrentScope therefore returns nil from inside that callback.
func (s *Session) CurrentScope() *Variable {
	if len(s.scopes) == 0 {
		return nil
	}
	return s.scopes[len(s.scopes)-1].target
}

// Attribute, Index, Call, Flatten are session-scoped convenience
// wrappers around the corresponding Mapping constructors, supplying
// the session's id generator and accessor automatically.
func (s *Session) Attribute(source Node, name string) *Mapping {
	return NewAttributeMapping(s.gen, source, name, s.opts.accessor)
}

func (s *Session) Index(source Node, key interface{}) *Mapping {
	return NewIndexMapping(s.gen, source, key, s.opts.accessor)
}

func (s *Session) Call(source Node, args ...Node) *Mapping {
	return NewCallMapping(s.gen, source, args, s.opts.accessor)
}

func (s *Session) Flatten(source Node) *Mapping {
	return NewFlattenMapping(s.gen, source, s.opts.accessor)
}

// And, Or, Not, ExceptIf, ForAll, Exists mirror the package-level
// logical-operator constructors, binding the session's id generator.
func (s *Session) And(operands ...Node) *And             { return NewAnd(s.gen, operands...) }
func (s *Session) Or(operands ...Node) *Union            { return NewUnion(s.gen, operands...) }
func (s *Session) ElseIf(primary, fallback Node) *ElseIf { return NewElseIf(s.gen, primary, fallback) }
func (s *Session) Next(alternatives ...Node) Node        { return NewNext(s.gen, alternatives...) }
func (s *Session) ExceptIf(body, condition Node) *ExceptIf {
	return NewExceptIf(s.gen, body, condition)
}
func (s *Session) Not(child Node) *Not { return NewNot(s.gen, child) }
func (s *Session) ForAll(variable, condition Node) *ForAll {
	return NewForAll(s.gen, variable, condition)
}
func (s *Session) Exists(variable, condition Node) *Exists {
	return NewExists(s.gen, variable, condition)
}

// Comparator builds a Comparator using the session's id generator.
func (s *Session) Comparator(op CompareOp, left, right Node, cmp CompareFunc) *Comparator {
	return NewComparator(s.gen, op, left, right, cmp)
}

// Query descriptor convenience constructors, each carrying the
// session's configured Cartesian-warning threshold and logger.
func (s *Session) entityOpts() []EntityOption {
	return []EntityOption{
		WithCartesianWarnThreshold(s.opts.cartesianWarnThreshold),
		WithLogger(s.log.Named("eql.entity")),
	}
}

func (s *Session) EntityQuery(body Node, selectVars ...Node) *Entity {
	return NewEntity(s.gen, body, selectVars, s.entityOpts()...)
}

func (s *Session) SetOfQuery(body Node, selectVars ...Node) *SetOf {
	return NewSetOf(s.gen, body, selectVars, s.entityOpts()...)
}

func (s *Session) AnQuery(body Node, selectVars ...Node) *An {
	return NewAn(s.gen, body, selectVars, s.entityOpts()...)
}

func (s *Session) TheQuery(body Node, selectVars ...Node) *The {
	return NewThe(s.gen, body, selectVars, s.entityOpts()...)
}

// Infer runs rule in rule mode and returns every asserted conclusion.
func (s *Session) Infer(ctx context.Context, rule *Rule, sources Binding) []Binding {
	if sources == nil {
		sources = make(Binding)
	}
	return rule.Infer(ctx, sources)
}

// NewRefinementRule, NewAlternativeRule, NewNextRule are session-scoped
// convenience constructors for the three rule-mode conclusion
// selectors (ExceptIf→refinement, Alternative→alternative,
// Next→next_rule per SPEC_FULL.md's C10 naming).
func (s *Session) NewRefinementRule(condition Node, clause Node) *Rule {
	return NewRule(s.gen, condition, []Node{clause}, NewRefinementSelector(s.gen))
}

func (s *Session) NewAlternativeRule(condition Node, clauses ...Node) *Rule {
	return NewRule(s.gen, condition, clauses, NewAlternativeSelector(s.gen))
}

func (s *Session) NewNextRule(condition Node, clauses ...Node) *Rule {
	return NewRule(s.gen, condition, clauses, NewNextSelector(s.gen))
}
