package eql

import "github.com/pkg/errors"

// Sentinel errors for the EQL error taxonomy. Wrap these with
// errors.Wrap/Wrapf to attach node-path context; callers should match
// them with errors.Is.
var (
	// ErrNoDomain is returned when a Variable has no domain, no
	// inferred type, and no constructible children to fall back on.
	ErrNoDomain = errors.New("eql: variable has no domain and cannot be constructed")

	// ErrAmbiguousResult is returned by The() when more than one
	// binding satisfies the query.
	ErrAmbiguousResult = errors.New("eql: expected exactly one result, got more than one")

	// ErrNoResult is returned by The() when no binding satisfies the query.
	ErrNoResult = errors.New("eql: expected exactly one result, got none")

	// ErrUnboundVariable is returned when a mapping or comparator is
	// evaluated against a variable with no resolvable value.
	ErrUnboundVariable = errors.New("eql: variable is unbound")

	// ErrInvalidMapping is returned when a domain mapping cannot be
	// applied to its source value (wrong type, missing attribute, etc).
	ErrInvalidMapping = errors.New("eql: domain mapping could not be applied")

	// ErrNotIterable is returned when Flatten (or ValueAccessor.Iter)
	// is applied to a non-iterable value.
	ErrNotIterable = errors.New("eql: value is not iterable")

	// ErrNegationOfQuantifier names the failure of negating a
	// quantifier node (ForAll/Exists) directly. No function in this
	// package returns it: NewNot accepts any child, a ForAll or Exists
	// included.
	ErrNegationOfQuantifier = errors.New("eql: cannot negate a quantifier directly")

	// ErrNoConstructionScope names the failure of symbolic
	// construction outside an open construction scope. No function in
	// this package returns it: Session.Construct always opens its own
	// scope.
	ErrNoConstructionScope = errors.New("eql: no construction scope is open")

	// ErrSymbolGraphRequired is returned when an operation needs a
	// symbol graph (InstancesOf, Insert, ...) but none was configured.
	ErrSymbolGraphRequired = errors.New("eql: no symbol graph configured")
)

// wrapf attaches node-path context to an error without obscuring the
// sentinel it wraps, so callers can still errors.Is against it.
func wrapf(err error, node string, format string, args ...interface{}) error {
	return errors.Wrapf(err, "%s: "+format, append([]interface{}{node}, args...)...)
}
