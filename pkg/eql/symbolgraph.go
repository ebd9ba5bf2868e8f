package eql

import "context"

// SymbolGraph is the external world every EQL query runs against: a
// process-wide registry of typed instances and the relations between
// them. EQL itself never reasons about storage, persistence, or query
// planning for this registry — it only consumes the four operations
// below, mirroring how the original engine treats its embedding
// application's object graph as an opaque dependency (spec §6.3): the
// core does not know about RDF, SQL, or persistence, only this
// minimal contract. A concrete implementation lives in
// internal/symgraph, grounded on the indexed-relation store pattern of
// pldb.go/fact_store.go, but any type satisfying this interface can
// back a Session.
type SymbolGraph interface {
	// InstancesOf returns every known instance whose declared type is
	// typeName; when includeSubtypes is true, instances of any
	// registered subtype of typeName are included too.
	InstancesOf(ctx context.Context, typeName string, includeSubtypes bool) ([]interface{}, error)
	// Insert registers instance in the graph, making it visible to
	// future InstancesOf calls.
	Insert(ctx context.Context, instance interface{}) error
	// InsertRelation records a named, directed edge from source to
	// target.
	InsertRelation(ctx context.Context, source, target interface{}, kind string) error
	// KeysOf returns the sorted attribute names registered for
	// typeName, used as the cache-key order when a Variable is
	// constructed from keyword children (C5).
	KeysOf(typeName string) ([]string, error)
}
