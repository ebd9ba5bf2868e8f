// Package symgraph is a concrete, in-memory implementation of
// eql.SymbolGraph: an indexed registry of typed instances and the
// named relations between them. Grounded on the relational-database
// pattern in the teacher engine's pldb.go and fact_store.go (an
// indexed, lock-protected store keyed by relation name), adapted from
// ground logic facts to typed object instances and their declared
// attribute sets.
package symgraph

import (
	"context"
	"reflect"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Instance wraps an arbitrary domain value with a stable identity and
// declared type name, the unit of storage in a Graph.
type Instance struct {
	ID    int64
	UUID  uuid.UUID
	Type  string
	Value interface{}
}

// EntityID satisfies the identified interface hashed.go consults, so
// instances retrieved from a Graph keep a stable id across repeated
// reads instead of being re-hashed by pointer each time.
func (i *Instance) EntityID() int64 { return i.ID }

// edge is a directed, named relation between two instances.
type edge struct {
	from, to int64
	kind     string
}

// typeInfo tracks one registered type: its known subtypes (by
// declared "is-a" registration) and the sorted attribute keys used
// for keyword-constructed Variables.
type typeInfo struct {
	subtypes map[string]bool
	keys     []string
}

// Graph is a lock-protected, indexed store of instances and the named
// relations between them, the Go analogue of fact_store.go's
// sync.RWMutex-guarded store adapted from ground facts to typed
// instances.
type Graph struct {
	mu sync.RWMutex

	nextID   int64
	byID     map[int64]*Instance
	byType   map[string][]int64
	edges    []edge
	types    map[string]*typeInfo
}

// New returns an empty Graph.
func New() *Graph {
	return &Graph{
		byID:   make(map[int64]*Instance),
		byType: make(map[string][]int64),
		types:  make(map[string]*typeInfo),
	}
}

// RegisterType declares typeName with the given attribute keys (used
// for KeysOf) and, optionally, the supertypes it is a subtype of.
func (g *Graph) RegisterType(typeName string, keys []string, supertypes ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	g.types[typeName] = &typeInfo{subtypes: make(map[string]bool), keys: sorted}
	for _, super := range supertypes {
		info, ok := g.types[super]
		if !ok {
			info = &typeInfo{subtypes: make(map[string]bool)}
			g.types[super] = info
		}
		info.subtypes[typeName] = true
	}
}

// Insert implements eql.SymbolGraph. instance's Go type name
// (reflect.TypeOf(instance).String()) is always used as the declared
// type.
func (g *Graph) Insert(ctx context.Context, instance interface{}) error {
	_, err := g.InsertTyped(ctx, reflect.TypeOf(instance).String(), instance)
	return err
}

// InsertTyped registers value under an explicit typeName and returns
// its wrapper, the richer form most callers use directly instead of
// Insert (which derives the type name reflectively).
func (g *Graph) InsertTyped(ctx context.Context, typeName string, value interface{}) (*Instance, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextID++
	inst := &Instance{ID: g.nextID, UUID: uuid.New(), Type: typeName, Value: value}
	g.byID[inst.ID] = inst
	g.byType[typeName] = append(g.byType[typeName], inst.ID)
	return inst, nil
}

// InsertRelation implements eql.SymbolGraph.
func (g *Graph) InsertRelation(ctx context.Context, source, target interface{}, kind string) error {
	src, ok := source.(*Instance)
	if !ok {
		return errors.Errorf("symgraph: relation source is not a graph instance (%T)", source)
	}
	tgt, ok := target.(*Instance)
	if !ok {
		return errors.Errorf("symgraph: relation target is not a graph instance (%T)", target)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.edges = append(g.edges, edge{from: src.ID, to: tgt.ID, kind: kind})
	return nil
}

// LoadBulk inserts many (typeName, value) pairs concurrently via an
// errgroup, the bulk-loading concurrency the ambient stack calls for
// (query evaluation itself stays single-goroutine-per-branch; only
// graph construction benefits from fan-out).
func (g *Graph) LoadBulk(ctx context.Context, typeName string, values []interface{}) ([]*Instance, error) {
	out := make([]*Instance, len(values))
	group, ctx := errgroup.WithContext(ctx)
	for i, v := range values {
		i, v := i, v
		group.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			inst, err := g.InsertTyped(ctx, typeName, v)
			if err != nil {
				return err
			}
			out[i] = inst
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, errors.Wrap(err, "symgraph: bulk load failed")
	}
	return out, nil
}

// InstancesOf implements eql.SymbolGraph.
func (g *Graph) InstancesOf(ctx context.Context, typeName string, includeSubtypes bool) ([]interface{}, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]interface{}, 0, len(g.byType[typeName]))
	for _, id := range g.byType[typeName] {
		out = append(out, g.byID[id])
	}
	if includeSubtypes {
		if info, ok := g.types[typeName]; ok {
			for sub := range info.subtypes {
				for _, id := range g.byType[sub] {
					out = append(out, g.byID[id])
				}
			}
		}
	}
	return out, nil
}

// KeysOf implements eql.SymbolGraph.
func (g *Graph) KeysOf(typeName string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	info, ok := g.types[typeName]
	if !ok {
		return nil, errors.Errorf("symgraph: type %q is not registered", typeName)
	}
	return append([]string(nil), info.keys...), nil
}

// RelatedTo returns every instance id reachable via a kind-named edge
// from source, a read helper layered on top of the C12 contract for
// callers (e.g. a ValueAccessor) that need to resolve relations the
// core interface itself doesn't expose.
func (g *Graph) RelatedTo(source *Instance, kind string) []*Instance {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []*Instance
	for _, e := range g.edges {
		if e.from == source.ID && e.kind == kind {
			out = append(out, g.byID[e.to])
		}
	}
	return out
}
