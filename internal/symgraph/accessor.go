package symgraph

import "github.com/gitrdm/goeql/pkg/eql"

// instanceAccessor unwraps *Instance.Value before delegating to the
// wrapped accessor, so Attribute/Index/Call/Flatten domain mappings
// (pkg/eql) can operate on the underlying domain struct a Graph
// stores without every query having to unwrap instances by hand.
type instanceAccessor struct {
	next eql.ValueAccessor
}

// NewAccessor wraps next (typically eql.DefaultAccessor) so it sees
// through the *Instance wrapper Graph.InstancesOf returns.
func NewAccessor(next eql.ValueAccessor) eql.ValueAccessor {
	return &instanceAccessor{next: next}
}

func unwrap(obj interface{}) interface{} {
	if inst, ok := obj.(*Instance); ok {
		return inst.Value
	}
	return obj
}

func (a *instanceAccessor) GetAttr(obj interface{}, name string) (interface{}, error) {
	return a.next.GetAttr(unwrap(obj), name)
}

func (a *instanceAccessor) Index(obj interface{}, key interface{}) (interface{}, error) {
	return a.next.Index(unwrap(obj), key)
}

func (a *instanceAccessor) Call(obj interface{}, args ...interface{}) (interface{}, error) {
	return a.next.Call(unwrap(obj), args...)
}

func (a *instanceAccessor) IsIterable(obj interface{}) bool {
	return a.next.IsIterable(unwrap(obj))
}

func (a *instanceAccessor) Iter(obj interface{}, each func(interface{}) bool) error {
	return a.next.Iter(unwrap(obj), each)
}
