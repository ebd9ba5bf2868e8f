package eql_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitrdm/goeql/pkg/eql"
)

// These tests implement the six literal worked scenarios from the
// expanded specification's testable-properties section, one body type
// per scenario kept minimal enough to exercise just the mechanism each
// scenario is about.

type body struct {
	Name string
}

func bodiesDomain(ctx context.Context, sources eql.Binding) ([]interface{}, error) {
	return []interface{}{
		&body{"Handle1"}, &body{"Handle2"}, &body{"Handle3"},
		&body{"Container1"}, &body{"Container2"}, &body{"Container3"},
	}, nil
}

// Scenario 1: unconstrained selection over a 6-value domain yields all
// 6 bodies in insertion order.
func TestScenarioUnconstrainedSelection(t *testing.T) {
	ctx := context.Background()
	sess := eql.NewSession()
	b := sess.Let("body", bodiesDomain)
	query := sess.AnQuery(b, b)
	results := query.Results(ctx, nil)

	require.Len(t, results, 6)
	wantOrder := []string{"Handle1", "Handle2", "Handle3", "Container1", "Container2", "Container3"}
	for i, r := range results {
		v := r[b.ID()].Value.(*body)
		assert.Equal(t, wantOrder[i], v.Name)
	}
}

// Scenario 2: a substring filter over the same domain narrows the
// result to the three handles.
func TestScenarioNameFilterWithContains(t *testing.T) {
	ctx := context.Background()
	sess := eql.NewSession()
	b := sess.Let("body", bodiesDomain)
	name := sess.Attribute(b, "Name")
	filtered := sess.And(b, sess.In(sess.Literal("Handle"), name))
	query := sess.AnQuery(filtered, b)
	results := query.Results(ctx, nil)

	require.Len(t, results, 3)
	want := []string{"Handle1", "Handle2", "Handle3"}
	for i, r := range results {
		v := r[b.ID()].Value.(*body)
		assert.Equal(t, want[i], v.Name)
	}
}

// Scenario 3: a four-way join across two connection kinds yields
// exactly the two consistent (container, handle, fixed, prismatic)
// tuples.
type fixedFact struct{ Parent, Child string }
type prismaticFact struct{ Parent, Child string }

func TestScenarioMultiSourceJoin(t *testing.T) {
	ctx := context.Background()
	sess := eql.NewSession()

	containers := []interface{}{"Container1", "Container2", "Container3"}
	handles := []interface{}{"Handle1", "Handle2", "Handle3"}
	fixed := []interface{}{
		&fixedFact{Parent: "Container1", Child: "Handle1"},
		&fixedFact{Parent: "Container3", Child: "Handle3"},
	}
	prismatic := []interface{}{
		&prismaticFact{Parent: "Container2", Child: "Container1"},
		&prismaticFact{Parent: "Container2", Child: "Container3"},
	}

	c := sess.Let("c", func(ctx context.Context, sources eql.Binding) ([]interface{}, error) { return containers, nil })
	h := sess.Let("h", func(ctx context.Context, sources eql.Binding) ([]interface{}, error) { return handles, nil })
	f := sess.Let("f", func(ctx context.Context, sources eql.Binding) ([]interface{}, error) { return fixed, nil })
	p := sess.Let("p", func(ctx context.Context, sources eql.Binding) ([]interface{}, error) { return prismatic, nil })

	fParent := sess.Attribute(f, "Parent")
	fChild := sess.Attribute(f, "Child")
	pChild := sess.Attribute(p, "Child")

	join := sess.And(c, h, f, p,
		sess.Eq(c, fParent),
		sess.Eq(h, fChild),
		sess.Eq(c, pChild),
	)
	query := sess.SetOfQuery(join, c, h, f, p)
	results := query.Collect(ctx, nil)

	require.Len(t, results, 2)
	for _, r := range results {
		cv := r[c.ID()].Value.(string)
		hv := r[h.ID()].Value.(string)
		fv := r[f.ID()].Value.(*fixedFact)
		pv := r[p.ID()].Value.(*prismaticFact)
		assert.Equal(t, cv, fv.Parent)
		assert.Equal(t, hv, fv.Child)
		assert.Equal(t, cv, pv.Child)
	}
}

// Scenario 4: The raises on more than one match and succeeds on
// exactly one.
func TestScenarioTheRequiresUniqueMatch(t *testing.T) {
	ctx := context.Background()

	sessAmbiguous := eql.NewSession()
	b1 := sessAmbiguous.Let("body", bodiesDomain)
	name1 := sessAmbiguous.Attribute(b1, "Name")
	startsWithHandle := sessAmbiguous.Comparator(eql.Eq, name1, sessAmbiguous.Literal("Handle"), eql.StartsWith)
	ambiguous := sessAmbiguous.TheQuery(sessAmbiguous.And(b1, startsWithHandle), b1)
	_, err := ambiguous.One(ctx, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, eql.ErrAmbiguousResult))

	sessUnique := eql.NewSession()
	b2 := sessUnique.Let("body", bodiesDomain)
	name2 := sessUnique.Attribute(b2, "Name")
	exact := sessUnique.TheQuery(sessUnique.And(b2, sessUnique.Eq(name2, sessUnique.Literal("Handle1"))), b2)
	result, err := exact.One(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "Handle1", result[b2.ID()].Value.(*body).Name)
}

// Scenario 5: the refinement outcome, expressed as an alternative rule
// that tries the Door clause first, never asserts both Drawer and Door
// for the same matching pair; the outcome depends on the body's size.
type bodySpec struct {
	Name string
	Size int
}

type drawer struct{ Handle, Body string }
type door struct{ Handle, Body string }

func TestScenarioRuleWithRefinement(t *testing.T) {
	ctx := context.Background()
	sess := eql.NewSession()

	bodies := []interface{}{&bodySpec{"Body1", 1}, &bodySpec{"Body2", 2}}
	handles := []interface{}{"H1", "H2"}
	fixed := []interface{}{
		&fixedFact{Parent: "Body1", Child: "H1"},
		&fixedFact{Parent: "Body2", Child: "H2"},
	}

	bodyVar := sess.Let("rbody", func(ctx context.Context, sources eql.Binding) ([]interface{}, error) { return bodies, nil })
	handleVar := sess.Let("rhandle", func(ctx context.Context, sources eql.Binding) ([]interface{}, error) { return handles, nil })
	fixedVar := sess.Let("rfixed", func(ctx context.Context, sources eql.Binding) ([]interface{}, error) { return fixed, nil })

	fParent := sess.Attribute(fixedVar, "Parent")
	fChild := sess.Attribute(fixedVar, "Child")
	bodyName := sess.Attribute(bodyVar, "Name")
	bodySize := sess.Attribute(bodyVar, "Size")

	condition := sess.And(bodyVar, handleVar, fixedVar,
		sess.Eq(bodyName, fParent),
		sess.Eq(handleVar, fChild),
	)

	drawerVar := sess.Construct("Drawer", map[string]eql.Node{"handle": handleVar, "body": bodyName},
		func(cv eql.Binding) (interface{}, error) {
			return &drawer{Handle: cv[handleVar.ID()].Value.(string), Body: cv[bodyName.ID()].Value.(string)}, nil
		})
	doorVar := sess.Construct("Door", map[string]eql.Node{"handle": handleVar, "body": bodyName},
		func(cv eql.Binding) (interface{}, error) {
			return &door{Handle: cv[handleVar.ID()].Value.(string), Body: cv[bodyName.ID()].Value.(string)}, nil
		})
	doorClause := sess.And(sess.Gt(bodySize, sess.Literal(1)), doorVar)

	rule := sess.NewAlternativeRule(condition, doorClause, drawerVar)
	results := sess.Infer(ctx, rule, nil)

	require.Len(t, results, 2)
	var drawers, doors int
	for _, r := range results {
		if hv, ok := r[drawerVar.ID()]; ok {
			drawers++
			d := hv.Value.(*drawer)
			assert.Equal(t, "Body1", d.Body)
		}
		if hv, ok := r[doorVar.ID()]; ok {
			doors++
			d := hv.Value.(*door)
			assert.Equal(t, "Body2", d.Body)
		}
	}
	assert.Equal(t, 1, drawers)
	assert.Equal(t, 1, doors)
}

// Scenario 6: ForAll/Exists over a cabinet's drawer list.
type cabinet struct {
	Drawers []string
}

func TestScenarioForAllClosure(t *testing.T) {
	ctx := context.Background()
	sess := eql.NewSession()

	cab := &cabinet{Drawers: []string{"D1", "D2"}}
	cabVar := sess.Let("cabinet", func(ctx context.Context, sources eql.Binding) ([]interface{}, error) {
		return []interface{}{cab}, nil
	})
	drawerOf := sess.Flatten(sess.Attribute(cabVar, "Drawers"))

	member := sess.Literal("D1")
	notMember := sess.Literal("Dx")

	forAllMember := sess.EntityQuery(sess.And(cabVar, sess.ForAll(drawerOf, sess.Neq(member, drawerOf))), cabVar)
	assert.Len(t, forAllMember.Results(ctx, nil), 0, "D1 is a member, so for_all(D1 != drawer) must fail")

	forAllNonMember := sess.EntityQuery(sess.And(cabVar, sess.ForAll(drawerOf, sess.Neq(notMember, drawerOf))), cabVar)
	assert.Len(t, forAllNonMember.Results(ctx, nil), 1, "Dx is not a member, so for_all(Dx != drawer) must hold")

	existsMember := sess.EntityQuery(sess.And(cabVar, sess.Exists(drawerOf, sess.Eq(member, drawerOf))), cabVar)
	assert.Len(t, existsMember.Results(ctx, nil), 1, "D1 is a member, so exists(D1 == drawer) must hold")

	existsNonMember := sess.EntityQuery(sess.And(cabVar, sess.Exists(drawerOf, sess.Eq(notMember, drawerOf))), cabVar)
	assert.Len(t, existsNonMember.Results(ctx, nil), 0, "Dx is not a member, so exists(Dx == drawer) must fail")
}
