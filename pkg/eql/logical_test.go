package eql

import (
	"context"
	"testing"
)

func domainVar(gen *IDGenerator, name string, values ...interface{}) *Variable {
	return NewVariable(gen, name, func(ctx context.Context, sources Binding) ([]interface{}, error) {
		return values, nil
	})
}

func TestAndIdentityWithTrue(t *testing.T) {
	ctx := context.Background()
	gen := NewIDGenerator()
	e := domainVar(gen, "e", "a", "b", "c")
	tru := constLiteral(gen, true)

	plain := Collect(ctx, e.Evaluate(ctx, Binding{}, false, nil), 0)
	withTrue := Collect(ctx, NewAnd(gen, e, tru).Evaluate(ctx, Binding{}, false, nil), 0)
	if len(plain) != len(withTrue) {
		t.Fatalf("AND(e, TRUE) should yield the same count as e: %d vs %d", len(plain), len(withTrue))
	}
}

func TestUnionIdentityWithFalse(t *testing.T) {
	ctx := context.Background()
	gen := NewIDGenerator()
	e := domainVar(gen, "e", "a", "b")

	plain := Collect(ctx, e.Evaluate(ctx, Binding{}, false, nil), 0)
	fls := NewComparator(gen, Eq, constLiteral(gen, 5), constLiteral(gen, 6), EqualValues)
	withOr := Collect(ctx, NewUnion(gen, e, fls).Evaluate(ctx, Binding{}, false, nil), 0)
	if len(plain) != len(withOr) {
		t.Fatalf("OR(e, FALSE) should yield the same count as e: %d vs %d", len(plain), len(withOr))
	}
}

func TestNotNotIsIdentity(t *testing.T) {
	ctx := context.Background()
	gen := NewIDGenerator()

	leafTrue := constLiteral(gen, true)
	trueComparator := NewComparator(gen, Eq, leafTrue, constLiteral(gen, true), EqualValues)

	plain := Collect(ctx, trueComparator.Evaluate(ctx, Binding{}, false, nil), 0)

	gen2 := NewIDGenerator()
	leaf2 := constLiteral(gen2, true)
	cmp2 := NewComparator(gen2, Eq, leaf2, constLiteral(gen2, true), EqualValues)
	doubleNot := NewNot(gen2, NewNot(gen2, cmp2))
	notted := Collect(ctx, doubleNot.Evaluate(ctx, Binding{}, false, nil), 0)

	if (len(plain) > 0) != (len(notted) > 0) {
		t.Fatalf("not(not(e)) must agree with e on whether any output exists: %d vs %d", len(plain), len(notted))
	}
}

// Not must read the comparator's own recorded truth rather than
// inferring it from operand-variable presence: a false comparator's
// binding still has both literal operands bound, which a
// presence-based check would mistake for true.
func TestNotOfFalseComparatorYieldsOneResult(t *testing.T) {
	ctx := context.Background()
	gen := NewIDGenerator()

	five := constLiteral(gen, 5)
	six := constLiteral(gen, 6)
	falseComparator := NewComparator(gen, Eq, five, six, EqualValues)

	out := Collect(ctx, NewNot(gen, falseComparator).Evaluate(ctx, Binding{}, false, nil), 0)
	if len(out) != 1 {
		t.Fatalf("not(5 == 6) must yield exactly one binding, got %d", len(out))
	}
}

func TestElseIfFallsThroughOnlyWhenPrimaryIsEmpty(t *testing.T) {
	ctx := context.Background()
	gen := NewIDGenerator()

	empty := domainVar(gen, "empty")
	fallback := domainVar(gen, "fallback", "x")
	elseIf := NewElseIf(gen, empty, fallback)
	out := Collect(ctx, elseIf.Evaluate(ctx, Binding{}, false, nil), 0)
	if len(out) != 1 {
		t.Fatalf("an empty primary must fall through to fallback, got %d results", len(out))
	}

	gen2 := NewIDGenerator()
	nonEmpty := domainVar(gen2, "nonempty", "y")
	fallback2 := domainVar(gen2, "fallback2", "z")
	elseIf2 := NewElseIf(gen2, nonEmpty, fallback2)
	out2 := Collect(ctx, elseIf2.Evaluate(ctx, Binding{}, false, nil), 0)
	if len(out2) != 1 {
		t.Fatalf("a non-empty primary must short-circuit the fallback, got %d results", len(out2))
	}
	if v := out2[0][nonEmpty.ID()].Value; v != "y" {
		t.Fatalf("expected the primary's own value, got %v", v)
	}
}
