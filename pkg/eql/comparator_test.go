package eql

import (
	"context"
	"testing"
)

func constLiteral(gen *IDGenerator, value interface{}) *Variable {
	return NewVariable(gen, "", func(ctx context.Context, sources Binding) ([]interface{}, error) {
		return []interface{}{value}, nil
	})
}

func TestComparatorEqAndNeq(t *testing.T) {
	ctx := context.Background()
	gen := NewIDGenerator()

	left := constLiteral(gen, 5)
	right := constLiteral(gen, 5)
	eq := NewComparator(gen, Eq, left, right, EqualValues)
	out := Collect(ctx, eq.Evaluate(ctx, Binding{}, false, nil), 0)
	if len(out) != 1 {
		t.Fatalf("5 == 5 should yield one binding, got %d", len(out))
	}

	neq := NewComparator(gen, Neq, left, right, EqualValues)
	out = Collect(ctx, neq.Evaluate(ctx, Binding{}, false, nil), 0)
	if len(out) != 0 {
		t.Fatalf("5 != 5 should yield nothing, got %d", len(out))
	}
}

func TestComparatorOrdering(t *testing.T) {
	ctx := context.Background()
	gen := NewIDGenerator()

	lt := NewComparator(gen, Lt, constLiteral(gen, 3), constLiteral(gen, 5), LessValues)
	if len(Collect(ctx, lt.Evaluate(ctx, Binding{}, false, nil), 0)) != 1 {
		t.Fatal("3 < 5 should hold")
	}

	gt := NewComparator(gen, Gt, constLiteral(gen, 3), constLiteral(gen, 5), GreaterValues)
	if len(Collect(ctx, gt.Evaluate(ctx, Binding{}, false, nil), 0)) != 0 {
		t.Fatal("3 > 5 should not hold")
	}
}

func TestComparatorInNotIn(t *testing.T) {
	ctx := context.Background()
	gen := NewIDGenerator()

	needle := constLiteral(gen, "Handle")
	haystack := constLiteral(gen, "Handle1")
	in := NewComparator(gen, In, needle, haystack, ContainsValue)
	if len(Collect(ctx, in.Evaluate(ctx, Binding{}, false, nil), 0)) != 1 {
		t.Fatal("'Handle' should be found as a substring of 'Handle1'")
	}

	notIn := NewComparator(gen, NotIn, needle, haystack, ContainsValue)
	if len(Collect(ctx, notIn.Evaluate(ctx, Binding{}, false, nil), 0)) != 0 {
		t.Fatal("not_in must be the negation of in for the same operands")
	}
}
