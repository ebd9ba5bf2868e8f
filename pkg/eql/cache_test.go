package eql

import "testing"

func TestSeenSetSubsetCoverage(t *testing.T) {
	s := NewSeenSet([]int64{1, 2})
	partial := Binding{1: {Value: "x", ID: 10}}
	s.Add(partial)

	superset := Binding{1: {Value: "x", ID: 10}, 2: {Value: "y", ID: 20}}
	if !s.Check(superset) {
		t.Fatal("a superset of a covered partial assignment must itself be covered")
	}

	other := Binding{1: {Value: "x", ID: 11}, 2: {Value: "y", ID: 20}}
	if s.Check(other) {
		t.Fatal("an assignment disagreeing with the stored constraint must not be covered")
	}
}

func TestSeenSetExactFastPath(t *testing.T) {
	s := NewSeenSet([]int64{1, 2})
	full := Binding{1: {ID: 10}, 2: {ID: 20}}
	s.Add(full)
	if !s.ExactContains(full) {
		t.Fatal("exact-match fast path must find a fully-keyed assignment after Add")
	}
}

func TestSeenSetEmptyAssignmentCoversEverything(t *testing.T) {
	s := NewSeenSet([]int64{1})
	s.Add(Binding{})
	if !s.Check(Binding{1: {ID: 5}}) {
		t.Fatal("an empty assignment, once added, must cover every subsequent check")
	}
}

func TestIndexedCacheInsertRetrieve(t *testing.T) {
	c := NewIndexedCache([]int64{1, 2})
	assignment := Binding{1: {ID: 10}, 2: {ID: 20}}
	out := Binding{99: {Value: "result"}}
	c.Insert(assignment, out, true)

	results := c.Retrieve(assignment)
	if len(results) != 1 {
		t.Fatalf("expected exactly one retrieved output, got %d", len(results))
	}

	missing := Binding{1: {ID: 10}, 2: {ID: 21}}
	if got := c.Retrieve(missing); len(got) != 0 {
		t.Fatalf("a non-matching key should retrieve nothing, got %d", len(got))
	}
}

func TestIndexedCacheWildcardBranch(t *testing.T) {
	c := NewIndexedCache([]int64{1, 2})
	partial := Binding{1: {ID: 10}}
	c.Insert(partial, Binding{99: {Value: "wild"}}, true)

	full := Binding{1: {ID: 10}, 2: {ID: 999}}
	results := c.Retrieve(full)
	if len(results) != 1 {
		t.Fatalf("an assignment missing key 2 at insert time should match via the wildcard branch on retrieve, got %d results", len(results))
	}
}

func TestIndexedCacheFlatFallback(t *testing.T) {
	c := NewIndexedCache(nil)
	c.Insert(Binding{}, Binding{1: {Value: "a"}}, false)
	c.Insert(Binding{}, Binding{1: {Value: "b"}}, false)
	if got := c.Retrieve(Binding{}); len(got) != 2 {
		t.Fatalf("a keyless cache must fall back to the flat store, got %d", len(got))
	}
}
