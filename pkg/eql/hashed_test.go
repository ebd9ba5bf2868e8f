package eql

import "testing"

func TestNewHashedValueInternsBooleans(t *testing.T) {
	gen := NewIDGenerator()
	tru := NewHashedValue(true, gen)
	fals := NewHashedValue(false, gen)
	if tru.ID != boolTrueID || fals.ID != boolFalseID {
		t.Fatalf("booleans must use the reserved singleton ids, got %d/%d", tru.ID, fals.ID)
	}
	if NewHashedValue(true, gen).ID != tru.ID {
		t.Fatal("every true value must reuse the same id")
	}
}

func TestNewHashedValueInternsEqualScalars(t *testing.T) {
	gen := NewIDGenerator()
	a := NewHashedValue("Container1", gen)
	b := NewHashedValue("Container1", gen)
	c := NewHashedValue("Container2", gen)
	if a.ID != b.ID {
		t.Fatalf("equal strings must collapse to the same id, got %d and %d", a.ID, b.ID)
	}
	if a.ID == c.ID {
		t.Fatal("distinct strings must not share an id")
	}

	ia := NewHashedValue(42, gen)
	ib := NewHashedValue(42, gen)
	if ia.ID != ib.ID {
		t.Fatalf("equal ints must collapse to the same id, got %d and %d", ia.ID, ib.ID)
	}
}

func TestNewHashedValueStructsGetFreshIDs(t *testing.T) {
	gen := NewIDGenerator()
	type thing struct{ Name string }
	t1 := NewHashedValue(&thing{"x"}, gen)
	t2 := NewHashedValue(&thing{"x"}, gen)
	if t1.ID == t2.ID {
		t.Fatal("distinct struct pointers must not collapse even when structurally equal")
	}
}

type fakeIdentified struct{ id int64 }

func (f fakeIdentified) EntityID() int64 { return f.id }

func TestNewHashedValueUsesIdentifiedEntityID(t *testing.T) {
	gen := NewIDGenerator()
	v := NewHashedValue(fakeIdentified{id: 99}, gen)
	if v.ID != 99 {
		t.Fatalf("identified values must use EntityID(), got %d", v.ID)
	}
}

func TestHashedSetOperations(t *testing.T) {
	s1 := NewHashedSet()
	s1.Add(HashedValue{Value: "a", ID: 1})
	s1.Add(HashedValue{Value: "b", ID: 2})

	s2 := NewHashedSet()
	s2.Add(HashedValue{Value: "b", ID: 2})
	s2.Add(HashedValue{Value: "c", ID: 3})

	union := s1.Union(s2)
	if union.Len() != 3 {
		t.Fatalf("union should have 3 members, got %d", union.Len())
	}

	inter := s1.Intersection(s2)
	if inter.Len() != 1 || !inter.Contains(2) {
		t.Fatalf("intersection should have exactly id 2, got %v", inter.IDs())
	}

	diff := s1.Difference(s2)
	if diff.Len() != 1 || !diff.Contains(1) {
		t.Fatalf("difference should have exactly id 1, got %v", diff.IDs())
	}
}

func TestHashedValueEqualWildcard(t *testing.T) {
	w := HashedValue{Value: Wildcard}
	v := HashedValue{Value: "anything", ID: 7}
	if !w.Equal(v) || !v.Equal(w) {
		t.Fatal("wildcard must compare equal to any value in either position")
	}
}
