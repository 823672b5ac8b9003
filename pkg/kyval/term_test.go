package kyval

import "testing"

func TestUnionAddDedupesAndSorts(t *testing.T) {
	u := Of(Fqn("b"), Fqn("a"), Fqn("a"))
	if len(u) != 2 {
		t.Fatalf("want 2 deduped terms, got %d (%s)", len(u), u)
	}
	if u[0].FQN != "a" || u[1].FQN != "b" {
		t.Fatalf("want canonical order [a,b], got %s", u)
	}
}

func TestUnionMergeIsMonotonic(t *testing.T) {
	a := Of(Fqn("a"))
	b := a.Merge(Of(Fqn("b")))
	if !a.SubsetOf(b) {
		t.Fatalf("merge must only grow the union: %s not subset of %s", a, b)
	}
	if len(b) != 2 {
		t.Fatalf("want 2 terms after merge, got %d", len(b))
	}
}

func TestUnionSubsetOf(t *testing.T) {
	small := Of(Class("builtin.str", nil))
	big := Of(Class("builtin.str", nil), Class("builtin.Number", nil))
	if !small.SubsetOf(big) {
		t.Fatalf("%s should be subset of %s", small, big)
	}
	if big.SubsetOf(small) {
		t.Fatalf("%s should not be subset of %s", big, small)
	}
}

func TestUnionEqualIgnoresConstructionOrder(t *testing.T) {
	a := Of(Fqn("x"), Fqn("y"))
	b := Of(Fqn("y"), Fqn("x"))
	if !a.Equal(b) {
		t.Fatalf("unions built in different orders should compare equal: %s vs %s", a, b)
	}
}

func TestTermEqualIsStructural(t *testing.T) {
	t1 := Class("mod.C", []Union{Of(Fqn("mod.Base"))})
	t2 := Class("mod.C", []Union{Of(Fqn("mod.Base"))})
	if !t1.Equal(t2) {
		t.Fatalf("structurally identical class terms should be equal")
	}
	t3 := Class("mod.C", []Union{Of(Fqn("mod.OtherBase"))})
	if t1.Equal(t3) {
		t.Fatalf("class terms with different bases should not be equal")
	}
}

func TestEmptyUnionIsSubsetOfEverything(t *testing.T) {
	var empty Union
	if !empty.SubsetOf(Of(Fqn("anything"))) {
		t.Fatalf("empty union must be subset of any union")
	}
}
