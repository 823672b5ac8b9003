package symtab

import (
	"testing"

	"github.com/hatlesswizard/pykytheindex/pkg/kyval"
)

func TestMergeIsMonotonic(t *testing.T) {
	tbl := New()
	if !tbl.Merge("mod.x", kyval.Of(kyval.Class("builtin.str", nil))) {
		t.Fatalf("first merge into an absent key should grow the table")
	}
	if tbl.Merge("mod.x", kyval.Of(kyval.Class("builtin.str", nil))) {
		t.Fatalf("re-merging an identical union should not grow the table")
	}
	if !tbl.Merge("mod.x", kyval.Of(kyval.Class("builtin.Number", nil))) {
		t.Fatalf("merging new information should grow the table")
	}
	got := tbl.Lookup("mod.x")
	if len(got) != 2 {
		t.Fatalf("want 2 terms after merges, got %d: %s", len(got), got)
	}
}

func TestLookupAbsentIsEmptyNotError(t *testing.T) {
	tbl := New()
	u, ok := tbl.Get("nope")
	if ok {
		t.Fatalf("want absent key to report ok=false")
	}
	if len(u) != 0 {
		t.Fatalf("want empty union for absent key")
	}
}

func TestDefaultBuiltinsSeedsStrAndNumber(t *testing.T) {
	tbl := New()
	tbl.Seed(DefaultBuiltins())
	if _, ok := tbl.Get("builtin.str"); !ok {
		t.Fatalf("want builtin.str seeded")
	}
	if _, ok := tbl.Get("builtin.Number"); !ok {
		t.Fatalf("want builtin.Number seeded")
	}
}

func TestFQNsAreSorted(t *testing.T) {
	tbl := New()
	tbl.Merge("mod.b", kyval.Of(kyval.Var("mod.b")))
	tbl.Merge("mod.a", kyval.Of(kyval.Var("mod.a")))
	got := tbl.FQNs()
	if len(got) != 2 || got[0] != "mod.a" || got[1] != "mod.b" {
		t.Fatalf("want sorted [mod.a mod.b], got %v", got)
	}
}
