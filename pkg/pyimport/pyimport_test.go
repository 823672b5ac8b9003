package pyimport

import "testing"

func TestResolveFromAliasScenario(t *testing.T) {
	// from a.b import f as g
	got := ResolveFrom(0, []string{"a", "b"}, "", []Alias{{Name: "f", AsName: "g"}})
	if len(got) != 1 {
		t.Fatalf("want 1 resolved pair, got %d", len(got))
	}
	if got[0].Path != "$PYTHONPATH/a.b/f" {
		t.Fatalf("want $PYTHONPATH/a.b/f, got %s", got[0].Path)
	}
	if got[0].FQN != "g" {
		t.Fatalf("want bound name g, got %s", got[0].FQN)
	}
}

func TestResolveFromRelativeScenario(t *testing.T) {
	// in pkg/sub/mod.py: from .. import x -> pkg/x
	got := ResolveFrom(2, nil, "pkg/sub", []Alias{{Name: "x", AsName: "x"}})
	if len(got) != 1 || got[0].Path != "pkg/x" {
		t.Fatalf("want pkg/x, got %+v", got)
	}
}

func TestResolveFromSingleDotIsCurrentPackage(t *testing.T) {
	// in pkg/sub/mod.py: from . import x -> pkg/sub/x
	got := ResolveFrom(1, nil, "pkg/sub", []Alias{{Name: "x", AsName: "x"}})
	if len(got) != 1 || got[0].Path != "pkg/sub/x" {
		t.Fatalf("want pkg/sub/x, got %+v", got)
	}
}

func TestResolveFromStarIsNotExpanded(t *testing.T) {
	got := ResolveFromStar(0, []string{"m"}, "")
	if got.Path != "$PYTHONPATH/m/*" {
		t.Fatalf("want $PYTHONPATH/m/*, got %s", got.Path)
	}
	if got.FQN != "" {
		t.Fatalf("star import should bind no FQN, got %q", got.FQN)
	}
}

func TestResolveImportDotted(t *testing.T) {
	got := ResolveImport([]string{"A", "B"}, "mod.C")
	if got.Path != "$PYTHONPATH/A.B" {
		t.Fatalf("want $PYTHONPATH/A.B, got %s", got.Path)
	}
	if got.FQN != "mod.C" {
		t.Fatalf("want bound FQN mod.C, got %s", got.FQN)
	}
}

func TestSearchCandidatesPrefersPyi(t *testing.T) {
	got := SearchCandidates("/root", []string{"a", "b"})
	if got[0] != "/root/a/b.pyi" {
		t.Fatalf("want .pyi probed first, got %v", got)
	}
}
