package symcache

import (
	"path/filepath"
	"testing"

	"github.com/hatlesswizard/pykytheindex/pkg/kyval"
)

func TestLoadOfUnknownKeyIsEmptyNotError(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	got, err := store.Load(Key{Corpus: "c", Root: "r", Path: "mod.py"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("want empty map for an unknown key, got %v", got)
	}
}

func TestSaveThenLoadRoundTripsClassAndImportEntries(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	key := Key{Corpus: "c", Root: "r", Path: "mod.py"}
	table := map[string]kyval.Union{
		"mod.C": kyval.Of(kyval.Class("mod.C", nil)),
		"mod.g": kyval.Of(kyval.Import("mod.g", "$PYTHONPATH/a.b/f")),
	}
	if err := store.Save(key, table); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load(key)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 entries, got %d: %v", len(got), got)
	}
	if term, ok := got["mod.C"].Single(); !ok || term.Kind != kyval.KindClass {
		t.Fatalf("want a cached class term for mod.C, got %s", got["mod.C"])
	}
	if term, ok := got["mod.g"].Single(); !ok || term.Kind != kyval.KindImport {
		t.Fatalf("want a cached import term for mod.g, got %s", got["mod.g"])
	}
}

func TestSaveReplacesPriorEntriesForTheSameKey(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	key := Key{Corpus: "c", Root: "r", Path: "mod.py"}
	if err := store.Save(key, map[string]kyval.Union{
		"mod.A": kyval.Of(kyval.Class("mod.A", nil)),
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Save(key, map[string]kyval.Union{
		"mod.B": kyval.Of(kyval.Class("mod.B", nil)),
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load(key)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := got["mod.A"]; ok {
		t.Fatalf("want mod.A gone after the second Save, got %v", got)
	}
	if _, ok := got["mod.B"]; !ok {
		t.Fatalf("want mod.B present, got %v", got)
	}
}

func TestDifferentKeysDoNotShareEntries(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	a := Key{Corpus: "c", Root: "r", Path: "a.py"}
	b := Key{Corpus: "c", Root: "r", Path: "b.py"}
	if err := store.Save(a, map[string]kyval.Union{"a.X": kyval.Of(kyval.Class("a.X", nil))}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load(b)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("want no entries under an unrelated key, got %v", got)
	}
}
