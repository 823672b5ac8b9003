package extract

import (
	"testing"

	"github.com/hatlesswizard/pykytheindex/pkg/deferred"
	"github.com/hatlesswizard/pykytheindex/pkg/ir"
	"github.com/hatlesswizard/pykytheindex/pkg/kythe"
	"github.com/hatlesswizard/pykytheindex/pkg/kyval"
)

func strNode(s string) *ir.Node {
	v := s
	return &ir.Node{Kind: "str", Str: &v}
}

func intNode(v int64) *ir.Node {
	return &ir.Node{Kind: "int", Int: &v}
}

func boolNode(v bool) *ir.Node {
	return &ir.Node{Kind: "bool", Bool: &v}
}

func astnNode(start, end int, text string) *ir.Node {
	return &ir.Node{Kind: "Astn", Slots: map[string]ir.Slot{
		"start": {Node: intNode(int64(start))},
		"end":   {Node: intNode(int64(end))},
		"text":  {Node: strNode(text)},
	}}
}

func nameBinds(fqn string, start, end int, text string) *ir.Node {
	return &ir.Node{Kind: "NameBindsFqn", Slots: map[string]ir.Slot{
		"fqn":  {Node: strNode(fqn)},
		"astn": {Node: astnNode(start, end, text)},
	}}
}

func nameRef(fqn string, start, end int, text string) *ir.Node {
	return &ir.Node{Kind: "NameRefFqn", Slots: map[string]ir.Slot{
		"fqn":  {Node: strNode(fqn)},
		"astn": {Node: astnNode(start, end, text)},
	}}
}

func newWalker() (*Walker, *kythe.Store) {
	store := kythe.NewStore()
	w := New(kythe.Stamp{Corpus: "c", Root: "r", Path: "mod.py", Language: "python"}, store)
	return w, store
}

func TestNameBindsFqnEmitsAnchorAndBinding(t *testing.T) {
	w, store := newWalker()
	u := w.Eval(nameBinds("mod.x", 0, 1, "x"))

	if got, ok := u.Single(); !ok || got.FQN != "mod.x" {
		t.Fatalf("want fqn(mod.x), got %s", u)
	}
	if store.Len() == 0 {
		t.Fatalf("want facts/edges emitted")
	}
	foundBinding := false
	for _, r := range store.Records() {
		if r.EdgeKind == kythe.EdgeDefinesBinding && r.Target.Signature == "mod.x" {
			foundBinding = true
		}
	}
	if !foundBinding {
		t.Fatalf("want a defines/binding edge to mod.x, got %+v", store.Records())
	}
}

func TestAssignDiscardsOmittedLhs(t *testing.T) {
	w, _ := newWalker()
	lhs := &ir.Node{Kind: "OmittedNode"}
	rhs := &ir.Node{Kind: "StringNode"}
	assign := &ir.Node{Kind: "AssignExprStmt", Slots: map[string]ir.Slot{
		"lhs": {Node: lhs},
		"rhs": {Node: rhs},
	}}
	w.Eval(assign)
	if len(w.Deferred()) != 0 {
		t.Fatalf("want no deferred obligation for omitted lhs, got %+v", w.Deferred())
	}
}

func TestAssignOfUnknownRhsBecomesEmptyUnion(t *testing.T) {
	w, _ := newWalker()
	lhs := nameBinds("mod.y", 0, 1, "y")
	rhs := &ir.Node{Kind: "EllipsisNode"}
	assign := &ir.Node{Kind: "AssignExprStmt", Slots: map[string]ir.Slot{
		"lhs": {Node: lhs},
		"rhs": {Node: rhs},
	}}
	w.Eval(assign)
	if len(w.Deferred()) != 1 {
		t.Fatalf("want 1 deferred Assign, got %d", len(w.Deferred()))
	}
	item := w.Deferred()[0]
	if item.Kind != deferred.KindAssign {
		t.Fatalf("want Assign kind")
	}
	if len(item.Rhs) != 0 {
		t.Fatalf("want empty Rhs union for ellipsis rhs, got %s", item.Rhs)
	}
}

func TestClassEmitsRecordSubkindAndDefersClassDecl(t *testing.T) {
	w, store := newWalker()
	class := &ir.Node{Kind: "Class", Slots: map[string]ir.Slot{
		"fqn":   {Node: strNode("mod.C")},
		"astn":  {Node: astnNode(0, 1, "C")},
		"bases": {List: nil},
		"body":  {List: nil},
	}}
	w.Eval(class)

	foundSubkind := false
	for _, r := range store.Records() {
		if r.FactName == kythe.FactSubkind && r.Source.Signature == "mod.C" {
			foundSubkind = true
		}
	}
	if !foundSubkind {
		t.Fatalf("want subkind=class fact on mod.C, got %+v", store.Records())
	}
	if len(w.Deferred()) != 1 || w.Deferred()[0].Kind != deferred.KindClassDecl {
		t.Fatalf("want 1 ClassDecl deferred, got %+v", w.Deferred())
	}
}

func TestSelfAttributeBindingDeferredDotTerm(t *testing.T) {
	// self.x = 'a' -- Pass 1 must NOT emit an anchor for the dot yet;
	// resolution happens in Pass 2 (spec.md section 4.4).
	w, store := newWalker()
	selfRef := nameRef("mod.C.__init__.<local>.self", 10, 14, "self")
	dot := &ir.Node{Kind: "AtomDotNode", Slots: map[string]ir.Slot{
		"atom":  {Node: selfRef},
		"attr":  {Node: astnNode(15, 16, "x")},
		"binds": {Node: boolNode(true)},
	}}
	assign := &ir.Node{Kind: "AssignExprStmt", Slots: map[string]ir.Slot{
		"lhs": {Node: dot},
		"rhs": {Node: &ir.Node{Kind: "StringNode"}},
	}}
	w.Eval(assign)

	for _, r := range store.Records() {
		if r.Source.Signature == "@15:16" {
			t.Fatalf("dot attribute anchor must not be emitted in Pass 1: %+v", r)
		}
	}
	if len(w.Deferred()) != 1 {
		t.Fatalf("want 1 deferred Assign, got %d", len(w.Deferred()))
	}
	lhsTerm, ok := w.Deferred()[0].Lhs.Single()
	if !ok || lhsTerm.Kind != kyval.KindDot {
		t.Fatalf("want lhs to be a dot term, got %s", w.Deferred()[0].Lhs)
	}
}

func TestImportFromAliasBindsLikeAnyName(t *testing.T) {
	// from a.b import f as g
	w, store := newWalker()
	alias := &ir.Node{Kind: "ImportAlias", Slots: map[string]ir.Slot{
		"name": {Node: strNode("f")},
		"bind": {Node: nameBinds("mod.g", 0, 1, "g")},
	}}
	stmt := &ir.Node{Kind: "ImportFromStmt", Slots: map[string]ir.Slot{
		"dots":   {Node: intNode(0)},
		"module": {List: []*ir.Node{strNode("a"), strNode("b")}},
		"names":  {List: []*ir.Node{alias}},
		"star":   {Node: boolNode(false)},
	}}
	w.Eval(stmt)

	if len(w.Deferred()) != 1 || w.Deferred()[0].Kind != deferred.KindImportFrom {
		t.Fatalf("want 1 ImportFrom deferred, got %+v", w.Deferred())
	}
	if w.Deferred()[0].Path != "$PYTHONPATH/a.b/f" {
		t.Fatalf("want resolved path $PYTHONPATH/a.b/f, got %s", w.Deferred()[0].Path)
	}
	foundBinding := false
	for _, r := range store.Records() {
		if r.EdgeKind == kythe.EdgeDefinesBinding && r.Target.Signature == "mod.g" {
			foundBinding = true
		}
	}
	if !foundBinding {
		t.Fatalf("want defines/binding anchor at g, got %+v", store.Records())
	}
}

func TestImportStarIsNotExpanded(t *testing.T) {
	w, store := newWalker()
	stmt := &ir.Node{Kind: "ImportFromStmt", Slots: map[string]ir.Slot{
		"dots":       {Node: intNode(0)},
		"module":     {List: []*ir.Node{strNode("m")}},
		"names":      {List: nil},
		"star":       {Node: boolNode(true)},
		"star_astn":  {Node: astnNode(0, 1, "*")},
	}}
	w.Eval(stmt)

	if len(w.Deferred()) != 0 {
		t.Fatalf("star import should not defer any binding, got %+v", w.Deferred())
	}
	foundRef := false
	for _, r := range store.Records() {
		if r.EdgeKind == kythe.EdgeRef && r.Target.Signature == "$PYTHONPATH/m/*" {
			foundRef = true
		}
	}
	if !foundRef {
		t.Fatalf("want ref edge to $PYTHONPATH/m/*, got %+v", store.Records())
	}
}
