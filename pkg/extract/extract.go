// Package extract implements the anchor extractor (spec.md section
// 4.3): a structural recursion over the simplified IR that, for each
// node, returns a type term describing the node's value and
// accumulates Kythe anchor/binding facts plus the deferred expression
// obligations consumed by pkg/eval and pkg/fixpoint.
//
// Grounded on the teacher's pkg/ast.Extractor dispatch-by-kind
// pattern, generalized from "one extractor per source language" to
// "one case per IR node kind," since this engine only ever sees one
// IR shape regardless of the source language the upstream parser read.
package extract

import (
	"path"
	"sort"

	"github.com/hatlesswizard/pykytheindex/pkg/deferred"
	"github.com/hatlesswizard/pykytheindex/pkg/ir"
	"github.com/hatlesswizard/pykytheindex/pkg/kythe"
	"github.com/hatlesswizard/pykytheindex/pkg/kyval"
	"github.com/hatlesswizard/pykytheindex/pkg/pyimport"
)

// Walker performs the Pass 1 recursion. Construct with New; the zero
// value is not usable.
type Walker struct {
	stamp    kythe.Stamp
	store    *kythe.Store
	fileDir  string
	deferred []deferred.Item
	err      error
}

// New creates a Walker that stamps VNames per stamp and writes facts
// and edges into store.
func New(stamp kythe.Stamp, store *kythe.Store) *Walker {
	return &Walker{stamp: stamp, store: store, fileDir: path.Dir(stamp.Path)}
}

// Deferred returns the accumulated deferred expression obligations.
func (w *Walker) Deferred() []deferred.Item { return w.deferred }

// Err returns the first edge error encountered during Eval, if any.
// A duplicate edge is an invariant violation (spec.md section 5), not
// something to absorb silently, so callers must check this after Eval
// returns.
func (w *Walker) Err() error { return w.err }

// edge writes an edge and latches the first error Edge returns, so a
// duplicate-edge bug surfaces to the caller instead of vanishing.
func (w *Walker) edge(source kythe.VName, kind string, target kythe.VName) {
	if w.err != nil {
		return
	}
	w.err = w.store.Edge(source, kind, target)
}

func (w *Walker) defer_(it deferred.Item) { w.deferred = append(w.deferred, it) }

func (w *Walker) anchorVName(a kyval.Astn) kythe.VName {
	return kythe.AnchorVName(w.stamp.Corpus, w.stamp.Root, w.stamp.Path, a.Start, a.End)
}

func (w *Walker) nodeVName(fqn string) kythe.VName {
	return kythe.NodeVName(w.stamp.Corpus, w.stamp.Root, w.stamp.Language, fqn)
}

// emitAnchor writes the loc/start, loc/end and node/kind=anchor facts
// for a at its anchor VName, and returns that VName.
func (w *Walker) emitAnchor(a kyval.Astn) kythe.VName {
	v := w.anchorVName(a)
	w.store.FactString(v, kythe.FactNodeKind, kythe.NodeKindAnchor)
	w.store.FactString(v, kythe.FactLocStart, itoa(a.Start))
	w.store.FactString(v, kythe.FactLocEnd, itoa(a.End))
	return v
}

// bindName emits the anchor + defines/binding edge for a name binding
// site at astn, targeting fqn, and stamps targetKind on the target
// node the first time it is seen. Shared by NameBindsFqn, function
// parameters, and import aliases (spec.md section 4.6, scenario 3:
// import aliases bind exactly like any other name).
func (w *Walker) bindName(astn kyval.Astn, fqn, targetKind string) {
	anchor := w.emitAnchor(astn)
	target := w.nodeVName(fqn)
	w.edge(anchor, kythe.EdgeDefinesBinding, target)
	w.store.FactString(target, kythe.FactNodeKind, targetKind)
}

// refName emits the anchor + ref edge for a name reference site.
func (w *Walker) refName(astn kyval.Astn, fqn string) {
	anchor := w.emitAnchor(astn)
	target := w.nodeVName(fqn)
	w.edge(anchor, kythe.EdgeRef, target)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func astnOf(n *ir.Node) kyval.Astn {
	if n == nil {
		return kyval.Astn{}
	}
	return kyval.Astn{
		Start: intVal(n.Child("start")),
		End:   intVal(n.Child("end")),
		Value: n.Child("text").StrValue(),
	}
}

func intVal(n *ir.Node) int {
	if n == nil || n.Int == nil {
		return 0
	}
	return int(*n.Int)
}

func boolVal(n *ir.Node) bool {
	return n != nil && n.Bool != nil && *n.Bool
}

// Eval is the Pass 1 recursion of spec.md section 4.3: for node n it
// returns the type term the node evaluates to and, along the way,
// emits anchor/binding facts and accumulates deferred obligations.
func (w *Walker) Eval(n *ir.Node) kyval.Union {
	if n == nil {
		return kyval.Union{}
	}
	switch n.Kind {
	case "NameBindsFqn":
		fqn := n.Child("fqn").StrValue()
		w.bindName(astnOf(n.Child("astn")), fqn, kythe.NodeKindVariable)
		return kyval.Of(kyval.Fqn(fqn))

	case "NameRefFqn":
		fqn := n.Child("fqn").StrValue()
		w.refName(astnOf(n.Child("astn")), fqn)
		return kyval.Of(kyval.Fqn(fqn))

	case "Class":
		fqn := n.Child("fqn").StrValue()
		w.bindName(astnOf(n.Child("astn")), fqn, kythe.NodeKindRecord)
		w.store.FactString(w.nodeVName(fqn), kythe.FactSubkind, kythe.SubkindClass)

		bases := make([]kyval.Union, 0, len(n.List("bases")))
		for _, b := range n.List("bases") {
			bases = append(bases, w.Eval(b))
		}
		w.walkBody(n.List("body"))
		w.defer_(deferred.ClassDecl(fqn, bases))
		return kyval.Of(kyval.Class(fqn, bases))

	case "Func":
		fqn := n.Child("fqn").StrValue()
		w.bindName(astnOf(n.Child("astn")), fqn, kythe.NodeKindFunction)

		var ret kyval.Union
		if r := n.Child("return"); r != nil {
			ret = w.Eval(r)
		}
		for _, p := range n.List("params") {
			w.Eval(p)
		}
		w.walkBody(n.List("body"))
		w.defer_(deferred.FuncDecl(fqn, ret))
		return kyval.Of(kyval.Func(fqn, ret))

	case "AtomDotNode":
		atom := w.Eval(n.Child("atom"))
		attr := astnOf(n.Child("attr"))
		edge := kyval.EdgeRef
		if boolVal(n.Child("binds")) {
			edge = kyval.EdgeDefinesBinding
		}
		return kyval.Of(kyval.Dot(atom, attr, edge))

	case "AtomCallNode":
		atom := w.Eval(n.Child("atom"))
		args := make([]kyval.Union, 0, len(n.List("args")))
		for _, a := range n.List("args") {
			args = append(args, w.Eval(a))
		}
		return kyval.Of(kyval.Call(atom, args))

	case "NumberNode":
		return kyval.Of(kyval.Class("builtin.Number", nil))

	case "StringNode":
		return kyval.Of(kyval.Class("builtin.str", nil))

	case "AssignExprStmt":
		lhs := w.Eval(n.Child("lhs"))
		rhs := w.Eval(n.Child("rhs"))
		w.deferAssign(lhs, rhs)
		return kyval.Of(kyval.Todo("stmt_assign"))

	case "ExprStmt":
		e := w.Eval(n.Child("expr"))
		w.defer_(deferred.Expr(e))
		return kyval.Of(kyval.Todo("stmt_expr"))

	case "EllipsisNode":
		return kyval.Of(kyval.EllipsisTerm)

	case "OmittedNode":
		return kyval.Of(kyval.OmittedTerm)

	case "PassStmt":
		return kyval.Of(kyval.Todo("stmt_pass"))

	case "BreakStmt":
		return kyval.Of(kyval.Todo("stmt_break"))

	case "ImportFromStmt":
		w.evalImportFrom(n)
		return kyval.Of(kyval.Todo("stmt_import_from"))

	case "ImportStmt":
		w.evalImport(n)
		return kyval.Of(kyval.Todo("stmt_import"))

	case "Module":
		w.walkBody(n.List("body"))
		return kyval.Of(kyval.Todo("stmt_module"))

	default:
		w.walkUnknown(n)
		return kyval.Of(kyval.Todo("stmt_" + n.Kind))
	}
}

// walkBody evaluates a list of statements purely for their side
// effects (anchor facts, deferred obligations), discarding the
// returned type term of each, in source order.
func (w *Walker) walkBody(stmts []*ir.Node) {
	for _, s := range stmts {
		w.Eval(s)
	}
}

// walkUnknown is the catch-all for node kinds not in the table above:
// it recurses into every child slot so nested bindings inside
// constructs this engine does not special-case (if/for/while/try/with
// blocks) are never silently dropped (spec.md section 9: a todo_*
// catch-all must not force evaluator changes when new kinds appear).
// Slot names are visited in sorted order for reproducible traversal,
// though the de-duplicating fact store makes the final emitted set
// independent of this order.
func (w *Walker) walkUnknown(n *ir.Node) {
	names := make([]string, 0, len(n.Slots))
	for name := range n.Slots {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		slot := n.Slots[name]
		if slot.Node != nil {
			w.Eval(slot.Node)
		}
		for _, item := range slot.List {
			w.Eval(item)
		}
	}
}

// deferAssign applies the assignment normalization rule of spec.md
// section 4.3.
func (w *Walker) deferAssign(lhs, rhs kyval.Union) {
	if t, ok := lhs.Single(); ok && t.Kind == kyval.KindOmitted {
		return
	}
	rhsFinal := rhs
	if t, ok := rhs.Single(); ok && (t.Kind == kyval.KindOmitted || t.Kind == kyval.KindEllipsis) {
		rhsFinal = kyval.Union{}
	}
	w.defer_(deferred.Assign(lhs, rhsFinal))
}

func strList(nodes []*ir.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.StrValue()
	}
	return out
}

// evalImportFrom implements "from A.B import x as y", "from . import
// x" and "from M import *" (spec.md section 4.6). Each non-star alias
// binds exactly like any other name (scenario 3: an anchor and a
// defines/binding edge at the alias token); the star form emits a
// reference anchor to the unexpanded "Path/*" target instead, per the
// known limitation spec.md section 9 documents.
func (w *Walker) evalImportFrom(n *ir.Node) {
	dots := intVal(n.Child("dots"))
	moduleParts := strList(n.List("module"))

	if boolVal(n.Child("star")) {
		res := pyimport.ResolveFromStar(dots, moduleParts, w.fileDir)
		w.refName(astnOf(n.Child("star_astn")), res.Path)
		return
	}

	var aliases []pyimport.Alias
	aliasNodes := n.List("names")
	for _, a := range aliasNodes {
		aliases = append(aliases, pyimport.Alias{
			Name:   a.Child("name").StrValue(),
			AsName: a.Child("bind").Child("fqn").StrValue(),
		})
	}
	resolved := pyimport.ResolveFrom(dots, moduleParts, w.fileDir, aliases)
	for i, res := range resolved {
		bindAstn := astnOf(aliasNodes[i].Child("bind").Child("astn"))
		w.bindName(bindAstn, res.FQN, kythe.NodeKindVariable)
		w.defer_(deferred.ImportFrom(res.FQN, res.Path))
	}
}

// evalImport implements "import A.B as C": a single binding at the
// alias, resolved with the same non-relative path rule as a
// from-import (spec.md section 4.6).
func (w *Walker) evalImport(n *ir.Node) {
	moduleParts := strList(n.List("module"))
	bind := n.Child("bind")
	fqn := bind.Child("fqn").StrValue()
	res := pyimport.ResolveImport(moduleParts, fqn)
	w.bindName(astnOf(bind.Child("astn")), fqn, kythe.NodeKindVariable)
	w.defer_(deferred.ImportFrom(res.FQN, res.Path))
}
