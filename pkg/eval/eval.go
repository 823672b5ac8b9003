// Package eval implements the Pass 2 evaluator (spec.md section 4.4):
// symbol-table-aware resolution of the type terms Pass 1 left
// unresolved (dot, call) and the registration semantics for the four
// deferred declaration kinds, producing the Rejects a fixpoint pass
// merges back into the symbol table.
//
// Grounded on the teacher's pkg/semantic.Resolver two-pass split
// (structural walk, then symbol-aware resolution over the same tree),
// generalized to operate over the shared kyval.Term lattice instead of
// a language-specific type representation.
package eval

import (
	"github.com/hatlesswizard/pykytheindex/pkg/deferred"
	"github.com/hatlesswizard/pykytheindex/pkg/kythe"
	"github.com/hatlesswizard/pykytheindex/pkg/kyval"
	"github.com/hatlesswizard/pykytheindex/pkg/symtab"
)

// Reject is a symbol-table entry an evaluator pass wants to grow:
// fixpoint.Run merges these into the table at the end of a pass,
// never during it, so every deferred item in a pass observes the same
// table snapshot (spec.md section 5: "a single pass must not see its
// own pass's writes").
type Reject struct {
	FQN  string
	Type kyval.Union
}

// Evaluator resolves one file's deferred obligations against a single
// read-only table snapshot, stamping any anchors and edges it resolves
// into store and collecting Rejects for the caller to merge.
type Evaluator struct {
	stamp   kythe.Stamp
	store   *kythe.Store
	table   *symtab.Table
	rejects []Reject
	err     error
}

// New creates an Evaluator that reads table (never mutating it),
// stamps VNames per stamp, and writes resolved facts/edges into store.
func New(stamp kythe.Stamp, store *kythe.Store, table *symtab.Table) *Evaluator {
	return &Evaluator{stamp: stamp, store: store, table: table}
}

// Rejects returns the FQN growth this pass observed, in emission
// order. A single FQN may appear more than once; the caller's merge is
// idempotent so this is harmless.
func (e *Evaluator) Rejects() []Reject { return e.rejects }

// Err returns the first edge error this pass encountered, if any. A
// duplicate edge is an invariant violation (spec.md section 5), not
// something to absorb silently, so callers must check this after
// Process has been called on every deferred item for the pass.
func (e *Evaluator) Err() error { return e.err }

// edge writes an edge and latches the first error Edge returns, so a
// duplicate-edge bug surfaces to the caller instead of vanishing.
func (e *Evaluator) edge(source kythe.VName, kind string, target kythe.VName) {
	if e.err != nil {
		return
	}
	e.err = e.store.Edge(source, kind, target)
}

// register is the unified "reject iff NOT (T subset-of U)" rule of
// spec.md section 4.5: it covers an absent key, an equal value, a
// proper subset, and a conflicting value with the same single check,
// since SubsetOf against the empty union is false whenever t is
// non-empty.
func (e *Evaluator) register(fqn string, t kyval.Union) {
	if len(t) == 0 {
		return
	}
	cur := e.table.Lookup(fqn)
	if !t.SubsetOf(cur) {
		e.rejects = append(e.rejects, Reject{FQN: fqn, Type: t})
	}
}

// lookup is eval_lookup: read fqn from the table snapshot. A wholly
// absent fqn yields the empty union; it is not registered, so it does
// not become a table entry and produces no Reject.
func (e *Evaluator) lookup(fqn string) kyval.Union {
	if u, ok := e.table.Get(fqn); ok {
		return u
	}
	return kyval.Union{}
}

// EvalUnion is eval_union_and_lookup: resolve every term of u with
// lookup and merge the results.
func (e *Evaluator) EvalUnion(u kyval.Union) kyval.Union {
	var out kyval.Union
	for _, t := range u {
		out = out.Merge(e.evalSingle(t))
	}
	return out
}

// evalSingle is eval_single ("with lookup"): resolve one term fully,
// including dot and call resolution, which is the only place Pass 2
// emits new facts and edges.
func (e *Evaluator) evalSingle(t kyval.Term) kyval.Union {
	switch t.Kind {
	case kyval.KindFqn:
		return e.lookup(t.FQN)
	case kyval.KindDot:
		return e.evalDot(t)
	case kyval.KindCall:
		return e.evalCall(t)
	case kyval.KindClass:
		bases := make([]kyval.Union, len(t.Bases))
		for i, b := range t.Bases {
			bases[i] = e.EvalUnion(b)
		}
		return kyval.Of(kyval.Class(t.FQN, bases))
	case kyval.KindFunc:
		return kyval.Of(kyval.Func(t.FQN, t.Return))
	case kyval.KindImport, kyval.KindVar:
		return kyval.Of(t)
	default:
		// ellipsis, omitted, star, call_op, todo_* carry no type
		// information of their own.
		return kyval.Union{}
	}
}

// evalSingleNoLookup is the Lhs-position variant spec.md section 4.4
// calls out for Assign: a bare fqn(F) on the left of an assignment
// names the target being written, not a reference to resolve, so it
// passes through unresolved. A dot(...) Lhs (e.g. self.x = ...) is
// still fully resolved, since that is how its binding anchor and edge
// get emitted.
func (e *Evaluator) evalSingleNoLookup(t kyval.Term) kyval.Union {
	if t.Kind == kyval.KindFqn {
		return kyval.Of(t)
	}
	return e.evalSingle(t)
}

// EvalUnionNoLookup applies evalSingleNoLookup across u.
func (e *Evaluator) EvalUnionNoLookup(u kyval.Union) kyval.Union {
	var out kyval.Union
	for _, t := range u {
		out = out.Merge(e.evalSingleNoLookup(t))
	}
	return out
}

// evalDot resolves an attribute access (spec.md section 4.4,
// scenarios 1 and 2): for each class or import term the atom resolves
// to, emit an anchor at the attribute token plus the dot's edge kind
// (ref or defines/binding) to the class's "C.attr" node or the
// import's "P::attr" node. A class target contributes fqn(C.attr) to
// the result union; an import target contributes nothing, since an
// import's attribute is a module-external name this engine does not
// follow further.
func (e *Evaluator) evalDot(t kyval.Term) kyval.Union {
	atoms := e.EvalUnion(t.Atom)
	var out kyval.Union
	edgeKind := kythe.EdgeRef
	if t.Edge == kyval.EdgeDefinesBinding {
		edgeKind = kythe.EdgeDefinesBinding
	}
	for _, at := range atoms {
		switch at.Kind {
		case kyval.KindClass:
			attrFQN := at.FQN + "." + t.Attr.Value
			anchor := e.store.Anchor(e.stamp, t.Attr.Start, t.Attr.End)
			target := e.store.Node(e.stamp, attrFQN)
			e.edge(anchor, edgeKind, target)
			out = out.Add(kyval.Fqn(attrFQN))
		case kyval.KindImport:
			attrFQN := at.Path + "::" + t.Attr.Value
			anchor := e.store.Anchor(e.stamp, t.Attr.Start, t.Attr.End)
			target := e.store.Node(e.stamp, attrFQN)
			e.edge(anchor, edgeKind, target)
		}
	}
	return out
}

// evalCall resolves a call (spec.md section 4.4, scenario 5): a class
// atom is a constructor call, yielding an instance of that class; a
// func atom yields its declared return type; anything else is an
// opaque application that cannot be resolved yet and is carried
// forward as a call term over the now partially-resolved atom, so a
// later pass re-evaluating it can make progress once the atom itself
// gains information.
func (e *Evaluator) evalCall(t kyval.Term) kyval.Union {
	atoms := e.EvalUnion(t.Atom)
	var out kyval.Union
	for _, at := range atoms {
		switch at.Kind {
		case kyval.KindClass:
			out = out.Merge(kyval.Of(kyval.Class(at.FQN, at.Bases)))
		case kyval.KindFunc:
			out = out.Merge(at.Return)
		default:
			out = out.Add(kyval.Call(kyval.Of(at), t.Args))
		}
	}
	return out
}

// Process applies the registration semantics of spec.md section 4.4
// to one deferred item, recording any symbol-table growth as a
// Reject.
func (e *Evaluator) Process(item deferred.Item) {
	switch item.Kind {
	case deferred.KindAssign:
		rhs := e.EvalUnion(item.Rhs)
		lhs := e.EvalUnionNoLookup(item.Lhs)
		if t, ok := lhs.Single(); ok && t.Kind == kyval.KindFqn {
			// This also covers a resolved dot(...) Lhs (e.g. self.x =
			// ...): evalDot already emitted its binding edge and
			// contributes a bare fqn("C.attr") term here, so "C.attr"
			// is registered exactly like any other assignment target
			// (spec.md section 4.4 scenario 1).
			e.register(t.FQN, rhs)
		}

	case deferred.KindExpr:
		e.EvalUnion(item.E)

	case deferred.KindClassDecl:
		bases := make([]kyval.Union, len(item.Bases))
		for i, b := range item.Bases {
			bases[i] = e.EvalUnion(b)
		}
		e.register(item.FQN, kyval.Of(kyval.Class(item.FQN, bases)))

	case deferred.KindFuncDecl:
		ret := e.EvalUnion(item.Return)
		e.register(item.FQN, kyval.Of(kyval.Func(item.FQN, ret)))

	case deferred.KindImportFrom:
		e.register(item.FQN, kyval.Of(kyval.Import(item.FQN, item.Path)))
	}
}
