// Package kyval implements the union-type lattice shared by the anchor
// extractor and the evaluator: a closed sum type describing what an
// expression might be (a class, a function, an unresolved name, an
// attribute access still waiting to be resolved...) plus an ordered,
// deduplicated set of such terms.
package kyval

import (
	"fmt"
	"sort"
	"strings"
)

// Kind discriminates the variants of Term.
type Kind int

const (
	KindFqn Kind = iota
	KindClass
	KindFunc
	KindImport
	KindVar
	KindDot
	KindCall
	KindCallOp
	KindEllipsis
	KindOmitted
	KindStar
	KindTodo
)

func (k Kind) String() string {
	switch k {
	case KindFqn:
		return "fqn"
	case KindClass:
		return "class"
	case KindFunc:
		return "func"
	case KindImport:
		return "import"
	case KindVar:
		return "var"
	case KindDot:
		return "dot"
	case KindCall:
		return "call"
	case KindCallOp:
		return "call_op"
	case KindEllipsis:
		return "ellipsis"
	case KindOmitted:
		return "omitted"
	case KindStar:
		return "star"
	case KindTodo:
		return "todo"
	default:
		return "unknown"
	}
}

// EdgeKind selects which Kythe edge a dot resolution should emit.
type EdgeKind int

const (
	EdgeRef EdgeKind = iota
	EdgeDefinesBinding
)

func (e EdgeKind) String() string {
	if e == EdgeDefinesBinding {
		return "defines/binding"
	}
	return "ref"
}

// Astn is a source position: a byte span plus the literal token text,
// matching the upstream parser's Astn record (spec.md section 3).
type Astn struct {
	Start int
	End   int
	Value string
}

// Term is the central sum type of the evaluation engine. Only the
// fields relevant to Kind are meaningful; the rest are zero.
type Term struct {
	Kind Kind

	// Fqn, Class, Func, Import, Var all carry a name.
	FQN string

	// Class carries its base classes.
	Bases []Union

	// Func carries its return type.
	Return Union

	// Import carries the resolved module path.
	Path string

	// Dot and Call carry the atom they apply to.
	Atom Union

	// Dot carries the attribute token and which edge to emit.
	Attr Astn
	Edge EdgeKind

	// Call carries its evaluated arguments.
	Args []Union

	// CallOp carries the operator's source tokens verbatim, opaque to
	// this engine.
	OpAstns []Astn

	// Todo names the unanalyzed construct, for diagnostics only; it
	// always evaluates to the empty union.
	TodoName string
}

// Fqn builds an unresolved reference term.
func Fqn(f string) Term { return Term{Kind: KindFqn, FQN: f} }

// Class builds a class term.
func Class(f string, bases []Union) Term { return Term{Kind: KindClass, FQN: f, Bases: bases} }

// Func builds a function term.
func Func(f string, ret Union) Term { return Term{Kind: KindFunc, FQN: f, Return: ret} }

// Import builds an import binding term.
func Import(f, path string) Term { return Term{Kind: KindImport, FQN: f, Path: path} }

// Var builds a plain variable binding term.
func Var(f string) Term { return Term{Kind: KindVar, FQN: f} }

// Dot builds an attribute-access term awaiting resolution.
func Dot(atom Union, attr Astn, edge EdgeKind) Term {
	return Term{Kind: KindDot, Atom: atom, Attr: attr, Edge: edge}
}

// Call builds a call term awaiting resolution.
func Call(atom Union, args []Union) Term {
	return Term{Kind: KindCall, Atom: atom, Args: args}
}

// CallOp builds an opaque operator-application term.
func CallOp(opAstns []Astn, args []Union) Term {
	return Term{Kind: KindCallOp, OpAstns: opAstns, Args: args}
}

// Ellipsis, Omitted and Star are the placeholder singletons of
// section 3.
var (
	EllipsisTerm = Term{Kind: KindEllipsis}
	OmittedTerm  = Term{Kind: KindOmitted}
	StarTerm     = Term{Kind: KindStar}
)

// Todo builds a not-yet-analyzed construct term. It always evaluates
// to the empty union; the name is carried purely for debugging.
func Todo(name string) Term { return Term{Kind: KindTodo, TodoName: name} }

// key returns a string that fully captures a term's identity, used
// both for canonical ordering and for equality/subset checks. Nested
// unions recurse through their own Key, so two structurally identical
// terms always produce the same key regardless of construction order.
func (t Term) key() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d|%s|%s|%s", t.Kind, t.FQN, t.Path, t.Attr.Value)
	switch t.Kind {
	case KindClass:
		b.WriteByte('|')
		for _, u := range t.Bases {
			b.WriteString(u.Key())
			b.WriteByte(';')
		}
	case KindFunc:
		b.WriteByte('|')
		b.WriteString(t.Return.Key())
	case KindDot:
		fmt.Fprintf(&b, "|%d|%d|", t.Edge, t.Attr.Start)
		b.WriteString(t.Atom.Key())
	case KindCall:
		b.WriteByte('|')
		b.WriteString(t.Atom.Key())
		b.WriteByte('|')
		for _, u := range t.Args {
			b.WriteString(u.Key())
			b.WriteByte(';')
		}
	case KindCallOp:
		b.WriteByte('|')
		for _, a := range t.OpAstns {
			fmt.Fprintf(&b, "%d:%d:%s,", a.Start, a.End, a.Value)
		}
		for _, u := range t.Args {
			b.WriteString(u.Key())
			b.WriteByte(';')
		}
	case KindTodo:
		b.WriteByte('|')
		b.WriteString(t.TodoName)
	}
	return b.String()
}

// Equal reports whether two terms are structurally identical.
func (t Term) Equal(o Term) bool { return t.key() == o.key() }

// String renders a term in the notation used by section 3 of the
// specification, e.g. class('builtin.str', []). It is only used for
// the debug symbol-table snapshot fact.
func (t Term) String() string {
	switch t.Kind {
	case KindFqn:
		return fmt.Sprintf("fqn(%q)", t.FQN)
	case KindClass:
		return fmt.Sprintf("class(%q, %s)", t.FQN, unionSliceString(t.Bases))
	case KindFunc:
		return fmt.Sprintf("func(%q, %s)", t.FQN, t.Return.String())
	case KindImport:
		return fmt.Sprintf("import(%q, %q)", t.FQN, t.Path)
	case KindVar:
		return fmt.Sprintf("var(%q)", t.FQN)
	case KindDot:
		return fmt.Sprintf("dot(%s, %q, %s)", t.Atom.String(), t.Attr.Value, t.Edge)
	case KindCall:
		return fmt.Sprintf("call(%s, %s)", t.Atom.String(), unionSliceString(t.Args))
	case KindCallOp:
		return "call_op(...)"
	case KindEllipsis:
		return "ellipsis"
	case KindOmitted:
		return "omitted"
	case KindStar:
		return "star"
	case KindTodo:
		return fmt.Sprintf("todo_%s", t.TodoName)
	default:
		return "?"
	}
}

func unionSliceString(us []Union) string {
	parts := make([]string, len(us))
	for i, u := range us {
		parts[i] = u.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Union is an ordered, deduplicated set of type terms. The empty union
// denotes "no information" (Any during propagation). Canonical order
// is part of the public contract: the symbol-table snapshot is
// observable, so this is always a sorted slice, never a map or set.
type Union []Term

// Of builds a union from a set of terms, sorting and deduplicating.
func Of(terms ...Term) Union {
	var u Union
	for _, t := range terms {
		u = u.Add(t)
	}
	return u
}

// Add returns the union with t inserted in canonical position,
// de-duplicated against existing members.
func (u Union) Add(t Term) Union {
	key := t.key()
	i := sort.Search(len(u), func(i int) bool { return u[i].key() >= key })
	if i < len(u) && u[i].key() == key {
		return u
	}
	out := make(Union, 0, len(u)+1)
	out = append(out, u[:i]...)
	out = append(out, t)
	out = append(out, u[i:]...)
	return out
}

// Merge returns the union of u and o, canonically ordered and
// deduplicated. This is the lattice join operation: it never removes
// information, only adds.
func (u Union) Merge(o Union) Union {
	out := u
	for _, t := range o {
		out = out.Add(t)
	}
	return out
}

// SubsetOf reports whether every term of u also appears in o.
func (u Union) SubsetOf(o Union) bool {
	for _, t := range u {
		found := false
		for _, ot := range o {
			if t.Equal(ot) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Equal reports whether u and o contain exactly the same terms.
func (u Union) Equal(o Union) bool {
	return len(u) == len(o) && u.SubsetOf(o)
}

// Single returns the lone term of a singleton union and true, or the
// zero Term and false otherwise.
func (u Union) Single() (Term, bool) {
	if len(u) == 1 {
		return u[0], true
	}
	return Term{}, false
}

// Key returns the canonical sort/equality key for the whole union.
func (u Union) Key() string {
	var b strings.Builder
	for _, t := range u {
		b.WriteString(t.key())
		b.WriteByte(',')
	}
	return b.String()
}

// String renders a union as a bracketed list, matching the notation
// used throughout section 3 of the specification.
func (u Union) String() string {
	parts := make([]string, len(u))
	for i, t := range u {
		parts[i] = t.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// sortUnions sorts a slice of unions by their canonical key.
func sortUnions(us []Union) {
	sort.Slice(us, func(i, j int) bool { return us[i].Key() < us[j].Key() })
}
