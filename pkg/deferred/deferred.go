// Package deferred defines the expression obligations collected by
// the anchor extractor and resolved by the evaluator's fixpoint
// (spec.md section 3: "Deferred expression").
package deferred

import "github.com/hatlesswizard/pykytheindex/pkg/kyval"

// Kind discriminates the variants of Item.
type Kind int

const (
	KindAssign Kind = iota
	KindExpr
	KindClassDecl
	KindFuncDecl
	KindImportFrom
)

func (k Kind) String() string {
	switch k {
	case KindAssign:
		return "Assign"
	case KindExpr:
		return "Expr"
	case KindClassDecl:
		return "ClassDecl"
	case KindFuncDecl:
		return "FuncDecl"
	case KindImportFrom:
		return "ImportFrom"
	default:
		return "?"
	}
}

// Item is one deferred expression obligation.
type Item struct {
	Kind Kind

	// Assign
	Lhs kyval.Union
	Rhs kyval.Union

	// Expr
	E kyval.Union

	// ClassDecl, FuncDecl, ImportFrom all bind an FQN.
	FQN string

	// ClassDecl
	Bases []kyval.Union

	// FuncDecl
	Return kyval.Union

	// ImportFrom
	Path string
}

// Assign builds an Assign(Lhs, Rhs) obligation.
func Assign(lhs, rhs kyval.Union) Item { return Item{Kind: KindAssign, Lhs: lhs, Rhs: rhs} }

// Expr builds an Expr(E) obligation evaluated purely for side effects.
func Expr(e kyval.Union) Item { return Item{Kind: KindExpr, E: e} }

// ClassDecl builds a declaration that seeds the symbol table with a
// class term once the fixpoint processes it.
func ClassDecl(fqn string, bases []kyval.Union) Item {
	return Item{Kind: KindClassDecl, FQN: fqn, Bases: bases}
}

// FuncDecl builds a declaration that seeds the symbol table with a
// function term.
func FuncDecl(fqn string, ret kyval.Union) Item {
	return Item{Kind: KindFuncDecl, FQN: fqn, Return: ret}
}

// ImportFrom builds a declaration that seeds the symbol table with an
// import binding resolving to module path.
func ImportFrom(fqn, path string) Item {
	return Item{Kind: KindImportFrom, FQN: fqn, Path: path}
}
