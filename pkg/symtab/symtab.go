// Package symtab implements the FQN-keyed symbol table of spec.md
// section 3: a total mapping from fully-qualified name to union type,
// filled by Seed and then grown by the fixpoint driver's monotonic
// merge.
//
// Grounded on the teacher's pkg/semantic/types.SymbolTable, generalized
// from per-kind maps (Classes/Functions/Variables) to the single
// FQN-to-union map spec.md specifies.
package symtab

import (
	"sort"

	"github.com/hatlesswizard/pykytheindex/pkg/kyval"
)

// Table is the FQN -> union type symbol table. The zero value is not
// usable; construct with New.
type Table struct {
	entries map[string]kyval.Union
}

// New creates an empty table.
func New() *Table {
	return &Table{entries: make(map[string]kyval.Union)}
}

// Seed pre-populates the table from the initial built-in-names input
// (spec.md section 1 names this a data input owned by the caller, not
// the core). A typical seed binds "builtin.str" and "builtin.Number"
// to themselves as specified in spec.md section 3.
func (t *Table) Seed(entries map[string]kyval.Union) {
	for k, v := range entries {
		t.entries[k] = v
	}
}

// DefaultBuiltins returns the minimal seed named explicitly by
// spec.md section 3: builtin.str and builtin.Number, each bound to
// their own class term with no bases.
func DefaultBuiltins() map[string]kyval.Union {
	return map[string]kyval.Union{
		"builtin.str":    kyval.Of(kyval.Class("builtin.str", nil)),
		"builtin.Number": kyval.Of(kyval.Class("builtin.Number", nil)),
	}
}

// Get returns the union bound to fqn and whether it is present. An
// absent key is not an error (spec.md section 7): callers should treat
// it as the empty union.
func (t *Table) Get(fqn string) (kyval.Union, bool) {
	u, ok := t.entries[fqn]
	return u, ok
}

// Lookup returns the union bound to fqn, or the empty union if absent.
func (t *Table) Lookup(fqn string) kyval.Union {
	return t.entries[fqn]
}

// Merge unions t[fqn] with u in place and reports whether this grew
// the entry (i.e. u was not already a subset of the prior value).
// Apart from Seed, which installs initial entries and replaces any
// value already bound to the same key, this is the only mutation path
// for Table, preserving the monotonicity invariant of spec.md
// section 3.
func (t *Table) Merge(fqn string, u kyval.Union) (grew bool) {
	cur := t.entries[fqn]
	if u.SubsetOf(cur) {
		return false
	}
	t.entries[fqn] = cur.Merge(u)
	return true
}

// FQNs returns every key currently bound, in canonical sorted order
// (spec.md section 5: "synthesized symbol-table entries in canonical
// FQN order").
func (t *Table) FQNs() []string {
	keys := make([]string, 0, len(t.entries))
	for k := range t.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot returns a defensive copy of the table's current entries,
// keyed by FQN, for serialization as the /kythe/x-symtab debug fact.
func (t *Table) Snapshot() map[string]kyval.Union {
	out := make(map[string]kyval.Union, len(t.entries))
	for k, v := range t.entries {
		out[k] = v
	}
	return out
}

// Len reports how many FQNs are currently bound.
func (t *Table) Len() int { return len(t.entries) }
