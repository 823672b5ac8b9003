// Package fixpoint implements the bounded-pass fixpoint driver of
// spec.md section 4.5: it repeatedly re-evaluates a file's deferred
// obligations plus the symbol table's own live entries, merging
// rejects back into the table, until a pass produces no rejects or the
// pass budget is exhausted.
//
// Grounded on the teacher's pkg/semantic.Tracer.traceAllFlows
// multi-pass propagation loop and pkg/semantic/batch.Analyzer's
// batch-then-merge shape: both run a bounded number of passes over
// accumulated state and fold results back before the next pass, the
// same control shape this driver gives the reject-merge cycle.
package fixpoint

import (
	"github.com/hatlesswizard/pykytheindex/pkg/deferred"
	"github.com/hatlesswizard/pykytheindex/pkg/eval"
	"github.com/hatlesswizard/pykytheindex/pkg/kythe"
	"github.com/hatlesswizard/pykytheindex/pkg/symtab"
)

// PassBudget bounds the number of fixpoint passes (spec.md section
// 4.5): a safety backstop against pathological inputs, not a
// correctness condition, since the union lattice is itself finite.
const PassBudget = 5

// Result is what one Run produces.
type Result struct {
	// Store holds the Kythe facts and edges from the final pass run.
	// Earlier passes' accumulators are discarded (spec.md section
	// 4.5, step 2: "a fresh Kythe-fact accumulator" each pass),
	// since deferred items are reprocessed in full every pass and
	// produce identical facts whenever their inputs haven't changed.
	Store *kythe.Store

	// Table is the symbol table after the run, grown monotonically
	// pass over pass.
	Table *symtab.Table

	// Passes is how many passes actually ran, 1..PassBudget.
	Passes int
}

// Run drives the fixpoint for one file. table is mutated in place and
// should already hold the caller's seed (builtins, any symcache
// carry-over); deferredItems is the Pass 1 extractor's obligation
// list for that file. A duplicate-edge error from any pass's
// evaluator is fatal (spec.md section 5) and aborts the run
// immediately rather than being absorbed.
func Run(stamp kythe.Stamp, table *symtab.Table, deferredItems []deferred.Item) (Result, error) {
	var store *kythe.Store
	passes := 0
	for passes < PassBudget {
		passes++
		store = kythe.NewStore()
		ev := eval.New(stamp, store, table)

		for _, item := range combinedObligations(table, deferredItems) {
			ev.Process(item)
		}
		if err := ev.Err(); err != nil {
			return Result{}, err
		}

		rejects := ev.Rejects()
		for _, r := range rejects {
			table.Merge(r.FQN, r.Type)
		}
		if len(rejects) == 0 {
			break
		}
	}
	return Result{Store: store, Table: table, Passes: passes}, nil
}

// combinedObligations implements spec.md section 4.5 step 1 and the
// ordering rule of section 5: original deferred items in source
// order, then one synthesized Expr(U) per non-empty symbol-table
// entry in canonical FQN order.
func combinedObligations(table *symtab.Table, original []deferred.Item) []deferred.Item {
	combined := make([]deferred.Item, 0, len(original)+table.Len())
	combined = append(combined, original...)
	for _, fqn := range table.FQNs() {
		u := table.Lookup(fqn)
		if len(u) == 0 {
			continue
		}
		combined = append(combined, deferred.Expr(u))
	}
	return combined
}
