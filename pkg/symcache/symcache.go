// Package symcache persists a run's final symbol table so a later
// invocation over the same (corpus, root, path) can seed its initial
// table from previously-resolved cross-file bindings instead of only
// built-ins. This is ambient convenience infrastructure, not an
// incremental algorithm: it only changes what a run's starting table
// contains, and the seeded entries then take part in that run's
// fixpoint like any other table entry (see SPEC_FULL.md sections B and
// E).
//
// Grounded on the teacher's pkg/parser.Cache, an LRU keyed cache
// guarding a mutex around a map + eviction list; generalized from an
// in-memory parse-tree cache to a small on-disk table backed by
// database/sql + github.com/mattn/go-sqlite3, since what is cached
// here (a symbol table keyed by file identity) is meant to survive
// process exit rather than be evicted within one run.
package symcache

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hatlesswizard/pykytheindex/pkg/kyval"
)

// Key identifies one cached symbol table, mirroring the fields that
// stamp every VName for a file (spec.md section 4.2).
type Key struct {
	Corpus string
	Root   string
	Path   string
}

// Store is a sqlite-backed cache of FQN -> union-type entries, keyed
// by Key. The zero value is not usable; construct with Open.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open creates or attaches to the sqlite database at path and ensures
// its schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("symcache: open %s: %w", path, err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS symtab_entries (
			corpus TEXT NOT NULL,
			root   TEXT NOT NULL,
			path   TEXT NOT NULL,
			fqn    TEXT NOT NULL,
			kind   TEXT NOT NULL,
			PRIMARY KEY (corpus, root, path, fqn)
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("symcache: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Load returns the cached symbol table for key, or an empty map if
// nothing is cached yet. symcache stores only class/import bindings,
// and for each only its FQN and kind (function return types and
// dot/call terms depend on AST shapes that do not outlive one run).
// Load rebuilds a class entry as a class term with no bases and an
// import entry as an import term with an empty path; the bases and
// the import path of the saved term are not restored.
func (s *Store) Load(key Key) (map[string]kyval.Union, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT fqn, kind FROM symtab_entries WHERE corpus = ? AND root = ? AND path = ?`,
		key.Corpus, key.Root, key.Path,
	)
	if err != nil {
		return nil, fmt.Errorf("symcache: load: %w", err)
	}
	defer rows.Close()

	out := make(map[string]kyval.Union)
	for rows.Next() {
		var fqn, kind string
		if err := rows.Scan(&fqn, &kind); err != nil {
			return nil, fmt.Errorf("symcache: scan: %w", err)
		}
		switch kind {
		case "class":
			out[fqn] = kyval.Of(kyval.Class(fqn, nil))
		case "import":
			out[fqn] = kyval.Of(kyval.Import(fqn, ""))
		}
	}
	return out, rows.Err()
}

// Save persists every class/import entry of table under key,
// replacing any prior rows for that key. Other term kinds are skipped
// for the reason Load documents.
func (s *Store) Save(key Key, table map[string]kyval.Union) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("symcache: begin: %w", err)
	}
	if _, err := tx.Exec(
		`DELETE FROM symtab_entries WHERE corpus = ? AND root = ? AND path = ?`,
		key.Corpus, key.Root, key.Path,
	); err != nil {
		tx.Rollback()
		return fmt.Errorf("symcache: clear prior entries: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO symtab_entries (corpus, root, path, fqn, kind) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("symcache: prepare insert: %w", err)
	}
	defer stmt.Close()

	for fqn, u := range table {
		term, ok := u.Single()
		if !ok {
			continue
		}
		var kind string
		switch term.Kind {
		case kyval.KindClass:
			kind = "class"
		case kyval.KindImport:
			kind = "import"
		default:
			continue
		}
		if _, err := stmt.Exec(key.Corpus, key.Root, key.Path, fqn, kind); err != nil {
			tx.Rollback()
			return fmt.Errorf("symcache: insert %s: %w", fqn, err)
		}
	}
	return tx.Commit()
}
