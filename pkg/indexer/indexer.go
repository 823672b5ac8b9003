// Package indexer wires the whole pipeline together: the parser
// subprocess, the IR simplifier, the Pass 1 extractor, the fixpoint
// driver, and the final symbol-table and file facts, producing one
// kythe.Store ready to write as NDJSON (spec.md section 2).
//
// Grounded on the teacher's pkg/tracer.Tracer: the same
// Config/DefaultConfig pair, and TraceFile's "build an empty result,
// run one file through the pipeline, finalize stats" shape — here
// specialized to a single file per spec.md section 1 (file-at-a-time
// indexing; directory traversal and incremental re-indexing are
// explicitly out of scope).
package indexer

import (
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hatlesswizard/pykytheindex/pkg/extract"
	"github.com/hatlesswizard/pykytheindex/pkg/fixpoint"
	"github.com/hatlesswizard/pykytheindex/pkg/ir"
	"github.com/hatlesswizard/pykytheindex/pkg/kythe"
	"github.com/hatlesswizard/pykytheindex/pkg/parserproc"
	"github.com/hatlesswizard/pykytheindex/pkg/symcache"
	"github.com/hatlesswizard/pykytheindex/pkg/symtab"
)

// Config configures one indexer run.
type Config struct {
	ParseCmd    string
	KytheCorpus string
	KytheRoot   string

	// PythonPath is accepted for CLI-contract completeness; import
	// resolution emits the literal "$PYTHONPATH" token rather than
	// expanding it (spec.md section 4.6), so this field is not read
	// by the pipeline itself.
	PythonPath    []string
	RootPath      []string
	PythonVersion int

	// SymCachePath, if non-empty, seeds the initial symbol table from
	// pkg/symcache and persists the final table back to it (ambient
	// convenience; see pkg/symcache's doc comment). Empty disables
	// the cache entirely.
	SymCachePath string

	// Log receives structured progress/diagnostic entries. Defaults
	// to logrus.StandardLogger() when nil.
	Log *logrus.Logger
}

// DefaultConfig returns the zero-value-safe defaults: no symbol-table
// cache, Python 3, and the standard logger.
func DefaultConfig() *Config {
	return &Config{
		PythonVersion: 3,
		Log:           logrus.StandardLogger(),
	}
}

// Indexer runs one file through the full pipeline.
type Indexer struct {
	config *Config
	cache  *symcache.Store
}

// New creates an Indexer from config, opening the symbol-table cache
// if SymCachePath is set. Pass nil for config to use DefaultConfig.
func New(config *Config) (*Indexer, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Log == nil {
		config.Log = logrus.StandardLogger()
	}

	idx := &Indexer{config: config}
	if config.SymCachePath != "" {
		cache, err := symcache.Open(config.SymCachePath)
		if err != nil {
			return nil, fmt.Errorf("indexer: open symbol cache: %w", err)
		}
		idx.cache = cache
	}
	return idx, nil
}

// Close releases the symbol-table cache, if one is open.
func (idx *Indexer) Close() error {
	if idx.cache == nil {
		return nil
	}
	return idx.cache.Close()
}

// RunFile indexes one source file end to end and returns the Kythe
// store ready for WriteNDJSON.
func (idx *Indexer) RunFile(src, module string) (*kythe.Store, error) {
	runID := uuid.New().String()
	log := idx.config.Log.WithFields(logrus.Fields{
		"run_id":         runID,
		"src":            src,
		"module":         module,
		"python_version": idx.config.PythonVersion,
	})
	log.Info("indexing file")

	parsed, err := parserproc.Run(parserproc.Request{
		ParseCmd:      idx.config.ParseCmd,
		KytheCorpus:   idx.config.KytheCorpus,
		KytheRoot:     idx.config.KytheRoot,
		PythonVersion: idx.config.PythonVersion,
		Src:           src,
		Module:        module,
	})
	if err != nil {
		log.WithError(err).Error("parser subprocess failed")
		return nil, err
	}

	canonPath, err := parserproc.CanonicalizePath(parsed.Meta.Path, idx.config.RootPath)
	if err != nil {
		log.WithError(err).Error("path canonicalization failed")
		return nil, err
	}

	stamp := kythe.Stamp{
		Corpus:   parsed.Meta.KytheCorpus,
		Root:     parsed.Meta.KytheRoot,
		Path:     canonPath,
		Language: parsed.Meta.Language,
	}

	root, err := ir.Simplify(parsed.AST)
	if err != nil {
		log.WithError(err).Error("malformed AST")
		return nil, fmt.Errorf("indexer: simplify AST: %w", err)
	}

	table := symtab.New()
	table.Seed(symtab.DefaultBuiltins())

	cacheKey := symcache.Key{Corpus: stamp.Corpus, Root: stamp.Root, Path: stamp.Path}
	if idx.cache != nil {
		seeded, err := idx.cache.Load(cacheKey)
		if err != nil {
			log.WithError(err).Warn("symbol cache load failed, continuing with built-ins only")
		} else {
			table.Seed(seeded)
		}
	}

	pass1Store := kythe.NewStore()
	walker := extract.New(stamp, pass1Store)
	walker.Eval(root)
	if err := walker.Err(); err != nil {
		log.WithError(err).Error("pass 1 extraction failed")
		return nil, fmt.Errorf("indexer: pass 1: %w", err)
	}

	obligations := walker.Deferred()
	log.WithField("deferred", len(obligations)).Debug("pass 1 complete")

	result, err := fixpoint.Run(stamp, table, obligations)
	if err != nil {
		log.WithError(err).Error("pass 2 evaluation failed")
		return nil, fmt.Errorf("indexer: pass 2: %w", err)
	}
	log.WithFields(logrus.Fields{"passes": result.Passes, "symbols": table.Len()}).Info("fixpoint converged")

	// The fixpoint driver keeps only its final pass's accumulator;
	// combine it with Pass 1's facts, which are never re-derived
	// (spec.md section 2).
	if err := pass1Store.Merge(result.Store); err != nil {
		log.WithError(err).Error("merging pass 1 and pass 2 facts")
		return nil, fmt.Errorf("indexer: merge pass facts: %w", err)
	}

	emitFileFacts(pass1Store, stamp, parsed.Meta.ContentsB64)
	emitSymtabSnapshot(pass1Store, stamp, table, idx.config.PythonVersion)

	if idx.cache != nil {
		if err := idx.cache.Save(cacheKey, table.Snapshot()); err != nil {
			log.WithError(err).Warn("symbol cache save failed")
		}
	}

	return pass1Store, nil
}

// emitFileFacts writes the file VName's node/kind=file and
// /kythe/text facts (spec.md section 6).
func emitFileFacts(store *kythe.Store, stamp kythe.Stamp, contentsB64 string) {
	file := kythe.FileVName(stamp.Corpus, stamp.Root, stamp.Path)
	store.FactString(file, kythe.FactNodeKind, kythe.NodeKindFile)
	contents, err := base64.StdEncoding.DecodeString(contentsB64)
	if err == nil {
		store.Fact(file, kythe.FactText, contents)
	}
}

// emitSymtabSnapshot writes the single /kythe/x-symtab debug fact
// (spec.md section 6): the pretty-printed final symbol table, keyed in
// canonical FQN order so the snapshot is itself deterministic, with
// the Python version the parser ran under folded into the same value
// rather than a second top-level fact (SPEC_FULL.md section D).
func emitSymtabSnapshot(store *kythe.Store, stamp kythe.Stamp, table *symtab.Table, pythonVersion int) {
	b := []byte(fmt.Sprintf("python_version: %d\n", pythonVersion))
	for _, fqn := range table.FQNs() {
		u := table.Lookup(fqn)
		b = append(b, []byte(fmt.Sprintf("%s -> %s\n", fqn, u.String()))...)
	}
	file := kythe.FileVName(stamp.Corpus, stamp.Root, stamp.Path)
	store.Fact(file, kythe.FactXSymtab, b)
}
