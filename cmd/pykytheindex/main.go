// Command pykytheindex runs the Python semantic indexer over one
// source file and writes newline-delimited Kythe facts/edges to
// standard output (spec.md section 6).
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/hatlesswizard/pykytheindex/pkg/indexer"
	"github.com/hatlesswizard/pykytheindex/pkg/parserproc"
)

// Exit codes (spec.md section 7): 0 on success, non-zero on argument,
// parser, or invariant errors.
const (
	exitOK       = 0
	exitArgError = 1
	exitRunError = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("pykytheindex", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	parsecmd := fs.String("parsecmd", "", "command to invoke the upstream parser")
	kytheCorpus := fs.String("kythe-corpus", "", "corpus field in emitted VNames")
	kytheRoot := fs.String("kythe-root", "", "root field in emitted VNames")
	pythonpath := fs.String("pythonpath", "", "':'-separated import search roots")
	rootpath := fs.String("rootpath", "", "':'-separated prefixes canonicalizing absolute paths into FQNs")
	pythonVersion := fs.Int("python_version", 3, "python version passed to the parser (2 or 3)")
	symcachePath := fs.String("symcache", "", "optional sqlite path caching resolved symbol tables across runs")

	if err := fs.Parse(args); err != nil {
		return exitArgError
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: pykytheindex [flags] <source-path>")
		fs.PrintDefaults()
		return exitArgError
	}
	if *parsecmd == "" {
		fmt.Fprintln(os.Stderr, "pykytheindex: --parsecmd is required")
		return exitArgError
	}
	if *pythonVersion != 2 && *pythonVersion != 3 {
		fmt.Fprintln(os.Stderr, "pykytheindex: --python_version must be 2 or 3")
		return exitArgError
	}

	src := fs.Arg(0)
	module := moduleNameFor(src)

	log := logrus.StandardLogger()
	log.SetFormatter(&logrus.TextFormatter{})

	idx, err := indexer.New(&indexer.Config{
		ParseCmd:      *parsecmd,
		KytheCorpus:   *kytheCorpus,
		KytheRoot:     *kytheRoot,
		PythonPath:    parserproc.SplitPathList(*pythonpath),
		RootPath:      parserproc.SplitPathList(*rootpath),
		PythonVersion: *pythonVersion,
		SymCachePath:  *symcachePath,
		Log:           log,
	})
	if err != nil {
		log.WithError(err).Error("failed to initialize indexer")
		return exitRunError
	}
	defer idx.Close()

	store, err := idx.RunFile(src, module)
	if err != nil {
		log.WithError(err).Error("indexing failed")
		return exitRunError
	}

	if err := store.WriteNDJSON(os.Stdout); err != nil {
		log.WithError(err).Error("failed to write output")
		return exitRunError
	}
	return exitOK
}

// moduleNameFor derives the dotted module name the parser is asked to
// bind src's top-level FQNs under, by stripping a trailing ".py"/".pyi"
// suffix and replacing path separators with dots.
func moduleNameFor(src string) string {
	base := src
	for _, suffix := range []string{".py", ".pyi"} {
		if len(base) > len(suffix) && base[len(base)-len(suffix):] == suffix {
			base = base[:len(base)-len(suffix)]
			break
		}
	}
	out := make([]byte, len(base))
	for i := 0; i < len(base); i++ {
		if base[i] == '/' {
			out[i] = '.'
		} else {
			out[i] = base[i]
		}
	}
	return string(out)
}
