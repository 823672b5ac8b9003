// Package kythe implements the Kythe fact/edge wire model: VNames,
// the de-duplicating fact store, and the newline-delimited JSON
// emitter (spec.md section 6). The vocabulary of fact and edge names
// is grounded on the reference Kythe Go indexer
// (legrosbuffle-kythe/kythe/go/indexer/emit.go), which names these
// same constants via its facts/edges/nodes schema packages.
package kythe

import "fmt"

// Fact name constants used by this indexer (spec.md section 6).
const (
	FactNodeKind  = "/kythe/node/kind"
	FactSubkind   = "/kythe/subkind"
	FactLocStart  = "/kythe/loc/start"
	FactLocEnd    = "/kythe/loc/end"
	FactText      = "/kythe/text"
	FactXSymtab   = "/kythe/x-symtab"
	edgeFactValue = "/"
)

// Node kind values (spec.md sections 4.3 and 6).
const (
	NodeKindAnchor   = "anchor"
	NodeKindVariable = "variable"
	NodeKindFunction = "function"
	NodeKindRecord   = "record"
	NodeKindFile     = "file"
)

// Subkind values.
const (
	SubkindClass = "class"
)

// Edge kind constants (spec.md sections 3 and 4.3).
const (
	EdgeDefinesBinding = "/kythe/edge/defines/binding"
	EdgeRef            = "/kythe/edge/ref"
)

// Stamp carries the process-scoped VName fields derived once from the
// parser's Meta record (spec.md section 4.2) and used to stamp every
// anchor and node VName emitted for one file.
type Stamp struct {
	Corpus   string
	Root     string
	Path     string // canonicalized file path
	Language string
}

// VName is a Kythe node identifier: (corpus, root, path, language,
// signature), with empty fields omitted on the wire (spec.md
// section 6).
type VName struct {
	Corpus    string `json:"corpus,omitempty"`
	Root      string `json:"root,omitempty"`
	Path      string `json:"path,omitempty"`
	Language  string `json:"language,omitempty"`
	Signature string `json:"signature,omitempty"`
}

// FileVName builds the VName identifying the indexed file itself.
func FileVName(corpus, root, path string) VName {
	return VName{Corpus: corpus, Root: root, Path: path}
}

// AnchorVName builds the VName for a source span; anchors use
// signature "@start:end" and never carry a language.
func AnchorVName(corpus, root, path string, start, end int) VName {
	return VName{Corpus: corpus, Root: root, Path: path, Signature: fmt.Sprintf("@%d:%d", start, end)}
}

// NodeVName builds the VName for a binding target identified by FQN;
// node VNames carry language but omit path (spec.md section 6).
func NodeVName(corpus, root, language, fqn string) VName {
	return VName{Corpus: corpus, Root: root, Language: language, Signature: fqn}
}

// key returns a comparable identity for a VName, used as a map key
// component by the fact/edge store.
func (v VName) key() string {
	return v.Corpus + "\x00" + v.Root + "\x00" + v.Path + "\x00" + v.Language + "\x00" + v.Signature
}
