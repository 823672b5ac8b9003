package kythe

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
)

// ErrDuplicateEdge is returned when the same (source, kind, target)
// edge is written twice; spec.md section 5 calls this a bug that must
// fail loudly, not be silently de-duplicated like a fact.
var ErrDuplicateEdge = fmt.Errorf("kythe: duplicate edge")

// Record is one emitted line: either a fact (EdgeKind == "") or an edge
// (EdgeKind != ""), matching the two record shapes of spec.md section 6.
type Record struct {
	Source    VName  `json:"source"`
	FactName  string `json:"fact_name"`
	FactValue string `json:"fact_value,omitempty"`
	EdgeKind  string `json:"edge_kind,omitempty"`
	Target    VName  `json:"target,omitempty"`
}

// Store accumulates facts and edges with the exact de-duplication
// discipline of spec.md sections 3 and 5: first-writer-wins on
// (source, fact_name) for facts, and a hard error on a repeated
// (source, kind, target) edge. Emission order is preserved so output
// is deterministic for a fixed input (spec.md section 8).
type Store struct {
	factKeys map[string]bool
	edgeKeys map[string]bool
	records  []Record
}

// NewStore creates an empty fact/edge store.
func NewStore() *Store {
	return &Store{
		factKeys: make(map[string]bool),
		edgeKeys: make(map[string]bool),
	}
}

// Fact writes a fact, encoding value as base64 per the wire format.
// A repeat of the same (source, fact_name) is silently dropped
// (first writer wins).
func (s *Store) Fact(source VName, factName string, value []byte) {
	key := source.key() + "\x00" + factName
	if s.factKeys[key] {
		return
	}
	s.factKeys[key] = true
	s.records = append(s.records, Record{
		Source:    source,
		FactName:  factName,
		FactValue: base64.StdEncoding.EncodeToString(value),
	})
}

// FactString is a convenience wrapper around Fact for string values.
func (s *Store) FactString(source VName, factName, value string) {
	s.Fact(source, factName, []byte(value))
}

// Edge writes an edge. A repeated (source, kind, target) triple is a
// bug: Edge returns ErrDuplicateEdge instead of writing anything.
func (s *Store) Edge(source VName, kind string, target VName) error {
	key := source.key() + "\x00" + kind + "\x00" + target.key()
	if s.edgeKeys[key] {
		return fmt.Errorf("%w: %s -%s-> %s", ErrDuplicateEdge, source.Signature, kind, target.Signature)
	}
	s.edgeKeys[key] = true
	s.records = append(s.records, Record{
		Source:   source,
		FactName: edgeFactValue,
		EdgeKind: kind,
		Target:   target,
	})
	return nil
}

// Anchor writes the loc/start, loc/end and node/kind=anchor facts for
// the source span [start,end) under stamp, and returns its VName.
// Shared by pkg/extract (Pass 1 name bindings/references) and
// pkg/eval (Pass 2 dot resolution), so both passes stamp anchors
// identically.
func (s *Store) Anchor(stamp Stamp, start, end int) VName {
	v := AnchorVName(stamp.Corpus, stamp.Root, stamp.Path, start, end)
	s.FactString(v, FactNodeKind, NodeKindAnchor)
	s.FactString(v, FactLocStart, decimal(start))
	s.FactString(v, FactLocEnd, decimal(end))
	return v
}

// Node returns the VName for a binding target identified by FQN,
// stamped per stamp.
func (s *Store) Node(stamp Stamp, fqn string) VName {
	return NodeVName(stamp.Corpus, stamp.Root, stamp.Language, fqn)
}

func decimal(n int) string {
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

// Merge copies every fact and edge from other into s, through the
// same Fact/Edge calls a direct caller would make, so s's
// de-duplication discipline applies uniformly: a fact already present
// in s wins over other's; a genuinely duplicate edge still surfaces
// ErrDuplicateEdge. Used to combine the Pass 1 extractor's
// accumulator with the fixpoint driver's final-pass accumulator
// (spec.md section 2: "extraction produces (KytheFacts1, Deferred)...
// the emitter drains accumulators at the end").
func (s *Store) Merge(other *Store) error {
	for _, r := range other.records {
		if r.EdgeKind == "" {
			value, err := base64.StdEncoding.DecodeString(r.FactValue)
			if err != nil {
				return fmt.Errorf("kythe: merge: decode fact value: %w", err)
			}
			s.Fact(r.Source, r.FactName, value)
			continue
		}
		if err := s.Edge(r.Source, r.EdgeKind, r.Target); err != nil {
			return err
		}
	}
	return nil
}

// HasFact reports whether a fact was already written for (source, factName).
func (s *Store) HasFact(source VName, factName string) bool {
	return s.factKeys[source.key()+"\x00"+factName]
}

// Len returns the number of records accumulated so far.
func (s *Store) Len() int { return len(s.records) }

// Records returns the accumulated records in emission order.
func (s *Store) Records() []Record { return s.records }

// WriteNDJSON writes every accumulated record as one JSON object per
// line to w (spec.md section 6: "newline-delimited JSON on standard
// output, one object per line").
func (s *Store) WriteNDJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	for _, r := range s.records {
		var line interface{} = r
		if r.EdgeKind == "" {
			// omitempty does not drop a struct-typed field, so a fact
			// is written without the (empty) target explicitly.
			line = struct {
				Source    VName  `json:"source"`
				FactName  string `json:"fact_name"`
				FactValue string `json:"fact_value,omitempty"`
			}{r.Source, r.FactName, r.FactValue}
		}
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("kythe: write record: %w", err)
		}
	}
	return nil
}
