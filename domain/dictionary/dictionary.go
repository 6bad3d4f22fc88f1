// Package dictionary defines the imported token lists that back label,
// attribute, and predicate IDs. Each dictionary is an ordered mapping
// from text tokens to dense 1-based integer IDs, loaded once and
// immutable for the rest of the session.
package dictionary

import (
	"errors"
	"fmt"
)

// Kind identifies which of the three dictionaries an instance backs.
// The value doubles as the base name of the persisted mapping file.
type Kind string

const (
	KindLabel     Kind = "labels"
	KindAttribute Kind = "attributes"
	KindPredicate Kind = "relationships"
)

// ErrSparseMapping reports a persisted mapping whose IDs are not a
// dense 1..n sequence and therefore cannot index a token list.
var ErrSparseMapping = errors.New("mapping ids are not dense 1..n")

// Dictionary maps imported text tokens to dense 1-based integer IDs by
// line position. ID 0 is reserved: exports use it as "no attribute"
// padding, so no token ever maps to it.
type Dictionary struct {
	kind   Kind
	tokens []string
	ids    map[string]int
}

// New builds a dictionary from tokens in import order. Token i maps to
// ID i+1. If a token repeats, the later position wins for reverse
// lookup, matching how the mapping file would round-trip.
func New(kind Kind, tokens []string) *Dictionary {
	d := &Dictionary{
		kind:   kind,
		tokens: make([]string, len(tokens)),
		ids:    make(map[string]int, len(tokens)),
	}
	copy(d.tokens, tokens)
	for i, tok := range tokens {
		d.ids[tok] = i + 1
	}
	return d
}

// FromMapping reconstructs a dictionary from a persisted token->ID
// mapping, as written next to the export output. The mapping must be a
// bijection onto 1..len: range checks alone would accept two tokens
// sharing an ID and leave another ID without a token.
func FromMapping(kind Kind, mapping map[string]int) (*Dictionary, error) {
	tokens := make([]string, len(mapping))
	seen := make([]bool, len(mapping))
	for tok, id := range mapping {
		if id < 1 || id > len(mapping) {
			return nil, fmt.Errorf("%w: %q = %d of %d", ErrSparseMapping, tok, id, len(mapping))
		}
		if seen[id-1] {
			return nil, fmt.Errorf("%w: %q and %q share id %d", ErrSparseMapping, tokens[id-1], tok, id)
		}
		seen[id-1] = true
		tokens[id-1] = tok
	}
	return New(kind, tokens), nil
}

// Kind returns which dictionary this is.
func (d *Dictionary) Kind() Kind {
	return d.kind
}

// Len returns the number of tokens.
func (d *Dictionary) Len() int {
	return len(d.tokens)
}

// Contains reports whether the ID is defined, i.e. in [1, Len()].
func (d *Dictionary) Contains(id int) bool {
	return id >= 1 && id <= len(d.tokens)
}

// Token returns the text for a dense ID.
func (d *Dictionary) Token(id int) (string, bool) {
	if !d.Contains(id) {
		return "", false
	}
	return d.tokens[id-1], true
}

// ID returns the dense ID for a token.
func (d *Dictionary) ID(token string) (int, bool) {
	id, ok := d.ids[token]
	return id, ok
}

// Tokens returns a copy of the tokens in ID order.
func (d *Dictionary) Tokens() []string {
	out := make([]string, len(d.tokens))
	copy(out, d.tokens)
	return out
}

// Mapping returns the token->ID map persisted alongside exports so
// numeric IDs can be reverse-mapped to their original text.
func (d *Dictionary) Mapping() map[string]int {
	out := make(map[string]int, len(d.ids))
	for tok, id := range d.ids {
		out[tok] = id
	}
	return out
}
