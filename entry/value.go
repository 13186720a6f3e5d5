package entry

import (
	"context"

	"github.com/teranos/cersei/wikidata"
)

// TextInterner stores text once and returns its surrogate id.
// Repeated calls with the same text return the same id.
type TextInterner interface {
	InternText(ctx context.Context, text string) (int64, error)
}

// StorageShape describes where a value is stored: its table and the
// kind-specific columns, excluding id, revision_id, property and qualifiers.
type StorageShape struct {
	Table  string
	Fields []string
}

// Value is one of the closed set of value variants defined in this package.
// The unexported method keeps the set closed; switches over values handle
// every variant and treat anything else as an assertion failure.
type Value interface {
	Kind() Kind
	StorageShape() StorageShape
	// StorageValues materializes the Fields of StorageShape, interning free text.
	StorageValues(ctx context.Context, texts TextInterner) ([]interface{}, error)
	Qualifiers() []PropertyValue
	References() []PropertyValue
	String() string

	sortKey() string
	annotations() *annotated
}

// Claimable values have a Wikidata claim form.
// Freetext, scraper references and labels do not.
type Claimable interface {
	Value
	DataValue() wikidata.DataValue
}

// Less is a strict weak ordering over values: by kind, then by a kind-specific key.
// It exists for deterministic output only and carries no domain meaning.
func Less(a, b Value) bool {
	if a.Kind() != b.Kind() {
		return a.Kind() < b.Kind()
	}
	return a.sortKey() < b.sortKey()
}

// annotated holds the qualifiers and references every value carries.
type annotated struct {
	qualifiers []PropertyValue
	references []PropertyValue
}

func (a *annotated) Qualifiers() []PropertyValue {
	return append([]PropertyValue(nil), a.qualifiers...)
}

func (a *annotated) References() []PropertyValue {
	return append([]PropertyValue(nil), a.references...)
}

func (a *annotated) annotations() *annotated { return a }

// ValueOption attaches qualifiers or references to a value as it is added.
type ValueOption func(*annotated)

// WithQualifiers attaches qualifier property/value pairs.
// The slice is copied; later changes by the caller have no effect.
func WithQualifiers(qualifiers ...PropertyValue) ValueOption {
	copied := append([]PropertyValue(nil), qualifiers...)
	return func(a *annotated) {
		a.qualifiers = append(a.qualifiers, copied...)
	}
}

// WithReferences attaches provenance property/value pairs.
func WithReferences(references ...PropertyValue) ValueOption {
	copied := append([]PropertyValue(nil), references...)
	return func(a *annotated) {
		a.references = append(a.references, copied...)
	}
}

func applyOptions(v Value, opts []ValueOption) {
	a := v.annotations()
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
}
