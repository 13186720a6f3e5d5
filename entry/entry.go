// Package entry is the typed value model and the Entry builder.
//
// Scrapers build one Entry per external record through the Add* methods,
// which drop blank input silently and reject malformed properties,
// references and label kinds with typed errors. A populated Entry projects
// itself into a Wikidata-shaped document whose canonical JSON is the unit
// of change detection in storage.
package entry

import (
	"fmt"
	"strings"

	"github.com/teranos/cersei/errors"
)

// Entry is one external record under construction.
// EntryID and RevisionID are assigned by storage on commit.
type Entry struct {
	ScraperID  int
	SourceID   string
	EntryID    int64
	RevisionID int64

	values map[Kind][]PropertyValue
}

// New creates an empty entry for sourceID in scraper scraperID's id-space.
func New(scraperID int, sourceID string) *Entry {
	return &Entry{
		ScraperID: scraperID,
		SourceID:  strings.TrimSpace(sourceID),
		values:    make(map[Kind][]PropertyValue),
	}
}

// CheckValid fails with ErrEntryNotValid, carrying a dump of the entry, when
// the source id is empty.
func (e *Entry) CheckValid() error {
	if strings.TrimSpace(e.SourceID) == "" {
		return errors.NewEntryNotValidError("source id is empty", e.String())
	}
	return nil
}

// Values returns a copy of the property/value pairs of one kind in insertion order.
func (e *Entry) Values(kind Kind) []PropertyValue {
	return append([]PropertyValue(nil), e.values[kind]...)
}

// Len returns the number of property/value pairs across all kinds.
func (e *Entry) Len() int {
	n := 0
	for _, pvs := range e.values {
		n += len(pvs)
	}
	return n
}

// Add appends an already constructed value. Options are applied to v.
func (e *Entry) Add(property interface{}, v Value, opts ...ValueOption) error {
	pv, err := NewPropertyValue(property, v)
	if err != nil {
		return err
	}
	applyOptions(v, opts)
	e.append(pv)
	return nil
}

func (e *Entry) append(pv PropertyValue) {
	if e.values == nil {
		e.values = make(map[Kind][]PropertyValue)
	}
	kind := pv.Value.Kind()
	e.values[kind] = append(e.values[kind], pv)
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// AddString adds a verbatim string value. Blank text is ignored.
func (e *Entry) AddString(property interface{}, text string, opts ...ValueOption) error {
	p, err := NormalizeProperty(property)
	if err != nil || blank(text) {
		return err
	}
	return e.Add(p, NewStringValue(text), opts...)
}

// AddFreetext adds unresolved text, capped at MaxFreetextUnits. Blank text is ignored.
func (e *Entry) AddFreetext(property interface{}, text string, opts ...ValueOption) error {
	p, err := NormalizeProperty(property)
	if err != nil || blank(text) {
		return err
	}
	return e.Add(p, NewFreetextValue(text), opts...)
}

// AddItem adds an item reference such as "Q5". A blank reference is ignored.
func (e *Entry) AddItem(property interface{}, ref string, opts ...ValueOption) error {
	p, err := NormalizeProperty(property)
	if err != nil || blank(ref) {
		return err
	}
	v, err := ParseItemValue(ref)
	if err != nil {
		return err
	}
	return e.Add(p, v, opts...)
}

// AddTime adds a time value. A nil value is ignored.
func (e *Entry) AddTime(property interface{}, t *TimeValue, opts ...ValueOption) error {
	p, err := NormalizeProperty(property)
	if err != nil || t == nil {
		return err
	}
	return e.Add(p, t, opts...)
}

// AddLocation adds a coordinate.
func (e *Entry) AddLocation(property interface{}, latitude, longitude float64, opts ...ValueOption) error {
	p, err := NormalizeProperty(property)
	if err != nil {
		return err
	}
	v, err := NewLocationValue(latitude, longitude)
	if err != nil {
		return err
	}
	return e.Add(p, v, opts...)
}

// AddQuantity adds an amount with an optional unit item ("" for none).
func (e *Entry) AddQuantity(property interface{}, amount float64, unit string, opts ...ValueOption) error {
	p, err := NormalizeProperty(property)
	if err != nil {
		return err
	}
	v, err := NewQuantityValue(amount, unit)
	if err != nil {
		return err
	}
	return e.Add(p, v, opts...)
}

// AddMonolingualString adds language-tagged text. Blank text or language is ignored.
func (e *Entry) AddMonolingualString(property interface{}, language, text string, opts ...ValueOption) error {
	p, err := NormalizeProperty(property)
	if err != nil || blank(text) || blank(language) {
		return err
	}
	return e.Add(p, NewMonolingualStringValue(language, text), opts...)
}

// AddScraperItem adds a reference to extID in another scraper's id-space.
// A blank extID is ignored.
func (e *Entry) AddScraperItem(property interface{}, scraperID int, extID string, opts ...ValueOption) error {
	p, err := NormalizeProperty(property)
	if err != nil || blank(extID) {
		return err
	}
	return e.Add(p, NewScraperItemValue(scraperID, extID), opts...)
}

// AddLabelEtc adds a label, alias, description, original label or url.
// Blank text or language is ignored; an unknown typeName fails with ErrInvalidLabelKind.
// Text longer than MaxLabelRunes is truncated.
func (e *Entry) AddLabelEtc(text, typeName, language string) error {
	v, err := NewLabelEtcValue(text, typeName, language)
	if err != nil {
		return err
	}
	if blank(v.Text) || blank(v.Language) {
		return nil
	}
	e.append(PropertyValue{Property: 0, Value: v})
	return nil
}

// String dumps the entry for humans, grouped by kind in insertion order.
func (e *Entry) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Entry scraper=%d source=%q entry=%d revision=%d\n", e.ScraperID, e.SourceID, e.EntryID, e.RevisionID)
	for _, kind := range Kinds() {
		pvs := e.values[kind]
		if len(pvs) == 0 {
			continue
		}
		fmt.Fprintf(&b, "  %s:\n", kind)
		for _, pv := range pvs {
			fmt.Fprintf(&b, "    %s", pv)
			if q := pv.Value.Qualifiers(); len(q) > 0 {
				parts := make([]string, len(q))
				for i, qv := range q {
					parts[i] = qv.String()
				}
				fmt.Fprintf(&b, " {%s}", strings.Join(parts, "; "))
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}
