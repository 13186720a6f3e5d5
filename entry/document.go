package entry

import (
	"sort"

	"github.com/teranos/cersei/canonical"
	"github.com/teranos/cersei/errors"
	"github.com/teranos/cersei/wikidata"
)

// Document projects the entry into a Wikidata-shaped entity.
//
// Claims come from claimable values. Per language the lexicographically
// smallest label becomes the label and the remaining labels join the
// aliases; the smallest description wins. When internal is set the
// document also carries free text, scraper cross-references, original
// labels and urls, none of which are ever public.
func (e *Entry) Document(internal bool) (*wikidata.Document, error) {
	doc := wikidata.NewDocument()
	labels := make(map[string][]string)
	aliases := make(map[string][]string)
	descriptions := make(map[string][]string)

	for _, kind := range Kinds() {
		for _, pv := range e.values[kind] {
			switch v := pv.Value.(type) {
			case *StringValue, *ItemValue, *TimeValue, *LocationValue, *QuantityValue, *MonolingualStringValue:
				statement, err := Claim(pv)
				if err != nil {
					return nil, err
				}
				doc.AddClaim(statement)
			case *FreetextValue:
				if internal {
					doc.Freetext = append(doc.Freetext, wikidata.FreetextRef{
						Property: wikidata.PropertyID(pv.Property),
						Value:    v.Text,
					})
				}
			case *ScraperItemValue:
				if internal {
					doc.ScraperItem = append(doc.ScraperItem, wikidata.ScraperRef{
						Property:  wikidata.PropertyID(pv.Property),
						ScraperID: v.ScraperID,
						ExtID:     v.ExtID,
					})
				}
			case *LabelEtcValue:
				switch v.Type {
				case LabelLabel:
					labels[v.Language] = append(labels[v.Language], v.Text)
				case LabelAlias:
					aliases[v.Language] = append(aliases[v.Language], v.Text)
				case LabelDescription:
					descriptions[v.Language] = append(descriptions[v.Language], v.Text)
				case LabelOriginal:
					if internal {
						doc.OriginalLabel = append(doc.OriginalLabel, wikidata.LanguageValue{Language: v.Language, Value: v.Text})
					}
				case LabelURL:
					if internal {
						doc.URL = append(doc.URL, wikidata.LanguageValue{Language: v.Language, Value: v.Text})
					}
				default:
					return nil, errors.AssertionFailedf("unhandled label kind %q", v.Type)
				}
			default:
				return nil, errors.AssertionFailedf("unhandled value type %T", pv.Value)
			}
		}
	}

	for language, texts := range labels {
		sort.Strings(texts)
		doc.Labels[language] = wikidata.LanguageValue{Language: language, Value: texts[0]}
		aliases[language] = append(aliases[language], texts[1:]...)
	}
	for language, texts := range descriptions {
		sort.Strings(texts)
		doc.Descriptions[language] = wikidata.LanguageValue{Language: language, Value: texts[0]}
	}
	for language, texts := range aliases {
		label := doc.Labels[language].Value
		seen := make(map[string]bool, len(texts))
		for _, text := range texts {
			if text == label || seen[text] {
				continue
			}
			seen[text] = true
			doc.Aliases[language] = append(doc.Aliases[language], wikidata.LanguageValue{Language: language, Value: text})
		}
	}

	return doc, nil
}

// CanonicalJSON returns the deterministic JSON of Document(internal).
// Entries with the same content produce the same string whatever order
// their values were added in.
func (e *Entry) CanonicalJSON(internal bool) (string, error) {
	doc, err := e.Document(internal)
	if err != nil {
		return "", err
	}
	return canonical.MarshalString(doc)
}

// Claim builds the statement for a claimable property/value pair,
// attaching its qualifiers and references. Non-claimable qualifier and
// reference values are skipped.
func Claim(pv PropertyValue) (wikidata.Statement, error) {
	c, ok := pv.Value.(Claimable)
	if !ok {
		return wikidata.Statement{}, errors.AssertionFailedf("%s value has no claim form", pv.Value.Kind())
	}
	statement := wikidata.NewStatement(pv.Property, c.DataValue())
	for _, q := range pv.Value.Qualifiers() {
		if qc, ok := q.Value.(Claimable); ok {
			statement.AddQualifier(wikidata.NewSnak(q.Property, qc.DataValue()))
		}
	}
	for _, r := range pv.Value.References() {
		if rc, ok := r.Value.(Claimable); ok {
			statement.AddReference(wikidata.NewSnak(r.Property, rc.DataValue()))
		}
	}
	return statement, nil
}

// QualifierJSON returns the canonical JSON of the claimable qualifiers of v,
// keyed by property, or "" when there are none.
func QualifierJSON(v Value) (string, error) {
	snaks := make(map[string][]wikidata.Snak)
	for _, q := range v.Qualifiers() {
		if qc, ok := q.Value.(Claimable); ok {
			pid := wikidata.PropertyID(q.Property)
			snaks[pid] = append(snaks[pid], wikidata.NewSnak(q.Property, qc.DataValue()))
		}
	}
	if len(snaks) == 0 {
		return "", nil
	}
	return canonical.MarshalString(snaks)
}
