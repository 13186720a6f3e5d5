package entry

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/cersei/wikidata"
)

func birthYear(t *testing.T, year int) *TimeValue {
	t.Helper()
	v, err := NewTimeValue(year, 1, 1, PrecisionYear)
	require.NoError(t, err)
	return v
}

func TestCanonicalJSON_OrderIndependent(t *testing.T) {
	build := func(reverse bool) *Entry {
		steps := []func(e *Entry) error{
			func(e *Entry) error { return e.AddItem("P31", "Q5") },
			func(e *Entry) error { return e.AddItem("P106", "Q1028181") },
			func(e *Entry) error { return e.AddItem("P106", "Q483501") },
			func(e *Entry) error { return e.AddLabelEtc("Jane Doe", "label", "en") },
			func(e *Entry) error { return e.AddLabelEtc("J. Doe", "alias", "en") },
			func(e *Entry) error { return e.AddString("P214", "12345") },
			func(e *Entry) error { return e.AddFreetext("P19", "Springfield") },
			func(e *Entry) error { return e.AddScraperItem("P737", 4, "a-17") },
			func(e *Entry) error { return e.AddTime("P569", birthYear(t, 1900)) },
			func(e *Entry) error { return e.AddLocation("P625", 52.52, 13.405) },
		}
		e := New(1, "42")
		for i := range steps {
			step := steps[i]
			if reverse {
				step = steps[len(steps)-1-i]
			}
			require.NoError(t, step(e))
		}
		return e
	}

	forward, err := build(false).CanonicalJSON(true)
	require.NoError(t, err)
	backward, err := build(true).CanonicalJSON(true)
	require.NoError(t, err)
	again, err := build(false).CanonicalJSON(true)
	require.NoError(t, err)

	assert.Equal(t, forward, backward)
	assert.Equal(t, forward, again)
}

func TestDocument_ExampleEntry(t *testing.T) {
	e := New(1, "42")
	require.NoError(t, e.AddItem("P31", "Q5"))
	require.NoError(t, e.AddLabelEtc("Jane Doe", "label", "en"))

	first, err := e.CanonicalJSON(true)
	require.NoError(t, err)
	assert.Equal(t,
		`{"aliases":{},"claims":{"P31":[{"mainsnak":{"datavalue":{"type":"wikibase-entityid","value":{"entity-type":"item","id":"Q5"}},"property":"P31","snaktype":"value"},"rank":"normal","type":"statement"}]},"descriptions":{},"labels":{"en":{"language":"en","value":"Jane Doe"}},"sitelinks":{},"type":"item"}`,
		first)

	require.NoError(t, e.AddTime("P569", birthYear(t, 1900)))
	second, err := e.CanonicalJSON(true)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	before := claimsOf(t, first)
	after := claimsOf(t, second)
	assert.JSONEq(t, string(before["P31"]), string(after["P31"]))
	assert.Contains(t, after, "P569")
}

func claimsOf(t *testing.T, doc string) map[string]json.RawMessage {
	t.Helper()
	var top struct {
		Claims map[string]json.RawMessage `json:"claims"`
	}
	require.NoError(t, json.Unmarshal([]byte(doc), &top))
	return top.Claims
}

func TestDocument_LabelSelection(t *testing.T) {
	e := New(1, "42")
	require.NoError(t, e.AddLabelEtc("Doe, Jane", "label", "en"))
	require.NoError(t, e.AddLabelEtc("Jane Doe", "label", "en"))
	require.NoError(t, e.AddLabelEtc("Jane Doe", "alias", "en"))
	require.NoError(t, e.AddLabelEtc("JD", "alias", "en"))
	require.NoError(t, e.AddLabelEtc("Painter", "description", "en"))
	require.NoError(t, e.AddLabelEtc("American painter", "description", "en"))
	require.NoError(t, e.AddLabelEtc("Jeanne Doe", "label", "fr"))

	doc, err := e.Document(false)
	require.NoError(t, err)

	assert.Equal(t, "Doe, Jane", doc.Labels["en"].Value)
	assert.Equal(t, "Jeanne Doe", doc.Labels["fr"].Value)
	assert.ElementsMatch(t, []wikidata.LanguageValue{
		{Language: "en", Value: "Jane Doe"},
		{Language: "en", Value: "JD"},
	}, doc.Aliases["en"])
	assert.Equal(t, "American painter", doc.Descriptions["en"].Value)
	assert.NotContains(t, doc.Aliases, "fr")
}

func TestDocument_InternalBlock(t *testing.T) {
	e := New(1, "42")
	require.NoError(t, e.AddFreetext("P19", "Springfield"))
	require.NoError(t, e.AddScraperItem("P737", 4, "a-17"))
	require.NoError(t, e.AddLabelEtc("Jane  DOE", "original_label", "en"))
	require.NoError(t, e.AddLabelEtc("https://example.org/p/42", "url", ""))
	require.NoError(t, e.AddLabelEtc("https://example.org/p/42", "url", "en"))

	public, err := e.Document(false)
	require.NoError(t, err)
	assert.Empty(t, public.Freetext)
	assert.Empty(t, public.ScraperItem)
	assert.Empty(t, public.OriginalLabel)
	assert.Empty(t, public.URL)
	assert.Empty(t, public.Claims)

	internal, err := e.Document(true)
	require.NoError(t, err)
	assert.Equal(t, []wikidata.FreetextRef{{Property: "P19", Value: "Springfield"}}, internal.Freetext)
	assert.Equal(t, []wikidata.ScraperRef{{Property: "P737", ScraperID: 4, ExtID: "a-17"}}, internal.ScraperItem)
	assert.Equal(t, []wikidata.LanguageValue{{Language: "en", Value: "Jane  DOE"}}, internal.OriginalLabel)
	assert.Len(t, internal.URL, 1)

	publicJSON, err := e.CanonicalJSON(false)
	require.NoError(t, err)
	assert.NotContains(t, publicJSON, "freetext")
	assert.NotContains(t, publicJSON, "scraper_item")
}

func TestDocument_QualifiersAndReferences(t *testing.T) {
	start, err := NewTimeValue(1920, 0, 0, PrecisionYear)
	require.NoError(t, err)

	e := New(1, "42")
	require.NoError(t, e.AddItem("P106", "Q1028181",
		WithQualifiers(
			MustPropertyValue("P580", start),
			MustPropertyValue("P1932", NewFreetextValue("painter")), // no claim form, skipped
		),
		WithReferences(MustPropertyValue("P854", NewStringValue("https://example.org/r/1"))),
	))

	doc, err := e.Document(false)
	require.NoError(t, err)
	require.Len(t, doc.Claims["P106"], 1)
	claim := doc.Claims["P106"][0]
	require.Len(t, claim.Qualifiers["P580"], 1)
	assert.NotContains(t, claim.Qualifiers, "P1932")
	require.Len(t, claim.References, 1)
	assert.Contains(t, claim.References[0].Snaks, "P854")
}

func TestWithQualifiers_NoSharedState(t *testing.T) {
	q := []PropertyValue{MustPropertyValue("P580", NewStringValue("a"))}
	opt := WithQualifiers(q...)
	q[0] = MustPropertyValue("P582", NewStringValue("b"))

	e := New(1, "42")
	require.NoError(t, e.AddString("P214", "x", opt))
	require.NoError(t, e.AddString("P214", "y"))

	values := e.Values(KindString)
	require.Len(t, values, 2)
	require.Len(t, values[0].Value.Qualifiers(), 1)
	assert.Equal(t, 580, values[0].Value.Qualifiers()[0].Property)
	assert.Empty(t, values[1].Value.Qualifiers(), "values added without options never see another call's qualifiers")
}

func TestRows(t *testing.T) {
	start, err := NewTimeValue(1920, 0, 0, PrecisionYear)
	require.NoError(t, err)

	e := New(1, "42")
	require.NoError(t, e.AddItem("P106", "Q483501"))
	require.NoError(t, e.AddItem("P31", "Q5", WithQualifiers(MustPropertyValue("P580", start))))
	require.NoError(t, e.AddLabelEtc("Jane Doe", "label", "en"))
	require.NoError(t, e.AddMonolingualString("P1559", "en", "Jane Doe"))

	texts := newMemTexts()
	tables, err := e.Rows(context.Background(), texts, 9)
	require.NoError(t, err)
	require.Len(t, tables, 3)

	assert.Equal(t, KindItem, tables[0].Kind)
	assert.Equal(t, []string{"revision_id", "property", "qualifiers_text_id", "item_id", "item_type"}, tables[0].Columns)
	require.Len(t, tables[0].Rows, 2)
	// sorted by property
	assert.Equal(t, 31, tables[0].Rows[0][1])
	assert.NotEqual(t, int64(0), tables[0].Rows[0][2], "qualifier blob interned")
	assert.Equal(t, []interface{}{int64(9), 106, int64(0), int64(483501), "item"}, tables[0].Rows[1])

	assert.Equal(t, KindMonolingualString, tables[1].Kind)
	languageID := texts.ids["en"]
	textID := texts.ids["Jane Doe"]
	assert.Equal(t, []interface{}{int64(9), 1559, int64(0), languageID, textID}, tables[1].Rows[0])

	assert.Equal(t, KindLabelsEtc, tables[2].Kind)
	assert.Equal(t, []string{"revision_id", "type_name", "language_id", "text_id"}, tables[2].Columns)
	assert.Equal(t, []interface{}{int64(9), "label", languageID, textID}, tables[2].Rows[0])

	blobID := tables[0].Rows[0][2].(int64)
	var blob string
	for text, id := range texts.ids {
		if id == blobID {
			blob = text
		}
	}
	assert.JSONEq(t, `{"P580":[{"snaktype":"value","property":"P580","datavalue":{"value":{"time":"+1920-00-00T00:00:00Z","precision":9,"timezone":0,"before":0,"after":0,"calendarmodel":"http://www.wikidata.org/entity/Q1985727"},"type":"time"}}]}`, blob)
}

func TestEntryString(t *testing.T) {
	e := New(3, "42")
	require.NoError(t, e.AddItem("P31", "Q5"))
	require.NoError(t, e.AddLabelEtc("Jane Doe", "label", "en"))

	out := e.String()
	assert.Contains(t, out, `Entry scraper=3 source="42"`)
	assert.Contains(t, out, "P31 Q5")
	assert.Contains(t, out, `label[en] "Jane Doe"`)
}

func TestLessIsStrictWeakOrdering(t *testing.T) {
	a := NewItemValue(5)
	b := NewItemValue(42)
	s := NewStringValue("x")

	assert.True(t, Less(a, b))
	assert.False(t, Less(b, a))
	assert.False(t, Less(a, a))
	// kinds order first: "item" < "string"
	assert.True(t, Less(b, s))
}
