package entry

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/cersei/errors"
	"github.com/teranos/cersei/wikidata"
)

// memTexts is an in-memory text pool.
type memTexts struct {
	ids  map[string]int64
	next int64
}

func newMemTexts() *memTexts { return &memTexts{ids: make(map[string]int64)} }

func (m *memTexts) InternText(_ context.Context, text string) (int64, error) {
	if id, ok := m.ids[text]; ok {
		return id, nil
	}
	m.next++
	m.ids[text] = m.next
	return m.next, nil
}

func TestNormalizeProperty(t *testing.T) {
	valid := []interface{}{"P31", "p31", " P31 ", "31", 31, int64(31)}
	for _, in := range valid {
		got, err := NormalizeProperty(in)
		require.NoError(t, err, "input %#v", in)
		assert.Equal(t, 31, got, "input %#v", in)
	}

	invalid := []interface{}{"X31", "P3x", "", "P", " ", "PP31", "-31", -1, 3.1, nil}
	for _, in := range invalid {
		_, err := NormalizeProperty(in)
		require.Error(t, err, "input %#v", in)
		assert.True(t, errors.Is(err, errors.ErrInvalidProperty), "input %#v", in)
	}
}

func TestParseItemValue(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"Q5", "Q5", true},
		{" q5 ", "Q5", true},
		{"P31", "P31", true},
		{"L7", "L7", true},
		{"http://www.wikidata.org/entity/Q42", "Q42", true},
		{"Q", "", false},
		{"5", "", false},
		{"X5", "", false},
		{"Q5a", "", false},
		{"Q0", "", false},
		{"Q-5", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := ParseItemValue(tt.in)
			if !tt.wantOK {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errors.ErrMalformedReference))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.EntityID())
		})
	}
}

func TestNewLabelEtcValue(t *testing.T) {
	_, err := NewLabelEtcValue("Jane", "nickname", "en")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidLabelKind))

	_, err = NewLabelEtcValue("Jane", "", "en")
	assert.True(t, errors.Is(err, errors.ErrInvalidLabelKind))

	for _, kind := range []string{"original_label", "label", "alias", "description", "url"} {
		v, err := NewLabelEtcValue(" Jane ", kind, " en ")
		require.NoError(t, err)
		assert.Equal(t, "Jane", v.Text)
		assert.Equal(t, "en", v.Language)
	}
}

func TestAddLabelEtc_BlankIsSilentNoOp(t *testing.T) {
	e := New(1, "42")
	require.NoError(t, e.AddLabelEtc(" ", "label", "en"))
	require.NoError(t, e.AddLabelEtc("Jane", "label", " "))
	assert.Equal(t, 0, e.Len())

	err := e.AddLabelEtc(" ", "bogus", "en")
	assert.True(t, errors.Is(err, errors.ErrInvalidLabelKind))
}

func TestAddLabelEtc_TruncatesTo250Runes(t *testing.T) {
	e := New(1, "42")
	require.NoError(t, e.AddLabelEtc(strings.Repeat("é", 300), "label", "fr"))

	pvs := e.Values(KindLabelsEtc)
	require.Len(t, pvs, 1)
	text := pvs[0].Value.(*LabelEtcValue).Text
	assert.Equal(t, 250, len([]rune(text)))
}

func TestFreetextCapInUTF16Units(t *testing.T) {
	// U+1F600 takes two UTF-16 units; 121 of them exceed 240 units
	long := strings.Repeat("\U0001F600", 121)
	v := NewFreetextValue(long)
	assert.Equal(t, 120, len([]rune(v.Text)))

	ascii := NewFreetextValue(strings.Repeat("a", 300))
	assert.Len(t, ascii.Text, MaxFreetextUnits)

	short := NewFreetextValue("  Berlin ")
	assert.Equal(t, "Berlin", short.Text)
}

func TestAddMethods_BlankInputIgnored(t *testing.T) {
	e := New(1, "42")
	require.NoError(t, e.AddString("P214", "   "))
	require.NoError(t, e.AddFreetext("P19", ""))
	require.NoError(t, e.AddItem("P31", " "))
	require.NoError(t, e.AddTime("P569", nil))
	require.NoError(t, e.AddMonolingualString("P1476", "en", " "))
	require.NoError(t, e.AddMonolingualString("P1476", "", "Title"))
	require.NoError(t, e.AddScraperItem("P50", 3, ""))
	assert.Equal(t, 0, e.Len())
}

func TestAddMethods_PropertyCheckedFirst(t *testing.T) {
	e := New(1, "42")
	err := e.AddString("X1", "   ")
	assert.True(t, errors.Is(err, errors.ErrInvalidProperty))

	err = e.AddItem("P31", "Z5")
	assert.True(t, errors.Is(err, errors.ErrMalformedReference))

	// a failed field leaves the entry usable
	require.NoError(t, e.AddItem("P31", "Q5"))
	assert.Equal(t, 1, e.Len())
}

func TestCheckValid(t *testing.T) {
	e := New(7, "  ")
	require.NoError(t, e.AddItem("P31", "Q5"))

	err := e.CheckValid()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrEntryNotValid))
	details := errors.GetAllDetails(err)
	require.Len(t, details, 1)
	assert.Contains(t, details[0], "scraper=7")
	assert.Contains(t, details[0], "P31 Q5")

	assert.NoError(t, New(7, "42").CheckValid())
}

func TestNewTimeValue(t *testing.T) {
	v, err := NewTimeValue(1900, 1, 1, PrecisionYear)
	require.NoError(t, err)
	assert.Equal(t, "+1900-01-01T00:00:00Z", v.Time)
	assert.Equal(t, 9, v.Precision)

	v, err = NewTimeValue(-500, 0, 0, PrecisionYear)
	require.NoError(t, err)
	assert.Equal(t, "-0500-00-00T00:00:00Z", v.Time)

	_, err = NewTimeValue(1900, 1, 1, 15)
	assert.Error(t, err)
	_, err = NewTimeValue(1900, 13, 1, PrecisionDay)
	assert.Error(t, err)
}

func TestParseTimeValue(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1900", "+1900-00-00T00:00:00Z"},
		{"1900-05", "+1900-05-00T00:00:00Z"},
		{"1900-05-17", "+1900-05-17T00:00:00Z"},
		{"+1900-05-17T00:00:00Z", "+1900-05-17T00:00:00Z"},
		{"-0044-03-15", "-0044-03-15T00:00:00Z"},
	}
	for _, tt := range tests {
		v, err := ParseTimeValue(tt.in, PrecisionDay)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, v.Time, tt.in)
	}

	for _, bad := range []string{"", "May 1900", "1900-01-01-01", "19x0"} {
		_, err := ParseTimeValue(bad, PrecisionDay)
		assert.Error(t, err, bad)
	}
}

func TestNewQuantityValue(t *testing.T) {
	q, err := NewQuantityValue(12.5, "")
	require.NoError(t, err)
	assert.Equal(t, `{"value":{"amount":"+12.5","unit":"1"},"type":"quantity"}`, mustJSON(t, q.DataValue()))

	q, err = NewQuantityValue(3, "Q11573")
	require.NoError(t, err)
	assert.Equal(t, "http://www.wikidata.org/entity/Q11573", q.DataValue().Value.(wikidata.Quantity).Unit)

	_, err = NewQuantityValue(3, "P31")
	assert.True(t, errors.Is(err, errors.ErrMalformedReference))
	_, err = NewQuantityValue(math.NaN(), "")
	assert.Error(t, err)
}

func TestNegativeZeroCanonicalizesAsZero(t *testing.T) {
	negZero := math.Copysign(0, -1)

	build := func(amount, lat float64) string {
		e := New(1, "a")
		require.NoError(t, e.AddQuantity("P2048", amount, ""))
		require.NoError(t, e.AddLocation("P625", lat, 13.4))
		out, err := e.CanonicalJSON(true)
		require.NoError(t, err)
		return out
	}

	neg := build(negZero, negZero)
	assert.Equal(t, build(0, 0), neg)
	assert.Contains(t, neg, `"amount":"+0"`)
	assert.NotContains(t, neg, "-0")
}

func mustJSON(t *testing.T, v interface{}) string {
	t.Helper()
	out, err := json.Marshal(v)
	require.NoError(t, err)
	return string(out)
}
