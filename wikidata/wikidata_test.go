package wikidata

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityTypeLetters(t *testing.T) {
	for _, letter := range []byte{'Q', 'P', 'L'} {
		et, ok := EntityTypeForLetter(letter)
		require.True(t, ok)
		assert.Equal(t, string(letter), et.Letter())
	}
	_, ok := EntityTypeForLetter('X')
	assert.False(t, ok)
	assert.Equal(t, "", EntityType("form").Letter())
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "+12", FormatAmount(12))
	assert.Equal(t, "+0", FormatAmount(0))
	assert.Equal(t, "-3.25", FormatAmount(-3.25))
	assert.Equal(t, "+0.5", FormatAmount(0.5))
	assert.Equal(t, "+0", FormatAmount(math.Copysign(0, -1)))
}

func TestStatementJSON(t *testing.T) {
	s := NewStatement(569, TimeValue("+1900-01-01T00:00:00Z", 9))
	out, err := json.Marshal(s)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"mainsnak": {
			"snaktype": "value",
			"property": "P569",
			"datavalue": {
				"value": {
					"time": "+1900-01-01T00:00:00Z",
					"precision": 9,
					"timezone": 0,
					"before": 0,
					"after": 0,
					"calendarmodel": "http://www.wikidata.org/entity/Q1985727"
				},
				"type": "time"
			}
		},
		"type": "statement",
		"rank": "normal"
	}`, string(out))
}

func TestStatementQualifiersAndReferences(t *testing.T) {
	s := NewStatement(106, EntityIDValue(EntityItem, "Q1028181"))
	s.AddQualifier(NewSnak(580, TimeValue("+1920-00-00T00:00:00Z", 9)))
	s.AddQualifier(NewSnak(580, TimeValue("+1921-00-00T00:00:00Z", 9)))
	s.AddReference(NewSnak(854, StringValue("https://example.org/record/7")))

	require.Len(t, s.Qualifiers["P580"], 2)
	require.Len(t, s.References, 1)
	assert.Equal(t, "P854", s.References[0].Snaks["P854"][0].Property)
}

func TestGlobeCoordinateAltitudeIsNull(t *testing.T) {
	out, err := json.Marshal(GlobeCoordinateValue(52.52, 13.4, 0.01))
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":{"latitude":52.52,"longitude":13.4,"altitude":null,"precision":0.01,"globe":"http://www.wikidata.org/entity/Q2"},"type":"globecoordinate"}`, string(out))
}

func TestNewDocumentEncodesEmptyObjects(t *testing.T) {
	out, err := json.Marshal(NewDocument())
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"item","labels":{},"descriptions":{},"aliases":{},"claims":{},"sitelinks":{}}`, string(out))
}

func TestEntityURI(t *testing.T) {
	assert.Equal(t, "http://www.wikidata.org/entity/Q11573", EntityURI("Q11573"))
}
