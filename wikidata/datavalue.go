// Package wikidata holds the JSON shapes of Wikidata entities: datavalues,
// snaks, statements and the entity document cersei projects entries into.
package wikidata

import (
	"fmt"
	"math"
	"strconv"
)

// Concept URIs used inside datavalues.
const (
	EntityURIPrefix   = "http://www.wikidata.org/entity/"
	CalendarGregorian = EntityURIPrefix + "Q1985727"
	GlobeEarth        = EntityURIPrefix + "Q2"
)

// Datavalue type names.
const (
	TypeString          = "string"
	TypeMonolingualText = "monolingualtext"
	TypeEntityID        = "wikibase-entityid"
	TypeTime            = "time"
	TypeGlobeCoordinate = "globecoordinate"
	TypeQuantity        = "quantity"
)

// EntityType is the kind of entity an id refers to.
type EntityType string

const (
	EntityItem     EntityType = "item"
	EntityProperty EntityType = "property"
	EntityLexeme   EntityType = "lexeme"
)

// Letter returns the id prefix of the entity type ("Q", "P", "L").
func (t EntityType) Letter() string {
	switch t {
	case EntityItem:
		return "Q"
	case EntityProperty:
		return "P"
	case EntityLexeme:
		return "L"
	}
	return ""
}

// EntityTypeForLetter maps an id prefix back to its entity type.
func EntityTypeForLetter(letter byte) (EntityType, bool) {
	switch letter {
	case 'Q':
		return EntityItem, true
	case 'P':
		return EntityProperty, true
	case 'L':
		return EntityLexeme, true
	}
	return "", false
}

// PropertyID renders a property number with its leading P.
func PropertyID(property int) string {
	return "P" + strconv.Itoa(property)
}

// DataValue is the {"value": ..., "type": ...} pair inside a snak.
type DataValue struct {
	Value interface{} `json:"value"`
	Type  string      `json:"type"`
}

// EntityID is the value of a wikibase-entityid datavalue.
type EntityID struct {
	EntityType EntityType `json:"entity-type"`
	ID         string     `json:"id"`
}

// MonolingualText is the value of a monolingualtext datavalue.
type MonolingualText struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// Time is the value of a time datavalue.
type Time struct {
	Time          string `json:"time"`
	Precision     int    `json:"precision"`
	Timezone      int    `json:"timezone"`
	Before        int    `json:"before"`
	After         int    `json:"after"`
	CalendarModel string `json:"calendarmodel"`
}

// GlobeCoordinate is the value of a globecoordinate datavalue.
type GlobeCoordinate struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Altitude  *float64 `json:"altitude"`
	Precision float64  `json:"precision"`
	Globe     string   `json:"globe"`
}

// Quantity is the value of a quantity datavalue.
type Quantity struct {
	Amount string `json:"amount"`
	Unit   string `json:"unit"`
}

// StringValue builds a string datavalue.
func StringValue(text string) DataValue {
	return DataValue{Value: text, Type: TypeString}
}

// MonolingualValue builds a monolingualtext datavalue.
func MonolingualValue(language, text string) DataValue {
	return DataValue{Value: MonolingualText{Text: text, Language: language}, Type: TypeMonolingualText}
}

// EntityIDValue builds a wikibase-entityid datavalue.
func EntityIDValue(entityType EntityType, id string) DataValue {
	return DataValue{Value: EntityID{EntityType: entityType, ID: id}, Type: TypeEntityID}
}

// TimeValue builds a Gregorian time datavalue with timezone and bounds at zero.
func TimeValue(timestamp string, precision int) DataValue {
	return DataValue{
		Value: Time{
			Time:          timestamp,
			Precision:     precision,
			CalendarModel: CalendarGregorian,
		},
		Type: TypeTime,
	}
}

// GlobeCoordinateValue builds an Earth globecoordinate datavalue.
func GlobeCoordinateValue(latitude, longitude, precision float64) DataValue {
	return DataValue{
		Value: GlobeCoordinate{
			Latitude:  latitude,
			Longitude: longitude,
			Precision: precision,
			Globe:     GlobeEarth,
		},
		Type: TypeGlobeCoordinate,
	}
}

// QuantityValue builds a quantity datavalue. unit is "1" for dimensionless amounts
// or the concept URI of the unit item.
func QuantityValue(amount float64, unit string) DataValue {
	return DataValue{Value: Quantity{Amount: FormatAmount(amount), Unit: unit}, Type: TypeQuantity}
}

// FormatAmount renders a quantity amount with an explicit sign, as Wikidata does.
func FormatAmount(amount float64) string {
	if amount == 0 {
		amount = 0 // -0 renders as "+0"
	}
	s := strconv.FormatFloat(amount, 'f', -1, 64)
	if !math.Signbit(amount) {
		return "+" + s
	}
	return s
}

// EntityURI returns the concept URI of an entity id such as "Q11573".
func EntityURI(id string) string {
	return fmt.Sprintf("%s%s", EntityURIPrefix, id)
}
