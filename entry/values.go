package entry

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/teranos/cersei/errors"
	"github.com/teranos/cersei/wikidata"
)

// Limits applied when text is stored.
const (
	MaxFreetextUnits = 240 // UTF-16 code units
	MaxLabelRunes    = 250
)

// Time precision codes.
const (
	PrecisionYear  = 9
	PrecisionMonth = 10
	PrecisionDay   = 11
	maxPrecision   = 14
)

// LocationPrecision is the fixed precision of every coordinate.
const LocationPrecision = 0.01

// StringValue is an external identifier or other verbatim string.
type StringValue struct {
	annotated
	Text string
}

// NewStringValue trims text and wraps it.
func NewStringValue(text string) *StringValue {
	return &StringValue{Text: strings.TrimSpace(text)}
}

func (v *StringValue) Kind() Kind { return KindString }
func (v *StringValue) StorageShape() StorageShape {
	return StorageShape{Table: string(KindString), Fields: []string{"text_id"}}
}
func (v *StringValue) StorageValues(ctx context.Context, texts TextInterner) ([]interface{}, error) {
	id, err := texts.InternText(ctx, v.Text)
	if err != nil {
		return nil, err
	}
	return []interface{}{id}, nil
}
func (v *StringValue) DataValue() wikidata.DataValue { return wikidata.StringValue(v.Text) }
func (v *StringValue) String() string                { return strconv.Quote(v.Text) }
func (v *StringValue) sortKey() string               { return v.Text }

// FreetextValue is unresolved text waiting to become an item reference.
type FreetextValue struct {
	annotated
	Text string
}

// NewFreetextValue trims text and caps it at MaxFreetextUnits UTF-16 code units.
func NewFreetextValue(text string) *FreetextValue {
	return &FreetextValue{Text: truncateUTF16(strings.TrimSpace(text), MaxFreetextUnits)}
}

func (v *FreetextValue) Kind() Kind { return KindFreetext }
func (v *FreetextValue) StorageShape() StorageShape {
	return StorageShape{Table: string(KindFreetext), Fields: []string{"text_id"}}
}
func (v *FreetextValue) StorageValues(ctx context.Context, texts TextInterner) ([]interface{}, error) {
	id, err := texts.InternText(ctx, v.Text)
	if err != nil {
		return nil, err
	}
	return []interface{}{id}, nil
}
func (v *FreetextValue) String() string  { return "freetext " + strconv.Quote(v.Text) }
func (v *FreetextValue) sortKey() string { return v.Text }

// ItemValue references an entity by type letter and number, e.g. Q5.
type ItemValue struct {
	annotated
	Type wikidata.EntityType
	ID   int64
}

// NewItemValue builds an item (Q) reference.
func NewItemValue(id int64) *ItemValue {
	return &ItemValue{Type: wikidata.EntityItem, ID: id}
}

// ParseItemValue parses "Q5", " q5 ", "P31", "L7" or a concept URI ending in one of them.
// It fails with ErrMalformedReference on anything shorter than two characters,
// an unknown type letter, or a non-numeric remainder.
func ParseItemValue(ref string) (*ItemValue, error) {
	s := strings.ToUpper(strings.TrimSpace(ref))
	s = strings.TrimPrefix(s, strings.ToUpper(wikidata.EntityURIPrefix))
	if len(s) < 2 {
		return nil, errors.NewMalformedReferenceError("reference %q is too short", ref)
	}
	entityType, ok := wikidata.EntityTypeForLetter(s[0])
	if !ok {
		return nil, errors.NewMalformedReferenceError("reference %q has unknown type letter %q", ref, s[:1])
	}
	for _, r := range s[1:] {
		if r < '0' || r > '9' {
			return nil, errors.NewMalformedReferenceError("reference %q is not numeric", ref)
		}
	}
	id, err := strconv.ParseInt(s[1:], 10, 64)
	if err != nil || id <= 0 {
		return nil, errors.NewMalformedReferenceError("reference %q is out of range", ref)
	}
	return &ItemValue{Type: entityType, ID: id}, nil
}

// EntityID renders the reference, e.g. "Q5".
func (v *ItemValue) EntityID() string {
	return v.Type.Letter() + strconv.FormatInt(v.ID, 10)
}

func (v *ItemValue) Kind() Kind { return KindItem }
func (v *ItemValue) StorageShape() StorageShape {
	return StorageShape{Table: string(KindItem), Fields: []string{"item_id", "item_type"}}
}
func (v *ItemValue) StorageValues(context.Context, TextInterner) ([]interface{}, error) {
	return []interface{}{v.ID, string(v.Type)}, nil
}
func (v *ItemValue) DataValue() wikidata.DataValue {
	return wikidata.EntityIDValue(v.Type, v.EntityID())
}
func (v *ItemValue) String() string  { return v.EntityID() }
func (v *ItemValue) sortKey() string { return fmt.Sprintf("%s%020d", v.Type.Letter(), v.ID) }

// TimeValue is a Gregorian timestamp with a precision code.
type TimeValue struct {
	annotated
	Time      string
	Precision int
}

// NewTimeValue formats year/month/day as "+YYYY-MM-DDT00:00:00Z".
// Month and day may be 0 for year or month precision.
func NewTimeValue(year, month, day, precision int) (*TimeValue, error) {
	if precision < 0 || precision > maxPrecision {
		return nil, errors.NewInvalidRequestError("time precision %d outside 0..%d", precision, maxPrecision)
	}
	if month < 0 || month > 12 {
		return nil, errors.NewInvalidRequestError("month %d outside 0..12", month)
	}
	if day < 0 || day > 31 {
		return nil, errors.NewInvalidRequestError("day %d outside 0..31", day)
	}
	return &TimeValue{
		Time:      fmt.Sprintf("%+05d-%02d-%02dT00:00:00Z", year, month, day),
		Precision: precision,
	}, nil
}

// ParseTimeValue accepts "YYYY", "YYYY-MM", "YYYY-MM-DD" with an optional
// sign, or a full "+YYYY-MM-DDT00:00:00Z" timestamp.
func ParseTimeValue(text string, precision int) (*TimeValue, error) {
	s := strings.TrimSpace(text)
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		s = s[:i]
	}
	sign := 1
	switch {
	case strings.HasPrefix(s, "-"):
		sign = -1
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	parts := strings.Split(s, "-")
	if len(parts) > 3 || parts[0] == "" {
		return nil, errors.NewInvalidRequestError("time %q is not YYYY[-MM[-DD]]", text)
	}
	nums := make([]int, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return nil, errors.NewInvalidRequestError("time %q is not YYYY[-MM[-DD]]", text)
		}
		nums[i] = n
	}
	return NewTimeValue(sign*nums[0], nums[1], nums[2], precision)
}

func (v *TimeValue) Kind() Kind { return KindTime }
func (v *TimeValue) StorageShape() StorageShape {
	return StorageShape{Table: string(KindTime), Fields: []string{"value", "precision"}}
}
func (v *TimeValue) StorageValues(context.Context, TextInterner) ([]interface{}, error) {
	return []interface{}{v.Time, v.Precision}, nil
}
func (v *TimeValue) DataValue() wikidata.DataValue { return wikidata.TimeValue(v.Time, v.Precision) }
func (v *TimeValue) String() string                { return fmt.Sprintf("%s/%d", v.Time, v.Precision) }
func (v *TimeValue) sortKey() string               { return fmt.Sprintf("%s/%02d", v.Time, v.Precision) }

// LocationValue is a coordinate on Earth.
type LocationValue struct {
	annotated
	Latitude  float64
	Longitude float64
}

// NewLocationValue validates the coordinate ranges.
func NewLocationValue(latitude, longitude float64) (*LocationValue, error) {
	if math.IsNaN(latitude) || latitude < -90 || latitude > 90 {
		return nil, errors.NewInvalidRequestError("latitude %v outside -90..90", latitude)
	}
	if math.IsNaN(longitude) || longitude < -360 || longitude > 360 {
		return nil, errors.NewInvalidRequestError("longitude %v outside -360..360", longitude)
	}
	if latitude == 0 {
		latitude = 0
	}
	if longitude == 0 {
		longitude = 0
	}
	return &LocationValue{Latitude: latitude, Longitude: longitude}, nil
}

func (v *LocationValue) Kind() Kind { return KindLocation }
func (v *LocationValue) StorageShape() StorageShape {
	return StorageShape{Table: string(KindLocation), Fields: []string{"latitude", "longitude"}}
}
func (v *LocationValue) StorageValues(context.Context, TextInterner) ([]interface{}, error) {
	return []interface{}{v.Latitude, v.Longitude}, nil
}
func (v *LocationValue) DataValue() wikidata.DataValue {
	return wikidata.GlobeCoordinateValue(v.Latitude, v.Longitude, LocationPrecision)
}
func (v *LocationValue) String() string {
	return fmt.Sprintf("@%s,%s", formatFloat(v.Latitude), formatFloat(v.Longitude))
}
func (v *LocationValue) sortKey() string { return v.String() }

// QuantityValue is an amount with an optional unit item.
type QuantityValue struct {
	annotated
	Amount float64
	Unit   *ItemValue
}

// NewQuantityValue parses unit as an item reference; an empty unit means dimensionless.
func NewQuantityValue(amount float64, unit string) (*QuantityValue, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return nil, errors.NewInvalidRequestError("quantity amount %v is not finite", amount)
	}
	if amount == 0 {
		amount = 0 // drop the sign of -0
	}
	q := &QuantityValue{Amount: amount}
	if strings.TrimSpace(unit) == "" {
		return q, nil
	}
	u, err := ParseItemValue(unit)
	if err != nil {
		return nil, err
	}
	if u.Type != wikidata.EntityItem {
		return nil, errors.NewMalformedReferenceError("unit %q must be an item", unit)
	}
	q.Unit = u
	return q, nil
}

func (v *QuantityValue) unitID() int64 {
	if v.Unit == nil {
		return 0
	}
	return v.Unit.ID
}

func (v *QuantityValue) Kind() Kind { return KindQuantity }
func (v *QuantityValue) StorageShape() StorageShape {
	return StorageShape{Table: string(KindQuantity), Fields: []string{"amount", "unit_item_id"}}
}
func (v *QuantityValue) StorageValues(context.Context, TextInterner) ([]interface{}, error) {
	return []interface{}{v.Amount, v.unitID()}, nil
}
func (v *QuantityValue) DataValue() wikidata.DataValue {
	unit := "1"
	if v.Unit != nil {
		unit = wikidata.EntityURI(v.Unit.EntityID())
	}
	return wikidata.QuantityValue(v.Amount, unit)
}
func (v *QuantityValue) String() string {
	if v.Unit == nil {
		return wikidata.FormatAmount(v.Amount)
	}
	return wikidata.FormatAmount(v.Amount) + " " + v.Unit.EntityID()
}
func (v *QuantityValue) sortKey() string { return fmt.Sprintf("%020d/%s", v.unitID(), formatFloat(v.Amount)) }

// MonolingualStringValue is text in a known language.
type MonolingualStringValue struct {
	annotated
	Language string
	Text     string
}

// NewMonolingualStringValue trims both parts.
func NewMonolingualStringValue(language, text string) *MonolingualStringValue {
	return &MonolingualStringValue{Language: strings.TrimSpace(language), Text: strings.TrimSpace(text)}
}

func (v *MonolingualStringValue) Kind() Kind { return KindMonolingualString }
func (v *MonolingualStringValue) StorageShape() StorageShape {
	return StorageShape{Table: string(KindMonolingualString), Fields: []string{"language_id", "text_id"}}
}
func (v *MonolingualStringValue) StorageValues(ctx context.Context, texts TextInterner) ([]interface{}, error) {
	languageID, err := texts.InternText(ctx, v.Language)
	if err != nil {
		return nil, err
	}
	textID, err := texts.InternText(ctx, v.Text)
	if err != nil {
		return nil, err
	}
	return []interface{}{languageID, textID}, nil
}
func (v *MonolingualStringValue) DataValue() wikidata.DataValue {
	return wikidata.MonolingualValue(v.Language, v.Text)
}
func (v *MonolingualStringValue) String() string {
	return fmt.Sprintf("%s@%s", strconv.Quote(v.Text), v.Language)
}
func (v *MonolingualStringValue) sortKey() string { return v.Language + "\x00" + v.Text }

// ScraperItemValue points at the entry with ExtID in scraper ScraperID's id-space.
type ScraperItemValue struct {
	annotated
	ScraperID int
	ExtID     string
}

// NewScraperItemValue trims the external id.
func NewScraperItemValue(scraperID int, extID string) *ScraperItemValue {
	return &ScraperItemValue{ScraperID: scraperID, ExtID: strings.TrimSpace(extID)}
}

func (v *ScraperItemValue) Kind() Kind { return KindScraperItem }
func (v *ScraperItemValue) StorageShape() StorageShape {
	return StorageShape{Table: string(KindScraperItem), Fields: []string{"scraper_id", "ext_text_id"}}
}
func (v *ScraperItemValue) StorageValues(ctx context.Context, texts TextInterner) ([]interface{}, error) {
	id, err := texts.InternText(ctx, v.ExtID)
	if err != nil {
		return nil, err
	}
	return []interface{}{v.ScraperID, id}, nil
}
func (v *ScraperItemValue) String() string {
	return fmt.Sprintf("scraper %d:%s", v.ScraperID, strconv.Quote(v.ExtID))
}
func (v *ScraperItemValue) sortKey() string { return fmt.Sprintf("%010d/%s", v.ScraperID, v.ExtID) }

// LabelKind is one of the five label-like kinds.
type LabelKind string

const (
	LabelOriginal    LabelKind = "original_label"
	LabelLabel       LabelKind = "label"
	LabelAlias       LabelKind = "alias"
	LabelDescription LabelKind = "description"
	LabelURL         LabelKind = "url"
)

// ParseLabelKind validates a label kind name.
func ParseLabelKind(typeName string) (LabelKind, error) {
	switch k := LabelKind(strings.TrimSpace(typeName)); k {
	case LabelOriginal, LabelLabel, LabelAlias, LabelDescription, LabelURL:
		return k, nil
	}
	return "", errors.NewInvalidLabelKindError("label kind %q is not one of original_label, label, alias, description, url", typeName)
}

// LabelEtcValue is a label, alias, description, original label or url in a language.
// It feeds the labels/descriptions/aliases of a document, never its claims.
type LabelEtcValue struct {
	annotated
	Type     LabelKind
	Language string
	Text     string
}

// NewLabelEtcValue validates the kind and caps the text at MaxLabelRunes.
func NewLabelEtcValue(text, typeName, language string) (*LabelEtcValue, error) {
	kind, err := ParseLabelKind(typeName)
	if err != nil {
		return nil, err
	}
	return &LabelEtcValue{
		Type:     kind,
		Language: strings.TrimSpace(language),
		Text:     truncateRunes(strings.TrimSpace(text), MaxLabelRunes),
	}, nil
}

func (v *LabelEtcValue) Kind() Kind { return KindLabelsEtc }
func (v *LabelEtcValue) StorageShape() StorageShape {
	return StorageShape{Table: string(KindLabelsEtc), Fields: []string{"type_name", "language_id", "text_id"}}
}
func (v *LabelEtcValue) StorageValues(ctx context.Context, texts TextInterner) ([]interface{}, error) {
	languageID, err := texts.InternText(ctx, v.Language)
	if err != nil {
		return nil, err
	}
	textID, err := texts.InternText(ctx, v.Text)
	if err != nil {
		return nil, err
	}
	return []interface{}{string(v.Type), languageID, textID}, nil
}
func (v *LabelEtcValue) String() string {
	return fmt.Sprintf("%s[%s] %s", v.Type, v.Language, strconv.Quote(v.Text))
}
func (v *LabelEtcValue) sortKey() string {
	return string(v.Type) + "\x00" + v.Language + "\x00" + v.Text
}

func truncateUTF16(s string, max int) string {
	units := 0
	for i, r := range s {
		n := utf16.RuneLen(r)
		if n < 0 {
			n = 1
		}
		if units+n > max {
			return s[:i]
		}
		units += n
	}
	return s
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	count := 0
	for i := range s {
		if count == max {
			return s[:i]
		}
		count++
	}
	return s
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
