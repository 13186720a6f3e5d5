package entry

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/teranos/cersei/errors"
	"github.com/teranos/cersei/wikidata"
)

// NormalizeProperty canonicalizes a property token to its bare number.
// "P31", " p31 ", "31" and 31 all give 31; "X31" and "P3x" fail with ErrInvalidProperty.
func NormalizeProperty(property interface{}) (int, error) {
	switch p := property.(type) {
	case int:
		if p < 0 {
			return 0, errors.NewInvalidPropertyError("negative property %d", p)
		}
		return p, nil
	case int64:
		if p < 0 || p > int64(^uint32(0)>>1) {
			return 0, errors.NewInvalidPropertyError("property %d out of range", p)
		}
		return int(p), nil
	case string:
		return parseProperty(p)
	default:
		return 0, errors.NewInvalidPropertyError("unsupported property type %T", property)
	}
}

func parseProperty(raw string) (int, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.TrimPrefix(s, "P")
	if s == "" {
		return 0, errors.NewInvalidPropertyError("property %q has no number", raw)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, errors.NewInvalidPropertyError("property %q is not numeric", raw)
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.NewInvalidPropertyError("property %q out of range", raw)
	}
	return n, nil
}

// PropertyValue pairs a normalized property number with a value.
// Label values carry property 0.
type PropertyValue struct {
	Property int
	Value    Value
}

// NewPropertyValue normalizes property and pairs it with v.
func NewPropertyValue(property interface{}, v Value) (PropertyValue, error) {
	p, err := NormalizeProperty(property)
	if err != nil {
		return PropertyValue{}, err
	}
	if v == nil {
		return PropertyValue{}, errors.NewInvalidRequestError("nil value for %s", wikidata.PropertyID(p))
	}
	return PropertyValue{Property: p, Value: v}, nil
}

// MustPropertyValue is NewPropertyValue for statically known inputs; it panics on error.
func MustPropertyValue(property interface{}, v Value) PropertyValue {
	pv, err := NewPropertyValue(property, v)
	if err != nil {
		panic(err)
	}
	return pv
}

func (pv PropertyValue) String() string {
	if pv.Value == nil {
		return wikidata.PropertyID(pv.Property) + " <nil>"
	}
	if pv.Value.Kind() == KindLabelsEtc {
		return pv.Value.String()
	}
	return fmt.Sprintf("%s %s", wikidata.PropertyID(pv.Property), pv.Value.String())
}

// lessPropertyValue orders by property, then kind, then the value's own key.
func lessPropertyValue(a, b PropertyValue) bool {
	if a.Property != b.Property {
		return a.Property < b.Property
	}
	return Less(a.Value, b.Value)
}
