package entry

// Kind names a value kind. It doubles as the value table name.
type Kind string

const (
	KindString            Kind = "string"
	KindFreetext          Kind = "freetext"
	KindItem              Kind = "item"
	KindTime              Kind = "time"
	KindLocation          Kind = "location"
	KindQuantity          Kind = "quantity"
	KindMonolingualString Kind = "monolingual_string"
	KindLabelsEtc         Kind = "labels_etc"
	KindScraperItem       Kind = "scraper_item"
)

// Kinds returns every value kind in a fixed order.
func Kinds() []Kind {
	return []Kind{
		KindString,
		KindFreetext,
		KindItem,
		KindTime,
		KindLocation,
		KindQuantity,
		KindMonolingualString,
		KindLabelsEtc,
		KindScraperItem,
	}
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	for _, known := range Kinds() {
		if k == known {
			return true
		}
	}
	return false
}
