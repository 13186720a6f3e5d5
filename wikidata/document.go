package wikidata

// Keys of the internal extension block. They never appear in public output.
const (
	KeyFreetext      = "freetext"
	KeyScraperItem   = "scraper_item"
	KeyOriginalLabel = "original_label"
	KeyURL           = "url"
)

// InternalKeys lists the top-level document keys that are stripped before
// a snapshot is served publicly.
var InternalKeys = []string{KeyFreetext, KeyScraperItem, KeyOriginalLabel, KeyURL}

// LanguageValue is a language-tagged string (labels, descriptions, aliases).
type LanguageValue struct {
	Language string `json:"language"`
	Value    string `json:"value"`
}

// FreetextRef is an unresolved free-text value in the internal block.
type FreetextRef struct {
	Property string `json:"property"`
	Value    string `json:"value"`
}

// ScraperRef points at an entry in another source's id-space.
type ScraperRef struct {
	Property  string `json:"property"`
	ScraperID int    `json:"scraper_id"`
	ExtID     string `json:"ext_id"`
}

// Document is the entity projection of an entry.
// The public part follows the Wikidata entity shape; the internal fields
// are populated only when the document is built for internal use.
type Document struct {
	Type         string                     `json:"type"`
	Labels       map[string]LanguageValue   `json:"labels"`
	Descriptions map[string]LanguageValue   `json:"descriptions"`
	Aliases      map[string][]LanguageValue `json:"aliases"`
	Claims       map[string][]Statement     `json:"claims"`
	Sitelinks    map[string]interface{}     `json:"sitelinks"`

	Freetext      []FreetextRef   `json:"freetext,omitempty"`
	ScraperItem   []ScraperRef    `json:"scraper_item,omitempty"`
	OriginalLabel []LanguageValue `json:"original_label,omitempty"`
	URL           []LanguageValue `json:"url,omitempty"`
}

// NewDocument returns an empty item document with all maps allocated,
// so they encode as {} rather than null.
func NewDocument() *Document {
	return &Document{
		Type:         string(EntityItem),
		Labels:       make(map[string]LanguageValue),
		Descriptions: make(map[string]LanguageValue),
		Aliases:      make(map[string][]LanguageValue),
		Claims:       make(map[string][]Statement),
		Sitelinks:    make(map[string]interface{}),
	}
}

// AddClaim appends a statement under its main snak property.
func (d *Document) AddClaim(s Statement) {
	d.Claims[s.MainSnak.Property] = append(d.Claims[s.MainSnak.Property], s)
}
