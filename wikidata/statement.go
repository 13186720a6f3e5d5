package wikidata

// Snak types and statement constants.
const (
	SnakValue     = "value"
	StatementType = "statement"
	RankNormal    = "normal"
)

// Snak is a property/value pair, the building block of statements.
type Snak struct {
	SnakType  string     `json:"snaktype"`
	Property  string     `json:"property"`
	DataValue *DataValue `json:"datavalue,omitempty"`
}

// Reference is one provenance block of a statement.
type Reference struct {
	Snaks map[string][]Snak `json:"snaks"`
}

// Statement is a claim: main snak plus optional qualifiers and references.
type Statement struct {
	MainSnak   Snak              `json:"mainsnak"`
	Type       string            `json:"type"`
	Rank       string            `json:"rank"`
	Qualifiers map[string][]Snak `json:"qualifiers,omitempty"`
	References []Reference       `json:"references,omitempty"`
}

// NewSnak builds a value snak for property.
func NewSnak(property int, dv DataValue) Snak {
	return Snak{SnakType: SnakValue, Property: PropertyID(property), DataValue: &dv}
}

// NewStatement builds a normal-rank statement without qualifiers.
func NewStatement(property int, dv DataValue) Statement {
	return Statement{
		MainSnak: NewSnak(property, dv),
		Type:     StatementType,
		Rank:     RankNormal,
	}
}

// AddQualifier attaches a qualifier snak.
func (s *Statement) AddQualifier(snak Snak) {
	if s.Qualifiers == nil {
		s.Qualifiers = make(map[string][]Snak)
	}
	s.Qualifiers[snak.Property] = append(s.Qualifiers[snak.Property], snak)
}

// AddReference attaches a single-snak reference block.
func (s *Statement) AddReference(snak Snak) {
	s.References = append(s.References, Reference{Snaks: map[string][]Snak{snak.Property: {snak}}})
}
