package entry

import (
	"context"
	"sort"
)

// TableRows is a bulk insert for one value table.
type TableRows struct {
	Kind    Kind
	Columns []string
	Rows    [][]interface{}
}

// Rows materializes one row per property/value pair, grouped by kind in
// Kinds() order, each tagged with revisionID. Rows of every kind except
// labels carry the property and the text-pool id of the qualifier JSON
// (0 when there are no qualifiers).
func (e *Entry) Rows(ctx context.Context, texts TextInterner, revisionID int64) ([]TableRows, error) {
	var out []TableRows
	for _, kind := range Kinds() {
		pvs := e.Values(kind)
		if len(pvs) == 0 {
			continue
		}
		sort.SliceStable(pvs, func(i, j int) bool { return lessPropertyValue(pvs[i], pvs[j]) })

		shape := pvs[0].Value.StorageShape()
		table := TableRows{Kind: kind}
		if kind == KindLabelsEtc {
			table.Columns = append([]string{"revision_id"}, shape.Fields...)
		} else {
			table.Columns = append([]string{"revision_id", "property", "qualifiers_text_id"}, shape.Fields...)
		}

		for _, pv := range pvs {
			values, err := pv.Value.StorageValues(ctx, texts)
			if err != nil {
				return nil, err
			}
			if kind == KindLabelsEtc {
				table.Rows = append(table.Rows, append([]interface{}{revisionID}, values...))
				continue
			}
			qualifiersID, err := qualifierTextID(ctx, texts, pv.Value)
			if err != nil {
				return nil, err
			}
			row := append([]interface{}{revisionID, pv.Property, qualifiersID}, values...)
			table.Rows = append(table.Rows, row)
		}
		out = append(out, table)
	}
	return out, nil
}

func qualifierTextID(ctx context.Context, texts TextInterner, v Value) (int64, error) {
	blob, err := QualifierJSON(v)
	if err != nil || blob == "" {
		return 0, err
	}
	return texts.InternText(ctx, blob)
}
