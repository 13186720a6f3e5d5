package scraper

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/cersei/entry"
	"github.com/teranos/cersei/errors"
	"github.com/teranos/cersei/logger"
)

const maxRecordBytes = 4 << 20

// Property accepts a JSON number or string ("P31", "31", 31).
type Property string

// UnmarshalJSON implements json.Unmarshaler.
func (p *Property) UnmarshalJSON(data []byte) error {
	if bytes.HasPrefix(data, []byte(`"`)) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = Property(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.Wrapf(err, "property %s", data)
	}
	*p = Property(n.String())
	return nil
}

// Record is one line of a record file: an external record with its values.
type Record struct {
	SourceID string        `json:"source_id"`
	Labels   []LabelRecord `json:"labels,omitempty"`
	Values   []ValueRecord `json:"values,omitempty"`
}

// LabelRecord is a label, alias, description, original label or url.
type LabelRecord struct {
	Type     string `json:"type"`
	Language string `json:"language"`
	Text     string `json:"text"`
}

// ValueRecord is one property value. Which fields apply depends on Kind.
type ValueRecord struct {
	Kind      entry.Kind `json:"kind"`
	Property  Property   `json:"property"`
	Text      string     `json:"text,omitempty"`
	Language  string     `json:"language,omitempty"`
	Item      string     `json:"item,omitempty"`
	Time      string     `json:"time,omitempty"`
	Precision int        `json:"precision,omitempty"` // inferred from Time when 0
	Latitude  *float64   `json:"latitude,omitempty"`
	Longitude *float64   `json:"longitude,omitempty"`
	Amount    *float64   `json:"amount,omitempty"`
	Unit      string     `json:"unit,omitempty"`
	ScraperID int        `json:"scraper_id,omitempty"`
	ExtID     string     `json:"ext_id,omitempty"`

	Qualifiers []ValueRecord `json:"qualifiers,omitempty"`
}

// value builds the value of r; nil means blank input to be skipped.
func (r ValueRecord) value() (entry.Value, error) {
	switch r.Kind {
	case entry.KindString:
		if blank(r.Text) {
			return nil, nil
		}
		return entry.NewStringValue(r.Text), nil
	case entry.KindFreetext:
		if blank(r.Text) {
			return nil, nil
		}
		return entry.NewFreetextValue(r.Text), nil
	case entry.KindItem:
		if blank(r.Item) {
			return nil, nil
		}
		return entry.ParseItemValue(r.Item)
	case entry.KindTime:
		if blank(r.Time) {
			return nil, nil
		}
		precision := r.Precision
		if precision == 0 {
			precision = inferPrecision(r.Time)
		}
		return entry.ParseTimeValue(r.Time, precision)
	case entry.KindLocation:
		if r.Latitude == nil || r.Longitude == nil {
			return nil, nil
		}
		return entry.NewLocationValue(*r.Latitude, *r.Longitude)
	case entry.KindQuantity:
		if r.Amount == nil {
			return nil, nil
		}
		return entry.NewQuantityValue(*r.Amount, r.Unit)
	case entry.KindMonolingualString:
		if blank(r.Text) || blank(r.Language) {
			return nil, nil
		}
		return entry.NewMonolingualStringValue(r.Language, r.Text), nil
	case entry.KindScraperItem:
		if blank(r.ExtID) {
			return nil, nil
		}
		return entry.NewScraperItemValue(r.ScraperID, r.ExtID), nil
	}
	return nil, errors.NewInvalidRequestError("unknown value kind %q", r.Kind)
}

// inferPrecision maps "YYYY", "YYYY-MM" and "YYYY-MM-DD" to year, month and day precision.
func inferPrecision(t string) int {
	t = strings.TrimLeft(strings.TrimSpace(t), "+-")
	if i := strings.IndexByte(t, 'T'); i >= 0 {
		t = t[:i]
	}
	switch strings.Count(t, "-") {
	case 0:
		return entry.PrecisionYear
	case 1:
		return entry.PrecisionMonth
	}
	return entry.PrecisionDay
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Entry builds an entry for scraperID. Fields that fail to construct are
// returned as warnings and left out; the rest of the entry is kept.
func (rec Record) Entry(scraperID int) (*entry.Entry, []error) {
	e := entry.New(scraperID, rec.SourceID)
	var warnings []error

	for _, l := range rec.Labels {
		if err := e.AddLabelEtc(l.Text, l.Type, l.Language); err != nil {
			warnings = append(warnings, err)
		}
	}

	for i, vr := range rec.Values {
		v, err := vr.value()
		if err == nil && v != nil {
			var qualifiers []entry.PropertyValue
			qualifiers, err = vr.qualifiers()
			if err == nil {
				err = e.Add(string(vr.Property), v, entry.WithQualifiers(qualifiers...))
			}
		}
		if err != nil {
			warnings = append(warnings, errors.Wrapf(err, "value %d (%s %s)", i, vr.Kind, vr.Property))
		}
	}
	return e, warnings
}

func (r ValueRecord) qualifiers() ([]entry.PropertyValue, error) {
	var out []entry.PropertyValue
	for _, q := range r.Qualifiers {
		v, err := q.value()
		if err != nil {
			return nil, errors.Wrap(err, "qualifier")
		}
		if v == nil {
			continue
		}
		pv, err := entry.NewPropertyValue(string(q.Property), v)
		if err != nil {
			return nil, errors.Wrap(err, "qualifier")
		}
		out = append(out, pv)
	}
	return out, nil
}

// resolveFreetext turns free text that resolve knows into item values,
// qualifiers included.
func (rec *Record) resolveFreetext(ctx context.Context, resolve ResolveFunc) error {
	for i := range rec.Values {
		if err := rec.Values[i].resolveFreetext(ctx, resolve); err != nil {
			return err
		}
	}
	return nil
}

func (r *ValueRecord) resolveFreetext(ctx context.Context, resolve ResolveFunc) error {
	for i := range r.Qualifiers {
		if err := r.Qualifiers[i].resolveFreetext(ctx, resolve); err != nil {
			return err
		}
	}
	if r.Kind != entry.KindFreetext || blank(r.Text) {
		return nil
	}
	property, err := entry.NormalizeProperty(string(r.Property))
	if err != nil {
		// reported when the entry is built
		return nil
	}
	item, ok, err := resolve(ctx, property, r.Text)
	if err != nil || !ok {
		return err
	}
	r.Kind = entry.KindItem
	r.Item = item.EntityID()
	return nil
}

// KnownFunc reports whether sourceID was already committed.
type KnownFunc func(ctx context.Context, sourceID string) (bool, error)

// ResolveFunc looks up the item free text of property stands for.
// resolver.Resolver.Resolve is one.
type ResolveFunc func(ctx context.Context, property int, text string) (*entry.ItemValue, bool, error)

// RecordSource is a scraper over a JSON-lines file of Records.
type RecordSource struct {
	id      int
	name    string
	path    string
	resolve ResolveFunc
	logger  *zap.SugaredLogger
}

// NewRecordSource creates a scraper reading path on behalf of scraper id.
func NewRecordSource(id int, name, path string, log *zap.SugaredLogger) *RecordSource {
	if name == "" {
		name = "records"
	}
	return &RecordSource{id: id, name: name, path: path, logger: logger.OrNop(log).Named("records")}
}

func (s *RecordSource) ID() int      { return s.id }
func (s *RecordSource) Name() string { return s.name }

// ResolveWith makes s emit free text that fn resolves as item values.
func (s *RecordSource) ResolveWith(fn ResolveFunc) *RecordSource {
	s.resolve = fn
	return s
}

// ScrapeAll implements Scraper.
func (s *RecordSource) ScrapeAll(ctx context.Context, sink Sink) error {
	return s.scrape(ctx, sink, nil)
}

// Incremental returns a scraper that skips records known reports as committed.
func (s *RecordSource) Incremental(known KnownFunc) *IncrementalRecordSource {
	return &IncrementalRecordSource{RecordSource: s, known: known}
}

// IncrementalRecordSource is a RecordSource that can scrape new records only.
type IncrementalRecordSource struct {
	*RecordSource
	known KnownFunc
}

// ScrapeNew implements IncrementalScraper.
func (s *IncrementalRecordSource) ScrapeNew(ctx context.Context, sink Sink) error {
	return s.scrape(ctx, sink, s.known)
}

func (s *RecordSource) scrape(ctx context.Context, sink Sink, known KnownFunc) error {
	f, err := os.Open(s.path)
	if err != nil {
		return errors.Wrapf(err, "failed to open record file %s", s.path)
	}
	defer f.Close()
	return s.read(ctx, f, sink, known)
}

func (s *RecordSource) read(ctx context.Context, r io.Reader, sink Sink, known KnownFunc) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxRecordBytes)

	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return err
		}
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 || raw[0] == '#' {
			continue
		}

		var rec Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			s.logger.Warnw("Skipping malformed record",
				"line", line,
				logger.FieldError, err)
			sink.Fail(fmt.Sprintf("line %d", line),
				errors.Wrap(errors.Mark(err, errors.ErrInvalidRequest), "malformed record"))
			continue
		}

		if known != nil {
			seen, err := known(ctx, rec.SourceID)
			if err != nil {
				return err
			}
			if seen {
				continue
			}
		}

		if s.resolve != nil {
			if err := rec.resolveFreetext(ctx, s.resolve); err != nil {
				sink.Fail(rec.SourceID, errors.Wrap(err, "failed to resolve free text"))
				continue
			}
		}

		e, warnings := rec.Entry(s.id)
		for _, w := range warnings {
			s.logger.Warnw("Skipping field",
				"line", line,
				logger.FieldSourceID, rec.SourceID,
				logger.FieldError, w)
		}
		if err := sink.Emit(e); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "failed to read %s after line %d", s.path, line)
	}
	return nil
}
