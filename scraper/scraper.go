// Package scraper is the boundary between per-source scrapers and storage.
//
// A scraper emits populated entries; the Runner commits each one as it
// arrives, records per-item failures instead of aborting, and brackets the
// run with start/end events used by the advisory running-check.
package scraper

import (
	"context"
	"strings"

	"github.com/teranos/cersei/entry"
	"github.com/teranos/cersei/errors"
)

// Sink receives what a scraper produces.
type Sink interface {
	// Emit hands one entry to the runner. A non-nil error means the run is
	// being aborted and the scraper should stop.
	Emit(e *entry.Entry) error
	// Fail reports a source item that could not be turned into an entry.
	// itemID is the source id when known, otherwise a locator such as "line 7".
	Fail(itemID string, err error)
}

// EmitFunc adapts a function to a Sink that drops failures.
type EmitFunc func(e *entry.Entry) error

func (f EmitFunc) Emit(e *entry.Entry) error { return f(e) }
func (f EmitFunc) Fail(string, error)        {}

// Scraper produces entries for one source.
type Scraper interface {
	ID() int
	Name() string
	// ScrapeAll emits every entry of the source.
	ScrapeAll(ctx context.Context, sink Sink) error
}

// IncrementalScraper can emit only entries not seen before.
type IncrementalScraper interface {
	Scraper
	ScrapeNew(ctx context.Context, sink Sink) error
}

// Mode selects which entries a run scrapes.
type Mode string

const (
	ModeAll Mode = "all"
	ModeNew Mode = "new"
)

// ParseMode parses "all" or "new".
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeAll, "":
		return ModeAll, nil
	case ModeNew:
		return ModeNew, nil
	}
	return "", errors.NewInvalidRequestError("unknown scrape mode %q (want all or new)", s)
}

// scrapeFunc picks the scrape method for mode.
func scrapeFunc(s Scraper, mode Mode) (func(context.Context, Sink) error, error) {
	switch mode {
	case ModeAll:
		return s.ScrapeAll, nil
	case ModeNew:
		inc, ok := s.(IncrementalScraper)
		if !ok {
			return nil, errors.Wrapf(errors.ErrUnsupported, "scraper %d (%s) cannot scrape new entries only", s.ID(), s.Name())
		}
		return inc.ScrapeNew, nil
	}
	return nil, errors.NewInvalidRequestError("unknown scrape mode %q", mode)
}
