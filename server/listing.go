package server

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/teranos/cersei/entry"
	"github.com/teranos/cersei/errors"
	"github.com/teranos/cersei/storage"
)

// ParseEntryQuery reads an entry listing query from URL parameters:
//
//	scraper=5
//	entry_since=2024-03-01 (or RFC 3339)
//	revision_since=2024-03-01T12:00:00Z
//	link=P31:Q5 (repeatable; all must hold)
//	limit=50&offset=0
//	no_json (omit the entity projection)
func ParseEntryQuery(v url.Values) (storage.EntryQuery, error) {
	q := storage.EntryQuery{WithSnapshot: !v.Has("no_json")}

	ints := []struct {
		name string
		dest *int
	}{
		{"scraper", &q.ScraperID},
		{"limit", &q.Limit},
		{"offset", &q.Offset},
	}
	for _, p := range ints {
		raw := strings.TrimSpace(v.Get(p.name))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return q, errors.NewInvalidRequestError("%s must be a number, got %q", p.name, raw)
		}
		*p.dest = n
	}

	var err error
	if q.EntrySince, err = parseSince(v.Get("entry_since"), "entry_since"); err != nil {
		return q, err
	}
	if q.RevisionSince, err = parseSince(v.Get("revision_since"), "revision_since"); err != nil {
		return q, err
	}

	for _, raw := range v["link"] {
		link, err := parseLink(raw)
		if err != nil {
			return q, err
		}
		q.Links = append(q.Links, link)
	}
	return q.Normalize()
}

func parseSince(raw, name string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.NewInvalidRequestError("%s %q is not a date or RFC 3339 time", name, raw)
}

// parseLink parses "P31:Q5".
func parseLink(raw string) (storage.EntryLink, error) {
	prop, target, ok := strings.Cut(raw, ":")
	if !ok {
		return storage.EntryLink{}, errors.NewInvalidRequestError("link %q must look like P31:Q5", raw)
	}
	property, err := entry.NormalizeProperty(prop)
	if err != nil {
		return storage.EntryLink{}, errors.WithSecondaryError(
			errors.NewInvalidRequestError("link %q has a bad property", raw), err)
	}
	item, err := entry.ParseItemValue(target)
	if err != nil {
		return storage.EntryLink{}, errors.WithSecondaryError(
			errors.NewInvalidRequestError("link %q has a bad target", raw), err)
	}
	return storage.EntryLink{Property: property, Item: item}, nil
}

type entryRow struct {
	Entity string `json:"entity"`
	storage.EntryListing
	Projection map[string]interface{} `json:"entry,omitempty"`
}

// HandleEntries lists committed entries by scraper, age and claimed items.
func (s *Server) HandleEntries(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	q, err := ParseEntryQuery(r.URL.Query())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	listing, err := s.store.QueryEntries(r.Context(), q)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	rows := make([]entryRow, len(listing))
	for i, l := range listing {
		l.CreatedAt = l.CreatedAt.UTC()
		l.RevisionCreatedAt = l.RevisionCreatedAt.UTC()
		rows[i] = entryRow{Entity: EntityID(l.ID), EntryListing: l}
		if q.WithSnapshot {
			doc, err := ProjectEntity(storage.EntitySnapshot{
				EntryID:    l.ID,
				ScraperID:  l.ScraperID,
				SourceID:   l.SourceID,
				RevisionID: l.CurrentRevisionID,
				JSON:       l.Snapshot,
			})
			if err != nil {
				s.writeStoreError(w, r, err)
				return
			}
			rows[i].Projection = doc
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": rows,
		"limit":   q.Limit,
		"offset":  q.Offset,
	})
}

// HandleScrapers lists every scraper with its entry counts.
func (s *Server) HandleScrapers(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	sums, err := s.store.ScraperSummaries(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if sums == nil {
		sums = []storage.ScraperSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"scrapers": sums})
}
