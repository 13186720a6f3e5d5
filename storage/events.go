package storage

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/teranos/cersei/errors"
)

// Event types written by batch runs
const (
	EventScrapeStart = "scrape_start"
	EventScrapeEnd   = "scrape_end"
)

// Event is one row of the event log.
type Event struct {
	Type       string
	RelevantID int64
	Timestamp  time.Time
}

// AddEvent appends an event with the current time.
func (s *SQLStore) AddEvent(ctx context.Context, eventType string, relevantID int64) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO event_log (event_type, relevant_id, timestamp) VALUES (?, ?, ?)`,
		eventType, relevantID, s.now().UnixNano())
	return errors.MarkStoragef(err, "failed to log %s for %d", eventType, relevantID)
}

// LastEvent returns the most recent event of any of eventTypes for relevantID.
// ok is false when there is none.
func (s *SQLStore) LastEvent(ctx context.Context, relevantID int64, eventTypes ...string) (Event, bool, error) {
	if len(eventTypes) == 0 {
		return Event{}, false, errors.NewInvalidRequestError("no event types given")
	}
	args := make([]interface{}, 0, len(eventTypes)+1)
	args = append(args, relevantID)
	for _, t := range eventTypes {
		args = append(args, t)
	}
	query := `SELECT event_type, timestamp FROM event_log
		WHERE relevant_id = ? AND event_type IN (` + placeholders(len(eventTypes)) + `)
		ORDER BY timestamp DESC, id DESC LIMIT 1`

	var (
		ev    = Event{RelevantID: relevantID}
		nanos int64
	)
	err := s.q.QueryRowContext(ctx, query, args...).Scan(&ev.Type, &nanos)
	if err == sql.ErrNoRows {
		return Event{}, false, nil
	}
	if err != nil {
		return Event{}, false, errors.MarkStoragef(err, "failed to read events for %d", relevantID)
	}
	ev.Timestamp = time.Unix(0, nanos)
	return ev, true, nil
}

// IsScraperRunning reports whether the last scrape_start of scraperID is later
// than its last scrape_end. This is advisory: two processes starting at the
// same time both see "not running".
func (s *SQLStore) IsScraperRunning(ctx context.Context, scraperID int) (bool, error) {
	start, ok, err := s.LastEvent(ctx, int64(scraperID), EventScrapeStart)
	if err != nil || !ok {
		return false, err
	}
	end, ok, err := s.LastEvent(ctx, int64(scraperID), EventScrapeEnd)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	return start.Timestamp.After(end.Timestamp), nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
