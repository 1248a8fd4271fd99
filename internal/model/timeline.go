package model

import (
	"fmt"
	"sort"
	"time"
)

// Event is one entry of a course timeline: a parsed instant plus its kind.
type Event struct {
	At     time.Time
	Kind   Kind
	Commit string
}

// TimestampError reports an event timestamp that could not be parsed.
type TimestampError struct {
	Kind  Kind
	Value string
	Err   error
}

func (e *TimestampError) Error() string {
	return fmt.Sprintf("model: bad %s timestamp %q: %v", e.Kind, e.Value, e.Err)
}

func (e *TimestampError) Unwrap() error { return e.Err }

// timestampLayouts are tried in order. Extractor output is RFC 3339; older
// history files carry naive local-free timestamps, or bare dates, which are
// read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp converts an ISO-8601 timestamp string into a comparable instant.
func ParseTimestamp(s string) (time.Time, error) {
	var err error
	for _, layout := range timestampLayouts {
		var t time.Time
		if t, err = time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// Timeline flattens a change record into a single unsorted event list,
// tagging each event with its bucket's kind. Returns a TimestampError on the
// first malformed timestamp.
func Timeline(rec ChangeRecord) ([]Event, error) {
	buckets := []struct {
		kind     Kind
		instants []Instant
	}{
		{KindAdded, rec.Added},
		{KindRemoved, rec.Removed},
		{KindModified, rec.Modified},
	}

	var events []Event
	for _, b := range buckets {
		for _, in := range b.instants {
			at, err := ParseTimestamp(in.Timestamp)
			if err != nil {
				return nil, &TimestampError{Kind: b.kind, Value: in.Timestamp, Err: err}
			}
			events = append(events, Event{At: at, Kind: b.kind, Commit: in.Commit})
		}
	}
	return events, nil
}

// SortTimeline orders events ascending by instant. Events sharing an instant
// are ordered by kind (added < modified < removed), then by commit, so the
// result is fully deterministic.
func SortTimeline(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if !a.At.Equal(b.At) {
			return a.At.Before(b.At)
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Commit < b.Commit
	})
}
