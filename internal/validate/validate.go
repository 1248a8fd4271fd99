// Package validate replays course timelines against the presence state
// machine: a course must be added before it can be modified or removed,
// cannot be added while present, and cannot be removed while absent.
package validate

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/coursetable/DeLorean/internal/history"
	"github.com/coursetable/DeLorean/internal/model"
)

// ViolationKind names the way a timeline broke the presence rules.
type ViolationKind string

const (
	DoubleAdd       ViolationKind = "double-add"
	RemoveBeforeAdd ViolationKind = "remove-before-add"
	ModifyBeforeAdd ViolationKind = "modify-before-add"
)

// Violation is a detected inconsistency. It carries enough context to dump a
// useful diagnostic: where it happened, which event tripped it, and the raw
// course record as it appeared in the file.
type Violation struct {
	Kind   ViolationKind
	Course string
	File   string
	Event  model.Event
	Record json.RawMessage
}

func (v *Violation) Error() string {
	return fmt.Sprintf("validate: %s: course %s in %s at %s",
		v.Kind, v.Course, v.File, v.Event.At.Format("2006-01-02T15:04:05Z07:00"))
}

// Replay runs a sorted timeline through the presence state machine and
// returns the first illegal event, or ok for a legal sequence. Ending in
// either state is legal; only transitions are checked.
func Replay(events []model.Event) (bad model.Event, kind ViolationKind, ok bool) {
	state := absent
	for _, ev := range events {
		key := transitionKey{state, ev.Kind}
		next, legal := transitions[key]
		if !legal {
			return ev, violationKinds[key], false
		}
		state = next
	}
	return model.Event{}, "", true
}

// Record validates a single course record: build the timeline, sort it, and
// replay it. file and course are diagnostic context; raw is the course record
// as read from disk, attached to any violation for dumping.
func Record(file, course string, rec model.ChangeRecord, raw json.RawMessage) error {
	events, err := model.Timeline(rec)
	if err != nil {
		return fmt.Errorf("validate: course %s in %s: %w", course, file, err)
	}
	model.SortTimeline(events)
	if ev, kind, ok := Replay(events); !ok {
		return &Violation{Kind: kind, Course: course, File: file, Event: ev, Record: raw}
	}
	return nil
}

// File validates every course in a parsed history file, visiting course
// identifiers in sorted order so the first verdict is deterministic
// regardless of map iteration. Returns one error per failing course, in
// visit order; an empty result means the whole file is consistent.
func File(file string, courses map[string]history.Course) []error {
	ids := make([]string, 0, len(courses))
	for id := range courses {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var errs []error
	for _, id := range ids {
		c := courses[id]
		if err := Record(file, id, c.Record, c.Raw); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
