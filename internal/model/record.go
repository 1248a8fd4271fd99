package model

// Instant is one observed change to a course: the commit that introduced it
// and when that commit was made. Timestamp stays a string here — it is parsed
// into a time.Time only when a timeline is built, so malformed values surface
// as TimestampErrors with context rather than as opaque decode failures.
type Instant struct {
	Commit    string `json:"commit,omitempty"`
	Timestamp string `json:"timestamp"`
}

// ChangeRecord holds every observed change for one course within one history
// file, bucketed by what happened. Each bucket is chronological on the wire.
type ChangeRecord struct {
	Added    []Instant `json:"added"`
	Removed  []Instant `json:"removed"`
	Modified []Instant `json:"modified"`
}

// Kind tags a timeline event with what happened to the course.
//
// The ordinal order (added < modified < removed) is also the tie-break order
// for events sharing a timestamp: a same-instant add and remove replay as a
// legal add-then-remove instead of depending on sort incidentals.
type Kind int

const (
	KindAdded Kind = iota
	KindModified
	KindRemoved
)

// String returns the wire/diagnostic name of the kind.
func (k Kind) String() string {
	switch k {
	case KindAdded:
		return "added"
	case KindModified:
		return "modified"
	case KindRemoved:
		return "removed"
	default:
		return "unknown"
	}
}
