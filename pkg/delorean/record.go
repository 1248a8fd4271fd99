package delorean

// Instant is one observed change to a course.
// This is the stable public type — internal representations may evolve
// independently without breaking consumers.
type Instant struct {
	Commit    string `json:"commit,omitempty"`
	Timestamp string `json:"timestamp"` // ISO-8601
}

// Record holds every observed change for one course, bucketed by what
// happened.
type Record struct {
	Added    []Instant `json:"added"`
	Removed  []Instant `json:"removed"`
	Modified []Instant `json:"modified"`
}
