package delorean

import (
	"context"
	"errors"
	"fmt"

	"github.com/coursetable/DeLorean/internal/history"
	"github.com/coursetable/DeLorean/internal/model"
	"github.com/coursetable/DeLorean/internal/pipeline"
	"github.com/coursetable/DeLorean/internal/report"
	"github.com/coursetable/DeLorean/internal/validate"
)

// Checker validates course change histories. The zero configuration is
// sensible: quiet, halting on the first inconsistency. Safe for concurrent
// use; a Checker holds no mutable state.
type Checker struct {
	opts options
}

// New creates a Checker.
func New(opts ...Option) *Checker {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Checker{opts: o}
}

// CheckRecord validates a single course's change record. Returns nil when the
// timeline is legal, an *Inconsistency when it is not, or another error when
// a timestamp cannot be parsed.
func (c *Checker) CheckRecord(course string, rec Record) error {
	return wrap(validate.Record("", course, recordToModel(rec), nil))
}

// CheckFile validates every course in a single history file, visiting
// courses in sorted-identifier order, and returns the first failure: an
// *Inconsistency for an illegal timeline, or a load/timestamp error.
func (c *Checker) CheckFile(path string) error {
	f, err := history.LoadFile(path)
	if err != nil {
		return err
	}
	if errs := validate.File(f.Name, f.Courses); len(errs) > 0 {
		return wrap(errs[0])
	}
	return nil
}

// CheckDir validates every history file under dir, mirroring the check
// subcommand. Results are streamed to the configured output writer.
func (c *Checker) CheckDir(ctx context.Context, dir string) error {
	rep := report.New(c.opts.out, c.opts.plain)
	p := pipeline.New(rep, pipeline.Config{KeepGoing: c.opts.keepGoing})
	return wrap(p.Run(ctx, dir))
}

// wrap converts internal violation errors into the public Inconsistency type.
func wrap(err error) error {
	var v *validate.Violation
	if errors.As(err, &v) {
		return &Inconsistency{
			Kind:   string(v.Kind),
			Course: v.Course,
			File:   v.File,
		}
	}
	return err
}

// Inconsistency is the public form of a timeline violation.
type Inconsistency struct {
	Kind   string // double-add, remove-before-add, modify-before-add
	Course string
	File   string
}

func (e *Inconsistency) Error() string {
	if e.File != "" {
		return fmt.Sprintf("delorean: %s: course %s in %s", e.Kind, e.Course, e.File)
	}
	return fmt.Sprintf("delorean: %s: course %s", e.Kind, e.Course)
}

func recordToModel(rec Record) model.ChangeRecord {
	return model.ChangeRecord{
		Added:    instantsToModel(rec.Added),
		Removed:  instantsToModel(rec.Removed),
		Modified: instantsToModel(rec.Modified),
	}
}

func instantsToModel(in []Instant) []model.Instant {
	out := make([]model.Instant, len(in))
	for i, v := range in {
		out[i] = model.Instant{Commit: v.Commit, Timestamp: v.Timestamp}
	}
	return out
}
