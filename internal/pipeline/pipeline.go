// Package pipeline composes the history loader, timeline validator, and
// reporter into a directory scan.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/coursetable/DeLorean/internal/history"
	"github.com/coursetable/DeLorean/internal/report"
	"github.com/coursetable/DeLorean/internal/validate"
)

// Config controls scan behavior.
type Config struct {
	// KeepGoing collects every violation instead of halting on the first.
	// Parse and timestamp errors still halt the scan.
	KeepGoing bool
	// Verbose prints a line per consistent file in addition to the final verdict.
	Verbose bool
}

// Pipeline runs check scans. Files are processed strictly sequentially; each
// file is validated independently of the others.
type Pipeline struct {
	rep *report.Reporter
	cfg Config
}

// New creates a Pipeline writing results through rep.
func New(rep *report.Reporter, cfg Config) *Pipeline {
	return &Pipeline{rep: rep, cfg: cfg}
}

// Run validates every history file under dir. The default mode returns the
// first violation or load error encountered; with KeepGoing it returns an
// aggregate error once the scan completes with any violations. A nil return
// means every course in every file replayed cleanly.
func (p *Pipeline) Run(ctx context.Context, dir string) error {
	paths, err := history.List(dir)
	if err != nil {
		p.rep.Error(err)
		return err
	}

	var files, courses, bad int
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		f, err := history.LoadFile(path)
		if err != nil {
			p.rep.Error(err)
			return err
		}

		errs := validate.File(f.Name, f.Courses)
		for _, verr := range errs {
			var v *validate.Violation
			if errors.As(verr, &v) {
				p.rep.Violation(v)
				if !p.cfg.KeepGoing {
					return v
				}
				bad++
				continue
			}
			// Timestamp and other hard errors always halt.
			p.rep.Error(verr)
			return verr
		}
		courses += len(f.Courses) - len(errs)
		if len(errs) == 0 && p.cfg.Verbose {
			p.rep.FileOK(f.Name, len(f.Courses))
		}
		files++
	}

	if bad > 0 {
		return fmt.Errorf("pipeline: %d inconsistent course timelines", bad)
	}
	p.rep.Success(files, courses)
	return nil
}
