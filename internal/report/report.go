// Package report renders check results to a console stream.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/coursetable/DeLorean/internal/validate"
)

// Reporter writes human-readable progress and verdicts. All output goes to a
// single writer; the caller decides whether that is stdout or stderr.
type Reporter struct {
	w    io.Writer
	ok   lipgloss.Style
	fail lipgloss.Style
	dim  lipgloss.Style
}

// New creates a Reporter. With plain set, no styling is applied — for
// non-TTY streams or logs.
func New(w io.Writer, plain bool) *Reporter {
	r := &Reporter{w: w}
	if !plain {
		r.ok = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
		r.fail = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
		r.dim = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	}
	return r
}

// Plain reports whether w should be rendered without styling: anything that
// is not an interactive terminal, such as a pipe or a redirected file.
func Plain(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return true
	}
	fd := f.Fd()
	return !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd)
}

// FileOK notes one fully consistent file.
func (r *Reporter) FileOK(name string, courses int) {
	fmt.Fprintf(r.w, "%s %s (%d courses)\n", r.ok.Render("ok"), name, courses)
}

// Violation dumps the offending course record, then the verdict line. The
// record goes first so the diagnostic is visible even when output is cut off
// at the failure.
func (r *Reporter) Violation(v *validate.Violation) {
	if len(v.Record) > 0 {
		var buf bytes.Buffer
		if err := json.Indent(&buf, v.Record, "", "  "); err == nil {
			fmt.Fprintln(r.w, r.dim.Render(buf.String()))
		} else {
			fmt.Fprintln(r.w, r.dim.Render(string(v.Record)))
		}
	}
	fmt.Fprintf(r.w, "%s %s: course %s in %s (%s at %s)\n",
		r.fail.Render("FAIL"), v.Kind, v.Course, v.File,
		v.Event.Kind, v.Event.At.Format("2006-01-02T15:04:05Z07:00"))
}

// Error reports a non-violation failure (parse or timestamp errors).
func (r *Reporter) Error(err error) {
	fmt.Fprintf(r.w, "%s %v\n", r.fail.Render("FAIL"), err)
}

// Success prints the single confirmation line for a fully consistent scan.
func (r *Reporter) Success(files, courses int) {
	fmt.Fprintf(r.w, "%s All courses are consistent (%d courses across %d files)\n",
		r.ok.Render("ok"), courses, files)
}
