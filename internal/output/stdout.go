package output

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// StdoutWriter streams extraction results as JSON objects, one per tracked
// source path, for piping into other tools.
type StdoutWriter struct {
	enc *json.Encoder
}

// NewStdoutWriter creates a writer targeting stdout. Pretty enables indented
// output.
func NewStdoutWriter(pretty bool) *StdoutWriter {
	return newStdoutWriter(os.Stdout, pretty)
}

func newStdoutWriter(w io.Writer, pretty bool) *StdoutWriter {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return &StdoutWriter{enc: enc}
}

type recordEnvelope struct {
	File    string    `json:"file"`
	Records RecordSet `json:"records"`
}

func (w *StdoutWriter) Write(_ context.Context, sourcePath string, records RecordSet) error {
	if err := w.enc.Encode(recordEnvelope{File: sourcePath, Records: records}); err != nil {
		return fmt.Errorf("output: encode %s: %w", sourcePath, err)
	}
	return nil
}

func (w *StdoutWriter) Close() error { return nil }
