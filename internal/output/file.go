package output

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileWriter writes one pretty-printed JSON file per tracked source path,
// mirroring the source path under a root directory. Course keys come out
// sorted, which is encoding/json's map behavior.
type FileWriter struct {
	root string
}

// NewFileWriter creates a FileWriter rooted at dir.
func NewFileWriter(dir string) *FileWriter {
	return &FileWriter{root: dir}
}

func (w *FileWriter) Write(_ context.Context, sourcePath string, records RecordSet) error {
	path := filepath.Join(w.root, filepath.FromSlash(sourcePath))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("output: create dir for %s: %w", sourcePath, err)
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("output: marshal %s: %w", sourcePath, err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("output: write %s: %w", path, err)
	}
	return nil
}

func (w *FileWriter) Close() error { return nil }
