// Package history loads per-term course-history files: JSON objects mapping
// a course identifier to its change record.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/coursetable/DeLorean/internal/model"
)

// Course is one parsed course record plus its raw bytes. The raw form keeps
// fields validation ignores, so diagnostics can show the record exactly as it
// appears on disk.
type Course struct {
	Record model.ChangeRecord
	Raw    json.RawMessage
}

// File is one parsed history file.
type File struct {
	Name    string
	Courses map[string]Course
}

// ParseError reports a history file that is not valid JSON or does not have
// the expected {course-id: {added, removed, modified}} shape.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("history: parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// requiredBuckets must all be present on every course record.
var requiredBuckets = []string{"added", "removed", "modified"}

// LoadFile parses one history file. Any shape problem is a ParseError; there
// is no partial recovery.
func LoadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("history: read %s: %w", path, err)
	}

	var byCourse map[string]json.RawMessage
	if err := json.Unmarshal(data, &byCourse); err != nil {
		return File{}, &ParseError{Path: path, Err: err}
	}

	file := File{Name: filepath.Base(path), Courses: make(map[string]Course, len(byCourse))}
	for course, raw := range byCourse {
		var buckets map[string]json.RawMessage
		if err := json.Unmarshal(raw, &buckets); err != nil {
			return File{}, &ParseError{Path: path, Err: fmt.Errorf("course %s: %w", course, err)}
		}
		for _, key := range requiredBuckets {
			if _, ok := buckets[key]; !ok {
				return File{}, &ParseError{Path: path, Err: fmt.Errorf("course %s: missing %q", course, key)}
			}
		}
		var rec model.ChangeRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return File{}, &ParseError{Path: path, Err: fmt.Errorf("course %s: %w", course, err)}
		}
		file.Courses[course] = Course{Record: rec, Raw: raw}
	}
	return file, nil
}

// List returns the paths of all regular files in dir, sorted by name.
// Sorting keeps the first detected failure stable across runs and platforms.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("history: list %s: %w", dir, err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
