// Package output defines destinations for extracted change records.
package output

import (
	"context"

	"github.com/coursetable/DeLorean/internal/model"
)

// RecordSet maps course identifiers to their change records for one tracked
// source file.
type RecordSet = map[string]*model.ChangeRecord

// Writer is a destination for extraction results. Write is called once per
// tracked source path after the history walk completes.
type Writer interface {
	Write(ctx context.Context, sourcePath string, records RecordSet) error
	Close() error
}
