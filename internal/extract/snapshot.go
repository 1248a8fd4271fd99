package extract

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
)

// snapshot is one parsed course file at one commit: primary key → full row.
type snapshot map[string]any

// parseSnapshot decodes a snapshot blob — a JSON array of objects — and keys
// it by primaryKey. The key must be present and a string on every row.
func parseSnapshot(data []byte, primaryKey string) (snapshot, error) {
	var rows []map[string]any
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("extract: parse snapshot: %w", err)
	}
	snap := make(snapshot, len(rows))
	for i, row := range rows {
		pk, ok := row[primaryKey].(string)
		if !ok {
			return nil, fmt.Errorf("extract: row %d: primary key %q missing or not a string", i, primaryKey)
		}
		snap[pk] = row
	}
	return snap, nil
}

// diffSnapshots compares two snapshots of the same file and reports which
// primary keys were added, removed, or had their row change. Results are
// sorted for determinism.
func diffSnapshots(old, new snapshot) (added, removed, modified []string) {
	for pk, oldRow := range old {
		newRow, ok := new[pk]
		if !ok {
			removed = append(removed, pk)
			continue
		}
		if !reflect.DeepEqual(oldRow, newRow) {
			modified = append(modified, pk)
		}
	}
	for pk := range new {
		if _, ok := old[pk]; !ok {
			added = append(added, pk)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	sort.Strings(modified)
	return added, removed, modified
}
