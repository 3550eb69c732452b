package versioning

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
)

var bookkeeping = map[string]bool{
	"version_number": true,
	"created_by":     true,
	"updated_by":     true,
	"created_at":     true,
	"updated_at":     true,
	"deleted_at":     true,
}

// Snapshot renders a record as a JSON object without bookkeeping columns.
func Snapshot(rec any) (map[string]any, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("snapshot marshal: %w", err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("snapshot unmarshal: %w", err)
	}
	for k := range bookkeeping {
		delete(out, k)
	}
	return out, nil
}

// ChangedFields lists the keys whose values differ, sorted.
func ChangedFields(prev, next map[string]any) []string {
	keys := map[string]struct{}{}
	for k := range prev {
		keys[k] = struct{}{}
	}
	for k := range next {
		keys[k] = struct{}{}
	}
	var changed []string
	for k := range keys {
		if !reflect.DeepEqual(prev[k], next[k]) {
			changed = append(changed, k)
		}
	}
	sort.Strings(changed)
	if changed == nil {
		changed = []string{}
	}
	return changed
}
