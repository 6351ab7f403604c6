package store

import (
	"encoding/json"
	"fmt"
)

// Merge applies patch to item with shallow replace semantics: every key in
// patch replaces the whole field; nested objects and arrays are not merged.
func Merge[T any](item T, patch Patch) (T, error) {
	var zero T
	raw, err := json.Marshal(item)
	if err != nil {
		return zero, fmt.Errorf("encode record: %w", err)
	}
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return zero, fmt.Errorf("decode record: %w", err)
	}
	for k, v := range patch {
		if k == "id" {
			continue
		}
		fields[k] = v
	}
	raw, err = json.Marshal(fields)
	if err != nil {
		return zero, fmt.Errorf("encode merged record: %w", err)
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, fmt.Errorf("decode merged record: %w", err)
	}
	return out, nil
}
