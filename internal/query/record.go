package query

import (
	"encoding/json"
	"fmt"

	"tetoca.org/internal/schema"
)

// ParseRecord decodes a JSON entity document into typed column values.
// Unlike Parse it rejects relation keys; a record carries columns only.
// JSON null becomes a nil value, which writes SQL null.
func ParseRecord(desc *schema.Descriptor, data []byte) (map[string]any, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%s: request body is required", desc.Table)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s: %w", desc.Table, err)
	}
	rec := make(map[string]any, len(raw))
	for key, val := range raw {
		f, ok := desc.Field(key)
		if !ok {
			return nil, fmt.Errorf("%s has no field %q", desc.Table, key)
		}
		if isNull(val) {
			rec[key] = nil
			continue
		}
		v, err := parseScalar(f, val)
		if err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", desc.Table, key, err)
		}
		rec[key] = v
	}
	return rec, nil
}
