// Package query builds filter expressions from sparse criteria documents
// and interprets them into SQL. A criteria document mirrors an entity's
// fields plus, per relation, a nested criteria for the related entity.
// Present fields constrain; absent fields do not. An empty document selects
// everything.
package query

import (
	"encoding/json"
	"fmt"
	"time"

	"tetoca.org/internal/schema"
)

// Criteria is the parsed, typed form of a filter document.
type Criteria struct {
	Desc *schema.Descriptor
	// Fields holds present scalar predicates keyed by column name. Text
	// values mean case-insensitive substring match, everything else exact
	// equality. Values are int64, float64, bool, string or time.Time.
	Fields map[string]any
	// Exact holds predicates that are equality even on text columns:
	// identity lookups and credential lookups use these.
	Exact map[string]any
	// Relations holds present nested criteria keyed by relation name.
	Relations map[string]*Criteria
}

// New returns empty criteria for a descriptor, for programmatic use.
func New(desc *schema.Descriptor) *Criteria {
	return &Criteria{
		Desc:      desc,
		Fields:    make(map[string]any),
		Exact:     make(map[string]any),
		Relations: make(map[string]*Criteria),
	}
}

// Where adds a filter-semantics predicate (substring on text columns) and
// returns the criteria for chaining.
func (c *Criteria) Where(column string, value any) *Criteria {
	c.Fields[column] = value
	return c
}

// WhereExact adds an equality predicate regardless of column type.
func (c *Criteria) WhereExact(column string, value any) *Criteria {
	c.Exact[column] = value
	return c
}

// Empty reports whether the criteria constrain nothing.
func (c *Criteria) Empty() bool {
	if c == nil {
		return true
	}
	return len(c.Fields) == 0 && len(c.Exact) == 0 && len(c.Relations) == 0
}

// Parse decodes a JSON filter document against a descriptor. Unknown keys
// are rejected; JSON null imposes no constraint, same as an absent key.
func Parse(reg *schema.Registry, desc *schema.Descriptor, data []byte) (*Criteria, error) {
	if len(data) == 0 {
		return New(desc), nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("filter: %w", err)
	}
	return parseMap(reg, desc, raw)
}

func parseMap(reg *schema.Registry, desc *schema.Descriptor, raw map[string]json.RawMessage) (*Criteria, error) {
	c := New(desc)
	for key, val := range raw {
		if isNull(val) {
			continue
		}
		if f, ok := desc.Field(key); ok {
			v, err := parseScalar(f, val)
			if err != nil {
				return nil, fmt.Errorf("filter: field %s.%s: %w", desc.Table, key, err)
			}
			c.Fields[key] = v
			continue
		}
		if rel, ok := desc.Relation(key); ok {
			related, _ := reg.Lookup(rel.Table)
			var sub map[string]json.RawMessage
			if err := json.Unmarshal(val, &sub); err != nil {
				return nil, fmt.Errorf("filter: relation %s.%s: %w", desc.Table, key, err)
			}
			nested, err := parseMap(reg, related, sub)
			if err != nil {
				return nil, err
			}
			c.Relations[key] = nested
			continue
		}
		return nil, fmt.Errorf("filter: %s has no field or relation %q", desc.Table, key)
	}
	return c, nil
}

func parseScalar(f schema.Field, val json.RawMessage) (any, error) {
	switch f.Type {
	case schema.Text:
		var s string
		if err := json.Unmarshal(val, &s); err != nil {
			return nil, err
		}
		return s, nil
	case schema.Int:
		var n int64
		if err := json.Unmarshal(val, &n); err != nil {
			return nil, err
		}
		return n, nil
	case schema.Float:
		var n float64
		if err := json.Unmarshal(val, &n); err != nil {
			return nil, err
		}
		return n, nil
	case schema.Bool:
		var b bool
		if err := json.Unmarshal(val, &b); err != nil {
			return nil, err
		}
		return b, nil
	case schema.Date, schema.Timestamp:
		var s string
		if err := json.Unmarshal(val, &s); err != nil {
			return nil, err
		}
		t, err := parseTime(f.Type, s)
		if err != nil {
			return nil, err
		}
		return t, nil
	default:
		return nil, fmt.Errorf("unsupported type %s", f.Type)
	}
}

func parseTime(t schema.FieldType, s string) (time.Time, error) {
	if t == schema.Date {
		return time.Parse("2006-01-02", s)
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	return time.Parse("2006-01-02", s)
}

func isNull(raw json.RawMessage) bool {
	return string(raw) == "null"
}
