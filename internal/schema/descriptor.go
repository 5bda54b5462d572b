// Package schema declares the entity descriptors the whole service is
// parameterized by: table layout, relations, unique keys and the DDL
// derived from them.
package schema

import "fmt"

// FieldType enumerates the column types descriptors may use.
type FieldType string

const (
	Text      FieldType = "text"
	Int       FieldType = "int"
	Float     FieldType = "float"
	Bool      FieldType = "bool"
	Date      FieldType = "date"
	Timestamp FieldType = "timestamp"
)

// Field describes one column. The primary key is declared on the
// Descriptor, not here.
type Field struct {
	Name     string
	Type     FieldType
	Nullable bool
	Unique   bool
	Indexed  bool
	Default  string // raw SQL default expression, e.g. "false" or "now()"
}

// RelationKind distinguishes the two traversal directions.
type RelationKind string

const (
	BelongsTo RelationKind = "belongs_to"
	HasMany   RelationKind = "has_many"
)

// Relation links a descriptor to another table. Name is the singular key
// used in filter criteria; Aggregate is the name of the relation-read route
// and of the nested value in its response (plural for HasMany). FK is the
// foreign key column: on this table for BelongsTo, on the related table for
// HasMany. Every relation cascades on delete.
type Relation struct {
	Name      string
	Aggregate string
	Kind      RelationKind
	Table     string
	FK        string
}

// Unique is a named multi-column uniqueness constraint.
type Unique struct {
	Name    string
	Columns []string
}

// Descriptor is the full description of one entity table.
type Descriptor struct {
	Table     string
	Key       string // serial primary key column
	Fields    []Field
	Relations []Relation
	Uniques   []Unique
	// Toggles lists boolean columns exposed as flip operations. The soft
	// delete flag "desac" is routed as /activate, any other as /<column>.
	Toggles []string
}

// Columns returns the primary key followed by every field name, in
// declaration order. Select lists and insert lists are built from this so
// scanning stays positional.
func (d *Descriptor) Columns() []string {
	cols := make([]string, 0, len(d.Fields)+1)
	cols = append(cols, d.Key)
	for _, f := range d.Fields {
		cols = append(cols, f.Name)
	}
	return cols
}

// Field returns the named field, or false when the descriptor has no such
// column. The primary key is reported as a non-nullable Int.
func (d *Descriptor) Field(name string) (Field, bool) {
	if name == d.Key {
		return Field{Name: name, Type: Int}, true
	}
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Relation returns the relation whose criteria name matches.
func (d *Descriptor) Relation(name string) (Relation, bool) {
	for _, r := range d.Relations {
		if r.Name == name {
			return r, true
		}
	}
	return Relation{}, false
}

// SoftDelete reports whether the entity carries the desac flag.
func (d *Descriptor) SoftDelete() bool {
	_, ok := d.Field("desac")
	return ok
}

// Registry holds every descriptor in dependency order (referenced tables
// first), which is also the order DDL is applied in.
type Registry struct {
	ordered []*Descriptor
	byTable map[string]*Descriptor
}

// NewRegistry builds a registry from descriptors in dependency order.
func NewRegistry(descs ...*Descriptor) (*Registry, error) {
	r := &Registry{byTable: make(map[string]*Descriptor, len(descs))}
	for _, d := range descs {
		if _, dup := r.byTable[d.Table]; dup {
			return nil, fmt.Errorf("schema: duplicate table %q", d.Table)
		}
		r.byTable[d.Table] = d
		r.ordered = append(r.ordered, d)
	}
	for _, d := range r.ordered {
		for _, rel := range d.Relations {
			if _, ok := r.byTable[rel.Table]; !ok {
				return nil, fmt.Errorf("schema: %s relation %q references unknown table %q", d.Table, rel.Name, rel.Table)
			}
		}
	}
	return r, nil
}

// Lookup returns the descriptor for a table name.
func (r *Registry) Lookup(table string) (*Descriptor, bool) {
	d, ok := r.byTable[table]
	return d, ok
}

// All returns descriptors in dependency order.
func (r *Registry) All() []*Descriptor {
	return r.ordered
}
