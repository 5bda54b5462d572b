package schema

import (
	"fmt"
	"strings"
)

// DDL renders idempotent statements for every table in the registry, in
// dependency order, followed by index statements and the session revocation
// side table.
func DDL(reg *Registry) []string {
	var stmts []string
	for _, d := range reg.All() {
		stmts = append(stmts, tableDDL(d))
	}
	for _, d := range reg.All() {
		stmts = append(stmts, indexDDL(d)...)
	}
	stmts = append(stmts, sessionsDDL)
	return stmts
}

// sessionsDDL backs auth.PGGate: a persisted forced-logout set.
const sessionsDDL = `create table if not exists sesiones_revocadas (
	id_usuario integer primary key,
	revocado_en timestamptz not null default now()
)`

func tableDDL(d *Descriptor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "create table if not exists %s (\n", d.Table)
	fmt.Fprintf(&b, "\t%s serial primary key", d.Key)
	for _, f := range d.Fields {
		b.WriteString(",\n\t")
		b.WriteString(columnDDL(d, f))
	}
	for _, u := range d.Uniques {
		fmt.Fprintf(&b, ",\n\tconstraint %s unique (%s)", u.Name, strings.Join(u.Columns, ", "))
	}
	b.WriteString("\n)")
	return b.String()
}

func columnDDL(d *Descriptor, f Field) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", f.Name, sqlType(f.Type))
	if !f.Nullable {
		b.WriteString(" not null")
	}
	if f.Unique {
		b.WriteString(" unique")
	}
	if f.Default != "" {
		fmt.Fprintf(&b, " default %s", f.Default)
	}
	if rel, ok := foreignKey(d, f.Name); ok {
		fmt.Fprintf(&b, " references %s(%s) on delete cascade", rel.Table, relatedKey(rel))
	}
	return b.String()
}

func indexDDL(d *Descriptor) []string {
	var stmts []string
	for _, f := range d.Fields {
		if !f.Indexed || f.Unique {
			continue
		}
		stmts = append(stmts, fmt.Sprintf("create index if not exists idx_%s_%s on %s (%s)",
			d.Table, f.Name, d.Table, f.Name))
	}
	return stmts
}

func foreignKey(d *Descriptor, column string) (Relation, bool) {
	for _, rel := range d.Relations {
		if rel.Kind == BelongsTo && rel.FK == column {
			return rel, true
		}
	}
	return Relation{}, false
}

// relatedKey derives the primary key of the referenced table from its FK
// column name, which by convention is the same identifier.
func relatedKey(rel Relation) string {
	return rel.FK
}

func sqlType(t FieldType) string {
	switch t {
	case Text:
		return "text"
	case Int:
		return "integer"
	case Float:
		return "double precision"
	case Bool:
		return "boolean"
	case Date:
		return "date"
	case Timestamp:
		return "timestamptz"
	default:
		return "text"
	}
}
