package query

import "tetoca.org/internal/schema"

// Expr is a filter expression node. The variants are deliberately few:
// equality, case-insensitive containment, conjunction, and an inner join
// carrying a nested expression over the related table.
type Expr interface {
	isExpr()
}

// Equals matches a column exactly.
type Equals struct {
	Table  string
	Column string
	Value  any
}

// Contains matches a text column by case-insensitive substring. An empty
// substring matches every non-null value.
type Contains struct {
	Table  string
	Column string
	Substr string
}

// And is the conjunction of its operands; empty And matches everything.
type And []Expr

// Join is an inner join from Parent to the relation's table, with a nested
// expression applied to the joined rows.
type Join struct {
	Parent string
	Rel    schema.Relation
	Expr   Expr
}

func (Equals) isExpr()   {}
func (Contains) isExpr() {}
func (And) isExpr()      {}
func (Join) isExpr()     {}

// Build lowers criteria into an expression tree. Field order is not
// significant: And is conjunctive and the interpreters sort for stable
// output.
func Build(c *Criteria) Expr {
	if c.Empty() {
		return And{}
	}
	var out And
	for _, name := range sortedKeys(c.Exact) {
		out = append(out, Equals{Table: c.Desc.Table, Column: name, Value: c.Exact[name]})
	}
	for _, name := range sortedKeys(c.Fields) {
		f, _ := c.Desc.Field(name)
		v := c.Fields[name]
		if s, ok := v.(string); ok && f.Type == schema.Text {
			out = append(out, Contains{Table: c.Desc.Table, Column: name, Substr: s})
			continue
		}
		out = append(out, Equals{Table: c.Desc.Table, Column: name, Value: v})
	}
	for _, name := range sortedRelKeys(c.Relations) {
		rel, _ := c.Desc.Relation(name)
		out = append(out, Join{
			Parent: c.Desc.Table,
			Rel:    rel,
			Expr:   Build(c.Relations[name]),
		})
	}
	return out
}
