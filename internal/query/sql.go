package query

import (
	"fmt"
	"sort"
	"strings"

	"tetoca.org/internal/schema"
)

// Compiled is the SQL form of an expression: join clauses, a WHERE
// conjunction and its positional arguments. Execution is left to the store;
// compiling has no side effects.
type Compiled struct {
	Joins []string
	Where []string
	Args  []any
}

// WhereSQL renders the conjunction, or an empty string when unconstrained.
func (c Compiled) WhereSQL() string {
	if len(c.Where) == 0 {
		return ""
	}
	return " where " + strings.Join(c.Where, " and ")
}

// JoinSQL renders the join clauses.
func (c Compiled) JoinSQL() string {
	if len(c.Joins) == 0 {
		return ""
	}
	return " " + strings.Join(c.Joins, " ")
}

// Compile interprets an expression tree against a base alias. Joined tables
// get generated aliases so a table reachable through two paths stays
// unambiguous.
func Compile(e Expr, baseAlias string) Compiled {
	b := &compiler{}
	b.walk(e, baseAlias)
	return Compiled{Joins: b.joins, Where: b.conds, Args: b.args}
}

type compiler struct {
	joins  []string
	conds  []string
	args   []any
	aliasN int
}

func (b *compiler) walk(e Expr, alias string) {
	switch v := e.(type) {
	case Equals:
		b.args = append(b.args, v.Value)
		b.conds = append(b.conds, fmt.Sprintf("%s.%s = $%d", alias, v.Column, len(b.args)))
	case Contains:
		b.args = append(b.args, "%"+v.Substr+"%")
		b.conds = append(b.conds, fmt.Sprintf("%s.%s ilike $%d", alias, v.Column, len(b.args)))
	case And:
		for _, sub := range v {
			b.walk(sub, alias)
		}
	case Join:
		b.aliasN++
		joined := fmt.Sprintf("j%d", b.aliasN)
		// both ends of every relation share the FK column name
		b.joins = append(b.joins, fmt.Sprintf("join %s %s on %s.%s = %s.%s",
			v.Rel.Table, joined, alias, v.Rel.FK, joined, v.Rel.FK))
		b.walk(v.Expr, joined)
	}
}

// Select renders a full filtered select over a descriptor: explicit column
// list, joins, conjunctive WHERE and a stable primary key ordering.
func Select(desc *schema.Descriptor, c *Criteria) (string, []any) {
	compiled := Compile(Build(c), "t")
	cols := make([]string, 0, len(desc.Fields)+1)
	for _, col := range desc.Columns() {
		cols = append(cols, "t."+col)
	}
	sql := fmt.Sprintf("select %s from %s t%s%s order by t.%s",
		strings.Join(cols, ", "), desc.Table,
		compiled.JoinSQL(), compiled.WhereSQL(), desc.Key)
	return sql, compiled.Args
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedRelKeys(m map[string]*Criteria) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
