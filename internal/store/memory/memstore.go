// Package memory implements the generic CRUD forwarder in process memory.
// It mirrors the PostgreSQL behavior (uniqueness constraints, cascading
// deletes, filter semantics) so handler tests and DSN-less runs exercise
// the same contract.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"tetoca.org/internal/query"
	"tetoca.org/internal/schema"
	"tetoca.org/internal/store"
)

type Store struct {
	mu     sync.RWMutex
	reg    *schema.Registry
	tables map[string]map[int64]store.Record
	nextID map[string]int64
}

var _ store.Store = (*Store)(nil)

func NewStore(reg *schema.Registry) *Store {
	s := &Store{
		reg:    reg,
		tables: make(map[string]map[int64]store.Record),
		nextID: make(map[string]int64),
	}
	for _, d := range reg.All() {
		s.tables[d.Table] = make(map[int64]store.Record)
	}
	return s
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

func (s *Store) Search(_ context.Context, desc *schema.Descriptor, c *query.Criteria, skip, limit int) ([]store.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := s.collect(desc, c)
	if skip >= len(recs) {
		return nil, nil
	}
	recs = recs[skip:]
	if limit >= 0 && limit < len(recs) {
		recs = recs[:limit]
	}
	out := make([]store.Record, len(recs))
	for i, rec := range recs {
		out[i] = clone(rec)
	}
	return out, nil
}

func (s *Store) Read(_ context.Context, desc *schema.Descriptor, c *query.Criteria) (store.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := s.collect(desc, c)
	switch len(recs) {
	case 0:
		return nil, store.ErrNotFound
	case 1:
		return clone(recs[0]), nil
	default:
		return nil, store.ErrAmbiguous
	}
}

func (s *Store) Create(_ context.Context, desc *schema.Descriptor, rec store.Record) (store.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := make(store.Record, len(desc.Fields)+1)
	for _, f := range desc.Fields {
		v, present := rec[f.Name]
		if !present || v == nil {
			v = defaultValue(f)
		}
		if v == nil && !f.Nullable {
			return nil, fmt.Errorf("%w: %s is required", store.ErrBadRequest, f.Name)
		}
		row[f.Name] = v
	}
	if err := s.checkReferences(desc, row); err != nil {
		return nil, err
	}
	if err := s.checkUniques(desc, row, 0); err != nil {
		return nil, err
	}

	s.nextID[desc.Table]++
	id := s.nextID[desc.Table]
	row[desc.Key] = id
	s.tables[desc.Table][id] = row
	return clone(row), nil
}

func (s *Store) Update(_ context.Context, desc *schema.Descriptor, patch store.Record, keys []string) (store.Record, error) {
	identity, changes, err := store.SplitPatch(desc, patch, keys)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	row, err := s.one(desc, identity)
	if err != nil {
		return nil, err
	}
	updated := clone(row)
	for col, v := range changes {
		updated[col] = v
	}
	if err := s.checkReferences(desc, updated); err != nil {
		return nil, err
	}
	if err := s.checkUniques(desc, updated, store.Int(row, desc.Key)); err != nil {
		return nil, err
	}
	s.tables[desc.Table][store.Int(row, desc.Key)] = updated
	return clone(updated), nil
}

func (s *Store) Delete(_ context.Context, desc *schema.Descriptor, c *query.Criteria) (store.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, err := s.one(desc, c)
	if err != nil {
		return nil, err
	}
	s.cascade(desc, store.Int(row, desc.Key))
	return clone(row), nil
}

func (s *Store) Toggle(_ context.Context, desc *schema.Descriptor, column string, c *query.Criteria) (store.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, err := s.one(desc, c)
	if err != nil {
		return nil, err
	}
	current, _ := row[column].(bool)
	row[column] = !current
	return clone(row), nil
}

// collect returns the matching rows in primary key order. Caller holds the
// lock.
func (s *Store) collect(desc *schema.Descriptor, c *query.Criteria) []store.Record {
	table := s.tables[desc.Table]
	ids := make([]int64, 0, len(table))
	for id := range table {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []store.Record
	for _, id := range ids {
		if s.matches(desc, table[id], c) {
			out = append(out, table[id])
		}
	}
	return out
}

func (s *Store) one(desc *schema.Descriptor, c *query.Criteria) (store.Record, error) {
	recs := s.collect(desc, c)
	switch len(recs) {
	case 0:
		return nil, store.ErrNotFound
	case 1:
		return recs[0], nil
	default:
		return nil, store.ErrAmbiguous
	}
}

func (s *Store) matches(desc *schema.Descriptor, rec store.Record, c *query.Criteria) bool {
	if c.Empty() {
		return true
	}
	for col, want := range c.Exact {
		if !equal(rec[col], want) {
			return false
		}
	}
	for col, want := range c.Fields {
		f, _ := desc.Field(col)
		if sub, ok := want.(string); ok && f.Type == schema.Text {
			have, ok := rec[col].(string)
			if !ok || !strings.Contains(strings.ToLower(have), strings.ToLower(sub)) {
				return false
			}
			continue
		}
		if !equal(rec[col], want) {
			return false
		}
	}
	for name, nested := range c.Relations {
		rel, _ := desc.Relation(name)
		related, _ := s.reg.Lookup(rel.Table)
		switch rel.Kind {
		case schema.BelongsTo:
			fk, ok := rec[rel.FK].(int64)
			if !ok {
				return false // null FK never joins
			}
			parent, ok := s.tables[rel.Table][fk]
			if !ok || !s.matches(related, parent, nested) {
				return false
			}
		case schema.HasMany:
			id := store.Int(rec, desc.Key)
			found := false
			for _, child := range s.tables[rel.Table] {
				if store.Int(child, rel.FK) == id && s.matches(related, child, nested) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

// cascade removes a row and, transitively, every dependent row.
func (s *Store) cascade(desc *schema.Descriptor, id int64) {
	delete(s.tables[desc.Table], id)
	for _, rel := range desc.Relations {
		if rel.Kind != schema.HasMany {
			continue
		}
		child, _ := s.reg.Lookup(rel.Table)
		var victims []int64
		for cid, rec := range s.tables[rel.Table] {
			if store.Int(rec, rel.FK) == id {
				victims = append(victims, cid)
			}
		}
		for _, cid := range victims {
			s.cascade(child, cid)
		}
	}
}

func (s *Store) checkReferences(desc *schema.Descriptor, row store.Record) error {
	for _, rel := range desc.Relations {
		if rel.Kind != schema.BelongsTo {
			continue
		}
		fk, ok := row[rel.FK].(int64)
		if !ok {
			continue // null FKs pass, as in SQL
		}
		if _, exists := s.tables[rel.Table][fk]; !exists {
			return fmt.Errorf("%w: referenced row does not exist", store.ErrBadRequest)
		}
	}
	return nil
}

// checkUniques enforces single-column and composite constraints. Rows with
// a null in the constrained columns never collide, matching SQL semantics.
func (s *Store) checkUniques(desc *schema.Descriptor, row store.Record, selfID int64) error {
	for _, f := range desc.Fields {
		if !f.Unique {
			continue
		}
		if err := s.uniqueTaken(desc, row, []string{f.Name}, selfID, f.Name); err != nil {
			return err
		}
	}
	for _, u := range desc.Uniques {
		if err := s.uniqueTaken(desc, row, u.Columns, selfID, u.Name); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) uniqueTaken(desc *schema.Descriptor, row store.Record, cols []string, selfID int64, name string) error {
	for _, col := range cols {
		if row[col] == nil {
			return nil
		}
	}
	for id, other := range s.tables[desc.Table] {
		if id == selfID {
			continue
		}
		same := true
		for _, col := range cols {
			if !equal(other[col], row[col]) {
				same = false
				break
			}
		}
		if same {
			return fmt.Errorf("%w (%s)", store.ErrConflict, name)
		}
	}
	return nil
}

func defaultValue(f schema.Field) any {
	switch f.Default {
	case "":
		return nil
	case "now()":
		return time.Now().UTC()
	case "true":
		return true
	case "false":
		return false
	default:
		if n, err := strconv.ParseInt(f.Default, 10, 64); err == nil {
			return n
		}
		return nil
	}
}

func equal(a, b any) bool {
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	return a == b
}

func clone(rec store.Record) store.Record {
	out := make(store.Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}
