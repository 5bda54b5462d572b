// Package pg implements the generic CRUD forwarder on PostgreSQL.
package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"tetoca.org/internal/query"
	"tetoca.org/internal/schema"
	"tetoca.org/internal/store"
)

// Store executes descriptor-parameterized statements over a shared
// connection pool. Check-then-act pairs run inside one transaction;
// uniqueness is left to the table constraints and a violation is the
// authoritative conflict signal.
type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// Open connects to PostgreSQL and verifies the connection.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// NewStore wraps an existing pool; used by tests and the admin command.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// DB exposes the pool for schema bootstrap and the session gate.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Search(ctx context.Context, desc *schema.Descriptor, c *query.Criteria, skip, limit int) ([]store.Record, error) {
	sqlText, args := query.Select(desc, c)
	if limit < 0 {
		sqlText += fmt.Sprintf(" offset $%d", len(args)+1)
		args = append(args, skip)
	} else {
		sqlText += fmt.Sprintf(" offset $%d limit $%d", len(args)+1, len(args)+2)
		args = append(args, skip, limit)
	}

	rows, err := s.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(desc, rows)
}

func (s *Store) Read(ctx context.Context, desc *schema.Descriptor, c *query.Criteria) (store.Record, error) {
	return readOne(ctx, s.db, desc, c)
}

func (s *Store) Create(ctx context.Context, desc *schema.Descriptor, rec store.Record) (store.Record, error) {
	cols := presentColumns(desc, rec)
	var sqlText string
	args := make([]any, 0, len(cols))
	if len(cols) == 0 {
		sqlText = fmt.Sprintf("insert into %s default values returning %s",
			desc.Table, strings.Join(desc.Columns(), ", "))
	} else {
		placeholders := make([]string, len(cols))
		for i, col := range cols {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
			args = append(args, rec[col])
		}
		sqlText = fmt.Sprintf("insert into %s (%s) values (%s) returning %s",
			desc.Table, strings.Join(cols, ", "), strings.Join(placeholders, ", "),
			strings.Join(desc.Columns(), ", "))
	}

	row := s.db.QueryRowContext(ctx, sqlText, args...)
	created, err := scanRecord(desc, row)
	if err != nil {
		return nil, mapInsertError(err)
	}
	return created, nil
}

func (s *Store) Update(ctx context.Context, desc *schema.Descriptor, patch store.Record, keys []string) (store.Record, error) {
	identity, changes, err := store.SplitPatch(desc, patch, keys)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	id, err := lockKey(ctx, tx, desc, identity)
	if err != nil {
		return nil, err
	}

	sets := make([]string, 0, len(changes))
	args := make([]any, 0, len(changes)+1)
	for _, col := range sortedColumns(changes) {
		args = append(args, changes[col])
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	args = append(args, id)
	sqlText := fmt.Sprintf("update %s set %s where %s = $%d",
		desc.Table, strings.Join(sets, ", "), desc.Key, len(args))
	if _, err := tx.ExecContext(ctx, sqlText, args...); err != nil {
		return nil, mapInsertError(err)
	}

	refreshed, err := readByKey(ctx, tx, desc, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return refreshed, nil
}

func (s *Store) Delete(ctx context.Context, desc *schema.Descriptor, c *query.Criteria) (store.Record, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	victim, err := readOne(ctx, tx, desc, c)
	if err != nil {
		return nil, err
	}
	sqlText := fmt.Sprintf("delete from %s where %s = $1", desc.Table, desc.Key)
	if _, err := tx.ExecContext(ctx, sqlText, victim[desc.Key]); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, fmt.Errorf("%w: delete blocked by dependent rows", store.ErrConflict)
		}
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return victim, nil
}

func (s *Store) Toggle(ctx context.Context, desc *schema.Descriptor, column string, c *query.Criteria) (store.Record, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	id, err := lockKey(ctx, tx, desc, c)
	if err != nil {
		return nil, err
	}
	// null flags flip to true
	sqlText := fmt.Sprintf("update %s set %s = not coalesce(%s, false) where %s = $1",
		desc.Table, column, column, desc.Key)
	if _, err := tx.ExecContext(ctx, sqlText, id); err != nil {
		return nil, err
	}
	refreshed, err := readByKey(ctx, tx, desc, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return refreshed, nil
}

// querier abstracts *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// readOne expects exactly one match: it fetches up to two rows and reports
// ambiguity instead of silently returning an arbitrary first row.
func readOne(ctx context.Context, q querier, desc *schema.Descriptor, c *query.Criteria) (store.Record, error) {
	sqlText, args := query.Select(desc, c)
	sqlText += " limit 2"
	rows, err := q.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	recs, err := scanRecords(desc, rows)
	if err != nil {
		return nil, err
	}
	switch len(recs) {
	case 0:
		return nil, store.ErrNotFound
	case 1:
		return recs[0], nil
	default:
		return nil, store.ErrAmbiguous
	}
}

// lockKey resolves the identity criteria to the single matching primary key
// and locks the row for the remainder of the transaction.
func lockKey(ctx context.Context, tx *sql.Tx, desc *schema.Descriptor, c *query.Criteria) (int64, error) {
	compiled := query.Compile(query.Build(c), "t")
	sqlText := fmt.Sprintf("select t.%s from %s t%s%s order by t.%s limit 2 for update of t",
		desc.Key, desc.Table, compiled.JoinSQL(), compiled.WhereSQL(), desc.Key)
	rows, err := tx.QueryContext(ctx, sqlText, compiled.Args...)
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return 0, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}
	switch len(ids) {
	case 0:
		return 0, store.ErrNotFound
	case 1:
		return ids[0], nil
	default:
		return 0, store.ErrAmbiguous
	}
}

func readByKey(ctx context.Context, q querier, desc *schema.Descriptor, id int64) (store.Record, error) {
	sqlText := fmt.Sprintf("select %s from %s where %s = $1",
		strings.Join(desc.Columns(), ", "), desc.Table, desc.Key)
	row := q.QueryRowContext(ctx, sqlText, id)
	rec, err := scanRecord(desc, row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return rec, err
}

// presentColumns lists the record's columns in descriptor order, skipping
// the primary key (generated) and absent fields (storage defaults apply).
func presentColumns(desc *schema.Descriptor, rec store.Record) []string {
	var cols []string
	for _, f := range desc.Fields {
		if _, ok := rec[f.Name]; ok {
			cols = append(cols, f.Name)
		}
	}
	return cols
}

func sortedColumns(changes store.Record) []string {
	cols := make([]string, 0, len(changes))
	for col := range changes {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

func mapInsertError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%w (%s)", store.ErrConflict, pgErr.ConstraintName)
		case "23503":
			return fmt.Errorf("%w: referenced row does not exist", store.ErrBadRequest)
		case "23502":
			return fmt.Errorf("%w: %s is required", store.ErrBadRequest, pgErr.ColumnName)
		}
	}
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(desc *schema.Descriptor, row rowScanner) (store.Record, error) {
	holders := make([]any, len(desc.Fields)+1)
	var key sql.NullInt64
	holders[0] = &key
	for i, f := range desc.Fields {
		holders[i+1] = newHolder(f.Type)
	}
	if err := row.Scan(holders...); err != nil {
		return nil, err
	}
	rec := make(store.Record, len(holders))
	rec[desc.Key] = key.Int64
	for i, f := range desc.Fields {
		rec[f.Name] = holderValue(holders[i+1])
	}
	return rec, nil
}

func scanRecords(desc *schema.Descriptor, rows *sql.Rows) ([]store.Record, error) {
	var recs []store.Record
	for rows.Next() {
		rec, err := scanRecord(desc, rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return recs, nil
}

func newHolder(t schema.FieldType) any {
	switch t {
	case schema.Int:
		return new(sql.NullInt64)
	case schema.Float:
		return new(sql.NullFloat64)
	case schema.Bool:
		return new(sql.NullBool)
	case schema.Date, schema.Timestamp:
		return new(sql.NullTime)
	default:
		return new(sql.NullString)
	}
}

func holderValue(h any) any {
	switch v := h.(type) {
	case *sql.NullInt64:
		if v.Valid {
			return v.Int64
		}
	case *sql.NullFloat64:
		if v.Valid {
			return v.Float64
		}
	case *sql.NullBool:
		if v.Valid {
			return v.Bool
		}
	case *sql.NullTime:
		if v.Valid {
			return v.Time
		}
	case *sql.NullString:
		if v.Valid {
			return v.String
		}
	}
	return nil
}
