package schema

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Apply executes the registry DDL against the database. Statements are
// idempotent (create ... if not exists); duplicate-object errors from
// concurrent starts are skipped rather than fatal.
func Apply(ctx context.Context, db *sql.DB, reg *Registry) error {
	for _, stmt := range DDL(reg) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			if isDuplicateObject(err) {
				continue
			}
			return fmt.Errorf("schema: apply DDL: %w", err)
		}
	}
	return nil
}

func isDuplicateObject(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 42710 duplicate_object, 42P07 duplicate_table
		return pgErr.Code == "42710" || pgErr.Code == "42P07"
	}
	return strings.Contains(strings.ToLower(err.Error()), "already exists")
}

// seedRows are the reference rows the service expects to exist: the compra
// lifecycle states and the staff roles. Inserts are idempotent on nombre.
var seedRows = []struct {
	table  string
	nombre string
	desc   string
}{
	{"estados", "pendiente", "Compra creada, pendiente de pago"},
	{"estados", "pagada", "Compra pagada en la tienda"},
	{"estados", "entregada", "Compra entregada al núcleo"},
	{"estados", "cancelada", "Compra cancelada"},
	{"roles", "administrador", "Acceso total"},
	{"roles", "oficoda", "Gestión de una oficina"},
	{"roles", "responsable", "Gestión de una tienda"},
	{"roles", "consumidor", "Usuario de un núcleo"},
}

// Seed inserts the default reference rows.
func Seed(ctx context.Context, db *sql.DB) error {
	for _, row := range seedRows {
		stmt := fmt.Sprintf(
			`insert into %s (nombre, descripcion) values ($1, $2) on conflict (nombre) do nothing`,
			row.table)
		if _, err := db.ExecContext(ctx, stmt, row.nombre, row.desc); err != nil {
			return fmt.Errorf("schema: seed %s: %w", row.table, err)
		}
	}
	return nil
}
