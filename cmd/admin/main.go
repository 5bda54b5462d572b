package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"tetoca.org/internal/auth"
	"tetoca.org/internal/schema"
)

// admin is the operator's toolbox: schema application, seeding, wiping
// a development database, bulk password rehash and single-user reset.
func main() {
	log.SetFlags(0)
	var (
		dsn = flag.String("dsn", os.Getenv("TETOCA_PG_DSN"), "PostgreSQL DSN")
	)
	flag.Parse()

	if *dsn == "" {
		log.Fatal("missing DSN: provide via -dsn or TETOCA_PG_DSN")
	}
	if len(flag.Args()) == 0 {
		log.Fatal("usage: admin [apply|seed|wipe|rehash|reset|info]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	reg := schema.TeToca()

	switch flag.Arg(0) {
	case "apply":
		err = schema.Apply(ctx, db, reg)
	case "seed":
		err = schema.Seed(ctx, db)
	case "wipe":
		err = wipe(ctx, db, reg)
	case "rehash":
		var n int
		n, err = rehash(ctx, db)
		if err == nil {
			log.Printf("rehashed %d usuarios", n)
		}
	case "reset":
		err = reset(ctx, db, flag.Arg(1), flag.Arg(2))
	case "info":
		err = info(ctx, db, reg)
	default:
		log.Fatalf("unknown command %q", flag.Arg(0))
	}
	if err != nil {
		log.Fatalf("admin %s: %v", flag.Arg(0), err)
	}
}

// wipe drops every table, dependents first.
func wipe(ctx context.Context, db *sql.DB, reg *schema.Registry) error {
	descs := reg.All()
	for i := len(descs) - 1; i >= 0; i-- {
		if _, err := db.ExecContext(ctx,
			fmt.Sprintf("drop table if exists %s cascade", descs[i].Table)); err != nil {
			return err
		}
	}
	_, err := db.ExecContext(ctx, "drop table if exists sesiones_revocadas")
	return err
}

// rehash resets every usuario's password to its ci. Used after a bulk
// import, where the identity number is the initial credential.
func rehash(ctx context.Context, db *sql.DB) (int, error) {
	rows, err := db.QueryContext(ctx, "select id_usuario, ci from usuarios order by id_usuario")
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	type usuario struct {
		id int64
		ci string
	}
	var users []usuario
	for rows.Next() {
		var u usuario
		if err := rows.Scan(&u.id, &u.ci); err != nil {
			return 0, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for i, u := range users {
		hash, err := auth.HashPassword(u.ci)
		if err != nil {
			return i, err
		}
		if _, err := db.ExecContext(ctx,
			"update usuarios set hash_clave = $1 where id_usuario = $2", hash, u.id); err != nil {
			return i, err
		}
	}
	return len(users), nil
}

// reset sets one user's password by ci, bypassing the registration flow.
func reset(ctx context.Context, db *sql.DB, ci, password string) error {
	if ci == "" || password == "" {
		return fmt.Errorf("usage: admin reset <ci> <password>")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx,
		"update usuarios set hash_clave = $1, desac = false where ci = $2", hash, ci)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("no user with ci %s", ci)
	}
	log.Printf("password updated for %s", ci)
	return nil
}

func info(ctx context.Context, db *sql.DB, reg *schema.Registry) error {
	for _, d := range reg.All() {
		var n int64
		if err := db.QueryRowContext(ctx,
			fmt.Sprintf("select count(*) from %s", d.Table)).Scan(&n); err != nil {
			return err
		}
		fmt.Printf("%-14s %d\n", d.Table, n)
	}
	return nil
}
