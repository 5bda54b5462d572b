package main

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"golang.org/x/crypto/bcrypt"
)

func TestRehashResetsEveryPasswordToCI(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("select id_usuario, ci from usuarios order by id_usuario")).
		WillReturnRows(sqlmock.NewRows([]string{"id_usuario", "ci"}).
			AddRow(int64(1), "85010112345").
			AddRow(int64(2), "90020254321"))

	var hashes []string
	for i := 0; i < 2; i++ {
		mock.ExpectExec(regexp.QuoteMeta("update usuarios set hash_clave = $1 where id_usuario = $2")).
			WithArgs(argRecorder{&hashes}, int64(i+1)).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}

	n, err := rehash(context.Background(), db)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("rehashed %d users, want 2", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}

	for i, ci := range []string{"85010112345", "90020254321"} {
		if bcrypt.CompareHashAndPassword([]byte(hashes[i]), []byte(ci)) != nil {
			t.Fatalf("hash %d does not verify against ci %s", i, ci)
		}
	}
}

func TestResetRequiresExistingUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("update usuarios set hash_clave = $1, desac = false where ci = $2")).
		WithArgs(sqlmock.AnyArg(), "00000000000").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := reset(context.Background(), db, "00000000000", "clave"); err == nil {
		t.Fatal("expected an error for an unknown ci")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

// argRecorder matches any string argument and keeps it for later checks.
type argRecorder struct {
	dst *[]string
}

func (r argRecorder) Match(v driver.Value) bool {
	s, ok := v.(string)
	if ok {
		*r.dst = append(*r.dst, s)
	}
	return ok
}
