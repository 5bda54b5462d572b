package memory

import (
	"context"
	"errors"
	"testing"

	"tetoca.org/internal/query"
	"tetoca.org/internal/schema"
	"tetoca.org/internal/store"
)

func newStore() *Store {
	return NewStore(schema.TeToca())
}

func mustCreate(t *testing.T, s *Store, table string, rec store.Record) store.Record {
	t.Helper()
	desc, _ := schema.TeToca().Lookup(table)
	created, err := s.Create(context.Background(), desc, rec)
	if err != nil {
		t.Fatalf("create %s: %v", table, err)
	}
	return created
}

func TestCreateAssignsIDAndDefaults(t *testing.T) {
	s := newStore()
	rec := mustCreate(t, s, "provincias", store.Record{"nombre": "La Habana"})
	if store.Int(rec, "id_provincia") != 1 {
		t.Fatalf("id = %v", rec["id_provincia"])
	}
	if store.Bool(rec, "desac") {
		t.Fatal("desac should default to false")
	}
	second := mustCreate(t, s, "provincias", store.Record{"nombre": "Artemisa"})
	if store.Int(second, "id_provincia") != 2 {
		t.Fatalf("second id = %v", second["id_provincia"])
	}
}

func TestCreateRequiresMandatoryFields(t *testing.T) {
	s := newStore()
	desc, _ := schema.TeToca().Lookup("provincias")
	_, err := s.Create(context.Background(), desc, store.Record{"siglas": "XX"})
	if !errors.Is(err, store.ErrBadRequest) {
		t.Fatalf("err = %v", err)
	}
}

func TestCreateDuplicateIsConflict(t *testing.T) {
	s := newStore()
	mustCreate(t, s, "provincias", store.Record{"nombre": "Matanzas"})
	desc, _ := schema.TeToca().Lookup("provincias")
	_, err := s.Create(context.Background(), desc, store.Record{"nombre": "Matanzas"})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("err = %v", err)
	}
}

func TestCompositeUniqueAllowsSameNumberInOtherParent(t *testing.T) {
	s := newStore()
	seedBodega(t, s, "Oficina 1")
	seedBodega(t, s, "Oficina 2")

	mustCreate(t, s, "nucleos", store.Record{"numero": "N-1", "id_bodega": int64(1)})
	mustCreate(t, s, "nucleos", store.Record{"numero": "N-1", "id_bodega": int64(2)})

	desc, _ := schema.TeToca().Lookup("nucleos")
	_, err := s.Create(context.Background(), desc, store.Record{"numero": "N-1", "id_bodega": int64(1)})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("err = %v", err)
	}
}

func TestCreateUnknownReferenceIsBadRequest(t *testing.T) {
	s := newStore()
	mustCreate(t, s, "provincias", store.Record{"nombre": "Granma"})
	desc, _ := schema.TeToca().Lookup("municipios")
	_, err := s.Create(context.Background(), desc, store.Record{"nombre": "Bayamo", "id_provincia": int64(9)})
	if !errors.Is(err, store.ErrBadRequest) {
		t.Fatalf("err = %v", err)
	}
}

func TestSearchSubstringIsCaseInsensitive(t *testing.T) {
	s := newStore()
	mustCreate(t, s, "provincias", store.Record{"nombre": "La Habana"})
	mustCreate(t, s, "provincias", store.Record{"nombre": "Granma"})

	desc, _ := schema.TeToca().Lookup("provincias")
	recs, err := s.Search(context.Background(), desc, query.New(desc).Where("nombre", "la"), 0, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || store.Str(recs[0], "nombre") != "La Habana" {
		t.Fatalf("recs = %v", recs)
	}
}

func TestSearchWindowing(t *testing.T) {
	s := newStore()
	for _, n := range []string{"A", "B", "C", "D"} {
		mustCreate(t, s, "provincias", store.Record{"nombre": n})
	}
	desc, _ := schema.TeToca().Lookup("provincias")

	recs, err := s.Search(context.Background(), desc, query.New(desc), 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 || store.Str(recs[0], "nombre") != "B" || store.Str(recs[1], "nombre") != "C" {
		t.Fatalf("recs = %v", recs)
	}

	recs, err = s.Search(context.Background(), desc, query.New(desc), 10, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 0 {
		t.Fatalf("beyond-end skip should be empty, got %v", recs)
	}
}

func TestReadAmbiguousAndMissing(t *testing.T) {
	s := newStore()
	mustCreate(t, s, "provincias", store.Record{"nombre": "A"})
	mustCreate(t, s, "provincias", store.Record{"nombre": "B"})
	desc, _ := schema.TeToca().Lookup("provincias")

	if _, err := s.Read(context.Background(), desc, query.New(desc).Where("desac", false)); !errors.Is(err, store.ErrAmbiguous) {
		t.Fatalf("err = %v", err)
	}
	if _, err := s.Read(context.Background(), desc, query.New(desc).Where("nombre", "Zanzíbar")); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestUpdateRequiresNonKeyChange(t *testing.T) {
	s := newStore()
	created := mustCreate(t, s, "provincias", store.Record{"nombre": "Original"})
	desc, _ := schema.TeToca().Lookup("provincias")

	_, err := s.Update(context.Background(), desc, store.Record{"id_provincia": created["id_provincia"]}, []string{"id_provincia"})
	if !errors.Is(err, store.ErrBadRequest) {
		t.Fatalf("err = %v", err)
	}

	// row is unchanged
	rec, err := s.Read(context.Background(), desc, query.New(desc).WhereExact("id_provincia", created["id_provincia"]))
	if err != nil {
		t.Fatal(err)
	}
	if store.Str(rec, "nombre") != "Original" {
		t.Fatalf("row modified: %v", rec)
	}
}

func TestUpdateAppliesChanges(t *testing.T) {
	s := newStore()
	created := mustCreate(t, s, "provincias", store.Record{"nombre": "Antes"})
	desc, _ := schema.TeToca().Lookup("provincias")

	patch := store.Record{"id_provincia": created["id_provincia"], "nombre": "Después", "siglas": "DP"}
	updated, err := s.Update(context.Background(), desc, patch, []string{"id_provincia"})
	if err != nil {
		t.Fatal(err)
	}
	if store.Str(updated, "nombre") != "Después" || store.Str(updated, "siglas") != "DP" {
		t.Fatalf("updated = %v", updated)
	}
}

func TestUpdateMissingIsNotFound(t *testing.T) {
	s := newStore()
	desc, _ := schema.TeToca().Lookup("provincias")
	patch := store.Record{"id_provincia": int64(42), "nombre": "Nada"}
	if _, err := s.Update(context.Background(), desc, patch, []string{"id_provincia"}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestUpdateDuplicateIsConflict(t *testing.T) {
	s := newStore()
	mustCreate(t, s, "provincias", store.Record{"nombre": "Uno"})
	second := mustCreate(t, s, "provincias", store.Record{"nombre": "Dos"})
	desc, _ := schema.TeToca().Lookup("provincias")

	patch := store.Record{"id_provincia": second["id_provincia"], "nombre": "Uno"}
	if _, err := s.Update(context.Background(), desc, patch, []string{"id_provincia"}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("err = %v", err)
	}
}

func TestDeleteCascades(t *testing.T) {
	s := newStore()
	prov := mustCreate(t, s, "provincias", store.Record{"nombre": "Holguín"})
	mustCreate(t, s, "municipios", store.Record{"nombre": "Mayarí", "id_provincia": prov["id_provincia"]})

	reg := schema.TeToca()
	provincias, _ := reg.Lookup("provincias")
	municipios, _ := reg.Lookup("municipios")

	deleted, err := s.Delete(context.Background(), provincias,
		query.New(provincias).WhereExact("id_provincia", prov["id_provincia"]))
	if err != nil {
		t.Fatal(err)
	}
	if store.Str(deleted, "nombre") != "Holguín" {
		t.Fatalf("deleted = %v", deleted)
	}
	recs, err := s.Search(context.Background(), municipios, query.New(municipios), 0, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 0 {
		t.Fatalf("children should cascade: %v", recs)
	}
}

func TestDeleteMissingIsNotFound(t *testing.T) {
	s := newStore()
	desc, _ := schema.TeToca().Lookup("provincias")
	_, err := s.Delete(context.Background(), desc, query.New(desc).WhereExact("id_provincia", int64(7)))
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestTogglePairsBackToOriginal(t *testing.T) {
	s := newStore()
	created := mustCreate(t, s, "provincias", store.Record{"nombre": "Camagüey"})
	desc, _ := schema.TeToca().Lookup("provincias")
	c := query.New(desc).WhereExact("id_provincia", created["id_provincia"])

	once, err := s.Toggle(context.Background(), desc, "desac", c)
	if err != nil {
		t.Fatal(err)
	}
	if !store.Bool(once, "desac") {
		t.Fatal("first toggle should set desac")
	}
	twice, err := s.Toggle(context.Background(), desc, "desac", c)
	if err != nil {
		t.Fatal(err)
	}
	if store.Bool(twice, "desac") {
		t.Fatal("second toggle should clear desac")
	}
}

func TestRelationFilterBothDirections(t *testing.T) {
	s := newStore()
	habana := mustCreate(t, s, "provincias", store.Record{"nombre": "La Habana"})
	mustCreate(t, s, "provincias", store.Record{"nombre": "Granma"})
	mustCreate(t, s, "municipios", store.Record{"nombre": "Playa", "id_provincia": habana["id_provincia"]})

	reg := schema.TeToca()
	provincias, _ := reg.Lookup("provincias")
	municipios, _ := reg.Lookup("municipios")

	// parent filtered by child
	c, err := query.Parse(reg, provincias, []byte(`{"municipio":{"nombre":"playa"}}`))
	if err != nil {
		t.Fatal(err)
	}
	recs, err := s.Search(context.Background(), provincias, c, 0, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || store.Str(recs[0], "nombre") != "La Habana" {
		t.Fatalf("recs = %v", recs)
	}

	// child filtered by parent
	c, err = query.Parse(reg, municipios, []byte(`{"provincia":{"nombre":"habana"}}`))
	if err != nil {
		t.Fatal(err)
	}
	recs, err = s.Search(context.Background(), municipios, c, 0, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || store.Str(recs[0], "nombre") != "Playa" {
		t.Fatalf("recs = %v", recs)
	}
}

// seedBodega builds the provincia > municipio > oficina > bodega chain a
// nucleo needs.
func seedBodega(t *testing.T, s *Store, oficina string) store.Record {
	t.Helper()
	prov := mustCreate(t, s, "provincias", store.Record{"nombre": "P-" + oficina})
	mun := mustCreate(t, s, "municipios", store.Record{"nombre": "M-" + oficina, "id_provincia": prov["id_provincia"]})
	ofi := mustCreate(t, s, "oficinas", store.Record{"nombre": oficina, "direccion": "Calle 1", "id_municipio": mun["id_municipio"]})
	return mustCreate(t, s, "bodegas", store.Record{"numero": "B-" + oficina, "id_oficina": ofi["id_oficina"]})
}
