package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"tetoca.org/internal/auth"
	"tetoca.org/internal/schema"
	"tetoca.org/internal/store"
	"tetoca.org/internal/store/memory"
)

type testEnv struct {
	srv *httptest.Server
	st  *memory.Store
	reg *schema.Registry
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	reg := schema.TeToca()
	st := memory.NewStore(reg)
	svc := auth.NewService(st, reg, auth.TokenConfig{
		Secret:    []byte("prueba-secreta"),
		Algorithm: "HS256",
		TTL:       time.Minute,
	}, auth.NewMemoryGate())

	api := New(st, reg, svc, "test", Options{})
	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, st: st, reg: reg}
}

func (e *testEnv) create(t *testing.T, table string, rec store.Record) store.Record {
	t.Helper()
	desc, _ := e.reg.Lookup(table)
	out, err := e.st.Create(context.Background(), desc, rec)
	if err != nil {
		t.Fatalf("create %s: %v", table, err)
	}
	return out
}

// seedUser adds an active account and returns its ci.
func (e *testEnv) seedUser(t *testing.T) string {
	t.Helper()
	hash, err := auth.HashPassword("secreto")
	if err != nil {
		t.Fatal(err)
	}
	e.create(t, "usuarios", store.Record{
		"ci":         "85010112345",
		"hash_clave": hash,
		"desac":      false,
	})
	return "85010112345"
}

func (e *testEnv) login(t *testing.T, username string) string {
	t.Helper()
	form := url.Values{"username": {username}, "password": {"secreto"}}
	resp, err := http.PostForm(e.srv.URL+"/token", form)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("login status %d: %s", resp.StatusCode, body)
	}
	var tr struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		t.Fatal(err)
	}
	if tr.TokenType != "bearer" {
		t.Fatalf("token_type = %q", tr.TokenType)
	}
	return tr.AccessToken
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, reader)
	if err != nil {
		t.Fatal(err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	return resp, raw
}

func TestHealthzIsPublic(t *testing.T) {
	e := newEnv(t)
	resp, body := e.do(t, http.MethodGet, "/healthz", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %s", resp.StatusCode, body)
	}
}

func TestEntityRoutesRequireToken(t *testing.T) {
	e := newEnv(t)
	resp, _ := e.do(t, http.MethodPost, "/provincias/all", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if resp.Header.Get("WWW-Authenticate") != "Bearer" {
		t.Fatalf("missing WWW-Authenticate header")
	}
}

func TestEntityCRUDFlow(t *testing.T) {
	e := newEnv(t)
	token := e.login(t, e.seedUser(t))

	// create
	resp, body := e.do(t, http.MethodPost, "/provincias/create", token,
		map[string]any{"nombre": "La Habana", "siglas": "LH"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create status %d: %s", resp.StatusCode, body)
	}
	var created map[string]any
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatal(err)
	}
	id := created["id_provincia"].(float64)

	// duplicate create is a conflict, not a pre-checked 200
	resp, _ = e.do(t, http.MethodPost, "/provincias/create", token,
		map[string]any{"nombre": "La Habana"})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate create status = %d", resp.StatusCode)
	}

	// filtered list, case-insensitive substring
	resp, body = e.do(t, http.MethodPost, "/provincias/all", token,
		map[string]any{"nombre": "habana"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("all status %d: %s", resp.StatusCode, body)
	}
	var list []map[string]any
	if err := json.Unmarshal(body, &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("list = %v", list)
	}

	// update
	resp, body = e.do(t, http.MethodPatch, "/provincias/update", token,
		map[string]any{"id_provincia": id, "ubicacion": "occidente"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status %d: %s", resp.StatusCode, body)
	}

	// identity-only update has nothing to apply
	resp, _ = e.do(t, http.MethodPatch, "/provincias/update", token,
		map[string]any{"id_provincia": id})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty update status = %d", resp.StatusCode)
	}

	// toggle twice restores the original flag
	for _, want := range []bool{true, false} {
		resp, body = e.do(t, http.MethodPut, "/provincias/activate", token,
			map[string]any{"id_provincia": id})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("activate status %d: %s", resp.StatusCode, body)
		}
		var rec map[string]any
		if err := json.Unmarshal(body, &rec); err != nil {
			t.Fatal(err)
		}
		if rec["desac"] != want {
			t.Fatalf("desac = %v, want %v", rec["desac"], want)
		}
	}

	// delete, then the row is gone
	resp, _ = e.do(t, http.MethodDelete, "/provincias/delete", token,
		map[string]any{"id_provincia": id})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	resp, _ = e.do(t, http.MethodDelete, "/provincias/delete", token,
		map[string]any{"id_provincia": id})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("second delete status = %d", resp.StatusCode)
	}
}

func TestReadAmbiguityIsConflict(t *testing.T) {
	e := newEnv(t)
	token := e.login(t, e.seedUser(t))
	e.create(t, "provincias", store.Record{"nombre": "A"})
	e.create(t, "provincias", store.Record{"nombre": "B"})

	resp, _ := e.do(t, http.MethodPost, "/provincias/read", token,
		map[string]any{"desac": false})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestRelationRoute(t *testing.T) {
	e := newEnv(t)
	token := e.login(t, e.seedUser(t))
	prov := e.create(t, "provincias", store.Record{"nombre": "Holguín"})
	e.create(t, "municipios", store.Record{"nombre": "Mayarí", "id_provincia": prov["id_provincia"]})

	resp, body := e.do(t, http.MethodPost, "/provincias/municipios", token,
		map[string]any{"id_provincia": prov["id_provincia"]})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %s", resp.StatusCode, body)
	}
	var rec map[string]any
	if err := json.Unmarshal(body, &rec); err != nil {
		t.Fatal(err)
	}
	children, ok := rec["municipios"].([]any)
	if !ok || len(children) != 1 {
		t.Fatalf("municipios = %v", rec["municipios"])
	}
}

func TestUnknownFilterFieldIsRejected(t *testing.T) {
	e := newEnv(t)
	token := e.login(t, e.seedUser(t))
	resp, body := e.do(t, http.MethodPost, "/provincias/all", token,
		map[string]any{"color": "verde"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d: %s", resp.StatusCode, body)
	}
}

func TestPerfilHidesPasswordHash(t *testing.T) {
	e := newEnv(t)
	token := e.login(t, e.seedUser(t))

	resp, body := e.do(t, http.MethodPost, "/perfil", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %s", resp.StatusCode, body)
	}
	var rec map[string]any
	if err := json.Unmarshal(body, &rec); err != nil {
		t.Fatal(err)
	}
	if _, leaked := rec["hash_clave"]; leaked {
		t.Fatal("hash_clave must not leave the API")
	}
	if rec["ci"] != "85010112345" {
		t.Fatalf("ci = %v", rec["ci"])
	}
}

func TestPerfilAcceptsGet(t *testing.T) {
	e := newEnv(t)
	token := e.login(t, e.seedUser(t))

	resp, body := e.do(t, http.MethodGet, "/perfil", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %s", resp.StatusCode, body)
	}
	var rec map[string]any
	if err := json.Unmarshal(body, &rec); err != nil {
		t.Fatal(err)
	}
	if rec["ci"] != "85010112345" {
		t.Fatalf("ci = %v", rec["ci"])
	}
}

func TestLogoutLocksTokenUntilRelogin(t *testing.T) {
	e := newEnv(t)
	user := e.seedUser(t)
	token := e.login(t, user)

	resp, _ := e.do(t, http.MethodPost, "/logout", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout status = %d", resp.StatusCode)
	}
	resp, _ = e.do(t, http.MethodPost, "/perfil", token, nil)
	if resp.StatusCode != http.StatusLocked {
		t.Fatalf("revoked perfil status = %d", resp.StatusCode)
	}

	// fresh login reinstates the session
	_ = e.login(t, user)
	resp, _ = e.do(t, http.MethodPost, "/perfil", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("perfil after relogin status = %d", resp.StatusCode)
	}
}

func TestRegistroOutsideHousehold(t *testing.T) {
	e := newEnv(t)
	prov := e.create(t, "provincias", store.Record{"nombre": "La Habana"})
	mun := e.create(t, "municipios", store.Record{"nombre": "Playa", "id_provincia": prov["id_provincia"]})
	ofi := e.create(t, "oficinas", store.Record{"nombre": "Oficina", "direccion": "Calle 1", "id_municipio": mun["id_municipio"]})
	bod := e.create(t, "bodegas", store.Record{"numero": "B-1", "id_oficina": ofi["id_oficina"]})
	nuc := e.create(t, "nucleos", store.Record{"numero": "N-1", "id_bodega": bod["id_bodega"]})
	other := e.create(t, "nucleos", store.Record{"numero": "N-2", "id_bodega": bod["id_bodega"]})
	user := e.create(t, "usuarios", store.Record{
		"ci":         "85010112345",
		"num_cel":    "+5351234567",
		"hash_clave": "",
		"desac":      true,
	})
	e.create(t, "consumidores", store.Record{
		"id_usuario": user["id_usuario"],
		"id_nucleo":  nuc["id_nucleo"],
	})

	resp, body := e.do(t, http.MethodPost, "/registro", "", map[string]any{
		"ci":      "85010112345",
		"num_cel": "+5351234567",
		"nucleo":  jsonID(other["id_nucleo"]),
		"clave":   "nueva",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d: %s", resp.StatusCode, body)
	}
	if !strings.Contains(string(body), "No existes en ese núcleo") {
		t.Fatalf("body = %s", body)
	}

	// the right household succeeds and returns a token
	resp, body = e.do(t, http.MethodPost, "/registro", "", map[string]any{
		"ci":      "85010112345",
		"num_cel": "+5351234567",
		"nucleo":  jsonID(nuc["id_nucleo"]),
		"clave":   "nueva",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %s", resp.StatusCode, body)
	}
	if !strings.Contains(string(body), "access_token") {
		t.Fatalf("body = %s", body)
	}
}

func TestMethodMismatchIs405(t *testing.T) {
	e := newEnv(t)
	token := e.login(t, e.seedUser(t))
	resp, _ := e.do(t, http.MethodGet, "/provincias/create", token, nil)
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if resp.Header.Get("Allow") != "POST" {
		t.Fatalf("Allow = %q", resp.Header.Get("Allow"))
	}
}

func jsonID(v any) string {
	raw, _ := json.Marshal(v)
	return string(raw)
}
