// Package httpapi exposes the TeToca backend over HTTP: one CRUD route
// family per registered entity plus the authentication endpoints.
package httpapi

import (
	"net/http"
	"time"

	"tetoca.org/internal/auth"
	"tetoca.org/internal/obs"
	"tetoca.org/internal/schema"
	"tetoca.org/internal/store"
)

// Options tune the middleware chain.
type Options struct {
	MaxBodyBytes int64
	RateBurst    int
	RatePerSec   int
}

func (o Options) withDefaults() Options {
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = 1 << 20
	}
	if o.RateBurst <= 0 {
		o.RateBurst = 50
	}
	if o.RatePerSec <= 0 {
		o.RatePerSec = 25
	}
	return o
}

// API is the HTTP layer.
type API struct {
	mux     *http.ServeMux
	store   store.Store
	reg     *schema.Registry
	auth    *auth.Service
	opts    Options
	version string
}

func New(st store.Store, reg *schema.Registry, authsvc *auth.Service, version string, opts Options) *API {
	a := &API{
		mux:     http.NewServeMux(),
		store:   st,
		reg:     reg,
		auth:    authsvc,
		opts:    opts.withDefaults(),
		version: version,
	}

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/token", a.handleToken)
	a.mux.HandleFunc("/perfil", a.handlePerfil)
	a.mux.HandleFunc("/registro", a.handleRegistro)
	a.mux.HandleFunc("/compaginar", a.handleCompaginar)
	a.mux.HandleFunc("/recuperar", a.handleRecuperar)
	a.mux.HandleFunc("/logout", a.handleLogout)
	a.mux.HandleFunc("/notificar", a.handleNotificar)

	for _, desc := range reg.All() {
		a.mountEntity(desc)
	}

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// mountEntity registers the CRUD family for one table. Toggle columns
// get their own route, desac under the historical name activate.
func (a *API) mountEntity(desc *schema.Descriptor) {
	base := "/" + desc.Table
	a.mux.HandleFunc(base+"/all", a.entityAll(desc))
	a.mux.HandleFunc(base+"/read", a.entityRead(desc))
	a.mux.HandleFunc(base+"/create", a.entityCreate(desc))
	a.mux.HandleFunc(base+"/update", a.entityUpdate(desc))
	a.mux.HandleFunc(base+"/delete", a.entityDelete(desc))
	for _, column := range desc.Toggles {
		a.mux.HandleFunc(base+"/"+toggleRoute(column), a.entityToggle(desc, column))
	}
	for _, rel := range desc.Relations {
		a.mux.HandleFunc(base+"/"+rel.Aggregate, a.entityRelation(desc, rel))
	}
}

func toggleRoute(column string) string {
	if column == "desac" {
		return "activate"
	}
	return column
}

// Handler returns the full middleware chain around the mux.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withAuth(h)
	h = MaxBodyBytes(h, a.opts.MaxBodyBytes)
	h = RateLimit(h, a.opts.RateBurst, a.opts.RatePerSec)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = Logging(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "tetoca-api",
		"version": a.version,
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "tetoca-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.store.Ping(r.Context()); err != nil {
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
