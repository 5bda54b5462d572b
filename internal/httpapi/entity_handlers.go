package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"tetoca.org/internal/audit"
	"tetoca.org/internal/query"
	"tetoca.org/internal/schema"
	"tetoca.org/internal/store"
)

// entityAll lists rows, optionally narrowed by a filter document in the
// body and paginated via skip and limit query parameters.
func (a *API) entityAll(desc *schema.Descriptor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
			return
		}
		skip, err := parseNonNegative(r.URL.Query().Get("skip"), 0)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "skip must be a non-negative integer")
			return
		}
		limit, err := parseNonNegative(r.URL.Query().Get("limit"), 100)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		c, ok := a.parseFilter(w, r, desc)
		if !ok {
			return
		}
		recs, err := a.store.Search(r.Context(), desc, c, skip, limit)
		if err != nil {
			handleStoreError(w, r, err)
			return
		}
		if recs == nil {
			recs = []store.Record{}
		}
		writeJSON(w, http.StatusOK, sanitizeAll(recs))
	}
}

// entityRead returns the single row the filter names. More than one
// match is a conflict, not a silent first row.
func (a *API) entityRead(desc *schema.Descriptor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
			return
		}
		c, ok := a.parseFilter(w, r, desc)
		if !ok {
			return
		}
		rec, err := a.store.Read(r.Context(), desc, c)
		if err != nil {
			handleStoreError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, sanitize(rec))
	}
}

func (a *API) entityCreate(desc *schema.Descriptor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		rec, ok := a.parseBody(w, r, desc)
		if !ok {
			return
		}
		created, err := a.store.Create(r.Context(), desc, rec)
		if err != nil {
			handleStoreError(w, r, err)
			return
		}
		a.auditEntity(r, "create", desc, created)
		writeJSON(w, http.StatusOK, sanitize(created))
	}
}

func (a *API) entityUpdate(desc *schema.Descriptor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			methodNotAllowed(w, r, http.MethodPatch)
			return
		}
		rec, ok := a.parseBody(w, r, desc)
		if !ok {
			return
		}
		updated, err := a.store.Update(r.Context(), desc, rec, []string{desc.Key})
		if err != nil {
			handleStoreError(w, r, err)
			return
		}
		a.auditEntity(r, "update", desc, updated)
		writeJSON(w, http.StatusOK, sanitize(updated))
	}
}

func (a *API) entityDelete(desc *schema.Descriptor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			methodNotAllowed(w, r, http.MethodDelete)
			return
		}
		c, ok := a.parseIdentity(w, r, desc)
		if !ok {
			return
		}
		deleted, err := a.store.Delete(r.Context(), desc, c)
		if err != nil {
			handleStoreError(w, r, err)
			return
		}
		a.auditEntity(r, "delete", desc, deleted)
		writeJSON(w, http.StatusOK, sanitize(deleted))
	}
}

func (a *API) entityToggle(desc *schema.Descriptor, column string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			methodNotAllowed(w, r, http.MethodPut)
			return
		}
		c, ok := a.parseIdentity(w, r, desc)
		if !ok {
			return
		}
		rec, err := a.store.Toggle(r.Context(), desc, column, c)
		if err != nil {
			handleStoreError(w, r, err)
			return
		}
		a.auditEntity(r, "toggle."+column, desc, rec)
		writeJSON(w, http.StatusOK, sanitize(rec))
	}
}

// entityRelation reads a row by primary key together with its related
// rows: the full child list for a has-many relation, the single parent
// row for a belongs-to one.
func (a *API) entityRelation(desc *schema.Descriptor, rel schema.Relation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
			return
		}
		c, ok := a.parseIdentity(w, r, desc)
		if !ok {
			return
		}
		rec, err := a.store.Read(r.Context(), desc, c)
		if err != nil {
			handleStoreError(w, r, err)
			return
		}
		related, _ := a.reg.Lookup(rel.Table)
		switch rel.Kind {
		case schema.HasMany:
			children, err := a.store.Search(r.Context(), related,
				query.New(related).WhereExact(rel.FK, store.Int(rec, desc.Key)), 0, -1)
			if err != nil {
				handleStoreError(w, r, err)
				return
			}
			if children == nil {
				children = []store.Record{}
			}
			rec[rel.Aggregate] = sanitizeAll(children)
		case schema.BelongsTo:
			fk, isSet := rec[rel.FK].(int64)
			if !isSet {
				rec[rel.Aggregate] = nil
				break
			}
			parent, err := a.store.Read(r.Context(), related,
				query.New(related).WhereExact(related.Key, fk))
			if err != nil {
				handleStoreError(w, r, err)
				return
			}
			rec[rel.Aggregate] = sanitize(parent)
		}
		writeJSON(w, http.StatusOK, sanitize(rec))
	}
}

// parseFilter decodes an optional filter document. Errors are written
// to the response; the bool reports success.
func (a *API) parseFilter(w http.ResponseWriter, r *http.Request, desc *schema.Descriptor) (*query.Criteria, bool) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return nil, false
	}
	c, err := query.Parse(a.reg, desc, body)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return c, true
}

func (a *API) parseBody(w http.ResponseWriter, r *http.Request, desc *schema.Descriptor) (store.Record, bool) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return nil, false
	}
	rec, err := query.ParseRecord(desc, body)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return rec, true
}

// parseIdentity requires a body naming the primary key.
func (a *API) parseIdentity(w http.ResponseWriter, r *http.Request, desc *schema.Descriptor) (*query.Criteria, bool) {
	rec, ok := a.parseBody(w, r, desc)
	if !ok {
		return nil, false
	}
	id, isSet := rec[desc.Key].(int64)
	if !isSet || id <= 0 {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("%s is required", desc.Key))
		return nil, false
	}
	return query.New(desc).WhereExact(desc.Key, id), true
}

func (a *API) auditEntity(r *http.Request, action string, desc *schema.Descriptor, rec store.Record) {
	_ = audit.LogEvent(r.Context(), desc.Table+"."+action, map[string]any{
		desc.Key: store.Int(rec, desc.Key),
	})
}

func parseNonNegative(raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val < 0 {
		return 0, errors.New("must be a non-negative integer")
	}
	return val, nil
}
