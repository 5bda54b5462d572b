package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"tetoca.org/internal/audit"
	"tetoca.org/internal/auth"
	"tetoca.org/internal/query"
	"tetoca.org/internal/store"
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type optionResponse struct {
	Option bool `json:"option"`
}

// handleToken is the password grant: an OAuth2 form with username and
// password, answered with a bearer token.
func (a *API) handleToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid form body")
		return
	}
	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")
	if username == "" || password == "" {
		writeError(w, r, http.StatusBadRequest, "username and password are required")
		return
	}

	token, err := a.auth.Login(r.Context(), username, password)
	if err != nil {
		a.handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{"username": username})
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

// handlePerfil returns the authenticated user's own row.
func (a *API) handlePerfil(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
		return
	}
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		unauthorized(w, r, "Could not validate credentials")
		return
	}
	desc, _ := a.reg.Lookup("usuarios")
	user, err := a.store.Read(r.Context(), desc, query.New(desc).WhereExact("id_usuario", p.UserID))
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sanitize(user))
}

func (a *API) handleRegistro(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req auth.Registration
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	token, err := a.auth.Register(r.Context(), req)
	if err != nil {
		a.handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.register", map[string]any{"ci": req.CI})
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (a *API) handleCompaginar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req auth.Registration
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	match, err := a.auth.Matches(r.Context(), req)
	if err != nil {
		a.handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, optionResponse{Option: match})
}

func (a *API) handleRecuperar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req auth.Registration
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	reset, err := a.auth.Recover(r.Context(), req)
	if err != nil {
		a.handleAuthError(w, r, err)
		return
	}
	if reset {
		_ = audit.LogEvent(r.Context(), "auth.recover", map[string]any{"ci": req.CI})
	}
	writeJSON(w, http.StatusOK, optionResponse{Option: reset})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		unauthorized(w, r, "Could not validate credentials")
		return
	}
	if err := a.auth.Logout(r.Context(), p.UserID); err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.logout", nil)
	writeJSON(w, http.StatusOK, optionResponse{Option: true})
}

type notifyRequest struct {
	UsuarioID string         `json:"usuario_id"`
	Oferta    map[string]any `json:"oferta"`
	Compra    map[string]any `json:"compra"`
}

// handleNotificar records a delivery notification for later dispatch.
// Delivery itself happens out of band.
func (a *API) handleNotificar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req notifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.UsuarioID) == "" {
		writeError(w, r, http.StatusBadRequest, "usuario_id is required")
		return
	}
	_ = audit.LogEvent(r.Context(), "notify.request", map[string]any{
		"usuario_id": req.UsuarioID,
		"oferta":     req.Oferta,
		"compra":     req.Compra,
	})
	writeJSON(w, http.StatusOK, optionResponse{Option: true})
}

func (a *API) handleAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrUnauthorized):
		unauthorized(w, r, err.Error())
	case errors.Is(err, auth.ErrLocked):
		writeError(w, r, http.StatusLocked, err.Error())
	case auth.IsRegistrationError(err):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrAmbiguous):
		writeError(w, r, http.StatusConflict, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
