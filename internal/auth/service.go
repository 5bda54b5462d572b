package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"tetoca.org/internal/query"
	"tetoca.org/internal/schema"
	"tetoca.org/internal/store"
)

// Service implements login, token validation and the self-service
// registration flow on top of the usuarios and consumidores tables.
type Service struct {
	Store  store.Store
	Reg    *schema.Registry
	Tokens TokenConfig
	Gate   SessionGate
}

// Registration is the payload of the registro, compaginar and recuperar
// endpoints. Nucleo is the household id as the mobile client sends it,
// a decimal string.
type Registration struct {
	NumCel string `json:"num_cel"`
	CI     string `json:"ci"`
	Nucleo string `json:"nucleo"`
	Clave  string `json:"clave,omitempty"`
}

func NewService(st store.Store, reg *schema.Registry, tokens TokenConfig, gate SessionGate) *Service {
	return &Service{Store: st, Reg: reg, Tokens: tokens, Gate: gate}
}

// Login checks the credentials and issues an access token. The username
// may be a ci, a phone number or a login name. A previously revoked
// session is reinstated.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.findUser(ctx, username)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrUnauthorized
	}
	if store.Bool(user, "desac") {
		return "", ErrLocked
	}
	if err := VerifyPassword(store.Str(user, "hash_clave"), password); err != nil {
		return "", ErrUnauthorized
	}
	id := store.Int(user, "id_usuario")
	token, err := s.Tokens.GenerateToken(id)
	if err != nil {
		return "", err
	}
	if err := s.Gate.Unrevoke(ctx, id); err != nil {
		return "", fmt.Errorf("reinstate session: %w", err)
	}
	return token, nil
}

// Authenticate validates a bearer token and returns the user it names.
// Deactivated users are revoked on sight so the lock persists even if
// the account is reactivated before the token expires.
func (s *Service) Authenticate(ctx context.Context, token string) (store.Record, error) {
	id, err := s.Tokens.ParseToken(token)
	if err != nil {
		return nil, ErrUnauthorized
	}
	desc, _ := s.Reg.Lookup("usuarios")
	user, err := s.Store.Read(ctx, desc, query.New(desc).WhereExact("id_usuario", id))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if store.Bool(user, "desac") {
		if err := s.Gate.Revoke(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrLocked
	}
	revoked, err := s.Gate.IsRevoked(ctx, id)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrLocked
	}
	return user, nil
}

// Register activates a pre-seeded consumer account. The caller must
// prove membership in the household they claim; on success the account
// is enabled, the password set and a token issued.
func (s *Service) Register(ctx context.Context, p Registration) (string, error) {
	user, err := s.findByIdentity(ctx, p.CI, p.NumCel)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrUnknownIdentity
	}
	if !store.Bool(user, "desac") {
		return "", ErrAlreadyRegistered
	}
	if store.Str(user, "ci") != p.CI {
		return "", ErrPhoneMismatch
	}

	nucleoID, err := strconv.ParseInt(strings.TrimSpace(p.Nucleo), 10, 64)
	if err != nil {
		return "", ErrUnknownHousehold
	}
	nucleos, _ := s.Reg.Lookup("nucleos")
	if _, err := s.Store.Read(ctx, nucleos, query.New(nucleos).WhereExact("id_nucleo", nucleoID)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrUnknownHousehold
		}
		return "", err
	}

	id := store.Int(user, "id_usuario")
	member, err := s.isMember(ctx, id, nucleoID)
	if err != nil {
		return "", err
	}
	if !member {
		return "", ErrNotInHousehold
	}

	hash, err := HashPassword(p.Clave)
	if err != nil {
		return "", err
	}
	usuarios, _ := s.Reg.Lookup("usuarios")
	patch := store.Record{
		"id_usuario": id,
		"desac":      false,
		"num_cel":    p.NumCel,
		"hash_clave": hash,
	}
	if _, err := s.Store.Update(ctx, usuarios, patch, []string{"id_usuario"}); err != nil {
		return "", err
	}
	return s.Tokens.GenerateToken(id)
}

// Matches reports whether the ci, phone and household form a known
// consumer. The client calls this before asking for a password.
func (s *Service) Matches(ctx context.Context, p Registration) (bool, error) {
	user, nucleoID, err := s.matchUser(ctx, p)
	if err != nil || user == nil {
		return false, err
	}
	return s.isMember(ctx, store.Int(user, "id_usuario"), nucleoID)
}

// Recover resets the password for a verified consumer. It returns false
// when the identity does not check out, without revealing which part
// failed.
func (s *Service) Recover(ctx context.Context, p Registration) (bool, error) {
	user, nucleoID, err := s.matchUser(ctx, p)
	if err != nil || user == nil {
		return false, err
	}
	id := store.Int(user, "id_usuario")
	member, err := s.isMember(ctx, id, nucleoID)
	if err != nil || !member {
		return false, err
	}
	hash, err := HashPassword(p.Clave)
	if err != nil {
		return false, err
	}
	usuarios, _ := s.Reg.Lookup("usuarios")
	patch := store.Record{"id_usuario": id, "hash_clave": hash}
	if _, err := s.Store.Update(ctx, usuarios, patch, []string{"id_usuario"}); err != nil {
		return false, err
	}
	return true, nil
}

// Logout revokes the session for the given user.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	return s.Gate.Revoke(ctx, userID)
}

// findUser resolves a login name against ci, then num_cel, then
// nom_usuario.
func (s *Service) findUser(ctx context.Context, username string) (store.Record, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, nil
	}
	desc, _ := s.Reg.Lookup("usuarios")
	for _, column := range []string{"ci", "num_cel", "nom_usuario"} {
		user, err := s.Store.Read(ctx, desc, query.New(desc).WhereExact(column, username))
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return user, nil
	}
	return nil, nil
}

// findByIdentity resolves a user by ci first, falling back to the phone
// number for accounts seeded without a ci on file.
func (s *Service) findByIdentity(ctx context.Context, ci, numCel string) (store.Record, error) {
	desc, _ := s.Reg.Lookup("usuarios")
	user, err := s.Store.Read(ctx, desc, query.New(desc).WhereExact("ci", ci))
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	user, err = s.Store.Read(ctx, desc, query.New(desc).WhereExact("num_cel", numCel))
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// matchUser requires ci and num_cel to name the same account and parses
// the household id.
func (s *Service) matchUser(ctx context.Context, p Registration) (store.Record, int64, error) {
	nucleoID, err := strconv.ParseInt(strings.TrimSpace(p.Nucleo), 10, 64)
	if err != nil {
		return nil, 0, nil
	}
	desc, _ := s.Reg.Lookup("usuarios")
	c := query.New(desc).WhereExact("ci", p.CI).WhereExact("num_cel", p.NumCel)
	user, err := s.Store.Read(ctx, desc, c)
	if errors.Is(err, store.ErrNotFound) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}
	return user, nucleoID, nil
}

func (s *Service) isMember(ctx context.Context, userID, nucleoID int64) (bool, error) {
	desc, _ := s.Reg.Lookup("consumidores")
	c := query.New(desc).WhereExact("id_usuario", userID).WhereExact("id_nucleo", nucleoID)
	_, err := s.Store.Read(ctx, desc, c)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// PrincipalFor builds the context principal from a usuarios row.
func PrincipalFor(user store.Record) Principal {
	return Principal{
		UserID: store.Int(user, "id_usuario"),
		CI:     store.Str(user, "ci"),
		Name:   store.Str(user, "nombre_completo"),
	}
}
