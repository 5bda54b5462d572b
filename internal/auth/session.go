package auth

import (
	"context"
	"database/sql"
	"errors"
	"sync"
)

// SessionGate tracks which users have had their sessions revoked. A
// revoked user keeps a syntactically valid token but is rejected until
// they log in again.
type SessionGate interface {
	Revoke(ctx context.Context, userID int64) error
	Unrevoke(ctx context.Context, userID int64) error
	IsRevoked(ctx context.Context, userID int64) (bool, error)
}

// MemoryGate keeps revocations in process memory. Suitable for a single
// instance and for tests.
type MemoryGate struct {
	mu      sync.RWMutex
	revoked map[int64]struct{}
}

func NewMemoryGate() *MemoryGate {
	return &MemoryGate{revoked: make(map[int64]struct{})}
}

func (g *MemoryGate) Revoke(_ context.Context, userID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.revoked[userID] = struct{}{}
	return nil
}

func (g *MemoryGate) Unrevoke(_ context.Context, userID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.revoked, userID)
	return nil
}

func (g *MemoryGate) IsRevoked(_ context.Context, userID int64) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.revoked[userID]
	return ok, nil
}

// PGGate persists revocations in the sesiones_revocadas table so they
// survive restarts and are shared between instances.
type PGGate struct {
	db *sql.DB
}

func NewPGGate(db *sql.DB) *PGGate {
	return &PGGate{db: db}
}

func (g *PGGate) Revoke(ctx context.Context, userID int64) error {
	_, err := g.db.ExecContext(ctx,
		`insert into sesiones_revocadas (id_usuario) values ($1) on conflict (id_usuario) do nothing`, userID)
	return err
}

func (g *PGGate) Unrevoke(ctx context.Context, userID int64) error {
	_, err := g.db.ExecContext(ctx,
		`delete from sesiones_revocadas where id_usuario = $1`, userID)
	return err
}

func (g *PGGate) IsRevoked(ctx context.Context, userID int64) (bool, error) {
	var one int
	err := g.db.QueryRowContext(ctx,
		`select 1 from sesiones_revocadas where id_usuario = $1`, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
