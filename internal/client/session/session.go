// Package session owns the authenticated identity of the client.
//
// A Manager is either Anonymous (no user, no token) or Authenticated (both
// set). Transitions persist to the local store and mirror into the cookie
// store in one transaction before the in-memory state changes, so readers
// never observe a half-applied session. Snapshot is the only read path.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/carelink/internal/client/models"
	"github.com/dmitrijs2005/carelink/internal/client/storage"
	"github.com/dmitrijs2005/carelink/internal/logging"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidCredentialsPayload = errors.New("invalid credentials payload")
	ErrNotAuthenticated          = errors.New("not authenticated")
)

// Backing is the part of *storage.Backing the session needs.
type Backing interface {
	Interactive() bool
	Local() storage.Store
	Atomically(ctx context.Context, fn func(local, cookies storage.Store) error) error
}

// Snapshot is an immutable copy of the session.
type Snapshot struct {
	User  *models.User
	Token string
}

func (s Snapshot) IsAuthenticated() bool {
	return s.User != nil && s.Token != ""
}

type Manager struct {
	mu    sync.RWMutex
	user  *models.User
	token string

	// notifyMu keeps subscriber deliveries in the order transitions applied.
	notifyMu sync.Mutex
	subsMu   sync.Mutex
	subs     []subscriber
	nextSub  int

	backing Backing
	log     logging.Logger
	now     func() time.Time
}

type subscriber struct {
	id int
	fn func(Snapshot)
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// New returns an Anonymous manager. A nil backing keeps the session in memory.
func New(b Backing, log logging.Logger, opts ...Option) *Manager {
	if log == nil {
		log = logging.NewNop()
	}
	m := &Manager{backing: b, log: log.With("component", "session"), now: time.Now}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Snapshot returns the current session.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

// Rehydrate restores the session from the local store. It never reads the
// cookie mirror. Once Authenticated it does nothing. An unreadable or
// incomplete record, or a JWT past its exp claim, is removed from both
// substrates and the session stays Anonymous.
func (m *Manager) Rehydrate(ctx context.Context) error {
	if !m.persistent() {
		return nil
	}

	m.mu.Lock()
	if m.authenticatedLocked() {
		m.mu.Unlock()
		return nil
	}

	local := m.backing.Local()
	token, hasToken, err := local.Read(ctx, storage.KeyToken)
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("rehydrate: %w", err)
	}
	_, hasUser, err := local.Read(ctx, storage.KeyUser)
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("rehydrate: %w", err)
	}
	if !hasToken && !hasUser {
		m.mu.Unlock()
		return nil
	}

	// ReadJSON drops a user value that does not decode, token or not.
	var user *models.User
	found, err := storage.ReadJSON(ctx, local, storage.KeyUser, &user)
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("rehydrate: %w", err)
	}

	switch {
	case token == "" || !found || user == nil:
		m.log.Warn(ctx, "discarding unreadable stored session")
		err = m.clearStorage(ctx)
		m.mu.Unlock()
		return err
	case m.tokenExpired(token):
		m.log.Info(ctx, "stored token expired", "user_id", user.ID)
		err = m.clearStorage(ctx)
		m.mu.Unlock()
		return err
	}

	m.user, m.token = user, token
	m.log.Info(ctx, "session restored", "user_id", user.ID, "role", user.Role)
	m.commitLocked()
	return nil
}

// Login makes user/token the current session. The record is written to both
// substrates first; if that fails the session is left unchanged.
func (m *Manager) Login(ctx context.Context, user *models.User, token string) error {
	if user == nil || strings.TrimSpace(token) == "" {
		return ErrInvalidCredentialsPayload
	}
	u := user.Clone()

	m.mu.Lock()
	if m.persistent() {
		err := m.backing.Atomically(ctx, func(local, cookies storage.Store) error {
			for _, s := range []storage.Store{local, cookies} {
				if err := s.Write(ctx, storage.KeyToken, token); err != nil {
					return err
				}
				if err := storage.WriteJSON(ctx, s, storage.KeyUser, u); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			m.mu.Unlock()
			return fmt.Errorf("persist session: %w", err)
		}
	}

	m.user, m.token = u, token
	m.log.Info(ctx, "logged in", "user_id", u.ID, "role", u.Role)
	m.commitLocked()
	return nil
}

// Logout returns to Anonymous and removes the session keys from both
// substrates. It is safe to call in any state. The in-memory session is
// cleared even when storage cleanup fails; that error is returned.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	was := m.user != nil || m.token != ""
	m.user, m.token = nil, ""

	var err error
	if m.persistent() {
		err = m.clearStorage(ctx)
	}

	if !was {
		m.mu.Unlock()
		return err
	}
	m.log.Info(ctx, "logged out")
	m.commitLocked()
	return err
}

// UpdateUser merges patch into the current user and re-persists it. The
// token is untouched.
func (m *Manager) UpdateUser(ctx context.Context, patch models.UserPatch) (Snapshot, error) {
	m.mu.Lock()
	if !m.authenticatedLocked() {
		m.mu.Unlock()
		return Snapshot{}, ErrNotAuthenticated
	}

	merged := patch.Apply(*m.user)
	if m.persistent() {
		err := m.backing.Atomically(ctx, func(local, cookies storage.Store) error {
			if err := storage.WriteJSON(ctx, local, storage.KeyUser, merged); err != nil {
				return err
			}
			return storage.WriteJSON(ctx, cookies, storage.KeyUser, merged)
		})
		if err != nil {
			m.mu.Unlock()
			return Snapshot{}, fmt.Errorf("persist user: %w", err)
		}
	}

	m.user = &merged
	snap := m.snapshotLocked()
	m.commitLocked()
	return snap, nil
}

// Subscribe registers fn for every applied transition. fn must not call
// back into Login, Logout or UpdateUser.
func (m *Manager) Subscribe(fn func(Snapshot)) (cancel func()) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()

	m.nextSub++
	id := m.nextSub
	m.subs = append(m.subs, subscriber{id: id, fn: fn})

	return func() {
		m.subsMu.Lock()
		defer m.subsMu.Unlock()
		for i, s := range m.subs {
			if s.id == id {
				m.subs = append(m.subs[:i:i], m.subs[i+1:]...)
				return
			}
		}
	}
}

func (m *Manager) persistent() bool {
	return m.backing != nil && m.backing.Interactive()
}

func (m *Manager) authenticatedLocked() bool {
	return m.user != nil && m.token != ""
}

func (m *Manager) snapshotLocked() Snapshot {
	return Snapshot{User: m.user.Clone(), Token: m.token}
}

// commitLocked releases mu and delivers the new snapshot to subscribers.
func (m *Manager) commitLocked() {
	snap := m.snapshotLocked()
	m.notifyMu.Lock()
	m.mu.Unlock()
	defer m.notifyMu.Unlock()

	m.subsMu.Lock()
	subs := append([]subscriber(nil), m.subs...)
	m.subsMu.Unlock()

	for _, s := range subs {
		s.fn(snap)
	}
}

func (m *Manager) clearStorage(ctx context.Context) error {
	err := m.backing.Atomically(ctx, func(local, cookies storage.Store) error {
		if err := storage.RemoveAll(ctx, local, storage.KeyToken, storage.KeyUser); err != nil {
			return err
		}
		return storage.RemoveAll(ctx, cookies, storage.KeyToken, storage.KeyUser)
	})
	if err != nil {
		return fmt.Errorf("clear session storage: %w", err)
	}
	return nil
}

// tokenExpired reports whether token is a JWT whose exp has passed. Opaque
// tokens never expire client-side.
func (m *Manager) tokenExpired(token string) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !m.now().Before(claims.ExpiresAt.Time)
}
