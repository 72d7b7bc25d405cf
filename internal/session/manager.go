package session

import (
	"context"
	"sync"
	"time"

	"github.com/carebridge/healthcare-portal/internal/docstore"
	"github.com/carebridge/healthcare-portal/internal/identity"
)

// Session is an authenticated identity bound to its stored role.
type Session struct {
	Identity identity.Identity
	Role     Role
}

// Manager tracks the single current session the way the portal's auth
// context did: it follows the provider's identity lifecycle and only
// exposes a session once both the identity and its role are settled.
// There is no externally visible "partially loaded" state.
type Manager struct {
	provider identity.Provider
	store    docstore.Store

	mu          sync.RWMutex
	current     *Session
	unsubscribe func()
}

func NewManager(provider identity.Provider, store docstore.Store) *Manager {
	m := &Manager{
		provider: provider,
		store:    store,
	}

	m.unsubscribe = provider.OnChange(func(id *identity.Identity) {
		if id == nil {
			m.set(nil)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		role, err := ResolveRole(ctx, m.store, id.UID)
		if err != nil {
			// Role could not be settled, so no session is exposed.
			m.set(nil)
			return
		}
		m.set(&Session{Identity: *id, Role: role})
	})

	return m
}

// Login authenticates via the provider and resolves the stored role.
// When expectedRole is set and differs, the authentication is undone
// before the mismatch is reported so no session for the wrong portal
// survives.
func Login(ctx context.Context, provider identity.Provider, store docstore.Store, email, password string, expectedRole Role) (*Session, error) {
	id, err := provider.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	role, err := ResolveRole(ctx, store, id.UID)
	if err != nil {
		_ = provider.Deauthenticate(ctx)
		return nil, err
	}

	if expectedRole != "" && role != expectedRole {
		_ = provider.Deauthenticate(ctx)
		return nil, &RoleMismatchError{Actual: role}
	}

	return &Session{Identity: *id, Role: role}, nil
}

// Login runs the package-level login flow and tracks the result as the
// manager's current session.
func (m *Manager) Login(ctx context.Context, email, password string, expectedRole Role) (*Session, error) {
	sess, err := Login(ctx, m.provider, m.store, email, password, expectedRole)
	if err != nil {
		m.set(nil)
		return nil, err
	}
	m.set(sess)
	return sess, nil
}

// Current returns the active session, or ErrNoSession when anonymous.
func (m *Manager) Current(ctx context.Context) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.current == nil {
		return nil, ErrNoSession
	}
	s := *m.current
	return &s, nil
}

// Logout deauthenticates and clears the cached role.
func (m *Manager) Logout(ctx context.Context) error {
	err := m.provider.Deauthenticate(ctx)
	m.set(nil)
	return err
}

// Context converts the current session into an operation context.
func (m *Manager) Context(ctx context.Context) (Context, error) {
	s, err := m.Current(ctx)
	if err != nil {
		return Context{}, err
	}
	return Context{UserID: s.Identity.UID, Role: s.Role}, nil
}

// Close detaches the manager from provider identity events.
func (m *Manager) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

func (m *Manager) set(s *Session) {
	m.mu.Lock()
	m.current = s
	m.mu.Unlock()
}
