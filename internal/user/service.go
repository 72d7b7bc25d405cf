package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/carebridge/healthcare-portal/internal/docstore"
	"github.com/carebridge/healthcare-portal/internal/identity"
	"github.com/carebridge/healthcare-portal/internal/session"
)

const collection = "users"

var ErrNotFound = errors.New("user not found")

type Service struct {
	store    docstore.Store
	provider identity.Provider
	log      zerolog.Logger
}

func NewService(store docstore.Store, provider identity.Provider, log zerolog.Logger) *Service {
	return &Service{
		store:    store,
		provider: provider,
		log:      log.With().Str("component", "user").Logger(),
	}
}

// Create provisions an identity and writes the user record. Patients may
// self-register (zero session context); any other role requires an admin
// session. The two writes are not atomic: a store failure after
// provisioning leaves an identity without a user record.
func (s *Service) Create(ctx context.Context, sess session.Context, role session.Role, profile User, email, password string) (*User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", session.ErrUnauthorized, role)
	}
	if role != session.RolePatient && !sess.IsAdmin() {
		return nil, session.ErrUnauthorized
	}

	id, err := s.provider.Provision(ctx, email, password)
	if err != nil {
		return nil, err
	}

	u := profile
	u.ID = id.UID
	u.Role = role
	u.Email = id.Email
	u.IsActive = true
	u.CreatedAt = time.Now().UTC()

	if err := s.store.Write(ctx, collection+"/"+id.UID, u); err != nil {
		return nil, fmt.Errorf("write user record: %w", err)
	}

	s.log.Info().Str("user_id", id.UID).Str("role", string(role)).Msg("user created")
	return &u, nil
}

func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	var u User
	err := s.store.Read(ctx, collection+"/"+id, &u)
	if err != nil {
		if errors.Is(err, docstore.ErrPathMissing) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read user: %w", err)
	}
	u.ID = id
	return &u, nil
}

// Update merge-patches the user record: only the named fields change,
// concurrent sibling fields survive. Only the user themselves or an
// admin may update. No schema validation is applied to the fields.
func (s *Service) Update(ctx context.Context, sess session.Context, id string, fields map[string]any) error {
	if sess.UserID != id && !sess.IsAdmin() {
		return session.ErrUnauthorized
	}
	if len(fields) == 0 {
		return nil
	}

	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	if err := s.store.Merge(ctx, collection+"/"+id, fields); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// List fetches the whole user collection and filters by role in memory.
// The store has no query engine, so this is O(total users) by contract.
func (s *Service) List(ctx context.Context, roleFilter session.Role) ([]User, error) {
	children, err := s.store.Children(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	users := make([]User, 0, len(children))
	for id, raw := range children {
		var u User
		if err := json.Unmarshal(raw, &u); err != nil {
			return nil, fmt.Errorf("decode user %s: %w", id, err)
		}
		u.ID = id
		if roleFilter != "" && u.Role != roleFilter {
			continue
		}
		users = append(users, u)
	}

	sort.Slice(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.Before(users[j].CreatedAt)
		}
		return users[i].ID < users[j].ID
	})

	return users, nil
}

// Deactivate flips isActive off. The record is never deleted and any
// existing session stays valid until it expires.
func (s *Service) Deactivate(ctx context.Context, sess session.Context, id string) error {
	return s.setActive(ctx, sess, id, false)
}

func (s *Service) Activate(ctx context.Context, sess session.Context, id string) error {
	return s.setActive(ctx, sess, id, true)
}

func (s *Service) setActive(ctx context.Context, sess session.Context, id string, active bool) error {
	if !sess.IsAdmin() {
		return session.ErrUnauthorized
	}

	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	if err := s.store.Merge(ctx, collection+"/"+id, map[string]any{"isActive": active}); err != nil {
		return fmt.Errorf("set user active state: %w", err)
	}

	s.log.Info().Str("user_id", id).Bool("active", active).Msg("user activation changed")
	return nil
}
