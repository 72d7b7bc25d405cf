package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/carebridge/healthcare-portal/internal/docstore"
)

type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

var (
	ErrNoSession = errors.New("no active session")

	// ErrUnauthorized is returned by access-layer operations when the
	// session's role or ownership does not permit the mutation.
	ErrUnauthorized = errors.New("operation not permitted for this session")
)

// RoleMismatchError is returned when credentials are valid but the stored
// role does not match the portal the user tried to sign in to. The
// authentication is always torn down before this error surfaces.
type RoleMismatchError struct {
	Actual Role
}

func (e *RoleMismatchError) Error() string {
	if e.Actual == "" {
		return "access denied: account has no role assigned"
	}
	return fmt.Sprintf("access denied: this account is registered as %s", e.Actual)
}

// Context carries the authenticated identity and role into access-layer
// operations. It replaces any ambient global session state: every
// operation that needs authorization takes one explicitly.
type Context struct {
	UserID string
	Role   Role
}

func (c Context) IsAdmin() bool   { return c.Role == RoleAdmin }
func (c Context) IsDoctor() bool  { return c.Role == RoleDoctor }
func (c Context) IsPatient() bool { return c.Role == RolePatient }

// ResolveRole reads the stored role for a user straight off the tree.
// A missing user record resolves to the empty role, not an error.
func ResolveRole(ctx context.Context, store docstore.Store, uid string) (Role, error) {
	var rec struct {
		Role Role `json:"role"`
	}
	err := store.Read(ctx, "users/"+uid, &rec)
	if err != nil {
		if errors.Is(err, docstore.ErrPathMissing) {
			return "", nil
		}
		return "", fmt.Errorf("resolve role: %w", err)
	}
	return rec.Role, nil
}
