package identity

import (
	"context"
	"errors"
)

var (
	// ErrInvalidCredentials covers both unknown emails and wrong
	// passwords; callers cannot tell which.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrDuplicateIdentity is deliberately vague about which field
	// collided; callers must not assume it is always the email.
	ErrDuplicateIdentity = errors.New("an account with these details already exists")

	ErrInvalidToken = errors.New("invalid session token")
)

// Identity is an authenticated principal as issued by the provider.
type Identity struct {
	UID   string
	Email string
	Token string
}

// Provider is the authentication boundary. The rest of the system only
// ever sees identities and session tokens; role resolution happens above
// this interface.
type Provider interface {
	// Authenticate verifies credentials and issues a fresh session token.
	Authenticate(ctx context.Context, email, password string) (*Identity, error)

	// Provision registers new credentials and signs the identity in.
	Provision(ctx context.Context, email, password string) (*Identity, error)

	// Deauthenticate ends the current session and notifies listeners
	// with a nil identity.
	Deauthenticate(ctx context.Context) error

	// VerifyToken validates a session token and returns the UID it was
	// issued for.
	VerifyToken(token string) (string, error)

	// OnChange registers a listener for identity lifecycle events and
	// returns an unsubscribe func. Listeners receive the identity on
	// sign-in and nil on sign-out.
	OnChange(fn func(*Identity)) func()
}
