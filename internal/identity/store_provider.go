package identity

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/carebridge/healthcare-portal/internal/docstore"
)

const (
	credentialsPath = "auth/credentials"
	emailIndexPath  = "auth/emails"
)

type credentialRecord struct {
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

type emailIndexRecord struct {
	UID string `json:"uid"`
}

// StoreProvider keeps credentials in the document tree and signs session
// tokens with a shared HMAC secret.
type StoreProvider struct {
	store  docstore.Store
	secret []byte
	ttl    time.Duration

	mu        sync.Mutex
	listeners map[int]func(*Identity)
	nextID    int
}

func NewStoreProvider(store docstore.Store, secret []byte, ttl time.Duration) *StoreProvider {
	return &StoreProvider{
		store:     store,
		secret:    secret,
		ttl:       ttl,
		listeners: make(map[int]func(*Identity)),
	}
}

// emailKey makes an email address safe to use as a tree key.
func emailKey(email string) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	return base64.RawURLEncoding.EncodeToString([]byte(normalized))
}

func (p *StoreProvider) Authenticate(ctx context.Context, email, password string) (*Identity, error) {
	var idx emailIndexRecord
	err := p.store.Read(ctx, emailIndexPath+"/"+emailKey(email), &idx)
	if err != nil {
		if errors.Is(err, docstore.ErrPathMissing) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("look up email: %w", err)
	}

	var cred credentialRecord
	if err := p.store.Read(ctx, credentialsPath+"/"+idx.UID, &cred); err != nil {
		if errors.Is(err, docstore.ErrPathMissing) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load credentials: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := p.mintToken(idx.UID)
	if err != nil {
		return nil, err
	}

	id := &Identity{UID: idx.UID, Email: cred.Email, Token: token}
	p.notify(id)
	return id, nil
}

func (p *StoreProvider) Provision(ctx context.Context, email, password string) (*Identity, error) {
	indexPath := emailIndexPath + "/" + emailKey(email)

	var existing emailIndexRecord
	err := p.store.Read(ctx, indexPath, &existing)
	if err == nil {
		return nil, ErrDuplicateIdentity
	}
	if !errors.Is(err, docstore.ErrPathMissing) {
		return nil, fmt.Errorf("check email index: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	uid := uuid.NewString()
	cred := credentialRecord{
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	// Two writes, no transaction: the credential record lands before the
	// email index, so a failed second write leaves an unreachable
	// credential rather than a claimable duplicate email.
	if err := p.store.Write(ctx, credentialsPath+"/"+uid, cred); err != nil {
		return nil, fmt.Errorf("store credentials: %w", err)
	}
	if err := p.store.Write(ctx, indexPath, emailIndexRecord{UID: uid}); err != nil {
		return nil, fmt.Errorf("store email index: %w", err)
	}

	token, err := p.mintToken(uid)
	if err != nil {
		return nil, err
	}

	id := &Identity{UID: uid, Email: cred.Email, Token: token}
	p.notify(id)
	return id, nil
}

func (p *StoreProvider) Deauthenticate(ctx context.Context) error {
	p.notify(nil)
	return nil
}

func (p *StoreProvider) mintToken(uid string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   uid,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return token, nil
}

func (p *StoreProvider) VerifyToken(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func (p *StoreProvider) OnChange(fn func(*Identity)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

func (p *StoreProvider) notify(id *Identity) {
	p.mu.Lock()
	fns := make([]func(*Identity), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(id)
	}
}
