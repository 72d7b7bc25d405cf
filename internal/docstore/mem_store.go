package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemStore is an in-process Store used by tests and local development.
type MemStore struct {
	mu   sync.RWMutex
	docs map[string]json.RawMessage
}

func NewMemStore() *MemStore {
	return &MemStore{docs: make(map[string]json.RawMessage)}
}

func (s *MemStore) Read(ctx context.Context, path string, dest any) error {
	s.mu.RLock()
	raw, ok := s.docs[path]
	s.mu.RUnlock()

	if !ok {
		return ErrPathMissing
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (s *MemStore) Write(ctx context.Context, path string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	s.mu.Lock()
	s.docs[path] = raw
	s.mu.Unlock()
	return nil
}

func (s *MemStore) Merge(ctx context.Context, path string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := make(map[string]any)
	if raw, ok := s.docs[path]; ok {
		if err := json.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("decode %s for merge: %w", path, err)
		}
	}

	for k, v := range fields {
		doc[k] = v
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	s.docs[path] = raw
	return nil
}

func (s *MemStore) Push(ctx context.Context, collection string, value any) (string, error) {
	key := uuid.NewString()
	if err := s.Write(ctx, collection+"/"+key, value); err != nil {
		return "", err
	}
	return key, nil
}

func (s *MemStore) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	delete(s.docs, path)
	s.mu.Unlock()
	return nil
}

func (s *MemStore) Children(ctx context.Context, collection string) (map[string]json.RawMessage, error) {
	prefix := collection + "/"

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]json.RawMessage)
	for path, raw := range s.docs {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		key := path[len(prefix):]
		if strings.Contains(key, "/") {
			continue
		}
		out[key] = raw
	}
	return out, nil
}
