package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "doc:"

// RedisStore keeps one Redis key per document path. Merge is a plain
// read-modify-write: concurrent merges race with last-write-wins, same as
// the rest of the tree.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Read(ctx context.Context, path string, dest any) error {
	raw, err := s.client.Get(ctx, keyPrefix+path).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrPathMissing
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (s *RedisStore) Write(ctx context.Context, path string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	if err := s.client.Set(ctx, keyPrefix+path, raw, 0).Err(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (s *RedisStore) Merge(ctx context.Context, path string, fields map[string]any) error {
	doc := make(map[string]any)

	raw, err := s.client.Get(ctx, keyPrefix+path).Bytes()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("read %s for merge: %w", path, err)
	}
	if err == nil {
		if err := json.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("decode %s for merge: %w", path, err)
		}
	}

	for k, v := range fields {
		doc[k] = v
	}

	return s.Write(ctx, path, doc)
}

func (s *RedisStore) Push(ctx context.Context, collection string, value any) (string, error) {
	key := uuid.NewString()
	if err := s.Write(ctx, collection+"/"+key, value); err != nil {
		return "", err
	}
	return key, nil
}

func (s *RedisStore) Delete(ctx context.Context, path string) error {
	if err := s.client.Del(ctx, keyPrefix+path).Err(); err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}

func (s *RedisStore) Children(ctx context.Context, collection string) (map[string]json.RawMessage, error) {
	prefix := keyPrefix + collection + "/"

	var keys []string
	iter := s.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		// Direct children only, not nested paths
		if strings.Contains(key[len(prefix):], "/") {
			continue
		}
		keys = append(keys, key)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan children of %s: %w", collection, err)
	}

	out := make(map[string]json.RawMessage)
	if len(keys) == 0 {
		return out, nil
	}

	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("read children of %s: %w", collection, err)
	}

	for i, v := range vals {
		if v == nil {
			continue // expired between SCAN and MGET
		}
		str, ok := v.(string)
		if !ok {
			continue
		}
		out[keys[i][len(prefix):]] = json.RawMessage(str)
	}

	return out, nil
}
