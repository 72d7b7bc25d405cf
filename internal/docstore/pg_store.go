package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore keeps the whole tree in one documents(path, doc) table.
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func (s *PgStore) Read(ctx context.Context, path string, dest any) error {
	var raw []byte

	err := s.pool.QueryRow(ctx, `
		SELECT doc
		FROM documents
		WHERE path = $1
	`, path).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrPathMissing
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (s *PgStore) Write(ctx context.Context, path string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO documents (path, doc, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (path) DO UPDATE
		SET doc = EXCLUDED.doc,
		    updated_at = now()
	`, path, raw)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (s *PgStore) Merge(ctx context.Context, path string, fields map[string]any) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode merge for %s: %w", path, err)
	}

	// jsonb || replaces named top-level fields and keeps the rest
	_, err = s.pool.Exec(ctx, `
		INSERT INTO documents (path, doc, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (path) DO UPDATE
		SET doc = documents.doc || EXCLUDED.doc,
		    updated_at = now()
	`, path, raw)
	if err != nil {
		return fmt.Errorf("merge %s: %w", path, err)
	}
	return nil
}

func (s *PgStore) Push(ctx context.Context, collection string, value any) (string, error) {
	key := uuid.NewString()
	if err := s.Write(ctx, collection+"/"+key, value); err != nil {
		return "", err
	}
	return key, nil
}

func (s *PgStore) Delete(ctx context.Context, path string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM documents
		WHERE path = $1
	`, path)
	if err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}

func (s *PgStore) Children(ctx context.Context, collection string) (map[string]json.RawMessage, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT path, doc
		FROM documents
		WHERE path LIKE $1 || '/%'
		  AND path NOT LIKE $1 || '/%/%'
	`, collection)
	if err != nil {
		return nil, fmt.Errorf("read children of %s: %w", collection, err)
	}
	defer rows.Close()

	out := make(map[string]json.RawMessage)
	for rows.Next() {
		var path string
		var raw []byte
		if err := rows.Scan(&path, &raw); err != nil {
			return nil, fmt.Errorf("scan child of %s: %w", collection, err)
		}
		out[path[len(collection)+1:]] = json.RawMessage(raw)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read children of %s: %w", collection, err)
	}

	return out, nil
}
