// Package blobstore provides a persistent store that snapshots the full state
// as a single JSON object in a blob store. It is useful when the only durable
// medium available is object storage.
package blobstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"lighthousecore/internal/blob"
	"lighthousecore/internal/infra/persistence/memory"
	"lighthousecore/pkg/domain"
)

var _ domain.PersistentStore = (*Store)(nil)

// DefaultKey is the object key used when none is configured.
const DefaultKey = "snapshots/state.json"

// Store persists state to a blob.Store while reusing the in-memory
// implementation for transactions.
type Store struct {
	*memory.Store
	blobs blob.Store
	key   string
	mu    sync.Mutex
}

// NewStore hydrates the in-memory store from any existing snapshot object.
func NewStore(ctx context.Context, blobs blob.Store, key string, engine *domain.RulesEngine) (*Store, error) {
	if blobs == nil {
		return nil, fmt.Errorf("blob store required")
	}
	if key == "" {
		key = DefaultKey
	}
	mem := memory.NewStore(engine)
	s := &Store{Store: mem, blobs: blobs, key: key}
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load(ctx context.Context) error {
	_, rc, err := s.blobs.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("read snapshot: %w", err)
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	var snapshot memory.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	s.ImportState(snapshot)
	return nil
}

func (s *Store) persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.Marshal(s.ExportState())
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if _, err := s.blobs.Put(ctx, s.key, bytes.NewReader(data), blob.PutOptions{ContentType: "application/json"}); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// RunInTransaction applies the provided function within a transaction, then
// rewrites the snapshot object if successful. A snapshot failure is reported
// as a PersistenceError while the committed in-memory state is retained.
func (s *Store) RunInTransaction(ctx context.Context, fn func(domain.Transaction) error) (domain.Result, error) {
	res, err := s.Store.RunInTransaction(ctx, fn)
	if err != nil {
		return res, err
	}
	if pErr := s.persist(ctx); pErr != nil {
		return res, &domain.PersistenceError{Backend: string(s.blobs.Driver()), Err: pErr}
	}
	return res, nil
}

// Key returns the configured snapshot object key.
func (s *Store) Key() string { return s.key }
