// Package redis provides the redis-backed configuration store. The whole
// document lives under one key; saves are guarded with WATCH so a racing
// writer surfaces as a version conflict instead of a silent overwrite.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/tagrelay/tagrelay/pkg/persistence"
)

const documentKey = "tagrelay:triggers"

// Store implements persistence.ConfigStore on a redis key.
type Store struct {
	client *redis.Client
	key    string
	logger *slog.Logger
}

// NewStore connects to the redis URL (redis://host:port/db).
func NewStore(url string, logger *slog.Logger) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	return &Store{
		client: redis.NewClient(opts),
		key:    documentKey,
		logger: logger,
	}, nil
}

// NewStoreWithClient wraps an existing client. Used by tests.
func NewStoreWithClient(client *redis.Client, logger *slog.Logger) *Store {
	return &Store{
		client: client,
		key:    documentKey,
		logger: logger,
	}
}

// Load reads and decodes the document, migrating legacy-shape slugs and
// writing the result back under the same optimistic guard as Save.
func (s *Store) Load(ctx context.Context) (*persistence.ConfigDocument, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return persistence.NewConfigDocument(), nil
	}

	if err != nil {
		return nil, &persistence.StoreError{Op: "Load", Err: err}
	}

	doc, migrated, err := persistence.DecodeDocument(raw, s.logger)
	if err != nil {
		return nil, &persistence.StoreError{Op: "Load", Err: err}
	}

	if migrated {
		if err := s.Save(ctx, doc); err != nil {
			// A concurrent load migrated first; reload the settled state.
			if persistence.IsConflict(err) {
				return s.Load(ctx)
			}

			return nil, err
		}

		s.logger.Info("Migrated legacy trigger configuration", "key", s.key)
	}

	return doc, nil
}

// Save writes the document when the stored version still matches the one
// the caller loaded.
func (s *Store) Save(ctx context.Context, doc *persistence.ConfigDocument) error {
	encoded, err := persistence.EncodeDocument(doc, doc.Version+1)
	if err != nil {
		return &persistence.StoreError{Op: "Save", Err: err}
	}

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, s.key).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}

		current := persistence.NewConfigDocument()
		if len(raw) > 0 {
			current, _, err = persistence.DecodeDocument(raw, s.logger)
			if err != nil {
				return err
			}
		}

		if current.Version != doc.Version {
			return &persistence.ConflictError{Expected: doc.Version, Current: current.Version}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.key, encoded, 0)

			return nil
		})

		return err
	}, s.key)

	if errors.Is(err, redis.TxFailedErr) {
		return &persistence.StoreError{Op: "Save", Err: persistence.ErrConflict}
	}

	if err != nil {
		if persistence.IsConflict(err) {
			return err
		}

		return &persistence.StoreError{Op: "Save", Err: err}
	}

	doc.Version++

	return nil
}

// HealthCheck pings the redis server.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the client connection pool.
func (s *Store) Close(_ context.Context) error {
	return s.client.Close()
}

// IsRedisURL reports whether a database URL selects this store.
func IsRedisURL(url string) bool {
	return strings.HasPrefix(url, "redis://") || strings.HasPrefix(url, "rediss://")
}
