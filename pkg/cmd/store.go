// Package cmd provides shared constructors for the command-line entry
// points.
package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/tagrelay/tagrelay/pkg/persistence"
	"github.com/tagrelay/tagrelay/pkg/persistence/file"
	redisstore "github.com/tagrelay/tagrelay/pkg/persistence/redis"
)

// NewConfigStore selects a store implementation from the database URL
// scheme: redis:// for the redis store, anything else for the file store.
func NewConfigStore(databaseURL string, logger *slog.Logger) (persistence.ConfigStore, error) {
	if redisstore.IsRedisURL(databaseURL) {
		store, err := redisstore.NewStore(databaseURL, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis store: %w", err)
		}

		return store, nil
	}

	return file.NewStore(strings.Replace(databaseURL, "file://", "", 1), logger), nil
}
