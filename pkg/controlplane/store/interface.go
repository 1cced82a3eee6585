// Package store provides the settings persistence layer.
//
// Settings are grouped by namespace and stored as JSON text, one row (or key)
// per setting. Three backends are supported:
//   - SQLite (single-node, default)
//   - PostgreSQL (shared database)
//   - BadgerDB (embedded key-value store)
package store

import (
	"context"

	"github.com/emudecky/emudecky/pkg/controlplane/models"
)

// Store provides the settings persistence interface.
//
// Thread Safety: Implementations must be safe for concurrent use from multiple
// goroutines.
type Store interface {
	// GetSetting returns the raw value stored under key in the namespace.
	// Returns models.ErrSettingNotFound if the key does not exist.
	GetSetting(ctx context.Context, namespace, key string) (string, error)

	// SetSetting creates or updates a single setting.
	SetSetting(ctx context.Context, namespace, key, value string) error

	// DeleteSetting removes a setting. Deleting a missing key is not an error.
	DeleteSetting(ctx context.Context, namespace, key string) error

	// ListSettings returns all settings of the namespace ordered by key.
	ListSettings(ctx context.Context, namespace string) ([]*models.Setting, error)

	// ApplySettings writes upserts and removes deletes in one atomic batch.
	ApplySettings(ctx context.Context, namespace string, upserts map[string]string, deletes []string) error

	// Healthcheck verifies the backend is reachable.
	Healthcheck(ctx context.Context) error

	// Type returns the backend type.
	Type() DatabaseType

	// Close releases the underlying connection.
	Close() error
}

// New opens the backend selected by config.Type.
func New(config *Config) (Store, error) {
	if config == nil {
		config = &Config{}
	}

	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case DatabaseTypeBadger:
		return NewBadgerStore(&config.Badger)
	default:
		return NewGORMStore(config)
	}
}
