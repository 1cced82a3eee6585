package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/emudecky/emudecky/pkg/controlplane/models"
)

// BadgerStore implements the Store interface on an embedded BadgerDB.
//
// Keys are laid out as "setting:<namespace>:<key>" so that a namespace can be
// listed with a single prefix scan.
type BadgerStore struct {
	db     *badgerdb.DB
	config *BadgerConfig
}

// badgerRecord is the on-disk encoding of a setting value.
type badgerRecord struct {
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewBadgerStore opens (or creates) the BadgerDB described by config.
func NewBadgerStore(config *BadgerConfig) (*BadgerStore, error) {
	if config == nil {
		config = &BadgerConfig{InMemory: true}
	}

	var opts badgerdb.Options
	if config.InMemory {
		opts = badgerdb.DefaultOptions("").WithInMemory(true)
	} else {
		if config.Path == "" {
			return nil, fmt.Errorf("badger path is required")
		}
		if err := os.MkdirAll(config.Path, 0755); err != nil {
			return nil, fmt.Errorf("failed to create badger directory: %w", err)
		}
		opts = badgerdb.DefaultOptions(config.Path)
	}
	opts = opts.WithLogger(nil)

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	return &BadgerStore{db: db, config: config}, nil
}

// DB returns the underlying BadgerDB handle.
func (s *BadgerStore) DB() *badgerdb.DB {
	return s.db
}

// Type returns DatabaseTypeBadger.
func (s *BadgerStore) Type() DatabaseType {
	return DatabaseTypeBadger
}

func namespacePrefix(namespace string) []byte {
	return []byte("setting:" + namespace + ":")
}

func keySetting(namespace, key string) []byte {
	return append(namespacePrefix(namespace), key...)
}

func encodeRecord(value string, now time.Time) ([]byte, error) {
	return json.Marshal(badgerRecord{Value: value, UpdatedAt: now})
}

func decodeRecord(data []byte) (badgerRecord, error) {
	var rec badgerRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("failed to decode setting: %w", err)
	}
	return rec, nil
}

func (s *BadgerStore) GetSetting(ctx context.Context, namespace, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var value string
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(keySetting(namespace, key))
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return models.ErrSettingNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			rec, err := decodeRecord(val)
			if err != nil {
				return err
			}
			value = rec.Value
			return nil
		})
	})
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *BadgerStore) SetSetting(ctx context.Context, namespace, key, value string) error {
	return s.ApplySettings(ctx, namespace, map[string]string{key: value}, nil)
}

func (s *BadgerStore) DeleteSetting(ctx context.Context, namespace, key string) error {
	return s.ApplySettings(ctx, namespace, nil, []string{key})
}

func (s *BadgerStore) ListSettings(ctx context.Context, namespace string) ([]*models.Setting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := namespacePrefix(namespace)
	settings := []*models.Setting{}

	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := string(bytes.TrimPrefix(item.Key(), prefix))
			err := item.Value(func(val []byte) error {
				rec, err := decodeRecord(val)
				if err != nil {
					return err
				}
				settings = append(settings, &models.Setting{
					Namespace: namespace,
					Key:       key,
					Value:     rec.Value,
					UpdatedAt: rec.UpdatedAt,
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Iteration is in byte order of the key.
	return settings, nil
}

func (s *BadgerStore) ApplySettings(ctx context.Context, namespace string, upserts map[string]string, deletes []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(upserts) == 0 && len(deletes) == 0 {
		return nil
	}

	now := time.Now()
	return s.db.Update(func(txn *badgerdb.Txn) error {
		for key, value := range upserts {
			if key == "" {
				return models.ErrInvalidKey
			}
			data, err := encodeRecord(value, now)
			if err != nil {
				return err
			}
			if err := txn.Set(keySetting(namespace, key), data); err != nil {
				return err
			}
		}
		for _, key := range deletes {
			if err := txn.Delete(keySetting(namespace, key)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Healthcheck verifies the database can open a read transaction.
func (s *BadgerStore) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return fmt.Errorf("healthcheck failed: badger database is closed")
	}
	if err := s.db.View(func(*badgerdb.Txn) error { return nil }); err != nil {
		return fmt.Errorf("healthcheck failed: %w", err)
	}
	return nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

var _ Store = (*BadgerStore)(nil)
