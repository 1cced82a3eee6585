package store

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emudecky/emudecky/pkg/controlplane/models"
)

// ============================================
// SETTINGS OPERATIONS
// ============================================

// upsertClause overwrites value and timestamp when the (namespace, key) pair exists.
var upsertClause = clause.OnConflict{
	Columns:   []clause.Column{{Name: "namespace"}, {Name: "key"}},
	DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
}

func (s *GORMStore) GetSetting(ctx context.Context, namespace, key string) (string, error) {
	setting, err := getByFields[models.Setting](s.db, ctx, models.ErrSettingNotFound,
		"namespace", namespace, "key", key)
	if err != nil {
		return "", err
	}
	return setting.Value, nil
}

func (s *GORMStore) SetSetting(ctx context.Context, namespace, key, value string) error {
	if key == "" {
		return models.ErrInvalidKey
	}
	setting := models.Setting{
		Namespace: namespace,
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}
	return s.db.WithContext(ctx).Clauses(upsertClause).Create(&setting).Error
}

func (s *GORMStore) DeleteSetting(ctx context.Context, namespace, key string) error {
	return s.db.WithContext(ctx).
		Where("namespace = ? AND key = ?", namespace, key).
		Delete(&models.Setting{}).Error
}

func (s *GORMStore) ListSettings(ctx context.Context, namespace string) ([]*models.Setting, error) {
	return listWhere[models.Setting](s.db, ctx, "key", "namespace = ?", namespace)
}

func (s *GORMStore) ApplySettings(ctx context.Context, namespace string, upserts map[string]string, deletes []string) error {
	if len(upserts) == 0 && len(deletes) == 0 {
		return nil
	}

	now := time.Now()
	rows := make([]models.Setting, 0, len(upserts))
	for key, value := range upserts {
		if key == "" {
			return models.ErrInvalidKey
		}
		rows = append(rows, models.Setting{
			Namespace: namespace,
			Key:       key,
			Value:     value,
			UpdatedAt: now,
		})
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(rows) > 0 {
			if err := tx.Clauses(upsertClause).Create(&rows).Error; err != nil {
				return err
			}
		}
		if len(deletes) > 0 {
			if err := tx.Where("namespace = ? AND key IN ?", namespace, deletes).
				Delete(&models.Setting{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
