package store

import (
	"context"

	"gorm.io/gorm"
)

// ============================================================================
// Generic GORM Helpers
// ============================================================================
//
// These helpers reduce repetitive query boilerplate in the GORM store. They
// are unexported and operate on the raw *gorm.DB to avoid coupling to
// GORMStore.

// getByFields retrieves a single record of type T matching every field=value
// pair and converts gorm.ErrRecordNotFound to notFoundErr.
//
// Example:
//
//	s, err := getByFields[models.Setting](db, ctx, models.ErrSettingNotFound, "namespace", "emudecky", "key", "modules")
func getByFields[T any](db *gorm.DB, ctx context.Context, notFoundErr error, pairs ...any) (*T, error) {
	var result T
	q := db.WithContext(ctx)
	for i := 0; i+1 < len(pairs); i += 2 {
		q = q.Where(pairs[i].(string)+" = ?", pairs[i+1])
	}
	if err := q.First(&result).Error; err != nil {
		return nil, convertNotFoundError(err, notFoundErr)
	}
	return &result, nil
}

// listWhere retrieves all records of type T matching query, ordered by orderBy.
// Returns an empty slice (not nil) on success with no records.
func listWhere[T any](db *gorm.DB, ctx context.Context, orderBy string, query string, args ...any) ([]*T, error) {
	results := []*T{}
	if err := db.WithContext(ctx).Where(query, args...).Order(orderBy).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
