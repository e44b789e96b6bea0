package spend_core

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spendkit/spend_service/spend_model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IsDuplicate reports whether key was already recorded, across all scopes.
func IsDuplicate(db *gorm.DB, key string) (bool, error) {
	var count int64
	err := db.
		Model(&spend_model.IdempotencyKey{}).
		Where("key = ?", key).
		Count(&count).
		Error

	return count > 0, err
}

// RecordKey inserts key once. A second insert for the same key fails with
// ErrConflict; the unique index on key is the safety net for the window
// between a caller's check and its record.
func RecordKey(db *gorm.DB, key string, scope string, orgID *uuid.UUID) error {
	rec := spend_model.IdempotencyKey{
		OrganizationID: orgID,
		Key:            key,
		Scope:          scope,
	}

	res := db.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoNothing: true,
		}).
		Create(&rec)
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: idempotency key %q already recorded", ErrConflict, key)
	}

	return nil
}
