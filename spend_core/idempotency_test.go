package spend_core_test

import (
	"testing"

	"github.com/spendkit/spend_service/spend_core"
	"github.com/spendkit/spend_service/spend_mock"
	"github.com/stretchr/testify/assert"
)

func TestRecordKey(t *testing.T) {
	db := spend_mock.SqliteDatabase(t)
	org := spend_mock.PopulateOrganization(t, db, "acme")

	dup, err := spend_core.IsDuplicate(db, "receipt_ocr:abc")
	assert.Nil(t, err)
	assert.False(t, dup)

	err = spend_core.RecordKey(db, "receipt_ocr:abc", "receipt_ocr", &org.ID)
	assert.Nil(t, err)

	dup, err = spend_core.IsDuplicate(db, "receipt_ocr:abc")
	assert.Nil(t, err)
	assert.True(t, dup)

	t.Run("second record conflicts", func(t *testing.T) {
		err := spend_core.RecordKey(db, "receipt_ocr:abc", "receipt_ocr", &org.ID)
		assert.ErrorIs(t, err, spend_core.ErrConflict)
	})

	t.Run("same key conflicts across scopes", func(t *testing.T) {
		err := spend_core.RecordKey(db, "receipt_ocr:abc", "spend_create", nil)
		assert.ErrorIs(t, err, spend_core.ErrConflict)
	})

	t.Run("other keys are unaffected", func(t *testing.T) {
		err := spend_core.RecordKey(db, "receipt_ocr:def", "receipt_ocr", &org.ID)
		assert.Nil(t, err)
	})
}
