package spend_mock

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/spendkit/spend_service/spend_model"
	"github.com/zeebo/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SqliteDatabase opens an isolated in-memory database with the full
// schema migrated.
func SqliteDatabase(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	assert.Nil(t, err)

	err = db.AutoMigrate(
		&spend_model.Organization{},
		&spend_model.User{},
		&spend_model.Team{},
		&spend_model.TeamMember{},
		&spend_model.Vendor{},
		&spend_model.Category{},
		&spend_model.SpendEvent{},
		&spend_model.Receipt{},
		&spend_model.Policy{},
		&spend_model.PolicyRule{},
		&spend_model.Approval{},
		&spend_model.IdempotencyKey{},
		&spend_model.Notification{},
		&spend_model.AuditLog{},
	)
	assert.Nil(t, err)

	return db
}
