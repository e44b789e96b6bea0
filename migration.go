package spend_service

import (
	"log"

	"github.com/spendkit/spend_service/spend_model"
	"gorm.io/gorm"
)

type SeedHandler func() error

func NewSeedHandler(
	db *gorm.DB,
) SeedHandler {
	return func() error {
		log.Println("seeding spend service")
		// Per-tenant defaults are seeded by identity workspace
		// initialization, not globally.
		return nil
	}
}

type MigrationHandler func() error

func NewMigrationHandler(
	db *gorm.DB,
) MigrationHandler {
	return func() error {
		log.Println("migrating spend service")
		return db.AutoMigrate(
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
	}
}
