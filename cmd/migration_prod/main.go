package main

import (
	"log"

	"github.com/spendkit/spend_service"
	"github.com/spendkit/spend_service/configs"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func NewDatabase(cfg *configs.AppConfig) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
}

type Migration struct {
	Run func() error
}

func NewMigration(
	migrate spend_service.MigrationHandler,
	seed spend_service.SeedHandler,
) *Migration {
	return &Migration{
		Run: func() error {
			err := migrate()
			if err != nil {
				return err
			}

			return seed()
		},
	}
}

func main() {
	mig, err := InitializeMigration()
	if err != nil {
		panic(err)
	}

	err = mig.Run()
	if err != nil {
		panic(err)
	}

	log.Println("migration done")
}
