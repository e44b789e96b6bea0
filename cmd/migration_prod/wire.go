//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"
	"github.com/spendkit/spend_service"
	"github.com/spendkit/spend_service/configs"
)

func InitializeMigration() (*Migration, error) {
	wire.Build(
		configs.NewProductionConfig,
		NewDatabase,
		spend_service.NewMigrationHandler,
		spend_service.NewSeedHandler,
		NewMigration,
	)

	return &Migration{}, nil
}
