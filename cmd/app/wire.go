//go:build wireinject
// +build wireinject

package main

import (
	"net/http"

	"github.com/google/wire"
	"github.com/spendkit/spend_service"
	"github.com/spendkit/spend_service/configs"
)

func InitializeApp() (*App, error) {
	wire.Build(
		configs.NewProductionConfig,
		http.NewServeMux,
		NewDatabase,
		NewChannel,
		NewExtractor,
		NewDispatcher,
		spend_service.NewRegister,
		NewApp,
	)

	return &App{}, nil
}
