//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"
	"github.com/rs/zerolog"

	"github.com/janhq/drivethru-server/internal/config"
	"github.com/janhq/drivethru-server/internal/domain"
	"github.com/janhq/drivethru-server/internal/infrastructure"
	"github.com/janhq/drivethru-server/internal/interfaces"
)

// CreateApplication creates the application with all dependencies wired.
func CreateApplication(cfg *config.Config, log zerolog.Logger) (*Application, func(), error) {
	wire.Build(
		infrastructure.InfrastructureProvider,
		domain.ServiceProvider,
		interfaces.InterfacesProvider,
		NewApplication,
	)
	return nil, nil, nil
}
