package interfaces

import (
	"github.com/google/wire"

	"github.com/janhq/drivethru-server/internal/interfaces/httpserver"
	"github.com/janhq/drivethru-server/internal/interfaces/httpserver/handlers"
	"github.com/janhq/drivethru-server/internal/interfaces/httpserver/routes"
)

// InterfacesProvider provides all interface dependencies.
var InterfacesProvider = wire.NewSet(
	handlers.HandlerProvider,
	routes.RouteProvider,
	httpserver.New,
)
