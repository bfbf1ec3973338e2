package interfaces

import (
	"github.com/google/wire"

	"jan-server/services/whatsapp-api/internal/interfaces/eventlog"
	"jan-server/services/whatsapp-api/internal/interfaces/httpserver"
	"jan-server/services/whatsapp-api/internal/interfaces/httpserver/handlers"
	"jan-server/services/whatsapp-api/internal/interfaces/httpserver/routes"
)

// InterfacesProvider provides all interface dependencies.
var InterfacesProvider = wire.NewSet(
	handlers.HandlerProvider,
	routes.RouteProvider,
	eventlog.New,
	httpserver.New,
)
