package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/wardenhq/warden/internal/api/v1"
	"github.com/wardenhq/warden/internal/api/ws"
)

func registerAuthRoutes(api huma.API, authSvc v1.AuthService) {
	v1.RegisterAuthRoutes(api, authSvc)
}

func registerAPIRoutes(api huma.API, deps Deps) {
	v1.RegisterMemberRoutes(api, deps.Aggregator)
	v1.RegisterActivityRoutes(api, deps.Aggregator)
	v1.RegisterStatsRoutes(api, deps.Aggregator)
	v1.RegisterGatewayRoutes(api, deps.Entries, deps.Dispatcher)
	if deps.Atmosphere != nil {
		v1.RegisterAtmosphereRoutes(api, deps.Atmosphere)
	}
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/activity", hub.ServeActivity)
	r.Get("/members/{externalID}", hub.ServeMember)
}
