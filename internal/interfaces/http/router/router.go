// Package router assembles the gin engine and mounts the versioned API.
package router

import "github.com/gin-gonic/gin"

// DefaultAPIVersion is the path segment used when Mount is given none.
const DefaultAPIVersion = "v1"

// RouteRegistrar is implemented by every handler that owns API routes.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// API describes one versioned route tree: /api/<Version>, guarded by
// Middleware, populated by Registrars in order.
type API struct {
	Version    string
	Middleware []gin.HandlerFunc
	Registrars []RouteRegistrar
}

// Mount creates the /api/<version> group on engine and registers every
// handler on it. Routes added straight to the engine, such as /health, do
// not see the API middleware.
func Mount(engine *gin.Engine, api API) *gin.RouterGroup {
	version := api.Version
	if version == "" {
		version = DefaultAPIVersion
	}
	group := engine.Group("/api/"+version, api.Middleware...)
	for _, r := range api.Registrars {
		r.RegisterRoutes(group)
	}
	return group
}
