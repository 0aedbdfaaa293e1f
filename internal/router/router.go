package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4" // the Echo web framework handles routing
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/user-identity-service/internal/config"
    "github.com/iliyamo/user-identity-service/internal/handler"
    "github.com/iliyamo/user-identity-service/internal/middleware"
)

// RegisterRoutes wires the identity endpoints onto the provided Echo
// instance.  Body validation runs for every request: the /register and
// /login schemas are selected by the first path segment, while the update
// schema is bound explicitly to the PUT route because its first segment is
// the user id.  Only PUT is guarded by the bearer-token middleware; the
// remaining routes match the public surface of the service.
func RegisterRoutes(e *echo.Echo, h *handler.UserHandler, cacheCfg config.CacheConfig, rdb *redis.Client) {
    // Health check for load balancers and monitoring.
    e.GET("/healthz", handler.Health)

    // Schema dispatch by first path segment; unknown segments pass through.
    e.Use(middleware.ValidateRequest())

    // Auth routes.
    e.POST("/register", h.Register)
    e.POST("/login", h.Login)

    // User management routes.  GET responses are cached per path; PUT and
    // DELETE invalidate the entry from inside the handler.
    e.GET("/:userId", h.Get, middleware.NewProfileCache(cacheCfg, rdb))
    e.PUT("/:userId", h.Update,
        middleware.JWTAuth(h.Cfg.JWTSecret),
        middleware.ValidateSchema("update"))
    e.DELETE("/:userId", h.Delete)
}
