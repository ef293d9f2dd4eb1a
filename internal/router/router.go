// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/pizzariabella/reservas-api/internal/config"
	"github.com/pizzariabella/reservas-api/internal/handler"
	"github.com/pizzariabella/reservas-api/internal/middleware"
)

// RegisterRoutes registers every endpoint of the reservation API on the
// provided Echo instance.  Read endpoints (availability, listing, status)
// are public and sit behind the Redis response cache when one is
// configured.  Mutating endpoints require a service token whenever an API
// secret is set; an empty secret leaves them open for local development.
func RegisterRoutes(e *echo.Echo, h *handler.ReservaHandler, apiSecret string, rdb *redis.Client) {
	// Browser clients call the API directly, so CORS must allow the
	// headers the dashboard sends.
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"authorization", "x-client-info", "apikey", "content-type"},
	}))

	if rdb != nil {
		e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	}

	// Liveness endpoints for load balancers and uptime monitors.  A bare
	// "/" answers like /status so naive probes get something useful.
	e.GET("/healthz", handler.Health)
	e.GET("/status", handler.Status)
	e.GET("/", handler.Status)

	// Public reads.  Cached when Redis is available; availability and
	// listings tolerate a few seconds of staleness.
	reads := e.Group("")
	if rdb != nil {
		reads.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	}
	reads.GET("/disponibilidade", h.Disponibilidade)
	reads.GET("/reservas", h.Listar)

	// Mutations.  ServiceAuth is a no-op when apiSecret is empty.
	mut := e.Group("")
	mut.Use(middleware.ServiceAuth(apiSecret))
	mut.POST("/reservas", h.Criar)
	mut.POST("/reservas/modificar-mesas", h.ModificarMesas)
	mut.POST("/reservas/atualizar-status", h.AtualizarStatus)
	mut.PUT("/reservas/:id", h.Atualizar)
	mut.DELETE("/reservas/:id", h.Cancelar)
}
