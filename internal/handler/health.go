package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// APIVersion is reported by the status route.
const APIVersion = "1.3.0"

// Health is a simple health-check endpoint used by load balancers and
// monitoring systems to verify that the service is running.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Status reports liveness plus the API version for clients that poll
// /status instead of /healthz.
func Status(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":      "online",
		"api_version": APIVersion,
	})
}
