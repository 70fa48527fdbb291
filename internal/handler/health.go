package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthCheck responds with a static payload so load balancers can probe
// liveness without touching the database.
func HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
