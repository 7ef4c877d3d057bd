package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Index lists the top-level endpoints of the API.
func Index(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Healthcare Backend API",
		"auth": echo.Map{
			"register": "/api/auth/register/",
			"login":    "/api/auth/login/",
			"refresh":  "/api/auth/token/refresh/",
			"logout":   "/api/auth/logout/",
			"me":       "/api/auth/me/",
		},
		"patients": "/api/patients/",
		"doctors":  "/api/doctors/",
		"mappings": "/api/mappings/",
	})
}
