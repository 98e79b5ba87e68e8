package auth

import (
	"github.com/labstack/echo/v4"
)

// publicRoutes are the health and scrape endpoints that run without a token.
var publicRoutes = map[string]bool{
	"/health":       true,
	"/health/ready": true,
	"/metrics":      true,
}

// AuthSkipper lets JWT middleware pass public routes through. It matches the
// registered route rather than the raw URL, so /health?x=1 is public too.
func AuthSkipper(c echo.Context) bool {
	return publicRoutes[c.Path()]
}
