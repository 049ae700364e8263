package api

import (
	"io/fs"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// RegisterUI serves the embedded board UI from the site root. API and
// health paths bypass the file server so the router still answers them,
// including 405 responses for wrong methods.
func RegisterUI(e *echo.Echo, ui fs.FS) {
	e.Use(middleware.StaticWithConfig(middleware.StaticConfig{
		Skipper: func(c echo.Context) bool {
			p := c.Request().URL.Path
			return strings.HasPrefix(p, "/api/") || p == "/healthz"
		},
		Root:       ".",
		Filesystem: http.FS(ui),
	}))
}
