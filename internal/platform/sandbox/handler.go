package sandbox

import (
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/Yamojr001/lip-sub002/internal/platform/apperr"
	"github.com/Yamojr001/lip-sub002/internal/platform/auth"
)

// SeedHandler exposes the seeder over HTTP. It is only mounted in
// development.
type SeedHandler struct {
	mu        sync.Mutex
	locations Locations
	patients  Patients
	children  Children
	logger    zerolog.Logger
}

func NewSeedHandler(locations Locations, patients Patients, children Children, logger zerolog.Logger) *SeedHandler {
	return &SeedHandler{locations: locations, patients: patients, children: children, logger: logger}
}

func (h *SeedHandler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/sandbox", auth.RequireRole(auth.RoleAdmin))
	g.POST("/seed", h.handleSeed)
}

func (h *SeedHandler) handleSeed(c echo.Context) error {
	cfg := DefaultSeedConfig()
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&cfg); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
	}
	if err := cfg.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	result, err := NewSeeder(cfg, h.locations, h.patients, h.children, h.logger).Run(c.Request().Context())
	if err != nil {
		return apperr.ToHTTP(err, "seed data")
	}
	return c.JSON(http.StatusCreated, result)
}
