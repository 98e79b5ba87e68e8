package statistics

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Yamojr001/lip-sub002/internal/platform/apperr"
	"github.com/Yamojr001/lip-sub002/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	admin := api.Group("/statistics", auth.RequireRole(auth.RoleAdmin))
	admin.GET("/admin", h.Admin)

	staff := api.Group("/statistics", auth.RequireRole(auth.RolePHCStaff))
	staff.GET("", h.Page)
	staff.GET("/children", h.Children)
	staff.GET("/facility", h.Facility, auth.RequireFacility())
}

func queryID(c echo.Context, name string) (*uuid.UUID, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return &id, nil
}

// FilterFromQuery reads lga_id, ward_id and facility_id.
func FilterFromQuery(c echo.Context) (Filter, error) {
	var (
		f   Filter
		err error
	)
	if f.LGAID, err = queryID(c, "lga_id"); err != nil {
		return f, err
	}
	if f.WardID, err = queryID(c, "ward_id"); err != nil {
		return f, err
	}
	if f.FacilityID, err = queryID(c, "facility_id"); err != nil {
		return f, err
	}
	return f, nil
}

func (h *Handler) period(c echo.Context) (Period, error) {
	return ParsePeriod(c.QueryParam("period"), c.QueryParam("from"), c.QueryParam("to"), h.svc.Now())
}

func actor(c echo.Context) auth.Principal {
	return auth.PrincipalFromContext(c.Request().Context())
}

func (h *Handler) Admin(c echo.Context) error {
	f, err := FilterFromQuery(c)
	if err != nil {
		return err
	}
	p, err := h.period(c)
	if err != nil {
		return apperr.ToHTTP(err, "statistics")
	}
	out, err := h.svc.Admin(c.Request().Context(), f, p)
	if err != nil {
		return apperr.ToHTTP(err, "statistics")
	}
	return c.JSON(http.StatusOK, out)
}

// Facility serves the caller's own facility. Admins name one with facility_id.
func (h *Handler) Facility(c echo.Context) error {
	p := actor(c)
	var facilityID uuid.UUID
	switch {
	case p.IsAdmin():
		id, err := queryID(c, "facility_id")
		if err != nil {
			return err
		}
		if id == nil {
			return echo.NewHTTPError(http.StatusBadRequest, "facility_id is required")
		}
		facilityID = *id
	case p.FacilityID != nil:
		facilityID = *p.FacilityID
	default:
		return echo.NewHTTPError(http.StatusForbidden, "no facility assigned to user")
	}

	period, err := h.period(c)
	if err != nil {
		return apperr.ToHTTP(err, "statistics")
	}
	out, err := h.svc.Facility(c.Request().Context(), facilityID, period)
	if err != nil {
		return apperr.ToHTTP(err, "facility")
	}
	return c.JSON(http.StatusOK, out)
}

// Page serves the statistics page. Staff are pinned to their facility.
func (h *Handler) Page(c echo.Context) error {
	f, err := FilterFromQuery(c)
	if err != nil {
		return err
	}
	p, err := h.period(c)
	if err != nil {
		return apperr.ToHTTP(err, "statistics")
	}
	out, err := h.svc.Page(c.Request().Context(), Scoped(actor(c), f), p)
	if err != nil {
		return apperr.ToHTTP(err, "statistics")
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) Children(c echo.Context) error {
	f, err := FilterFromQuery(c)
	if err != nil {
		return err
	}
	out, err := h.svc.Children(c.Request().Context(), Scoped(actor(c), f))
	if err != nil {
		return apperr.ToHTTP(err, "statistics")
	}
	return c.JSON(http.StatusOK, out)
}
