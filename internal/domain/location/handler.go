package location

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
	// Read endpoints – every signed-in role
	read := api.Group("", auth.RequireRole(auth.RolePHCStaff))
	read.GET("/lgas", h.ListLGAs)
	read.GET("/lgas/:id", h.GetLGA)
	read.GET("/wards", h.ListWards)
	read.GET("/wards/:id", h.GetWard)
	read.GET("/facilities", h.ListFacilities)
	read.GET("/facilities/:id", h.GetFacility)

	// Write endpoints – admin only
	write := api.Group("", auth.RequireRole(auth.RoleAdmin))
	write.POST("/lgas", h.CreateLGA)
	write.PUT("/lgas/:id", h.UpdateLGA)
	write.POST("/wards", h.CreateWard)
	write.PUT("/wards/:id", h.UpdateWard)
	write.POST("/facilities", h.CreateFacility)
	write.PUT("/facilities/:id", h.UpdateFacility)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func optionalUUID(c echo.Context, name string) (*uuid.UUID, error) {
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

// -- LGA Handlers --

func (h *Handler) CreateLGA(c echo.Context) error {
	var l LGA
	if err := c.Bind(&l); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateLGA(c.Request().Context(), &l); err != nil {
		return apperr.ToHTTP(err, "lga")
	}
	return c.JSON(http.StatusCreated, l)
}

func (h *Handler) GetLGA(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	l, err := h.svc.GetLGA(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err, "lga")
	}
	return c.JSON(http.StatusOK, l)
}

func (h *Handler) UpdateLGA(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var l LGA
	if err := c.Bind(&l); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	l.ID = id
	if err := h.svc.UpdateLGA(c.Request().Context(), &l); err != nil {
		return apperr.ToHTTP(err, "lga")
	}
	return c.JSON(http.StatusOK, l)
}

func (h *Handler) ListLGAs(c echo.Context) error {
	items, err := h.svc.ListLGAs(c.Request().Context())
	if err != nil {
		return apperr.ToHTTP(err, "lga")
	}
	return c.JSON(http.StatusOK, items)
}

// -- Ward Handlers --

func (h *Handler) CreateWard(c echo.Context) error {
	var w Ward
	if err := c.Bind(&w); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateWard(c.Request().Context(), &w); err != nil {
		return apperr.ToHTTP(err, "ward")
	}
	return c.JSON(http.StatusCreated, w)
}

func (h *Handler) GetWard(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	w, err := h.svc.GetWard(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err, "ward")
	}
	return c.JSON(http.StatusOK, w)
}

func (h *Handler) UpdateWard(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var w Ward
	if err := c.Bind(&w); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	w.ID = id
	if err := h.svc.UpdateWard(c.Request().Context(), &w); err != nil {
		return apperr.ToHTTP(err, "ward")
	}
	return c.JSON(http.StatusOK, w)
}

func (h *Handler) ListWards(c echo.Context) error {
	lgaID, err := optionalUUID(c, "lga_id")
	if err != nil {
		return err
	}
	items, err := h.svc.ListWards(c.Request().Context(), lgaID)
	if err != nil {
		return apperr.ToHTTP(err, "ward")
	}
	return c.JSON(http.StatusOK, items)
}

// -- Facility Handlers --

func (h *Handler) CreateFacility(c echo.Context) error {
	var f Facility
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateFacility(c.Request().Context(), &f); err != nil {
		return apperr.ToHTTP(err, "facility")
	}
	return c.JSON(http.StatusCreated, f)
}

func (h *Handler) GetFacility(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	f, err := h.svc.GetFacility(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err, "facility")
	}
	return c.JSON(http.StatusOK, f)
}

func (h *Handler) UpdateFacility(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var f Facility
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	f.ID = id
	if err := h.svc.UpdateFacility(c.Request().Context(), &f); err != nil {
		return apperr.ToHTTP(err, "facility")
	}
	return c.JSON(http.StatusOK, f)
}

func (h *Handler) ListFacilities(c echo.Context) error {
	lgaID, err := optionalUUID(c, "lga_id")
	if err != nil {
		return err
	}
	wardID, err := optionalUUID(c, "ward_id")
	if err != nil {
		return err
	}
	items, err := h.svc.ListFacilities(c.Request().Context(), lgaID, wardID)
	if err != nil {
		return apperr.ToHTTP(err, "facility")
	}
	return c.JSON(http.StatusOK, items)
}
