package patient

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Yamojr001/lip-sub002/internal/platform/apperr"
	"github.com/Yamojr001/lip-sub002/internal/platform/auth"
	"github.com/Yamojr001/lip-sub002/pkg/pagination"
)

const dateLayout = "2006-01-02"

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	staff := api.Group("/patients", auth.RequireRole(auth.RolePHCStaff))
	staff.GET("", h.List)
	staff.GET("/:id", h.Get)
	staff.POST("", h.Create)
	staff.PUT("/:id", h.Update)

	admin := api.Group("/patients", auth.RequireRole(auth.RoleAdmin))
	admin.DELETE("/:id", h.Delete)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// FilterFromQuery reads lga_id, ward_id, facility_id, from, to and search.
// "to" is inclusive on the wire and half open in the returned Filter.
func FilterFromQuery(c echo.Context) (Filter, error) {
	var f Filter
	for name, dst := range map[string]**uuid.UUID{
		"lga_id":      &f.LGAID,
		"ward_id":     &f.WardID,
		"facility_id": &f.FacilityID,
	} {
		raw := c.QueryParam(name)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return f, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
		}
		*dst = &id
	}
	if raw := c.QueryParam("from"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			return f, echo.NewHTTPError(http.StatusBadRequest, "invalid from date, want YYYY-MM-DD")
		}
		f.RegisteredFrom = &t
	}
	if raw := c.QueryParam("to"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			return f, echo.NewHTTPError(http.StatusBadRequest, "invalid to date, want YYYY-MM-DD")
		}
		end := t.AddDate(0, 0, 1)
		f.RegisteredTo = &end
	}
	f.Search = c.QueryParam("search")
	return f, nil
}

func actor(c echo.Context) auth.Principal {
	return auth.PrincipalFromContext(c.Request().Context())
}

func (h *Handler) List(c echo.Context) error {
	f, err := FilterFromQuery(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), actor(c), f, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err, "patient")
	}
	if items == nil {
		items = []*Record{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	r, err := h.svc.Get(c.Request().Context(), actor(c), id)
	if err != nil {
		return apperr.ToHTTP(err, "patient")
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) Create(c echo.Context) error {
	var r Record
	if err := c.Bind(&r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p := actor(c)
	if p.UserID != "" {
		uid := p.UserID
		r.CreatedBy = &uid
	}
	if err := h.svc.Register(c.Request().Context(), p, &r); err != nil {
		return apperr.ToHTTP(err, "patient")
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var r Record
	if err := c.Bind(&r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	r.ID = id
	updated, err := h.svc.Update(c.Request().Context(), actor(c), &r)
	if err != nil {
		return apperr.ToHTTP(err, "patient")
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return apperr.ToHTTP(err, "patient")
	}
	return c.NoContent(http.StatusNoContent)
}
