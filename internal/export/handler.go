package export

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/Yamojr001/lip-sub002/internal/domain/patient"
	"github.com/Yamojr001/lip-sub002/internal/platform/auth"
)

const mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type writeFunc func(ctx context.Context, w io.Writer, src Source, f patient.Filter) (int, error)

type Handler struct {
	src    Source
	logger zerolog.Logger
	now    func() time.Time
}

func NewHandler(src Source, logger zerolog.Logger) *Handler {
	return &Handler{src: src, logger: logger.With().Str("component", "export").Logger(), now: time.Now}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/export", auth.RequireRole(auth.RolePHCStaff))
	g.GET("/patients.csv", h.CSV)
	g.GET("/patients.xlsx", h.XLSX)
}

func (h *Handler) CSV(c echo.Context) error {
	return h.serve(c, "csv", "text/csv; charset=utf-8", WriteCSV)
}

func (h *Handler) XLSX(c echo.Context) error {
	return h.serve(c, "xlsx", mimeXLSX, WriteXLSX)
}

// serve streams the export. Staff only export their own facility, except a
// cross-facility search.
func (h *Handler) serve(c echo.Context, ext, contentType string, write writeFunc) error {
	f, err := patient.FilterFromQuery(c)
	if err != nil {
		return err
	}
	f = patient.ScopeFilter(auth.PrincipalFromContext(c.Request().Context()), f)

	name := fmt.Sprintf("patients-%s.%s", h.now().Format("20060102"), ext)
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, contentType)
	res.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	res.WriteHeader(http.StatusOK)

	n, err := write(c.Request().Context(), res, h.src, f)
	if err != nil {
		// Headers are already sent; the truncated body is all the client gets.
		h.logger.Error().Err(err).Int("rows", n).Str("format", ext).Msg("export failed")
		return nil
	}
	h.logger.Info().Int("rows", n).Str("format", ext).Msg("export written")
	return nil
}
