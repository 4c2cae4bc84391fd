package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sourav8908/FLEX-QC-APP/internal/analytics"
	"github.com/sourav8908/FLEX-QC-APP/internal/export"
	"github.com/sourav8908/FLEX-QC-APP/internal/repository"
)

// DashboardHandler serves the admin analytics view and the CSV export
// of the full report history. Both are read-only derivations over the
// report and device-status collections; nothing here is persisted.
type DashboardHandler struct {
	Reports  *repository.ReportRepo
	Statuses *repository.DeviceStatusRepo
}

func NewDashboardHandler(reports *repository.ReportRepo, statuses *repository.DeviceStatusRepo) *DashboardHandler {
	if reports == nil || statuses == nil {
		panic("nil repository passed to NewDashboardHandler")
	}
	return &DashboardHandler{Reports: reports, Statuses: statuses}
}

// Get handles GET /v1/admin/dashboard.
func (h *DashboardHandler) Get(c echo.Context) error {
	ctx, cancel := adminCtx(c)
	defer cancel()
	reports, err := h.Reports.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load reports failed"})
	}
	statuses, err := h.Statuses.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load device statuses failed"})
	}
	return c.JSON(http.StatusOK, analytics.Build(reports, statuses, time.Now()))
}

// ExportCSV handles GET /v1/admin/reports/export. The response is an
// attachment named Flex_QC_Export_<ISO-date>.csv.
func (h *DashboardHandler) ExportCSV(c echo.Context) error {
	ctx, cancel := adminCtx(c)
	defer cancel()
	reports, err := h.Reports.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load reports failed"})
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition,
		`attachment; filename=`+export.Filename(time.Now()))
	c.Response().WriteHeader(http.StatusOK)
	return export.Write(c.Response(), reports)
}
