package controllers

import (
	"github.com/MEE-POONG/mapoo-sub001/src/services/report"

	"github.com/gofiber/fiber/v2"
)

type ReportController struct {
	reportService report.ReportService
}

func NewReportController(reportService report.ReportService) *ReportController {
	return &ReportController{reportService: reportService}
}

func (c *ReportController) Route(r Routers) {
	r.Admin.Get("/reports/sales", c.SalesReport)
	r.Admin.Get("/stats", c.DashboardStats)
}

// SalesReport godoc
// @Summary      Sales report
// @Description  Revenue, cost and profit of non-cancelled orders in the period containing date, with a chart series
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        period  query  string  false  "day, month or year"  default(month)
// @Param        date    query  string  false  "Anchor date, YYYY-MM-DD or RFC 3339"
// @Success      200  {object}  report.SalesReport
// @Failure      400  {object}  middleware.ErrorResponse
// @Router       /api/admin/reports/sales [get]
func (c *ReportController) SalesReport(ctx *fiber.Ctx) error {
	result, err := c.reportService.SalesReport(ctx.UserContext(), ctx.Query("period"), ctx.Query("date"))
	if err != nil {
		return err
	}
	return ctx.JSON(result)
}

// DashboardStats godoc
// @Summary      Dashboard summary
// @Description  Totals, top five products by quantity sold and today's orders
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  report.DashboardStats
// @Router       /api/admin/stats [get]
func (c *ReportController) DashboardStats(ctx *fiber.Ctx) error {
	stats, err := c.reportService.DashboardStats(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(stats)
}
