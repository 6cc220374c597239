package handler

import (
	"net/http"

	"github.com/dushixiang/lumen/internal/repo"
	"github.com/dushixiang/lumen/internal/service"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// MetricsHandler 指标查询处理器，供看板轮询
type MetricsHandler struct {
	logger         *zap.Logger
	metricsService *service.MetricsService
}

// NewMetricsHandler 创建指标处理器
func NewMetricsHandler(logger *zap.Logger, metricsService *service.MetricsService) *MetricsHandler {
	return &MetricsHandler{
		logger:         logger,
		metricsService: metricsService,
	}
}

// Summary 汇总统计
// GET /api/metrics/summary?project_id&start_date&end_date
func (h *MetricsHandler) Summary(c echo.Context) error {
	ctx := c.Request().Context()

	summary, err := h.metricsService.Summary(ctx, h.filter(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, summary)
}

// ByProvider 按供应商/模型分组统计
// GET /api/metrics/by-provider?project_id&start_date&end_date
func (h *MetricsHandler) ByProvider(c echo.Context) error {
	ctx := c.Request().Context()

	rows, err := h.metricsService.ByProvider(ctx, h.filter(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"count":     len(rows),
		"breakdown": rows,
	})
}

// TimeSeries 时间序列统计
// GET /api/metrics/timeseries?project_id&interval=hour|day
func (h *MetricsHandler) TimeSeries(c echo.Context) error {
	ctx := c.Request().Context()

	rows, err := h.metricsService.TimeSeries(ctx, h.filter(c), c.QueryParam("interval"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"count":   len(rows),
		"buckets": rows,
	})
}

func (h *MetricsHandler) filter(c echo.Context) repo.MetricsFilter {
	return repo.MetricsFilter{
		ProjectID: c.QueryParam("project_id"),
		StartDate: parseDateParam(c.QueryParam("start_date")),
		EndDate:   parseDateParam(c.QueryParam("end_date")),
	}
}

// RegisterRoutes 注册路由
func (h *MetricsHandler) RegisterRoutes(g *echo.Group) {
	metrics := g.Group("/metrics")

	metrics.GET("/summary", h.Summary)
	metrics.GET("/by-provider", h.ByProvider)
	metrics.GET("/timeseries", h.TimeSeries)
}
