package handler

import (
	"net/http"
	"time"

	"github.com/dushixiang/lumen/internal/models"
	"github.com/dushixiang/lumen/internal/repo"
	"github.com/dushixiang/lumen/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	defaultPageLimit = 100
	maxPageLimit     = 1000
)

// LogHandler 日志接入与查询处理器
type LogHandler struct {
	logger     *zap.Logger
	logService *service.LogService
}

// NewLogHandler 创建日志处理器
func NewLogHandler(logger *zap.Logger, logService *service.LogService) *LogHandler {
	return &LogHandler{
		logger:     logger,
		logService: logService,
	}
}

// CreateLogRequest 日志上报请求
type CreateLogRequest struct {
	ID               string                 `json:"id"`
	ProjectID        string                 `json:"project_id" validate:"required"`
	Environment      string                 `json:"environment"`
	Provider         string                 `json:"provider" validate:"required"`
	Model            string                 `json:"model" validate:"required"`
	PromptTokens     int                    `json:"prompt_tokens"`
	CompletionTokens int                    `json:"completion_tokens"`
	TotalTokens      int                    `json:"total_tokens"`
	Duration         int64                  `json:"duration" validate:"min=0"`
	Status           string                 `json:"status" validate:"required,oneof=success error"`
	StatusCode       int                    `json:"status_code"`
	ErrorMessage     string                 `json:"error_message"`
	ErrorType        string                 `json:"error_type"`
	ErrorCode        string                 `json:"error_code"`
	Cost             float64                `json:"cost"`
	Metadata         map[string]interface{} `json:"metadata"`
	Timestamp        *time.Time             `json:"timestamp"`
}

// Create 上报日志
// POST /api/logs
func (h *LogHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req CreateLogRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "请求参数错误",
		})
	}

	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": err.Error(),
		})
	}

	log := &models.LLMLog{
		ID:               req.ID,
		ProjectID:        req.ProjectID,
		Environment:      req.Environment,
		Provider:         req.Provider,
		Model:            req.Model,
		PromptTokens:     req.PromptTokens,
		CompletionTokens: req.CompletionTokens,
		TotalTokens:      req.TotalTokens,
		Duration:         req.Duration,
		Status:           req.Status,
		StatusCode:       req.StatusCode,
		ErrorMessage:     req.ErrorMessage,
		ErrorType:        req.ErrorType,
		ErrorCode:        req.ErrorCode,
		Cost:             req.Cost,
		Metadata:         datatypes.JSONMap(req.Metadata),
	}
	if req.Timestamp != nil {
		log.CreatedAt = *req.Timestamp
	}

	if err := h.logService.Ingest(ctx, log); err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success": true,
		"id":      log.ID,
	})
}

// List 分页查询日志
// GET /api/logs?project_id&provider&model&status&start_date&end_date&limit&skip
func (h *LogHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	q := repo.LogQuery{
		ProjectID: c.QueryParam("project_id"),
		Provider:  c.QueryParam("provider"),
		Model:     c.QueryParam("model"),
		Status:    c.QueryParam("status"),
		StartDate: parseDateParam(c.QueryParam("start_date")),
		EndDate:   parseDateParam(c.QueryParam("end_date")),
		Limit:     parseLimit(c.QueryParam("limit")),
		Skip:      cast.ToInt(c.QueryParam("skip")),
	}

	logs, total, err := h.logService.List(ctx, q)
	if err != nil {
		return err
	}

	if logs == nil {
		logs = []models.LLMLog{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"logs":  logs,
		"total": total,
		"limit": q.Limit,
		"skip":  q.Skip,
	})
}

// Get 查询单条日志
// GET /api/logs/:id
func (h *LogHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	log, err := h.logService.GetByID(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, log)
}

// Delete 删除单条日志（维护用途，需认证）
// DELETE /api/logs/:id
func (h *LogHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.logService.Delete(ctx, c.Param("id")); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
	})
}

// RegisterRoutes 注册公开路由
func (h *LogHandler) RegisterRoutes(g *echo.Group) {
	logs := g.Group("/logs")

	logs.POST("", h.Create)
	logs.GET("", h.List)
	logs.GET("/:id", h.Get)
}

// RegisterProtectedRoutes 注册需要认证的维护路由
func (h *LogHandler) RegisterProtectedRoutes(g *echo.Group) {
	g.DELETE("/logs/:id", h.Delete)
}

// parseDateParam 解析日期参数，支持 RFC3339 和 2006-01-02 两种格式
func parseDateParam(value string) *time.Time {
	if value == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return &t
	}
	return nil
}

// parseLimit 解析分页大小，限制在 [1, maxPageLimit]
func parseLimit(value string) int {
	limit := cast.ToInt(value)
	if limit <= 0 {
		return defaultPageLimit
	}
	if limit > maxPageLimit {
		return maxPageLimit
	}
	return limit
}
