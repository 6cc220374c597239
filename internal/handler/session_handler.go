package handler

import (
	"net/http"

	"github.com/dushixiang/lumen/internal/models"
	"github.com/dushixiang/lumen/internal/repo"
	"github.com/dushixiang/lumen/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// SessionHandler 会话处理器
type SessionHandler struct {
	logger         *zap.Logger
	sessionService *service.SessionService
}

// NewSessionHandler 创建会话处理器
func NewSessionHandler(logger *zap.Logger, sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{
		logger:         logger,
		sessionService: sessionService,
	}
}

// CreateSessionRequest 创建会话请求
type CreateSessionRequest struct {
	SessionID string                 `json:"session_id" validate:"required"`
	UserID    string                 `json:"user_id"`
	ProjectID string                 `json:"project_id" validate:"required"`
	Provider  string                 `json:"provider"`
	Model     string                 `json:"model"`
	Metadata  map[string]interface{} `json:"metadata"`
}

// AppendMessageRequest 追加消息请求
type AppendMessageRequest struct {
	ID               string  `json:"id"`
	Role             string  `json:"role" validate:"required,oneof=user assistant system"`
	Content          string  `json:"content"`
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	Cost             float64 `json:"cost"`
	Duration         int64   `json:"duration"`
}

// Create 创建会话
// POST /api/sessions
func (h *SessionHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req CreateSessionRequest
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

	session := &models.Session{
		ID:        req.SessionID,
		UserID:    req.UserID,
		ProjectID: req.ProjectID,
		Provider:  req.Provider,
		Model:     req.Model,
		Metadata:  datatypes.JSONMap(req.Metadata),
	}

	if err := h.sessionService.Create(ctx, session); err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success": true,
		"session": session,
	})
}

// AppendMessage 追加消息
// POST /api/sessions/:sessionId/messages
func (h *SessionHandler) AppendMessage(c echo.Context) error {
	ctx := c.Request().Context()

	var req AppendMessageRequest
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

	message := &models.SessionMessage{
		ID:               req.ID,
		Role:             req.Role,
		Content:          req.Content,
		PromptTokens:     req.PromptTokens,
		CompletionTokens: req.CompletionTokens,
		Cost:             req.Cost,
		Duration:         req.Duration,
	}

	session, err := h.sessionService.AppendMessage(ctx, c.Param("sessionId"), message)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"session": session,
	})
}

// Get 查询会话
// GET /api/sessions/:sessionId
func (h *SessionHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	session, err := h.sessionService.GetByID(ctx, c.Param("sessionId"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, session)
}

// List 分页查询会话
// GET /api/sessions?project_id&user_id&status&start_date&end_date&limit&skip
func (h *SessionHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	q := repo.SessionQuery{
		ProjectID: c.QueryParam("project_id"),
		UserID:    c.QueryParam("user_id"),
		Status:    c.QueryParam("status"),
		StartDate: parseDateParam(c.QueryParam("start_date")),
		EndDate:   parseDateParam(c.QueryParam("end_date")),
		Limit:     parseLimit(c.QueryParam("limit")),
		Skip:      cast.ToInt(c.QueryParam("skip")),
	}

	sessions, total, err := h.sessionService.List(ctx, q)
	if err != nil {
		return err
	}

	if sessions == nil {
		sessions = []models.Session{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"sessions": sessions,
		"total":    total,
		"limit":    q.Limit,
		"skip":     q.Skip,
	})
}

// Complete 结束会话
// PATCH /api/sessions/:sessionId/complete
func (h *SessionHandler) Complete(c echo.Context) error {
	ctx := c.Request().Context()

	session, err := h.sessionService.Complete(ctx, c.Param("sessionId"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"session": session,
	})
}

// Delete 删除会话
// DELETE /api/sessions/:sessionId
func (h *SessionHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.sessionService.Delete(ctx, c.Param("sessionId")); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
	})
}

// RegisterRoutes 注册路由
func (h *SessionHandler) RegisterRoutes(g *echo.Group) {
	sessions := g.Group("/sessions")

	sessions.POST("", h.Create)
	sessions.GET("", h.List)
	sessions.GET("/:sessionId", h.Get)
	sessions.POST("/:sessionId/messages", h.AppendMessage)
	sessions.PATCH("/:sessionId/complete", h.Complete)
	sessions.DELETE("/:sessionId", h.Delete)
}
