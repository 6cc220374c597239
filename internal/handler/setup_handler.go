package handler

import (
	"net/http"

	"github.com/dushixiang/lumen/internal/models"
	"github.com/dushixiang/lumen/internal/service"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// SetupHandler 初始化处理器，首次启动时创建管理员账号
type SetupHandler struct {
	logger      *zap.Logger
	authService *service.AuthService
}

// NewSetupHandler 创建初始化处理器
func NewSetupHandler(logger *zap.Logger, authService *service.AuthService) *SetupHandler {
	return &SetupHandler{
		logger:      logger,
		authService: authService,
	}
}

// InitialSetupRequest 初始化请求
type InitialSetupRequest struct {
	Username    string `json:"username" validate:"required,min=3"`
	Password    string `json:"password" validate:"required,min=5"`
	DisplayName string `json:"display_name"`
}

// CheckSetupStatus 查询是否需要初始化
// GET /api/setup/status
func (h *SetupHandler) CheckSetupStatus(c echo.Context) error {
	ctx := c.Request().Context()

	needsSetup, err := h.authService.NeedsSetup(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"needs_setup": needsSetup,
	})
}

// InitialSetup 创建首个管理员账号，已初始化过则拒绝
// POST /api/setup/init
func (h *SetupHandler) InitialSetup(c echo.Context) error {
	ctx := c.Request().Context()

	needsSetup, err := h.authService.NeedsSetup(ctx)
	if err != nil {
		return err
	}
	if !needsSetup {
		return c.JSON(http.StatusForbidden, map[string]interface{}{
			"error": "系统已初始化",
		})
	}

	var req InitialSetupRequest
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

	displayName := req.DisplayName
	if displayName == "" {
		displayName = req.Username
	}

	if err := h.authService.CreateUser(ctx, req.Username, req.Password, displayName, models.AdminRoleAdmin); err != nil {
		return err
	}

	h.logger.Info("initial setup completed", zap.String("username", req.Username))

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success": true,
	})
}

// RegisterRoutes 注册路由
func (h *SetupHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/setup/status", h.CheckSetupStatus)
	g.POST("/setup/init", h.InitialSetup)
}
