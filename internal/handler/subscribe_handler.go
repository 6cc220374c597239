package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dushixiang/lumen/internal/pubsub"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// SubscribeHandler 事件订阅处理器，以SSE推送项目事件
type SubscribeHandler struct {
	logger *zap.Logger
	hub    *pubsub.Hub
}

// NewSubscribeHandler 创建订阅处理器
func NewSubscribeHandler(logger *zap.Logger, hub *pubsub.Hub) *SubscribeHandler {
	return &SubscribeHandler{
		logger: logger,
		hub:    hub,
	}
}

// Subscribe 订阅项目事件流。无送达与顺序保证，连接断开即取消订阅。
// GET /api/subscribe?project_id=xxx
func (h *SubscribeHandler) Subscribe(c echo.Context) error {
	projectID := c.QueryParam("project_id")
	if projectID == "" {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "project_id is required",
		})
	}

	events, cancel := h.hub.Subscribe(projectID)
	defer cancel()

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)
	resp.Flush()

	h.logger.Debug("subscriber connected", zap.String("project_id", projectID))

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			h.logger.Debug("subscriber disconnected", zap.String("project_id", projectID))
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			data, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("failed to marshal event", zap.Error(err))
				continue
			}
			if _, err := fmt.Fprintf(resp, "event: %s\ndata: %s\n\n", event.Type, data); err != nil {
				return nil
			}
			resp.Flush()
		}
	}
}

// RegisterRoutes 注册路由
func (h *SubscribeHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/subscribe", h.Subscribe)
}
