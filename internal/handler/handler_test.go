package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/dushixiang/lumen/internal"
	"github.com/dushixiang/lumen/internal/handler"
	"github.com/dushixiang/lumen/internal/models"
	"github.com/dushixiang/lumen/internal/pubsub"
	"github.com/dushixiang/lumen/internal/service"
	"github.com/dushixiang/lumen/pkg/nostd"
	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestServer 搭建带完整路由和校验器的echo实例
func newTestServer(t *testing.T) (*echo.Echo, *pubsub.Hub) {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "lumen_test.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.LLMLog{},
		&models.Session{},
		&models.SessionMessage{},
	))

	log := zap.NewNop()
	hub := pubsub.NewHub(log)

	e := echo.New()
	cv := &nostd.CustomValidator{Validator: validator.New()}
	require.NoError(t, cv.TransInit())
	e.Validator = cv
	e.Use(internal.WithErrorHandler(log))

	api := e.Group("/api")
	handler.NewLogHandler(log, service.NewLogService(db, hub, log)).RegisterRoutes(api)
	handler.NewSessionHandler(log, service.NewSessionService(db, hub, log)).RegisterRoutes(api)
	handler.NewMetricsHandler(log, service.NewMetricsService(db, log)).RegisterRoutes(api)
	handler.NewSubscribeHandler(log, hub).RegisterRoutes(api)

	return e, hub
}

func doJSON(e *echo.Echo, method, path string, payload interface{}) *httptest.ResponseRecorder {
	var body *bytes.Reader
	if payload != nil {
		data, _ := json.Marshal(payload)
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	return result
}

func mustCreateLog(t *testing.T, e *echo.Echo, payload map[string]interface{}) string {
	t.Helper()
	rec := doJSON(e, http.MethodPost, "/api/logs", payload)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id, _ := decodeBody(t, rec)["id"].(string)
	require.NotEmpty(t, id)
	return id
}
