package internal

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/dushixiang/lumen/internal/config"
	"github.com/dushixiang/lumen/internal/handler"
	"github.com/dushixiang/lumen/internal/middleware"
	"github.com/dushixiang/lumen/internal/models"
	"github.com/dushixiang/lumen/internal/service"
	"github.com/dushixiang/lumen/pkg/nostd"
	"github.com/dushixiang/lumen/web"
	"github.com/go-orz/orz"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func Run(configPath string) error {
	app := NewLumenApp()

	framework, err := orz.NewFramework(
		orz.WithConfig(configPath),
		orz.WithLoggerFromConfig(),
		orz.WithDatabase(),
		orz.WithHTTP(),
		orz.WithApplication(app),
	)
	if err != nil {
		return err
	}

	return framework.Run()
}

func NewLumenApp() orz.Application {
	return &LumenApp{}
}

var _ orz.Application = (*LumenApp)(nil)

type AppComponents struct {
	LogHandler       *handler.LogHandler
	SessionHandler   *handler.SessionHandler
	MetricsHandler   *handler.MetricsHandler
	SubscribeHandler *handler.SubscribeHandler
	AuthHandler      *handler.AuthHandler
	SetupHandler     *handler.SetupHandler

	AuthService    *service.AuthService
	SweeperService *service.SweeperService
}

type LumenApp struct {
	components *AppComponents
	conf       *config.Config
}

// GetComponents 获取应用组件
func (r *LumenApp) GetComponents() *AppComponents {
	return r.components
}

func (r *LumenApp) Configure(app *orz.App) error {
	logger := app.Logger()
	e := app.GetEcho()
	db := app.GetDatabase()

	var conf config.Config
	err := app.GetConfig().App.Unmarshal(&conf)
	if err != nil {
		return fmt.Errorf("failed to unmarshal config: %v", err)
	}

	components, err := InitializeApp(logger, db, &conf)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %v", err)
	}
	r.components = components
	r.conf = &conf

	if err := db.AutoMigrate(
		models.LLMLog{}, models.Session{}, models.SessionMessage{}, models.AdminUser{},
	); err != nil {
		logger.Fatal("database auto migrate failed", zap.Error(err))
	}

	if err := r.Init(logger); err != nil {
		logger.Fatal("app init failed", zap.Error(err))
	}

	e.HidePort = true
	e.HideBanner = true

	e.Use(echomiddleware.Gzip())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		Skipper:      echomiddleware.DefaultSkipper,
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
	}))
	e.Use(echomiddleware.RecoverWithConfig(echomiddleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			sugar := logger.Sugar()
			sugar.Error(fmt.Sprintf("[PANIC RECOVER] %v %s\n", err, stack))
			return err
		},
	}))
	e.Use(WithErrorHandler(logger))
	customValidator := nostd.CustomValidator{Validator: validator.New()}
	if err := customValidator.TransInit(); err != nil {
		logger.Sugar().Fatal("failed to init custom validator", zap.Error(err))
	}
	e.Validator = &customValidator

	e.Use(echomiddleware.StaticWithConfig(echomiddleware.StaticConfig{
		Skipper: func(c echo.Context) bool {
			path := c.Request().RequestURI
			if strings.HasPrefix(path, "/api") {
				return true
			}
			return false
		},
		Root:       "",
		Index:      "index.html",
		HTML5:      true,
		Browse:     false,
		IgnoreBase: false,
		Filesystem: http.FS(web.Assets()),
	}))

	api := e.Group("/api")
	{
		// 接入与查询接口（SDK上报、看板轮询，无需认证）
		r.components.LogHandler.RegisterRoutes(api)
		r.components.SessionHandler.RegisterRoutes(api)
		r.components.MetricsHandler.RegisterRoutes(api)
		r.components.SubscribeHandler.RegisterRoutes(api)

		// 初始化与登录接口
		r.components.SetupHandler.RegisterRoutes(api)
		r.components.AuthHandler.RegisterRoutes(api)

		// 需要认证的维护接口
		protected := api.Group("", middleware.JWTAuth(middleware.JWTAuthConfig{
			AuthService: r.components.AuthService,
			Logger:      logger,
		}))
		r.components.AuthHandler.RegisterProtectedRoutes(protected.Group("/auth"))
		r.components.LogHandler.RegisterProtectedRoutes(protected)
	}

	return nil
}

func (r *LumenApp) Init(logger *zap.Logger) error {
	logger.Info("=================================================")
	logger.Info("Lumen Usage Monitor Starting...")
	logger.Info("=================================================")

	components := r.GetComponents()
	if components == nil {
		return fmt.Errorf("components not initialized")
	}

	go func() {
		if err := components.SweeperService.Start(context.Background()); err != nil {
			logger.Error("sweeper error", zap.Error(err))
		}
	}()
	return nil
}
