//go:build wireinject
// +build wireinject

package internal

import (
	"github.com/dushixiang/lumen/internal/config"
	"github.com/dushixiang/lumen/internal/handler"
	"github.com/dushixiang/lumen/internal/pubsub"
	"github.com/dushixiang/lumen/internal/service"
	"github.com/google/wire"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	handlerSet = wire.NewSet(
		handler.NewLogHandler,
		handler.NewSessionHandler,
		handler.NewMetricsHandler,
		handler.NewSubscribeHandler,
		handler.NewAuthHandler,
		handler.NewSetupHandler,
	)

	serviceSet = wire.NewSet(
		pubsub.NewHub,
		provideBroadcaster,
		provideTelegram,
		provideAuthService,
		service.NewLogService,
		service.NewSessionService,
		service.NewMetricsService,
		service.NewAlertService,
		service.NewSweeperService,
	)
)

// InitializeApp 初始化应用
func InitializeApp(logger *zap.Logger, db *gorm.DB, conf *config.Config) (*AppComponents, error) {
	wire.Build(
		handlerSet,
		serviceSet,
		wire.Struct(new(AppComponents), "*"),
	)
	return nil, nil
}
