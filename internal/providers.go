package internal

import (
	"net/http"
	"time"

	"github.com/dushixiang/lumen/internal/config"
	"github.com/dushixiang/lumen/internal/pubsub"
	"github.com/dushixiang/lumen/internal/service"
	"github.com/dushixiang/lumen/internal/telegram"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const telegramHTTPTimeout = 10 * time.Second

// provideBroadcaster 以Hub实现事件广播接口
func provideBroadcaster(hub *pubsub.Hub) pubsub.Broadcaster {
	return hub
}

// provideTelegram provides telegram instance
func provideTelegram(logger *zap.Logger, conf *config.Config) *telegram.Telegram {
	if !conf.Alert.Enabled || conf.Alert.Telegram.Token == "" {
		return nil
	}

	httpClient := &http.Client{Timeout: telegramHTTPTimeout}

	tg, err := telegram.NewTelegram(logger, telegram.Settings{
		Token:  conf.Alert.Telegram.Token,
		Client: httpClient,
	})
	if err != nil {
		logger.Error("failed to init telegram", zap.Error(err))
		return nil
	}

	tg.Start()
	return tg
}

// provideAuthService provides auth service with configured secret
func provideAuthService(logger *zap.Logger, db *gorm.DB, conf *config.Config) *service.AuthService {
	return service.NewAuthService(logger, db, conf.Auth.JWTSecret)
}
