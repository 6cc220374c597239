package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dushixiang/lumen/internal/config"
	"github.com/dushixiang/lumen/internal/repo"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultIdleMinutes   = 30
	defaultSweepCronSpec = "*/5 * * * *" // 每5分钟
	defaultAlertCronSpec = "0 0 * * *"   // 每天0点
)

// SweeperService 后台调度器：定期把空闲的活跃会话标记为废弃，
// 并驱动每日费用告警检查。
type SweeperService struct {
	config       config.SessionConf
	sessionRepo  *repo.SessionRepo
	alertService *AlertService
	logger       *zap.Logger

	isRunning atomic.Bool
	stopChan  chan struct{}
	cron      *cron.Cron
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewSweeperService 创建后台调度器
func NewSweeperService(
	db *gorm.DB,
	conf *config.Config,
	alertService *AlertService,
	logger *zap.Logger,
) *SweeperService {
	return &SweeperService{
		config:       conf.Session,
		sessionRepo:  repo.NewSessionRepo(db),
		alertService: alertService,
		logger:       logger,
		stopChan:     make(chan struct{}),
	}
}

// Start 启动调度器，阻塞直到 Stop 或 ctx 取消
func (t *SweeperService) Start(ctx context.Context) error {
	if t.isRunning.Load() {
		return fmt.Errorf("sweeper is already running")
	}

	t.isRunning.Store(true)
	t.ctx, t.cancel = context.WithCancel(ctx)

	sweepSpec := t.config.SweepCronSpec
	if sweepSpec == "" {
		sweepSpec = defaultSweepCronSpec
	}
	alertSpec := t.config.AlertCronSpec
	if alertSpec == "" {
		alertSpec = defaultAlertCronSpec
	}

	t.logger.Info("sweeper started",
		zap.String("sweep_cron", sweepSpec),
		zap.String("alert_cron", alertSpec),
		zap.Int("idle_minutes", t.idleMinutes()))

	t.cron = cron.New()

	_, err := t.cron.AddFunc(sweepSpec, func() {
		if err := t.sweepIdleSessions(context.Background()); err != nil {
			t.logger.Error("session sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		t.isRunning.Store(false)
		return fmt.Errorf("failed to add sweep job: %w", err)
	}

	_, err = t.cron.AddFunc(alertSpec, func() {
		if err := t.alertService.CheckDailyCost(context.Background()); err != nil {
			t.logger.Error("daily cost check failed", zap.Error(err))
		}
	})
	if err != nil {
		t.isRunning.Store(false)
		return fmt.Errorf("failed to add alert job: %w", err)
	}

	t.cron.Start()

	// 监听外部ctx而不是派生的t.ctx，Stop 触发的cancel不会惊动这里
	select {
	case <-t.stopChan:
		t.logger.Info("sweeper stopped by user")
		return nil
	case <-ctx.Done():
		t.logger.Info("sweeper stopped by context")
		return ctx.Err()
	}
}

// Stop 停止调度器
func (t *SweeperService) Stop() {
	if !t.isRunning.Load() {
		return
	}

	if t.cron != nil {
		ctx := t.cron.Stop()
		<-ctx.Done() // 等待进行中的任务完成
	}

	if t.cancel != nil {
		t.cancel()
	}

	t.isRunning.Store(false)
	close(t.stopChan)
	t.logger.Info("sweeper stopped")
}

// IsRunning 调度器是否在运行
func (t *SweeperService) IsRunning() bool {
	return t.isRunning.Load()
}

// sweepIdleSessions 将超过空闲窗口的活跃会话标记为废弃
func (t *SweeperService) sweepIdleSessions(ctx context.Context) error {
	cutoff := time.Now().Add(-time.Duration(t.idleMinutes()) * time.Minute)

	affected, err := t.sessionRepo.MarkAbandoned(ctx, cutoff)
	if err != nil {
		return err
	}
	if affected > 0 {
		t.logger.Info("idle sessions marked abandoned",
			zap.Int64("count", affected),
			zap.Time("cutoff", cutoff))
	}
	return nil
}

func (t *SweeperService) idleMinutes() int {
	if t.config.IdleMinutes <= 0 {
		return defaultIdleMinutes
	}
	return t.config.IdleMinutes
}
