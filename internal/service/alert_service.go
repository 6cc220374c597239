package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dushixiang/lumen/internal/config"
	"github.com/dushixiang/lumen/internal/repo"
	"github.com/dushixiang/lumen/internal/telegram"
	"github.com/valyala/fasttemplate"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// alertMessageTemplate 费用告警消息模板
const alertMessageTemplate = `*Lumen 费用告警*

项目: {{project_id}}
今日费用: ${{daily_cost}}
告警阈值: ${{threshold}}
统计时间: {{date}}`

// AlertService 项目费用告警服务。
// 每日汇总各项目当天费用，超过阈值时通过Telegram通知。
type AlertService struct {
	logger *zap.Logger

	logRepo *repo.LLMLogRepo
	conf    config.AlertConf
	tg      *telegram.Telegram
}

// NewAlertService 创建告警服务
func NewAlertService(db *gorm.DB, conf *config.Config, tg *telegram.Telegram, logger *zap.Logger) *AlertService {
	return &AlertService{
		logger:  logger,
		logRepo: repo.NewLLMLogRepo(db),
		conf:    conf.Alert,
		tg:      tg,
	}
}

// CheckDailyCost 检查所有项目当天的费用，超过阈值则发送告警
func (s *AlertService) CheckDailyCost(ctx context.Context) error {
	if !s.conf.Enabled || s.conf.DailyCostThreshold <= 0 {
		return nil
	}

	projects, err := s.logRepo.DistinctProjects(ctx)
	if err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}

	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	for _, projectID := range projects {
		cost, err := s.logRepo.SumCostSince(ctx, projectID, dayStart)
		if err != nil {
			s.logger.Error("failed to sum daily cost",
				zap.String("project_id", projectID),
				zap.Error(err))
			continue
		}

		if cost < s.conf.DailyCostThreshold {
			continue
		}

		s.logger.Warn("daily cost threshold exceeded",
			zap.String("project_id", projectID),
			zap.Float64("daily_cost", cost),
			zap.Float64("threshold", s.conf.DailyCostThreshold))

		if err := s.notify(projectID, cost, dayStart); err != nil {
			// 通知失败只记录，不中断其他项目的检查
			s.logger.Error("failed to send cost alert",
				zap.String("project_id", projectID),
				zap.Error(err))
		}
	}

	return nil
}

// notify 渲染并发送告警消息
func (s *AlertService) notify(projectID string, cost float64, date time.Time) error {
	if s.tg == nil {
		return nil
	}

	tmpl := fasttemplate.New(alertMessageTemplate, "{{", "}}")
	msg := tmpl.ExecuteString(map[string]interface{}{
		"project_id": projectID,
		"daily_cost": fmt.Sprintf("%.4f", cost),
		"threshold":  fmt.Sprintf("%.2f", s.conf.DailyCostThreshold),
		"date":       date.Format("2006-01-02"),
	})

	return s.tg.Notify(s.conf.Telegram.ChatID, msg)
}
